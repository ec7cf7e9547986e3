// Package notification subscribes to domain events and turns them into
// outbound notifications. Domain modules publish events and stay unaware of
// email providers or reminder scheduling.
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"leadbook_backend/internal/email"
	"leadbook_backend/internal/events"
	usersrepo "leadbook_backend/internal/users/repository"
	"leadbook_backend/platform/logger"
)

// followUpReminderDelay is how long a lead may sit in follow-up before the
// assignee is reminded.
const followUpReminderDelay = 24 * time.Hour

// UserLookup resolves notification recipients.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (usersrepo.User, error)
}

// ReminderScheduler enqueues delayed follow-up reminders.
type ReminderScheduler interface {
	ScheduleFollowUpReminder(ctx context.Context, leadID uuid.UUID, delay time.Duration) error
}

// Module wires lead lifecycle events to emails and scheduled reminders.
type Module struct {
	mail      email.Sender
	users     UserLookup
	scheduler ReminderScheduler
	log       *logger.Logger
}

// NewModule creates the notification module. The scheduler may be nil when no
// task queue is configured; follow-up reminders are then skipped.
func NewModule(mail email.Sender, users UserLookup, scheduler ReminderScheduler, log *logger.Logger) *Module {
	return &Module{
		mail:      mail,
		users:     users,
		scheduler: scheduler,
		log:       log,
	}
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadAssigned{}.EventName(), m)
	bus.Subscribe(events.LeadStatusChanged{}.EventName(), m)
	bus.Subscribe(events.LeadConverted{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadAssigned:
		return m.handleLeadAssigned(ctx, e)
	case events.LeadStatusChanged:
		return m.handleLeadStatusChanged(ctx, e)
	case events.LeadConverted:
		m.log.LeadEvent("notified_lead_converted", e.LeadID.String())
		return nil
	default:
		return nil
	}
}

func (m *Module) handleLeadAssigned(ctx context.Context, e events.LeadAssigned) error {
	assignee, err := m.users.GetByID(ctx, e.AssigneeID)
	if err != nil {
		m.log.Error("assignee lookup for notification failed", "error", err, "userId", e.AssigneeID)
		return err
	}

	if err := m.mail.SendLeadAssignedEmail(ctx, assignee.Email, assignee.Name, e.LeadName, e.LeadPhone); err != nil {
		m.log.Error("lead assigned email failed", "error", err, "leadId", e.LeadID)
		return err
	}

	m.log.LeadEvent("notified_lead_assigned", e.LeadID.String())
	return nil
}

func (m *Module) handleLeadStatusChanged(ctx context.Context, e events.LeadStatusChanged) error {
	if e.NewStatus != "follow-up" || m.scheduler == nil {
		return nil
	}

	if err := m.scheduler.ScheduleFollowUpReminder(ctx, e.LeadID, followUpReminderDelay); err != nil {
		m.log.Error("follow-up reminder scheduling failed", "error", err, "leadId", e.LeadID)
		return err
	}

	m.log.LeadEvent("follow_up_reminder_scheduled", e.LeadID.String())
	return nil
}

var _ events.Handler = (*Module)(nil)
