package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadbook_backend/internal/events"
	usersrepo "leadbook_backend/internal/users/repository"
	"leadbook_backend/platform/logger"
)

type sentMail struct {
	kind    string
	toEmail string
	lead    string
}

type fakeSender struct {
	sent []sentMail
}

func (f *fakeSender) SendLeadAssignedEmail(_ context.Context, toEmail, _, leadName, _ string) error {
	f.sent = append(f.sent, sentMail{kind: "assigned", toEmail: toEmail, lead: leadName})
	return nil
}

func (f *fakeSender) SendFollowUpReminderEmail(_ context.Context, toEmail, _, leadName, _ string) error {
	f.sent = append(f.sent, sentMail{kind: "reminder", toEmail: toEmail, lead: leadName})
	return nil
}

type fakeUsers struct {
	users map[uuid.UUID]usersrepo.User
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (usersrepo.User, error) {
	user, ok := f.users[id]
	if !ok {
		return usersrepo.User{}, usersrepo.ErrNotFound
	}
	return user, nil
}

type fakeScheduler struct {
	scheduled []uuid.UUID
	delays    []time.Duration
}

func (f *fakeScheduler) ScheduleFollowUpReminder(_ context.Context, leadID uuid.UUID, delay time.Duration) error {
	f.scheduled = append(f.scheduled, leadID)
	f.delays = append(f.delays, delay)
	return nil
}

func TestLeadAssignedSendsEmail(t *testing.T) {
	assigneeID := uuid.New()
	sender := &fakeSender{}
	users := &fakeUsers{users: map[uuid.UUID]usersrepo.User{
		assigneeID: {ID: assigneeID, Name: "Rep", Email: "rep@example.com", Tier: 4},
	}}
	module := NewModule(sender, users, &fakeScheduler{}, logger.New("test"))

	err := module.Handle(context.Background(), events.LeadAssigned{
		LeadID:     uuid.New(),
		LeadName:   "Ravi Kumar",
		LeadPhone:  "+919876543210",
		AssigneeID: assigneeID,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	if sender.sent[0].kind != "assigned" || sender.sent[0].toEmail != "rep@example.com" {
		t.Errorf("unexpected email %+v", sender.sent[0])
	}
}

func TestFollowUpStatusSchedulesReminder(t *testing.T) {
	scheduler := &fakeScheduler{}
	module := NewModule(&fakeSender{}, &fakeUsers{}, scheduler, logger.New("test"))

	leadID := uuid.New()
	err := module.Handle(context.Background(), events.LeadStatusChanged{
		LeadID:    leadID,
		OldStatus: "contacted",
		NewStatus: "follow-up",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(scheduler.scheduled) != 1 || scheduler.scheduled[0] != leadID {
		t.Fatalf("expected reminder for %s, got %v", leadID, scheduler.scheduled)
	}
	if scheduler.delays[0] != followUpReminderDelay {
		t.Errorf("delay = %v, want %v", scheduler.delays[0], followUpReminderDelay)
	}
}

func TestOtherStatusesDoNotSchedule(t *testing.T) {
	scheduler := &fakeScheduler{}
	module := NewModule(&fakeSender{}, &fakeUsers{}, scheduler, logger.New("test"))

	for _, status := range []string{"contacted", "qualified", "lost", "converted"} {
		err := module.Handle(context.Background(), events.LeadStatusChanged{
			LeadID:    uuid.New(),
			NewStatus: status,
		})
		if err != nil {
			t.Fatalf("Handle(%s): %v", status, err)
		}
	}

	if len(scheduler.scheduled) != 0 {
		t.Fatalf("no reminders expected, got %d", len(scheduler.scheduled))
	}
}

func TestNilSchedulerIsSkipped(t *testing.T) {
	module := NewModule(&fakeSender{}, &fakeUsers{}, nil, logger.New("test"))

	err := module.Handle(context.Background(), events.LeadStatusChanged{
		LeadID:    uuid.New(),
		NewStatus: "follow-up",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
}
