package scheduler

import (
	"context"
	"errors"
	"fmt"

	"leadbook_backend/internal/email"
	leadsrepo "leadbook_backend/internal/leads/repository"
	usersrepo "leadbook_backend/internal/users/repository"
	"leadbook_backend/platform/config"
	"leadbook_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// leadSource loads leads for reminder processing.
type leadSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (leadsrepo.Lead, error)
}

// userSource resolves reminder recipients.
type userSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (usersrepo.User, error)
}

// Worker consumes scheduled tasks. A reminder fires only when the lead is
// still in follow-up with an assignee; stale reminders are dropped silently.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	leads  leadSource
	users  userSource
	mail   email.Sender
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, mail email.Sender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		leads:  leadsrepo.New(pool),
		users:  usersrepo.New(pool),
		mail:   mail,
		log:    log,
	}

	mux.HandleFunc(TaskFollowUpReminder, w.handleFollowUpReminder)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleFollowUpReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpReminderPayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	lead, err := w.leads.GetByID(ctx, leadID)
	if errors.Is(err, leadsrepo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	// The lead may have moved on since the reminder was scheduled.
	if lead.Status != "follow-up" || lead.AssignedToUserID == nil {
		return nil
	}

	assignee, err := w.users.GetByID(ctx, *lead.AssignedToUserID)
	if errors.Is(err, usersrepo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !assignee.IsActive {
		return nil
	}

	if err := w.mail.SendFollowUpReminderEmail(ctx, assignee.Email, assignee.Name, lead.Name, lead.Phone); err != nil {
		w.log.Error("follow-up reminder email failed", "error", err, "leadId", lead.ID)
		return err
	}

	w.log.LeadEvent("follow_up_reminder_sent", lead.ID.String())
	return nil
}
