// Package email delivers transactional notifications over SMTP.
package email

import "context"

// Sender delivers the notification emails the lead lifecycle produces.
type Sender interface {
	// SendLeadAssignedEmail notifies a user that a lead was routed to them.
	SendLeadAssignedEmail(ctx context.Context, toEmail, assigneeName, leadName, leadPhone string) error
	// SendFollowUpReminderEmail reminds the assignee about a lead parked in
	// follow-up.
	SendFollowUpReminderEmail(ctx context.Context, toEmail, assigneeName, leadName, leadPhone string) error
}

// NoopSender is used when email delivery is disabled by configuration.
type NoopSender struct{}

func (NoopSender) SendLeadAssignedEmail(ctx context.Context, toEmail, assigneeName, leadName, leadPhone string) error {
	return nil
}

func (NoopSender) SendFollowUpReminderEmail(ctx context.Context, toEmail, assigneeName, leadName, leadPhone string) error {
	return nil
}

var _ Sender = NoopSender{}
