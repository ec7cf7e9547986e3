package email

const (
	subjectLeadAssigned     = "New lead assigned to you"
	subjectFollowUpReminder = "Reminder: lead waiting for follow-up"
)
