package models

// ReminderKind is the tier of a reminder.
type ReminderKind string

const (
	ReminderUrgent  ReminderKind = "urgent"
	ReminderOverdue ReminderKind = "overdue"
	ReminderBehind  ReminderKind = "behind"
	ReminderWarning ReminderKind = "warning"
	ReminderSuccess ReminderKind = "success"
)

// Severity is how loudly a reminder should be shown.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
)

// ReminderEvent is recomputed on every evaluation and never stored.
type ReminderEvent struct {
	GroupID  int64        `json:"group_id"`
	Kind     ReminderKind `json:"type"`
	Severity Severity     `json:"severity"`
	Message  string       `json:"message"`
}
