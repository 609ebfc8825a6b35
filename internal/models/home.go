package models

// DashboardData is the top-level struct for the /api/home response.
type DashboardData struct {
	Groups    []*Group           `json:"groups"`
	Progress  []*ReadingProgress `json:"progress"`
	Reminders []*ReminderEvent   `json:"reminders"`
}
