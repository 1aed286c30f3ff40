package transport

// TaskRequest creates a task through the HTTP API. Deadline uses the chat
// format (dd.mm.yyyy hh:mm) or RFC3339.
type TaskRequest struct {
	Text            string `json:"text"`
	Deadline        string `json:"deadline"`
	ReminderMinutes int64  `json:"reminder_minutes"`
}
