package deadletter

import (
	"time"

	"github.com/google/uuid"
)

// Entry is a notification the notifier failed to deliver.
type Entry struct {
	ID       string    `json:"id"`
	TaskID   int64     `json:"task_id"`
	Owner    int64     `json:"owner"`
	Action   string    `json:"action"`
	Message  string    `json:"message"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`

	bucketKey []byte
}

func (e *Entry) normalize() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.FailedAt.IsZero() {
		e.FailedAt = time.Now()
	}
}
