package domain

import (
	"strings"
	"time"
)

// Task represents a user-owned item with a deadline and an optional reminder.
type Task struct {
	ID         int64      `json:"id"`
	Owner      int64      `json:"owner"`
	Text       string     `json:"text"`
	Deadline   time.Time  `json:"deadline"`
	CreatedAt  time.Time  `json:"created_at"`
	ReminderAt *time.Time `json:"reminder_at,omitempty"`
	Completed  bool       `json:"completed"`
}

// Status is the listing view of a task at a given moment.
type Status string

const (
	StatusActive    Status = "active"
	StatusOverdue   Status = "overdue"
	StatusCompleted Status = "completed"
)

// NewTask validates the input and derives the reminder time from offset.
// A zero offset means no reminder.
func NewTask(owner int64, text string, deadline time.Time, offset time.Duration, now time.Time) (*Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, InvalidFormat("task text is empty", nil)
	}
	if deadline.IsZero() {
		return nil, InvalidFormat("deadline is required", nil)
	}
	if offset < 0 {
		return nil, InvalidFormat("reminder offset must be positive", nil)
	}

	t := &Task{
		Owner:     owner,
		Text:      text,
		Deadline:  deadline,
		CreatedAt: now,
	}
	if offset > 0 {
		at := deadline.Add(-offset)
		t.ReminderAt = &at
	}
	return t, nil
}

// Validate checks the entity invariants independent of how the task was built.
func (t *Task) Validate() error {
	if t == nil {
		return ErrInvalidPayload
	}
	if strings.TrimSpace(t.Text) == "" {
		return InvalidFormat("task text is empty", nil)
	}
	if t.Deadline.IsZero() {
		return InvalidFormat("deadline is required", nil)
	}
	if t.ReminderAt != nil && !t.ReminderAt.Before(t.Deadline) {
		return InvalidFormat("reminder must be before the deadline", nil)
	}
	return nil
}

// StatusAt reports how the task should be shown at now.
func (t *Task) StatusAt(now time.Time) Status {
	switch {
	case t.Completed:
		return StatusCompleted
	case !t.Deadline.After(now):
		return StatusOverdue
	default:
		return StatusActive
	}
}

// Clone returns a deep copy safe to hand outside the store.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.ReminderAt != nil {
		at := *t.ReminderAt
		c.ReminderAt = &at
	}
	return &c
}
