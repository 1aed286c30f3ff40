package domain

import "time"

// Action is the notification a task needs on a given tick.
type Action int

const (
	ActionNone Action = iota
	ActionFireReminder
	ActionFireDeadline
)

func (a Action) String() string {
	switch a {
	case ActionFireReminder:
		return "reminder"
	case ActionFireDeadline:
		return "deadline"
	default:
		return "none"
	}
}

// Decision is the outcome of evaluating one task against the clock.
type Decision struct {
	Action Action
	TaskID int64
	Owner  int64
	Text   string
	// Deadline is carried for the reminder template.
	Deadline time.Time
}

// Due reports whether a notification must be sent.
func (d Decision) Due() bool {
	return d.Action != ActionNone
}

// Message renders the notification text for the decision.
func (d Decision) Message() string {
	switch d.Action {
	case ActionFireDeadline:
		return DeadlineMessage(d.Text)
	case ActionFireReminder:
		return ReminderMessage(d.Text, d.Deadline)
	default:
		return ""
	}
}

// Evaluate decides what a task needs at now. The deadline check wins over the
// reminder check, so a task whose reminder and deadline both elapsed between
// ticks only gets the deadline notification. Completed tasks are never due.
func Evaluate(t *Task, now time.Time) Decision {
	d := Decision{Action: ActionNone}
	if t == nil || t.Completed {
		return d
	}
	d.TaskID = t.ID
	d.Owner = t.Owner
	d.Text = t.Text
	d.Deadline = t.Deadline

	switch {
	case !t.Deadline.After(now):
		d.Action = ActionFireDeadline
	case t.ReminderAt != nil && !t.ReminderAt.After(now):
		d.Action = ActionFireReminder
	}
	return d
}
