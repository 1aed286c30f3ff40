package domain

import (
	"fmt"
	"time"
)

// DeadlineMessage is sent to the owner once the deadline has passed.
func DeadlineMessage(text string) string {
	return fmt.Sprintf("🔔 Reminder about task: %s", text)
}

// ReminderMessage is sent to the owner when the reminder time has passed.
func ReminderMessage(text string, deadline time.Time) string {
	return fmt.Sprintf("⏳ Don't forget to complete: %s\nDeadline: %s", text, FormatDeadline(deadline))
}
