package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DeadlineLayout is the wall-clock format users type deadlines in (dd.mm.yyyy hh:mm).
const DeadlineLayout = "02.01.2006 15:04"

// ParseDeadline reads a deadline in local time.
func ParseDeadline(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DeadlineLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, InvalidFormat("deadline must look like dd.mm.yyyy hh:mm", err)
	}
	return t, nil
}

// FormatDeadline renders a deadline the same way it is typed.
func FormatDeadline(t time.Time) string {
	return t.In(time.Local).Format(DeadlineLayout)
}

// ParseReminderMinutes turns an optional minutes string into an offset.
// Empty input and "0" both mean no reminder.
func ParseReminderMinutes(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	minutes, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, InvalidFormat("reminder must be a number of minutes", err)
	}
	return ReminderOffset(minutes)
}

// maxReminderMinutes keeps minutes * time.Minute inside time.Duration.
const maxReminderMinutes = math.MaxInt64 / int64(time.Minute)

// ReminderOffset converts a minute count into a reminder offset.
func ReminderOffset(minutes int64) (time.Duration, error) {
	if minutes < 0 || minutes > maxReminderMinutes {
		return 0, InvalidFormat("reminder must be a number of minutes", nil)
	}
	return time.Duration(minutes) * time.Minute, nil
}

// ParseTaskID parses a user supplied task identifier.
func ParseTaskID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, InvalidFormat("task id must be a positive number", err)
	}
	return id, nil
}

// FormatRemaining renders the time left before a deadline, rounded to the minute.
func FormatRemaining(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	d = d.Round(time.Minute)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	s := strings.TrimSuffix(d.String(), "0s")
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	if days > 0 {
		if s == "" {
			return strconv.Itoa(int(days)) + "d"
		}
		return strconv.Itoa(int(days)) + "d" + s
	}
	return s
}
