package domain

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestParseDeadline(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		is := is.New(t)
		got, err := ParseDeadline("25.10.2026 18:00")
		is.NoErr(err)
		is.Equal(got, time.Date(2026, 10, 25, 18, 0, 0, 0, time.Local))
		is.Equal(FormatDeadline(got), "25.10.2026 18:00")
	})

	for _, in := range []string{"", "2026-10-25 18:00", "25.10.2026", "32.10.2026 18:00", "25.10.2026 25:00"} {
		t.Run("invalid "+in, func(t *testing.T) {
			is := is.New(t)
			_, err := ParseDeadline(in)
			is.True(IsDomainError(err, ErrCodeInvalid))
		})
	}
}

func TestParseReminderMinutes(t *testing.T) {
	is := is.New(t)

	d, err := ParseReminderMinutes("")
	is.NoErr(err)
	is.Equal(d, time.Duration(0))

	d, err = ParseReminderMinutes("30")
	is.NoErr(err)
	is.Equal(d, 30*time.Minute)

	d, err = ParseReminderMinutes("0")
	is.NoErr(err)
	is.Equal(d, time.Duration(0))

	_, err = ParseReminderMinutes("soon")
	is.True(IsDomainError(err, ErrCodeInvalid))

	_, err = ParseReminderMinutes("-5")
	is.True(IsDomainError(err, ErrCodeInvalid))

	// large values must not wrap around time.Duration
	for _, in := range []string{"307445736", "153722867280912931", "99999999999999999999"} {
		_, err = ParseReminderMinutes(in)
		is.True(IsDomainError(err, ErrCodeInvalid))
	}

	d, err = ParseReminderMinutes("153722867")
	is.NoErr(err)
	is.Equal(d, 153722867*time.Minute)
}

func TestReminderOffset(t *testing.T) {
	is := is.New(t)

	d, err := ReminderOffset(90)
	is.NoErr(err)
	is.Equal(d, 90*time.Minute)

	_, err = ReminderOffset(-1)
	is.True(IsDomainError(err, ErrCodeInvalid))

	_, err = ReminderOffset(maxReminderMinutes + 1)
	is.True(IsDomainError(err, ErrCodeInvalid))
}

func TestParseTaskID(t *testing.T) {
	is := is.New(t)

	id, err := ParseTaskID(" 42 ")
	is.NoErr(err)
	is.Equal(id, int64(42))

	for _, in := range []string{"", "abc", "0", "-1"} {
		_, err := ParseTaskID(in)
		is.True(IsDomainError(err, ErrCodeInvalid))
	}
}

func TestFormatRemaining(t *testing.T) {
	is := is.New(t)
	is.Equal(FormatRemaining(30*time.Second), "less than a minute")
	is.Equal(FormatRemaining(20*time.Minute), "20m")
	is.Equal(FormatRemaining(80*time.Minute+10*time.Second), "1h20m")
	is.Equal(FormatRemaining(26*time.Hour+5*time.Minute), "1d2h5m")
	is.Equal(FormatRemaining(48*time.Hour), "2d")
	is.Equal(FormatRemaining(time.Hour), "1h")
	is.Equal(FormatRemaining(51*time.Hour), "2d3h")
	is.Equal(FormatRemaining(24*time.Hour+10*time.Minute), "1d10m")
}
