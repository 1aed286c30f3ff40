package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/fastygo/remindbot/internal/infrastructure/telegram"
	"github.com/fastygo/remindbot/internal/services"
)

type probe struct{ err error }

func (p probe) GetMe(ctx context.Context) (*telegram.User, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &telegram.User{ID: 1, IsBot: true}, nil
}

type sizer struct {
	n   int
	err error
}

func (s sizer) Size() (int, error) { return s.n, s.err }

type counter int

func (c counter) Count(ctx context.Context) (int, error) { return int(c), nil }

type ticks services.TickReport

func (t ticks) LastTick() services.TickReport { return services.TickReport(t) }

func TestMonitor_Refresh(t *testing.T) {
	is := is.New(t)
	at := time.Date(2026, 10, 25, 12, 0, 0, 0, time.UTC)
	m := New(probe{}, sizer{n: 2}, counter(5), ticks{At: at, Failures: 1}, time.Minute, nil)

	is.True(!m.GetStatus().Telegram)
	m.Refresh()

	s := m.GetStatus()
	is.True(s.Telegram)
	is.True(s.DeadLetter)
	is.Equal(s.DeadLetterSize, 2)
	is.Equal(s.Tasks, 5)
	is.Equal(s.LastTickAt, at)
	is.Equal(s.LastTickFailures, 1)
	is.True(!s.LastCheck.IsZero())
}

func TestMonitor_Degraded(t *testing.T) {
	is := is.New(t)
	m := New(probe{err: errors.New("unauthorized")}, sizer{err: errors.New("database not open")}, nil, nil, time.Minute, nil)
	m.Refresh()

	s := m.GetStatus()
	is.True(!s.Telegram)
	is.True(!s.DeadLetter)
	is.Equal(s.Tasks, 0)
}

func TestMonitor_DisabledJournalIsHealthy(t *testing.T) {
	is := is.New(t)
	m := New(probe{}, nil, counter(0), nil, time.Minute, nil)
	m.Start()
	defer m.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && m.GetStatus().LastCheck.IsZero() {
		time.Sleep(10 * time.Millisecond)
	}
	is.True(m.GetStatus().DeadLetter)
	m.Stop() // second stop is a no-op
}
