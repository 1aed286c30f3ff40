package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestManager_ShutdownOrder(t *testing.T) {
	is := is.New(t)
	m := New(time.Second, nil)

	var order []string
	m.Register("poller", func(ctx context.Context) error {
		order = append(order, "poller")
		return nil
	})
	m.Register("scheduler", func(ctx context.Context) error {
		order = append(order, "scheduler")
		return errors.New("stop timed out")
	})
	m.Register("http", func(ctx context.Context) error {
		order = append(order, "http")
		return nil
	})
	m.Register("ignored", nil)

	err := m.Shutdown(context.Background())
	is.True(err != nil)
	is.Equal(order, []string{"http", "scheduler", "poller"})

	is.NoErr(m.Shutdown(context.Background())) // runs once
	is.Equal(len(order), 3)
}

func TestManager_HooksSeeDeadline(t *testing.T) {
	is := is.New(t)
	m := New(50*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := m.Shutdown(context.Background())
	is.True(errors.Is(err, context.DeadlineExceeded))
}

func TestManager_Listen(t *testing.T) {
	is := is.New(t)
	m := New(time.Second, nil)
	ctx, cancel := m.Listen(context.Background())
	cancel()
	<-ctx.Done()
	is.True(errors.Is(ctx.Err(), context.Canceled))
}
