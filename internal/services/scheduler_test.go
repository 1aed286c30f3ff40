package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/fastygo/remindbot/domain"
	"github.com/fastygo/remindbot/repository"
	"github.com/fastygo/remindbot/repository/memory"
	taskUC "github.com/fastygo/remindbot/usecase/task"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type sent struct {
	userID int64
	text   string
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []sent
	failOn map[int64]error
	block  chan struct{}
	// onSend runs before delivery, outside the notifier lock.
	onSend func(userID int64)
}

func (n *fakeNotifier) Send(ctx context.Context, userID int64, text string) error {
	if n.onSend != nil {
		n.onSend(userID)
	}
	if n.block != nil {
		select {
		case <-n.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.failOn[userID]; err != nil {
		return err
	}
	n.sent = append(n.sent, sent{userID: userID, text: text})
	return nil
}

func (n *fakeNotifier) messages() []sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sent(nil), n.sent...)
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []domain.Decision
}

func (r *fakeRecorder) Record(ctx context.Context, d domain.Decision, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, d)
	return nil
}

type fixture struct {
	clock     *fakeClock
	repo      repository.TaskRepository
	uc        *taskUC.UseCase
	notifier  *fakeNotifier
	recorder  *fakeRecorder
	scheduler *Scheduler
}

func newFixture(start time.Time) *fixture {
	f := &fixture{
		clock:    &fakeClock{now: start},
		repo:     memory.NewTaskRepository(),
		notifier: &fakeNotifier{},
		recorder: &fakeRecorder{},
	}
	f.uc = taskUC.New(f.repo, f.clock, nil)
	f.scheduler = NewScheduler(f.repo, f.notifier, f.recorder, f.clock, nil, SchedulerConfig{
		Interval:      time.Second,
		NotifyTimeout: 100 * time.Millisecond,
	})
	return f
}

var start = time.Date(2026, 10, 25, 12, 0, 0, 0, time.Local)

func TestScheduler_ReminderThenDeadline(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(start)

	task, err := f.uc.Create(ctx, 1, "Buy milk", start.Add(60*time.Minute), 30*time.Minute)
	is.NoErr(err)
	is.Equal(*task.ReminderAt, start.Add(30*time.Minute))

	// nothing is due yet
	report, err := f.scheduler.Tick(ctx)
	is.NoErr(err)
	is.Equal(report.Evaluated, 1)
	is.Equal(len(f.notifier.messages()), 0)

	f.clock.Set(start.Add(31 * time.Minute))
	report, err = f.scheduler.Tick(ctx)
	is.NoErr(err)
	is.Equal(report.Reminders, 1)
	is.Equal(report.Deadlines, 0)
	msgs := f.notifier.messages()
	is.Equal(len(msgs), 1)
	is.Equal(msgs[0].userID, int64(1))
	is.Equal(msgs[0].text, domain.ReminderMessage("Buy milk", task.Deadline))

	stored, err := f.repo.Get(ctx, 1, task.ID)
	is.NoErr(err)
	is.True(stored.ReminderAt == nil)

	// a second tick before the deadline stays silent
	f.clock.Set(start.Add(40 * time.Minute))
	_, err = f.scheduler.Tick(ctx)
	is.NoErr(err)
	is.Equal(len(f.notifier.messages()), 1)

	f.clock.Set(start.Add(61 * time.Minute))
	report, err = f.scheduler.Tick(ctx)
	is.NoErr(err)
	is.Equal(report.Deadlines, 1)
	msgs = f.notifier.messages()
	is.Equal(len(msgs), 2)
	is.Equal(msgs[1].text, domain.DeadlineMessage("Buy milk"))

	_, err = f.repo.Get(ctx, 1, task.ID)
	is.True(errors.Is(err, domain.ErrTaskNotFound))
	is.Equal(f.scheduler.LastTick().ID, report.ID)
}

func TestScheduler_DeadlineSupersedesReminder(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(start)

	_, err := f.uc.Create(ctx, 1, "Call mom", start.Add(time.Hour), 30*time.Minute)
	is.NoErr(err)

	// the scheduler was late: both reminder and deadline elapsed
	f.clock.Set(start.Add(2 * time.Hour))
	report, err := f.scheduler.Tick(ctx)
	is.NoErr(err)
	is.Equal(report.Reminders, 0)
	is.Equal(report.Deadlines, 1)

	msgs := f.notifier.messages()
	is.Equal(len(msgs), 1)
	is.Equal(msgs[0].text, domain.DeadlineMessage("Call mom"))

	n, _ := f.repo.Count(ctx)
	is.Equal(n, 0)
}

func TestScheduler_CompletedTasksAreIgnored(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(start)

	task, _ := f.uc.Create(ctx, 1, "Done already", start.Add(time.Hour), 30*time.Minute)
	is.NoErr(f.uc.CompleteTask(ctx, 1, task.ID))

	f.clock.Set(start.Add(3 * time.Hour))
	report, err := f.scheduler.Tick(ctx)
	is.NoErr(err)
	is.Equal(report.Deadlines+report.Reminders, 0)
	is.Equal(len(f.notifier.messages()), 0)

	stored, err := f.repo.Get(ctx, 1, task.ID)
	is.NoErr(err)
	is.True(stored.Completed)
}

func TestScheduler_TaskCompletedDuringDelivery(t *testing.T) {
	ctx := context.Background()

	t.Run("deadline keeps the completed task", func(t *testing.T) {
		is := is.New(t)
		f := newFixture(start)
		task, err := f.uc.Create(ctx, 1, "Pay rent", start.Add(time.Hour), 0)
		is.NoErr(err)
		f.notifier.onSend = func(userID int64) {
			if err := f.uc.CompleteTask(ctx, userID, task.ID); err != nil {
				t.Error(err)
			}
		}

		f.clock.Set(start.Add(time.Hour))
		_, err = f.scheduler.Tick(ctx)
		is.NoErr(err)
		is.Equal(len(f.notifier.messages()), 1)

		stored, err := f.repo.Get(ctx, 1, task.ID)
		is.NoErr(err)
		is.True(stored.Completed)

		entries, err := f.uc.ListTasks(ctx, 1)
		is.NoErr(err)
		is.Equal(len(entries), 1)
		is.Equal(entries[0].Status, domain.StatusCompleted)
	})

	t.Run("reminder leaves the completed task alone", func(t *testing.T) {
		is := is.New(t)
		f := newFixture(start)
		task, err := f.uc.Create(ctx, 1, "Pay rent", start.Add(time.Hour), 30*time.Minute)
		is.NoErr(err)
		f.notifier.onSend = func(userID int64) {
			if err := f.uc.CompleteTask(ctx, userID, task.ID); err != nil {
				t.Error(err)
			}
		}

		f.clock.Set(start.Add(31 * time.Minute))
		_, err = f.scheduler.Tick(ctx)
		is.NoErr(err)

		stored, err := f.repo.Get(ctx, 1, task.ID)
		is.NoErr(err)
		is.True(stored.Completed)
		is.True(stored.ReminderAt != nil)

		// later ticks stay silent for the completed task
		f.notifier.onSend = nil
		f.clock.Set(start.Add(2 * time.Hour))
		report, err := f.scheduler.Tick(ctx)
		is.NoErr(err)
		is.Equal(report.Deadlines+report.Reminders, 0)
		is.Equal(len(f.notifier.messages()), 1)
	})
}

func TestScheduler_OwnersNotifiedIndependently(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(start)

	deadline := start.Add(time.Hour)
	_, _ = f.uc.Create(ctx, 1, "first", deadline, 0)
	_, _ = f.uc.Create(ctx, 2, "second", deadline, 0)

	f.clock.Set(deadline)
	report, err := f.scheduler.Tick(ctx)
	is.NoErr(err)
	is.Equal(report.Deadlines, 2)

	got := map[int64]string{}
	for _, m := range f.notifier.messages() {
		got[m.userID] = m.text
	}
	is.Equal(len(got), 2)
	is.Equal(got[1], domain.DeadlineMessage("first"))
	is.Equal(got[2], domain.DeadlineMessage("second"))
}

func TestScheduler_DeliveryFailureIsIsolated(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(start)
	f.notifier.failOn = map[int64]error{1: errors.New("chat not found")}

	failing, _ := f.uc.Create(ctx, 1, "unlucky", start.Add(time.Hour), 0)
	_, _ = f.uc.Create(ctx, 2, "lucky", start.Add(time.Hour), 0)

	f.clock.Set(start.Add(time.Hour))
	report, err := f.scheduler.Tick(ctx)
	is.NoErr(err)
	is.Equal(report.Failures, 1)
	is.Equal(report.Deadlines, 2)

	msgs := f.notifier.messages()
	is.Equal(len(msgs), 1)
	is.Equal(msgs[0].userID, int64(2))

	// at-most-once: the failed task is removed anyway and recorded
	_, err = f.repo.Get(ctx, 1, failing.ID)
	is.True(errors.Is(err, domain.ErrTaskNotFound))
	is.Equal(len(f.recorder.records), 1)
	is.Equal(f.recorder.records[0].TaskID, failing.ID)

	// the loop keeps working on the next tick
	_, _ = f.uc.Create(ctx, 2, "later", start.Add(2*time.Hour), 0)
	f.clock.Set(start.Add(2 * time.Hour))
	report, err = f.scheduler.Tick(ctx)
	is.NoErr(err)
	is.Equal(report.Deadlines, 1)
	is.Equal(report.Failures, 0)
}

func TestScheduler_SlowNotifierIsBounded(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(start)
	f.notifier.block = make(chan struct{}) // never released

	_, _ = f.uc.Create(ctx, 1, "stuck", start.Add(time.Minute), 0)
	f.clock.Set(start.Add(time.Minute))

	begin := time.Now()
	report, err := f.scheduler.Tick(ctx)
	is.NoErr(err)
	is.Equal(report.Failures, 1)
	is.True(time.Since(begin) < 5*time.Second)
}

func TestScheduler_ConcurrentMutationsDuringTick(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(start)

	var ids []int64
	for i := 0; i < 100; i++ {
		task, err := f.uc.Create(ctx, int64(i%5+1), "t", start.Add(time.Duration(i)*time.Minute), 0)
		is.NoErr(err)
		ids = append(ids, task.ID)
	}
	f.clock.Set(start.Add(50 * time.Minute))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, id := range ids {
			_ = f.uc.DeleteTask(ctx, int64((id-1)%5+1), id)
		}
	}()
	go func() {
		defer wg.Done()
		_, err := f.scheduler.Tick(ctx)
		if err != nil {
			t.Error(err)
		}
	}()
	wg.Wait()

	n, _ := f.repo.Count(ctx)
	is.Equal(n, 0)
}

func TestScheduler_StartStop(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	f := newFixture(start)
	_, _ = f.uc.Create(ctx, 1, "tick me", start, 0)

	f.scheduler.Start()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && len(f.notifier.messages()) == 0 {
		time.Sleep(20 * time.Millisecond)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	f.scheduler.Stop(stopCtx)

	is.Equal(len(f.notifier.messages()), 1)
}
