package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/remindbot/domain"
	"github.com/fastygo/remindbot/repository"
)

// SchedulerConfig controls how often tasks are checked and how long a send may take.
type SchedulerConfig struct {
	Interval      time.Duration
	NotifyTimeout time.Duration
	Workers       int
}

// TickReport summarizes one pass over the store.
type TickReport struct {
	ID        string    `json:"id"`
	At        time.Time `json:"at"`
	Evaluated int       `json:"evaluated"`
	Reminders int       `json:"reminders"`
	Deadlines int       `json:"deadlines"`
	Failures  int       `json:"failures"`
}

// Scheduler periodically evaluates every stored task and fires due notifications.
type Scheduler struct {
	store    repository.SchedulerStore
	notifier Notifier
	failures FailureRecorder
	clock    domain.Clock
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      SchedulerConfig

	runCtx    context.Context
	cancelRun context.CancelFunc

	mu   sync.RWMutex
	last TickReport
}

func NewScheduler(
	store repository.SchedulerStore,
	notifier Notifier,
	failures FailureRecorder,
	clock domain.Clock,
	logger *zap.Logger,
	cfg SchedulerConfig,
) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 5 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if clock == nil {
		clock = domain.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	runCtx, cancel := context.WithCancel(context.Background())
	cronLog := cronLogger{logger.Sugar()}
	s := &Scheduler{
		store:     store,
		notifier:  notifier,
		failures:  failures,
		clock:     clock,
		logger:    logger,
		cfg:       cfg,
		runCtx:    runCtx,
		cancelRun: cancel,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
	}

	schedule := fmt.Sprintf("@every %s", cfg.Interval)
	if _, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.Tick(s.runCtx); err != nil {
			s.logger.Error("scheduler tick failed", zap.Error(err))
		}
	}); err != nil {
		s.logger.Error("invalid scheduler interval", zap.String("schedule", schedule), zap.Error(err))
	}

	return s
}

// Start launches the cron scheduler.
func (s *Scheduler) Start() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Duration("interval", s.cfg.Interval))
}

// Stop prevents new ticks and waits for the running one. When ctx expires
// first, in-flight sends are abandoned.
func (s *Scheduler) Stop(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		s.cancelRun()
		<-stopCtx.Done()
	}
	s.cancelRun()
	s.logger.Info("scheduler stopped")
}

// Every registers an extra periodic maintenance job on the same cron.
func (s *Scheduler) Every(name string, interval time.Duration, job func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		if err := job(s.runCtx); err != nil {
			s.logger.Error("periodic job failed", zap.String("job", name), zap.Error(err))
		}
	})
	return err
}

// LastTick returns the report of the most recent completed tick.
func (s *Scheduler) LastTick() TickReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Tick snapshots the store, evaluates every task and applies the resulting
// transitions. No store lock is held while notifications are sent. A failed
// send is reported and the transition is applied anyway.
func (s *Scheduler) Tick(ctx context.Context) (TickReport, error) {
	now := s.clock.Now()
	report := TickReport{ID: uuid.NewString(), At: now}
	log := s.logger.With(zap.String("tick_id", report.ID))

	tasks, err := s.store.Snapshot(ctx)
	if err != nil {
		return report, err
	}
	report.Evaluated = len(tasks)

	var due []domain.Decision
	for i := range tasks {
		if d := domain.Evaluate(&tasks[i], now); d.Due() {
			due = append(due, d)
		}
	}
	if len(due) == 0 {
		log.Debug("no due tasks", zap.Int("evaluated", report.Evaluated))
		s.remember(report)
		return report, nil
	}

	results := make([]error, len(due))
	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for i, d := range due {
		i, d := i, d
		g.Go(func() error {
			results[i] = s.dispatch(ctx, d)
			return nil
		})
	}
	_ = g.Wait()

	for i, d := range due {
		fields := []zap.Field{
			zap.Int64("task_id", d.TaskID),
			zap.Int64("owner", d.Owner),
			zap.Stringer("action", d.Action),
		}
		if sendErr := results[i]; sendErr != nil {
			report.Failures++
			log.Warn("notification not delivered", append(fields, zap.Error(sendErr))...)
			s.recordFailure(ctx, log, d, sendErr)
		} else {
			log.Info("notification sent", fields...)
		}

		if err := s.apply(ctx, d); err != nil {
			log.Error("failed to apply transition", append(fields, zap.Error(err))...)
			continue
		}
		switch d.Action {
		case domain.ActionFireDeadline:
			report.Deadlines++
		case domain.ActionFireReminder:
			report.Reminders++
		}
	}

	s.remember(report)
	return report, nil
}

func (s *Scheduler) dispatch(ctx context.Context, d domain.Decision) error {
	if s.notifier == nil {
		return domain.DeliveryError(fmt.Errorf("notifier not configured"))
	}
	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
	defer cancel()
	if err := s.notifier.Send(sendCtx, d.Owner, d.Message()); err != nil {
		if domain.IsDomainError(err, domain.ErrCodeDelivery) {
			return err
		}
		return domain.DeliveryError(err)
	}
	return nil
}

func (s *Scheduler) apply(ctx context.Context, d domain.Decision) error {
	switch d.Action {
	case domain.ActionFireDeadline:
		return s.store.DeleteByID(ctx, d.TaskID)
	case domain.ActionFireReminder:
		return s.store.ClearReminder(ctx, d.TaskID)
	default:
		return nil
	}
}

func (s *Scheduler) recordFailure(ctx context.Context, log *zap.Logger, d domain.Decision, cause error) {
	if s.failures == nil {
		return
	}
	if err := s.failures.Record(ctx, d, cause); err != nil {
		log.Error("failed to record undelivered notification", zap.Int64("task_id", d.TaskID), zap.Error(err))
	}
}

func (s *Scheduler) remember(r TickReport) {
	s.mu.Lock()
	s.last = r
	s.mu.Unlock()
}

// cronLogger routes cron's internal logs through zap.
type cronLogger struct {
	*zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.Errorw(msg, append(keysAndValues, "error", err)...)
}
