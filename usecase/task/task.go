package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/remindbot/domain"
	appLogger "github.com/fastygo/remindbot/pkg/logger"
	"github.com/fastygo/remindbot/repository"
)

// CreateInput carries the raw values a user typed for a new task.
type CreateInput struct {
	Owner           int64
	Text            string
	Deadline        string
	ReminderMinutes string
}

// Entry is a task together with its status at listing time.
type Entry struct {
	domain.Task
	Status    domain.Status `json:"status"`
	Remaining time.Duration `json:"remaining,omitempty"`
}

type UseCase struct {
	tasks  repository.TaskRepository
	clock  domain.Clock
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, clock domain.Clock, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = domain.SystemClock
	}
	return &UseCase{
		tasks:  tasks,
		clock:  clock,
		logger: logger,
	}
}

// CreateTask parses the input and stores a new task owned by in.Owner.
func (uc *UseCase) CreateTask(ctx context.Context, in CreateInput) (*domain.Task, error) {
	deadline, err := domain.ParseDeadline(in.Deadline)
	if err != nil {
		return nil, err
	}
	offset, err := domain.ParseReminderMinutes(in.ReminderMinutes)
	if err != nil {
		return nil, err
	}
	return uc.Create(ctx, in.Owner, in.Text, deadline, offset)
}

// Create stores a task from already parsed values.
func (uc *UseCase) Create(ctx context.Context, owner int64, text string, deadline time.Time, offset time.Duration) (*domain.Task, error) {
	task, err := domain.NewTask(owner, text, deadline, offset, uc.clock.Now())
	if err != nil {
		return nil, err
	}
	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	appLogger.FromContext(ctx, uc.logger).Info("task created",
		zap.Int64("task_id", created.ID),
		zap.Int64("owner", created.Owner),
		zap.Time("deadline", created.Deadline),
		zap.Timep("reminder_at", created.ReminderAt))
	return created, nil
}

func (uc *UseCase) GetTask(ctx context.Context, owner, id int64) (*domain.Task, error) {
	return uc.tasks.Get(ctx, owner, id)
}

// ListTasks returns the owner's tasks in creation order with their current status.
func (uc *UseCase) ListTasks(ctx context.Context, owner int64) ([]Entry, error) {
	tasks, err := uc.tasks.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	now := uc.clock.Now()
	entries := make([]Entry, 0, len(tasks))
	for _, t := range tasks {
		e := Entry{Task: t, Status: t.StatusAt(now)}
		if e.Status == domain.StatusActive {
			e.Remaining = t.Deadline.Sub(now)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (uc *UseCase) CompleteTask(ctx context.Context, owner, id int64) error {
	if err := uc.tasks.MarkCompleted(ctx, owner, id); err != nil {
		appLogger.FromContext(ctx, uc.logger).Debug("complete rejected", zap.Int64("task_id", id), zap.Int64("owner", owner), zap.Error(err))
		return err
	}
	appLogger.FromContext(ctx, uc.logger).Info("task completed", zap.Int64("task_id", id), zap.Int64("owner", owner))
	return nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, owner, id int64) error {
	if err := uc.tasks.Delete(ctx, owner, id); err != nil {
		appLogger.FromContext(ctx, uc.logger).Debug("delete rejected", zap.Int64("task_id", id), zap.Int64("owner", owner), zap.Error(err))
		return err
	}
	appLogger.FromContext(ctx, uc.logger).Info("task deleted", zap.Int64("task_id", id), zap.Int64("owner", owner))
	return nil
}
