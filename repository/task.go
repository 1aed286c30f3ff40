package repository

import (
	"context"

	"github.com/fastygo/remindbot/domain"
)

// TaskRepository is the authoritative owner-scoped task store.
// Implementations must make every check-then-mutate sequence atomic.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Get(ctx context.Context, owner, id int64) (*domain.Task, error)
	ListByOwner(ctx context.Context, owner int64) ([]domain.Task, error)
	MarkCompleted(ctx context.Context, owner, id int64) error
	Delete(ctx context.Context, owner, id int64) error
	Count(ctx context.Context) (int, error)

	SchedulerStore
}

// SchedulerStore holds the system operations used by the scheduler.
// They bypass owner checks. DeleteByID and ClearReminder must skip tasks
// that are completed by the time they run.
type SchedulerStore interface {
	Snapshot(ctx context.Context) ([]domain.Task, error)
	DeleteByID(ctx context.Context, id int64) error
	ClearReminder(ctx context.Context, id int64) error
}
