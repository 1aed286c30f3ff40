package memory

import (
	"context"
	"sync"

	"github.com/fastygo/remindbot/domain"
	"github.com/fastygo/remindbot/repository"
)

type taskRepository struct {
	mu     sync.RWMutex
	nextID int64
	tasks  map[int64]*domain.Task
	// order keeps ids in insertion order for listings and snapshots.
	order []int64
}

// NewTaskRepository returns a process-local TaskRepository. Contents are lost on restart.
func NewTaskRepository() repository.TaskRepository {
	return &taskRepository{
		tasks: make(map[int64]*domain.Task),
	}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := task.Clone()
	stored.ID = r.nextID
	r.tasks[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	return stored.Clone(), nil
}

func (r *taskRepository) Get(ctx context.Context, owner, id int64) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, err := r.owned(owner, id)
	if err != nil {
		return nil, err
	}
	return task.Clone(), nil
}

func (r *taskRepository) ListByOwner(ctx context.Context, owner int64) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Task
	for _, id := range r.order {
		if t := r.tasks[id]; t.Owner == owner {
			out = append(out, *t.Clone())
		}
	}
	return out, nil
}

func (r *taskRepository) MarkCompleted(ctx context.Context, owner, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, err := r.owned(owner, id)
	if err != nil {
		return err
	}
	task.Completed = true
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, owner, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.owned(owner, id); err != nil {
		return err
	}
	r.remove(id)
	return nil
}

func (r *taskRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks), nil
}

func (r *taskRepository) Snapshot(ctx context.Context) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Task, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.tasks[id].Clone())
	}
	return out, nil
}

// DeleteByID is a no-op when the task is already gone or was completed
// after the snapshot was taken.
func (r *taskRepository) DeleteByID(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task, ok := r.tasks[id]; ok && !task.Completed {
		r.remove(id)
	}
	return nil
}

// ClearReminder leaves completed tasks untouched.
func (r *taskRepository) ClearReminder(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task, ok := r.tasks[id]; ok && !task.Completed {
		task.ReminderAt = nil
	}
	return nil
}

// owned must be called with the lock held.
func (r *taskRepository) owned(owner, id int64) (*domain.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if task.Owner != owner {
		return nil, domain.ErrForbidden
	}
	return task, nil
}

func (r *taskRepository) remove(id int64) {
	delete(r.tasks, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}
