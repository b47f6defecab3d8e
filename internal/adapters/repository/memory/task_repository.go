// Package memory provides process-local repositories for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/ports"
)

// TaskRepository keeps tasks in a map and hands out copies
type TaskRepository struct {
	mtx   sync.RWMutex
	tasks map[uuid.UUID]*entities.Task
}

// NewTaskRepository creates an empty task store
func NewTaskRepository() *TaskRepository {
	return &TaskRepository{
		tasks: make(map[uuid.UUID]*entities.Task),
	}
}

var _ ports.TaskRepository = (*TaskRepository)(nil)

func (r *TaskRepository) Create(ctx context.Context, task *entities.Task) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	r.tasks[task.ID] = task.Clone()
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	return task.Clone(), nil
}

// Update overwrites every field except the watcher set
func (r *TaskRepository) Update(ctx context.Context, task *entities.Task) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	stored, ok := r.tasks[task.ID]
	if !ok {
		return entities.ErrTaskNotFound
	}

	updated := task.Clone()
	updated.WatcherIDs = stored.WatcherIDs
	updated.ReporterID = stored.ReporterID
	updated.CreatedAt = stored.CreatedAt
	r.tasks[task.ID] = updated
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return entities.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *TaskRepository) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	tasks := make([]*entities.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		if filter.Matches(task) {
			tasks = append(tasks, task.Clone())
		}
	}

	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].DueDate.Equal(tasks[j].DueDate) {
			return tasks[i].DueDate.Before(tasks[j].DueDate)
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})

	return tasks, nil
}

func (r *TaskRepository) AddWatcher(ctx context.Context, taskID, userID uuid.UUID) ([]uuid.UUID, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	task, ok := r.tasks[taskID]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	task.AddWatcher(userID)
	return append([]uuid.UUID{}, task.WatcherIDs...), nil
}

func (r *TaskRepository) RemoveWatcher(ctx context.Context, taskID, userID uuid.UUID) ([]uuid.UUID, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	task, ok := r.tasks[taskID]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	task.RemoveWatcher(userID)
	return append([]uuid.UUID{}, task.WatcherIDs...), nil
}
