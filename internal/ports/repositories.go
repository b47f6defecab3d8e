package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/taskboard/core/internal/domain/entities"
)

// ErrCacheMiss is returned by CacheRepository.Get when the key does not exist
var ErrCacheMiss = errors.New("cache miss")

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create stores a new user. A duplicate email yields entities.ErrEmailTaken.
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	List(ctx context.Context) ([]*entities.User, error)
	// GetSummaries returns display summaries for the ids that exist. Unknown ids are absent from the map.
	GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entities.UserSummary, error)
}

// TaskRepository defines the interface for task data operations
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error)
	// Update replaces the stored document. Last write wins.
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
	// AddWatcher and RemoveWatcher mutate only the watcher set and return its new contents.
	AddWatcher(ctx context.Context, taskID, userID uuid.UUID) ([]uuid.UUID, error)
	RemoveWatcher(ctx context.Context, taskID, userID uuid.UUID) ([]uuid.UUID, error)
}

// UserDirectory resolves user ids into display summaries for task views
type UserDirectory interface {
	Summaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entities.UserSummary, error)
	Invalidate(ctx context.Context, id uuid.UUID) error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
}

// TaskFilter narrows task listings. Nil fields do not constrain.
type TaskFilter struct {
	Status    *entities.TaskStatus
	Priority  *entities.Priority
	DueBefore *time.Time
}

// Matches reports whether a task satisfies every set constraint
func (f TaskFilter) Matches(task *entities.Task) bool {
	if f.Status != nil && task.Status != *f.Status {
		return false
	}
	if f.Priority != nil && task.Priority != *f.Priority {
		return false
	}
	if f.DueBefore != nil && !task.IsDueBy(*f.DueBefore) {
		return false
	}
	return true
}
