package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/ports"
)

// UserRepository keeps users in a map indexed by id and email
type UserRepository struct {
	mtx     sync.RWMutex
	users   map[uuid.UUID]*entities.User
	byEmail map[string]uuid.UUID
}

// NewUserRepository creates an empty user store
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:   make(map[uuid.UUID]*entities.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

var _ ports.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return entities.ErrEmailTaken
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	stored := *user
	r.users[user.ID] = &stored
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	found := *user
	return &found, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	found := *r.users[id]
	return &found, nil
}

func (r *UserRepository) Update(ctx context.Context, user *entities.User) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return entities.ErrUserNotFound
	}
	if owner, taken := r.byEmail[user.Email]; taken && owner != user.ID {
		return entities.ErrEmailTaken
	}

	delete(r.byEmail, stored.Email)
	updated := *user
	r.users[user.ID] = &updated
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]*entities.User, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	users := make([]*entities.User, 0, len(r.users))
	for _, user := range r.users {
		copied := *user
		users = append(users, &copied)
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})

	return users, nil
}

func (r *UserRepository) GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entities.UserSummary, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	summaries := make(map[uuid.UUID]entities.UserSummary, len(ids))
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			summaries[id] = user.Summary()
		}
	}
	return summaries, nil
}
