package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taskboard/core/internal/adapters/repository/memory"
	"github.com/taskboard/core/internal/application/services"
	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

func TestUserService_CreateUser(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	svc := services.NewUserService(users, services.NewUserDirectory(users), logger.NewNop())

	t.Run("defaults to member", func(t *testing.T) {
		user, err := svc.CreateUser(ctx, ports.CreateUserRequest{Name: " Bob ", Email: "Bob@example.com", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, "Bob", user.Name)
		assert.Equal(t, "bob@example.com", user.Email)
		assert.Equal(t, entities.UserRoleMember, user.Role)
	})

	t.Run("explicit admin", func(t *testing.T) {
		user, err := svc.CreateUser(ctx, ports.CreateUserRequest{Name: "Root", Email: "root@example.com", Password: "secret1", Role: entities.UserRoleAdmin})
		require.NoError(t, err)
		assert.Equal(t, entities.UserRoleAdmin, user.Role)
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, ports.CreateUserRequest{Name: "X", Email: "x@example.com", Password: "secret1", Role: "owner"})
		assert.ErrorIs(t, err, entities.ErrValidation)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, ports.CreateUserRequest{Name: "Bob 2", Email: "bob@example.com", Password: "secret1"})
		assert.ErrorIs(t, err, entities.ErrEmailTaken)
	})
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()

	seed := func(name string) *entities.User {
		u := &entities.User{ID: uuid.New(), Name: name, Email: name + "@example.com", Role: entities.UserRoleMember}
		require.NoError(t, users.Create(ctx, u))
		return u
	}
	alice := seed("alice")
	seed("bob")

	t.Run("changes fields and invalidates the cached summary", func(t *testing.T) {
		dir := new(MockUserDirectory)
		dir.On("Invalidate", mock.Anything, alice.ID).Return(nil).Once()
		svc := services.NewUserService(users, dir, logger.NewNop())

		name, pic := "Alice Smith", "alice.png"
		updated, err := svc.UpdateProfile(ctx, alice.ID, ports.UpdateProfileRequest{Name: &name, ProfilePic: &pic})

		require.NoError(t, err)
		assert.Equal(t, "Alice Smith", updated.Name)
		assert.Equal(t, "alice.png", updated.ProfilePic)
		dir.AssertExpectations(t)
	})

	t.Run("new password is usable for login", func(t *testing.T) {
		dir := new(MockUserDirectory)
		dir.On("Invalidate", mock.Anything, alice.ID).Return(nil)
		svc := services.NewUserService(users, dir, logger.NewNop())
		auth := services.NewAuthService(users, testJWTConfig(), logger.NewNop())

		password := "changed1"
		_, err := svc.UpdateProfile(ctx, alice.ID, ports.UpdateProfileRequest{Password: &password})
		require.NoError(t, err)

		_, err = auth.Login(ctx, ports.LoginRequest{Email: "alice@example.com", Password: "changed1"})
		assert.NoError(t, err)
	})

	t.Run("blank name", func(t *testing.T) {
		svc := services.NewUserService(users, new(MockUserDirectory), logger.NewNop())

		blank := "   "
		_, err := svc.UpdateProfile(ctx, alice.ID, ports.UpdateProfileRequest{Name: &blank})
		assert.ErrorIs(t, err, entities.ErrValidation)
	})

	t.Run("email owned by someone else", func(t *testing.T) {
		svc := services.NewUserService(users, new(MockUserDirectory), logger.NewNop())

		email := "BOB@example.com"
		_, err := svc.UpdateProfile(ctx, alice.ID, ports.UpdateProfileRequest{Email: &email})
		assert.ErrorIs(t, err, entities.ErrEmailTaken)
	})

	t.Run("cache invalidation failure does not fail the update", func(t *testing.T) {
		dir := new(MockUserDirectory)
		dir.On("Invalidate", mock.Anything, alice.ID).Return(errors.New("redis down"))
		svc := services.NewUserService(users, dir, logger.NewNop())

		name := "Alice"
		_, err := svc.UpdateProfile(ctx, alice.ID, ports.UpdateProfileRequest{Name: &name})
		assert.NoError(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc := services.NewUserService(users, new(MockUserDirectory), logger.NewNop())

		_, err := svc.UpdateProfile(ctx, uuid.New(), ports.UpdateProfileRequest{})
		assert.ErrorIs(t, err, entities.ErrUserNotFound)
	})
}

func TestCachedUserDirectory(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	cached := &entities.User{ID: uuid.New(), Name: "cached", Email: "cached@example.com"}
	stored := &entities.User{ID: uuid.New(), Name: "stored", Email: "stored@example.com", ProfilePic: "s.png"}
	require.NoError(t, users.Create(ctx, cached))
	require.NoError(t, users.Create(ctx, stored))

	t.Run("hits are served from the cache and misses are filled", func(t *testing.T) {
		cache := new(MockCacheRepository)
		cache.On("Get", mock.Anything, "user:summary:"+cached.ID.String(), mock.Anything).
			Run(func(args mock.Arguments) {
				dest := args.Get(2).(*entities.UserSummary)
				*dest = entities.UserSummary{ID: cached.ID, Name: "from cache"}
			}).Return(nil)
		cache.On("Get", mock.Anything, "user:summary:"+stored.ID.String(), mock.Anything).Return(ports.ErrCacheMiss)
		cache.On("Set", mock.Anything, "user:summary:"+stored.ID.String(), stored.Summary(), 5*time.Minute).Return(nil).Once()

		dir := services.NewCachedUserDirectory(users, cache, 5*time.Minute, logger.NewNop())
		summaries, err := dir.Summaries(ctx, []uuid.UUID{cached.ID, stored.ID})

		require.NoError(t, err)
		assert.Equal(t, "from cache", summaries[cached.ID].Name)
		assert.Equal(t, "stored", summaries[stored.ID].Name)
		assert.Equal(t, "s.png", summaries[stored.ID].ProfilePic)
		cache.AssertExpectations(t)
	})

	t.Run("cache errors fall back to the repository", func(t *testing.T) {
		cache := new(MockCacheRepository)
		cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused"))
		cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused"))

		dir := services.NewCachedUserDirectory(users, cache, time.Minute, logger.NewNop())
		summaries, err := dir.Summaries(ctx, []uuid.UUID{stored.ID, uuid.New()})

		require.NoError(t, err)
		assert.Len(t, summaries, 1)
		assert.Equal(t, "stored", summaries[stored.ID].Name)
	})

	t.Run("invalidate deletes the key", func(t *testing.T) {
		cache := new(MockCacheRepository)
		cache.On("Delete", mock.Anything, "user:summary:"+stored.ID.String()).Return(nil).Once()

		dir := services.NewCachedUserDirectory(users, cache, time.Minute, logger.NewNop())
		require.NoError(t, dir.Invalidate(ctx, stored.ID))
		cache.AssertExpectations(t)
	})
}
