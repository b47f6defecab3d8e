package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

const summaryKeyPrefix = "user:summary:"

// UserDirectory reads display summaries straight from the user repository
type UserDirectory struct {
	userRepo ports.UserRepository
}

// NewUserDirectory creates a directory without caching
func NewUserDirectory(userRepo ports.UserRepository) *UserDirectory {
	return &UserDirectory{userRepo: userRepo}
}

func (d *UserDirectory) Summaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entities.UserSummary, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]entities.UserSummary{}, nil
	}
	return d.userRepo.GetSummaries(ctx, ids)
}

func (d *UserDirectory) Invalidate(context.Context, uuid.UUID) error {
	return nil
}

// CachedUserDirectory serves summaries from a cache and falls back to the repository on a miss
type CachedUserDirectory struct {
	userRepo ports.UserRepository
	cache    ports.CacheRepository
	ttl      time.Duration
	logger   *logger.Logger
}

// NewCachedUserDirectory creates a cache-backed directory
func NewCachedUserDirectory(userRepo ports.UserRepository, cache ports.CacheRepository, ttl time.Duration, logger *logger.Logger) *CachedUserDirectory {
	return &CachedUserDirectory{
		userRepo: userRepo,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

func (d *CachedUserDirectory) Summaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entities.UserSummary, error) {
	result := make(map[uuid.UUID]entities.UserSummary, len(ids))

	var missing []uuid.UUID
	for _, id := range ids {
		var summary entities.UserSummary
		err := d.cache.Get(ctx, summaryKey(id), &summary)
		switch {
		case err == nil:
			result[id] = summary
		case errors.Is(err, ports.ErrCacheMiss):
			missing = append(missing, id)
		default:
			d.logger.Warnw("User summary cache read failed", "user_id", id, "error", err)
			missing = append(missing, id)
		}
	}

	if len(missing) == 0 {
		return result, nil
	}

	loaded, err := d.userRepo.GetSummaries(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to load user summaries: %w", err)
	}

	for id, summary := range loaded {
		result[id] = summary
		if err := d.cache.Set(ctx, summaryKey(id), summary, d.ttl); err != nil {
			d.logger.Warnw("User summary cache write failed", "user_id", id, "error", err)
		}
	}

	return result, nil
}

func (d *CachedUserDirectory) Invalidate(ctx context.Context, id uuid.UUID) error {
	if err := d.cache.Delete(ctx, summaryKey(id)); err != nil {
		return fmt.Errorf("failed to invalidate user summary: %w", err)
	}
	return nil
}

func summaryKey(id uuid.UUID) string {
	return summaryKeyPrefix + id.String()
}
