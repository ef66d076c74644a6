package vehicle

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/fleet/internal/documents"
	"github.com/richxcame/fleet/pkg/cache"
)

// ProgressStore is the subset of the Redis client the tracker needs
type ProgressStore interface {
	HSetWithExpiration(ctx context.Context, key, field string, value interface{}, expiration time.Duration) error
	HGetAllStrings(ctx context.Context, key string) (map[string]string, error)
	Delete(ctx context.Context, keys ...string) error
}

// RedisProgressTracker keeps upload progress in one Redis hash per vehicle
type RedisProgressTracker struct {
	store ProgressStore
	ttl   time.Duration
}

// NewRedisProgressTracker creates a tracker whose entries expire after ttl
func NewRedisProgressTracker(store ProgressStore, ttl time.Duration) *RedisProgressTracker {
	return &RedisProgressTracker{store: store, ttl: ttl}
}

// Set records a category's percentage
func (t *RedisProgressTracker) Set(ctx context.Context, vehicleID uuid.UUID, category documents.Category, percent int) error {
	return t.store.HSetWithExpiration(ctx, cache.Keys.UploadProgress(vehicleID.String()), category.String(), percent, t.ttl)
}

// Get returns every recorded percentage; unknown fields are ignored
func (t *RedisProgressTracker) Get(ctx context.Context, vehicleID uuid.UUID) (UploadProgress, error) {
	raw, err := t.store.HGetAllStrings(ctx, cache.Keys.UploadProgress(vehicleID.String()))
	if err != nil {
		return nil, err
	}

	progress := make(UploadProgress, len(raw))
	for field, value := range raw {
		category, err := documents.ParseCategory(field)
		if err != nil {
			continue
		}
		percent, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		progress[category] = percent
	}
	return progress, nil
}

// Clear discards a vehicle's progress
func (t *RedisProgressTracker) Clear(ctx context.Context, vehicleID uuid.UUID) error {
	return t.store.Delete(ctx, cache.Keys.UploadProgress(vehicleID.String()))
}
