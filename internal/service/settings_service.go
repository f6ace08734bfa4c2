package service

import (
	"context"
	"time"

	"gamesup-server/internal/redisclient"
	"gamesup-server/internal/store"
	"gamesup-server/internal/util"

	"go.uber.org/zap"
)

// settingsCacheTTL bounds staleness when an invalidation is lost.
const settingsCacheTTL = 10 * time.Minute

// SettingsService serves store settings cache-first from Redis, falling back
// to Postgres. Writes go to Postgres and invalidate the cache.
type SettingsService struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store *store.Store, redis *redisclient.Client) *SettingsService {
	return &SettingsService{store: store, redis: redis, logger: util.GetLogger()}
}

// GetSettings returns the effective settings map (stored values over
// defaults). Cache misses and cache errors fall through to the store.
func (ss *SettingsService) GetSettings(ctx context.Context) (map[string]string, error) {
	if cached, err := ss.redis.GetSettings(ctx); err == nil && cached != nil {
		return cached, nil
	}

	settings, err := ss.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if err := ss.redis.SetSettings(ctx, settings, settingsCacheTTL); err != nil {
		ss.logger.Warn("Failed to cache settings", zap.Error(err))
	}
	return settings, nil
}

// UpdateSettings upserts the given keys and drops the cached copy.
func (ss *SettingsService) UpdateSettings(ctx context.Context, settings map[string]string) (map[string]string, error) {
	if err := ss.store.UpsertSettings(ctx, settings); err != nil {
		return nil, err
	}
	if err := ss.redis.InvalidateSettings(ctx); err != nil {
		ss.logger.Warn("Failed to invalidate settings cache", zap.Error(err))
	}
	return ss.store.GetSettings(ctx)
}
