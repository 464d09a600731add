package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"biodata-platform/internal/logger"
	"biodata-platform/models"

	"github.com/redis/go-redis/v9"
)

const (
	platformStatsKey  = "biodata:stats:platform"
	popularFiltersKey = "biodata:stats:popular_filters"
)

// StatsCache is a best-effort JSON cache. Callers treat every error as a miss.
type StatsCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type RedisStatsCache struct {
	rdb *redis.Client
}

func NewRedisStatsCache(rdb *redis.Client) *RedisStatsCache {
	return &RedisStatsCache{rdb: rdb}
}

func (c *RedisStatsCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

func (c *RedisStatsCache) Delete(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// StatsService answers the home page counters and filter hints.
type StatsService struct {
	store BiodataStore
	cache StatsCache
	ttl   time.Duration
}

// NewStatsService works without a cache when cache is nil.
func NewStatsService(store BiodataStore, cache StatsCache, ttl time.Duration) *StatsService {
	return &StatsService{store: store, cache: cache, ttl: ttl}
}

func (s *StatsService) PlatformStatistics(ctx context.Context) (*models.PlatformStatistics, error) {
	var stats models.PlatformStatistics
	if s.cached(ctx, platformStatsKey, &stats) {
		return &stats, nil
	}

	var err error
	if stats.TotalBiodata, err = s.store.Count(ctx, ""); err != nil {
		return nil, fmt.Errorf("count biodata: %w", err)
	}
	if stats.MaleBiodata, err = s.store.Count(ctx, models.BiodataTypeMale); err != nil {
		return nil, fmt.Errorf("count male biodata: %w", err)
	}
	if stats.FemaleBiodata, err = s.store.Count(ctx, models.BiodataTypeFemale); err != nil {
		return nil, fmt.Errorf("count female biodata: %w", err)
	}

	s.remember(ctx, platformStatsKey, stats)
	return &stats, nil
}

func (s *StatsService) PopularFilters(ctx context.Context) (*models.PopularFilters, error) {
	var pf models.PopularFilters
	if s.cached(ctx, popularFiltersKey, &pf) {
		return &pf, nil
	}

	var err error
	if pf.Divisions, err = s.store.Distinct(ctx, "presentDivision", 10); err != nil {
		return nil, err
	}
	if pf.Districts, err = s.store.Distinct(ctx, "presentDistrict", 20); err != nil {
		return nil, err
	}
	if pf.Professions, err = s.store.Distinct(ctx, "occupation", 15); err != nil {
		return nil, err
	}
	if pf.Educations, err = s.store.Distinct(ctx, "highestDegree", 10); err != nil {
		return nil, err
	}

	s.remember(ctx, popularFiltersKey, pf)
	return &pf, nil
}

// Invalidate drops cached stats after bulk changes.
func (s *StatsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, platformStatsKey, popularFiltersKey); err != nil {
		logger.Warn("Stats cache invalidation failed", "error", err)
	}
}

func (s *StatsService) cached(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		logger.Warn("Stats cache read failed", "key", key, "error", err)
		return false
	}
	return hit
}

func (s *StatsService) remember(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
		logger.Warn("Stats cache write failed", "key", key, "error", err)
	}
}
