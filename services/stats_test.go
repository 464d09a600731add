package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"biodata-platform/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	failGet bool
}

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return false, errors.New("cache down")
	}
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func statsStore(t *testing.T) *memBiodataStore {
	t.Helper()
	store := newMemBiodataStore()
	ctx := context.Background()
	rows := []models.Biodata{
		{ID: "1", UserID: "a", BiodataType: models.BiodataTypeMale, PresentDivision: "Dhaka", Occupation: "engineer", CreatedAt: fixedClock(2021)()},
		{ID: "2", UserID: "b", BiodataType: models.BiodataTypeMale, PresentDivision: "Dhaka", Occupation: "doctor", CreatedAt: fixedClock(2022)()},
		{ID: "3", UserID: "c", BiodataType: models.BiodataTypeFemale, PresentDivision: "Sylhet", HighestDegree: "MBA", CreatedAt: fixedClock(2023)()},
	}
	for i := range rows {
		require.NoError(t, store.Insert(ctx, &rows[i]))
	}
	return store
}

func TestPlatformStatisticsCached(t *testing.T) {
	store := statsStore(t)
	cache := &memCache{entries: map[string][]byte{}}
	svc := NewStatsService(store, cache, time.Minute)
	ctx := context.Background()

	stats, err := svc.PlatformStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PlatformStatistics{TotalBiodata: 3, MaleBiodata: 2, FemaleBiodata: 1}, *stats)

	require.NoError(t, store.Delete(ctx, "1"))
	stats, err = svc.PlatformStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalBiodata, "served from cache")

	svc.Invalidate(ctx)
	stats, err = svc.PlatformStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBiodata)
}

func TestStatsIgnoreCacheFailures(t *testing.T) {
	svc := NewStatsService(statsStore(t), &memCache{entries: map[string][]byte{}, failGet: true}, time.Minute)
	stats, err := svc.PlatformStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalBiodata)
}

func TestPopularFilters(t *testing.T) {
	svc := NewStatsService(statsStore(t), nil, 0)
	pf, err := svc.PopularFilters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Dhaka", "Sylhet"}, pf.Divisions)
	assert.Equal(t, []string{"engineer", "doctor"}, pf.Professions)
	assert.Equal(t, []string{"MBA"}, pf.Educations)
	assert.Empty(t, pf.Districts)
}

func TestRedisStatsCache(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	cache := NewRedisStatsCache(rdb)
	ctx := context.Background()
	key := "biodata:stats:test"
	defer cache.Delete(ctx, key)

	var got models.PlatformStatistics
	hit, err := cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, key, models.PlatformStatistics{TotalBiodata: 7}, time.Minute))
	hit, err = cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(7), got.TotalBiodata)
}
