package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/school-diary-api/internal/models"
)

type brokenCacheRepo struct{}

func (brokenCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("redis down")
}

func (brokenCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("redis down")
}

func (brokenCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	return errors.New("redis down")
}

func countingLoader(calls *int, subjects ...models.Subject) func(context.Context) ([]models.Subject, error) {
	return func(ctx context.Context) ([]models.Subject, error) {
		*calls++
		return subjects, nil
	}
}

func TestCacheServiceSubjectsMissThenHit(t *testing.T) {
	repo := &memoryCacheRepo{items: map[string][]byte{}}
	cache := NewCacheService(repo, NewMetricsService(), 0, nil, true)
	var calls int
	load := countingLoader(&calls, models.Subject{ID: 1, Name: "Алгебра"})

	first, err := cache.Subjects(context.Background(), load)
	require.NoError(t, err)
	second, err := cache.Subjects(context.Background(), load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Contains(t, repo.items, subjectsCacheKey)
}

func TestCacheServiceDisabledPassesThrough(t *testing.T) {
	var calls int
	load := countingLoader(&calls)

	var nilCache *CacheService
	_, err := nilCache.Subjects(context.Background(), load)
	require.NoError(t, err)
	require.NoError(t, nilCache.InvalidateSubjects(context.Background()))

	repo := &memoryCacheRepo{items: map[string][]byte{}}
	disabled := NewCacheService(repo, nil, time.Minute, nil, false)
	_, err = disabled.Subjects(context.Background(), load)
	require.NoError(t, err)
	require.NoError(t, disabled.InvalidateSubjects(context.Background()))

	assert.Equal(t, 2, calls)
	assert.Empty(t, repo.items)
	assert.Empty(t, repo.invalidated)
}

func TestCacheServiceRedisFailureFallsBackToLoader(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cache := NewCacheService(brokenCacheRepo{}, nil, time.Minute, zap.New(core), true)
	var calls int

	subjects, err := cache.Subjects(context.Background(), countingLoader(&calls, models.Subject{ID: 2, Name: "Физика"}))
	require.NoError(t, err)
	assert.Equal(t, []models.Subject{{ID: 2, Name: "Физика"}}, subjects)
	assert.Equal(t, 1, calls)

	assert.Error(t, cache.InvalidateSubjects(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("cache get failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("cache set failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("subject cache invalidation failed").Len())
}

func TestCacheServiceLoaderErrorIsNotCached(t *testing.T) {
	repo := &memoryCacheRepo{items: map[string][]byte{}}
	cache := NewCacheService(repo, nil, time.Minute, nil, true)

	_, err := cache.Subjects(context.Background(), func(ctx context.Context) ([]models.Subject, error) {
		return nil, errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
	assert.Empty(t, repo.items)
}
