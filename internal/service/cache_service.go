package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-diary-api/internal/models"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
)

const (
	subjectsCacheKey     = "subjects:all"
	subjectsCachePattern = "subjects:*"
)

// CacheRepository is the JSON key/value store behind CacheService.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService caches reference lists the admin forms and the bot read on every request. A nil
// or disabled service passes every call through to the loader.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service. ttl defaults to ten minutes.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Subjects returns the unfiltered subject list, calling load on a miss and storing its result.
// Redis failures degrade to load; only load errors are returned.
func (s *CacheService) Subjects(ctx context.Context, load func(context.Context) ([]models.Subject, error)) ([]models.Subject, error) {
	if !s.Enabled() {
		return load(ctx)
	}
	var cached []models.Subject
	if s.lookup(ctx, subjectsCacheKey, &cached) {
		return cached, nil
	}
	subjects, err := load(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, subjectsCacheKey, subjects)
	return subjects, nil
}

// InvalidateSubjects drops every cached subject listing. Subject writes call it after commit.
func (s *CacheService) InvalidateSubjects(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, subjectsCachePattern); err != nil {
		s.logger.Warn("subject cache invalidation failed", zap.String("pattern", subjectsCachePattern), zap.Error(err))
		return err
	}
	return nil
}

func (s *CacheService) lookup(ctx context.Context, key string, dest interface{}) bool {
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	return err == nil
}

func (s *CacheService) store(ctx context.Context, key string, value interface{}) {
	start := time.Now()
	err := s.repo.Set(ctx, key, value, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}
