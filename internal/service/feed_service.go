package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/delegationapp/delegate/internal/models"
	appErrors "github.com/delegationapp/delegate/pkg/errors"
)

type feedCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// FeedService serves the public announcement feed with an optional
// short-lived cache, so map browsing does not hammer the backend.
type FeedService struct {
	api      AnnouncementAPI
	cache    feedCache
	cacheTTL time.Duration
	enabled  bool
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewFeedService constructs the feed service.
func NewFeedService(api AnnouncementAPI, cache feedCache, cacheTTL time.Duration, enabled bool, metrics *MetricsService, logger *zap.Logger) *FeedService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedService{api: api, cache: cache, cacheTTL: cacheTTL, enabled: enabled, metrics: metrics, logger: logger}
}

type cachedFeedPage struct {
	Items []models.Announcement `json:"items"`
	Total int                   `json:"total"`
}

// List returns a page of public announcements.
func (s *FeedService) List(ctx context.Context, page, pageSize int) ([]models.Announcement, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	key := fmt.Sprintf("feed:%d:%d", page, pageSize)
	if s.cacheEnabled() {
		var cached cachedFeedPage
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			s.metrics.RecordFeedCacheLookup(true)
			return cached.Items, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: cached.Total}, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("feed cache get failed", zap.String("key", key), zap.Error(err))
		}
		s.metrics.RecordFeedCacheLookup(false)
	}

	items, total, err := s.api.ListPublic(ctx, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load public feed")
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, key, cachedFeedPage{Items: items, Total: total}, s.cacheTTL); err != nil {
			s.logger.Warn("feed cache set failed", zap.String("key", key), zap.Error(err))
		}
	}

	return items, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

func (s *FeedService) cacheEnabled() bool {
	return s.enabled && s.cache != nil
}
