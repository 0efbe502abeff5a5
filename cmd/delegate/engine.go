package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/delegationapp/delegate/internal/remote"
	"github.com/delegationapp/delegate/internal/service"
	"github.com/delegationapp/delegate/internal/store"
	"github.com/delegationapp/delegate/pkg/cache"
	"github.com/delegationapp/delegate/pkg/config"
	"github.com/delegationapp/delegate/pkg/database"
	"github.com/delegationapp/delegate/pkg/logger"
	"github.com/delegationapp/delegate/pkg/storage"
)

// engine bundles the wired services behind every command.
type engine struct {
	cfg        *config.Config
	logger     *zap.Logger
	session    *remote.FileSession
	metrics    *service.MetricsService
	drafts     *service.DraftService
	reconciler *service.ReconcilerService
	pipeline   *service.SubmissionService
	feed       *service.FeedService
	exporter   *service.ExportService
	cleanup    []func()
}

// buildEngine wires the full dependency graph. withRedis is false for
// one-shot commands that never touch the feed cache.
func buildEngine(ctx context.Context, withRedis bool) (*engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	e := &engine{cfg: cfg, logger: logr}
	e.cleanup = append(e.cleanup, func() { _ = logr.Sync() })

	e.session = remote.NewFileSession(cfg.Session.TokenPath, logr)
	e.metrics = service.NewMetricsService()

	api := remote.NewAnnouncementClient(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout, cfg.Backend.UploadTimeout, e.session, logr)
	resolver := remote.NewGeocodeClient(cfg.Geocoder.BaseURL, cfg.Geocoder.RequestTimeout, logr)

	db, err := database.NewSQLite(cfg.Drafts)
	if err != nil {
		e.close()
		return nil, err
	}
	e.cleanup = append(e.cleanup, func() { _ = db.Close() })
	draftStore, err := store.NewDraftStore(db)
	if err != nil {
		e.close()
		return nil, err
	}
	e.drafts = service.NewDraftService(draftStore, resolver, cfg.Submission.MaxPhotos, e.metrics, logr)

	previews, err := storage.NewPreviewStore(cfg.Media.PreviewDir)
	if err != nil {
		e.close()
		return nil, err
	}
	if deleted, err := previews.CleanupOlderThan(cfg.Media.PreviewTTL); err != nil {
		logr.Warn("preview cleanup failed", zap.Error(err))
	} else if len(deleted) > 0 {
		logr.Debug("cleaned stale previews", zap.Int("count", len(deleted)))
	}

	e.reconciler = service.NewReconcilerService(api, e.session, cfg.Reconciler.PollInterval, cfg.Reconciler.ToastTTL, e.metrics, logr)
	e.cleanup = append(e.cleanup, e.reconciler.Close)

	e.pipeline = service.NewSubmissionService(api, e.session, e.reconciler, previews, service.SubmissionConfig{
		Workers:    cfg.Submission.Workers,
		BufferSize: cfg.Submission.BufferSize,
	}, logr)
	e.pipeline.Start(ctx)
	e.cleanup = append(e.cleanup, e.pipeline.Stop)

	var feedCache *store.CacheStore
	if withRedis && cfg.Feed.CacheEnabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, feed cache disabled", zap.Error(err))
		} else {
			e.cleanup = append(e.cleanup, func() { _ = client.Close() })
			feedCache = store.NewCacheStore(client)
		}
	}
	e.feed = service.NewFeedService(api, feedCache, cfg.Feed.CacheTTL, feedCache != nil, e.metrics, logr)

	e.exporter = service.NewExportService(e.reconciler, cfg.Exports.StorageDir, logr)

	return e, nil
}

func (e *engine) close() {
	for i := len(e.cleanup) - 1; i >= 0; i-- {
		e.cleanup[i]()
	}
}
