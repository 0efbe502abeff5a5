package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/delegationapp/delegate/internal/models"
	appErrors "github.com/delegationapp/delegate/pkg/errors"
	"github.com/delegationapp/delegate/pkg/jobs"
	"github.com/delegationapp/delegate/pkg/jsonval"
	"github.com/delegationapp/delegate/pkg/storage"
)

// submissionResolver receives pipeline outcomes keyed by local id. The
// reconciler implements it.
type submissionResolver interface {
	InsertOptimistic(placeholder models.Announcement)
	ResolveSubmission(localID string, result SubmissionResult)
}

// SubmissionService turns a validated draft into a confirmed announcement
// without blocking the caller on network latency. Submit returns the
// optimistic placeholder immediately; creation and media upload run on a
// background worker queue and report back through the resolver.
type SubmissionService struct {
	api      AnnouncementAPI
	session  SessionProvider
	resolver submissionResolver
	previews *storage.PreviewStore
	queue    *jobs.Queue
	logger   *zap.Logger
	now      func() time.Time
}

// SubmissionConfig tunes the worker pool.
type SubmissionConfig struct {
	Workers    int
	BufferSize int
}

type submissionJob struct {
	localID     string
	payload     SubmissionPayload
	attachments []models.Attachment
}

// NewSubmissionService constructs the pipeline.
func NewSubmissionService(api AnnouncementAPI, session SessionProvider, resolver submissionResolver, previews *storage.PreviewStore, cfg SubmissionConfig, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SubmissionService{
		api:      api,
		session:  session,
		resolver: resolver,
		previews: previews,
		logger:   logger,
		now:      time.Now,
	}
	s.queue = jobs.NewQueue("submissions", s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers.
func (s *SubmissionService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *SubmissionService) Stop() {
	s.queue.Stop()
}

// Submit creates the optimistic placeholder synchronously, inserts it into
// the reconciler, and schedules the network work. The caller gets the
// placeholder back immediately and never blocks on the result.
func (s *SubmissionService) Submit(payload SubmissionPayload, attachments []models.Attachment) (*models.Announcement, error) {
	if _, ok := s.session.Token(); !ok {
		return nil, appErrors.Clone(appErrors.ErrNoSession, "sign in before submitting")
	}

	localID := models.LocalIDPrefix + uuid.NewString()
	submissionID := uuid.NewString()

	data := payload.Data.Clone()
	if data == nil {
		data = jsonval.Document{}
	}
	data[models.SubmissionIDField] = jsonval.String(submissionID)
	if paths := s.savePreviews(localID, attachments); len(paths) > 0 {
		values := make([]jsonval.Value, 0, len(paths))
		for _, p := range paths {
			values = append(values, jsonval.String(p))
		}
		data[models.PhotosField] = jsonval.Array(values)
	}

	placeholder := models.Announcement{
		ID:        localID,
		Category:  payload.Category,
		Title:     payload.Title,
		RawStatus: string(models.StatusPendingReview),
		CreatedAt: s.now().UTC(),
		Data:      data,
	}
	s.resolver.InsertOptimistic(placeholder)

	job := jobs.Job{
		ID:      localID,
		Type:    "submit_announcement",
		Payload: submissionJob{localID: localID, payload: payload, attachments: attachments},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.resolver.ResolveSubmission(localID, SubmissionResult{Err: err})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule submission")
	}
	return &placeholder, nil
}

func (s *SubmissionService) process(ctx context.Context, job jobs.Job) error {
	sub, ok := job.Payload.(submissionJob)
	if !ok {
		return appErrors.Clone(appErrors.ErrInternal, "unexpected job payload")
	}

	created, err := s.api.Create(ctx, sub.payload)
	if err == nil && created == nil {
		err = appErrors.Clone(appErrors.ErrUpstream, "create returned no announcement")
	}
	if err != nil {
		s.cleanupPreviews(sub.localID)
		s.resolver.ResolveSubmission(sub.localID, SubmissionResult{Err: err})
		return nil
	}

	warning := ""
	confirmed := created
	if len(sub.attachments) > 0 {
		withMedia, err := s.api.UploadMedia(ctx, created.ID, sub.attachments)
		switch {
		case err != nil:
			// The created record is authoritative; lost media is not
			// retried automatically.
			s.logger.Warn("media upload failed after create",
				zap.String("announcement_id", created.ID), zap.Error(err))
			warning = "announcement created, photos failed to upload"
		case withMedia == nil:
			s.logger.Warn("media upload returned no record",
				zap.String("announcement_id", created.ID))
			warning = "announcement created, photos failed to upload"
		default:
			confirmed = withMedia
		}
	}

	s.resolver.ResolveSubmission(sub.localID, SubmissionResult{
		Announcement: confirmed,
		Warning:      warning,
	})
	return nil
}

func (s *SubmissionService) savePreviews(localID string, attachments []models.Attachment) []string {
	if s.previews == nil {
		return nil
	}
	paths := make([]string, 0, len(attachments))
	for i, attachment := range attachments {
		path, err := s.previews.Save(localID, i, attachment.Data)
		if err != nil {
			// Previews only hide latency; a failed write is not worth
			// failing the submission over.
			s.logger.Warn("failed to write media preview", zap.Error(err))
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

func (s *SubmissionService) cleanupPreviews(localID string) {
	if s.previews == nil {
		return
	}
	if err := s.previews.Delete(localID); err != nil {
		s.logger.Warn("failed to clean up previews", zap.String("local_id", localID), zap.Error(err))
	}
}
