package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/delegationapp/delegate/internal/models"
	appErrors "github.com/delegationapp/delegate/pkg/errors"
	"github.com/delegationapp/delegate/pkg/jsonval"
)

// SubmissionResult carries a pipeline outcome back to the reconciler, keyed
// by the placeholder's local id.
type SubmissionResult struct {
	Announcement *models.Announcement
	Warning      string
	Err          error
}

// ReconcilerService owns the merged "my announcements" view: the last full
// server fetch plus any in-flight optimistic placeholders. It keeps the view
// fresh with a polling loop while anything is under review.
//
// All mutation goes through the service's mutex; unlike a cooperative
// UI scheduler, callers here are real goroutines.
type ReconcilerService struct {
	api          AnnouncementAPI
	session      SessionProvider
	metrics      *MetricsService
	logger       *zap.Logger
	pollInterval time.Duration
	toastTTL     time.Duration

	mu          sync.Mutex
	serverItems []models.Announcement
	optimistic  map[string]models.Announcement
	tombstones  map[string]tombstoneIntent
	toast       string
	toastTimer  *time.Timer
	lastError   string
	polling     bool
	pollCancel  context.CancelFunc
	closed      bool
}

// NewReconcilerService constructs the reconciler.
func NewReconcilerService(api AnnouncementAPI, session SessionProvider, pollInterval, toastTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *ReconcilerService {
	if pollInterval <= 0 {
		pollInterval = 12 * time.Second
	}
	if toastTTL <= 0 {
		toastTTL = 4 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcilerService{
		api:          api,
		session:      session,
		metrics:      metrics,
		logger:       logger,
		pollInterval: pollInterval,
		toastTTL:     toastTTL,
		optimistic:   make(map[string]models.Announcement),
		tombstones:   make(map[string]tombstoneIntent),
	}
}

// tombstoneIntent records what the user did to an optimistic item while its
// create was still in flight, so the confirmed server record can be settled
// the same way.
type tombstoneIntent int

const (
	tombstoneDelete tombstoneIntent = iota
	tombstoneArchive
)

// Reload replaces the server-confirmed items wholesale from a full fetch.
// Optimistic items are untouched. A fetch failure retains the previous items
// and surfaces its message in the error slot.
func (s *ReconcilerService) Reload(ctx context.Context) error {
	return s.reload(ctx, "user")
}

func (s *ReconcilerService) reload(ctx context.Context, trigger string) error {
	if _, ok := s.session.Token(); !ok {
		return appErrors.Clone(appErrors.ErrNoSession, "")
	}
	items, err := s.api.ListMine(ctx)
	if err != nil {
		s.metrics.RecordReload(trigger, false)
		s.mu.Lock()
		s.lastError = appErrors.FromError(err).Message
		s.mu.Unlock()
		return err
	}
	s.metrics.RecordReload(trigger, true)
	s.mu.Lock()
	s.serverItems = items
	s.warnUnknownStatusesLocked(items)
	s.ensurePollingLocked()
	s.mu.Unlock()
	return nil
}

// InsertOptimistic adds a freshly submitted placeholder and shows a toast.
func (s *ReconcilerService) InsertOptimistic(placeholder models.Announcement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.optimistic[placeholder.ID] = placeholder
	s.showToastLocked("announcement submitted for review")
	s.ensurePollingLocked()
}

// ResolveSubmission removes the optimistic entry for localID and reconciles
// the outcome. On success the confirmed record is upserted, carrying over the
// optimistic preview when the server has none yet. On failure the placeholder
// is dropped and the error surfaced; the user resubmits manually.
func (s *ReconcilerService) ResolveSubmission(localID string, result SubmissionResult) {
	s.mu.Lock()
	placeholder, existed := s.optimistic[localID]
	delete(s.optimistic, localID)
	intent, tombstoned := s.tombstones[localID]
	delete(s.tombstones, localID)

	if result.Err == nil && result.Announcement == nil {
		// A resolver call with neither an outcome nor an error is a
		// pipeline bug; surface it instead of crashing on the nil record.
		result.Err = appErrors.Clone(appErrors.ErrInternal, "submission resolved without a record")
	}
	if result.Err != nil {
		s.metrics.RecordSubmission("failed")
		s.lastError = appErrors.FromError(result.Err).Message
		s.ensurePollingLocked()
		s.mu.Unlock()
		return
	}

	confirmed := *result.Announcement
	if tombstoned {
		// The user archived or deleted the item while the create was in
		// flight. The server record exists now, so settle it there too
		// instead of letting the next reload resurrect it as active.
		s.mu.Unlock()
		go s.settleTombstone(confirmed.ID, intent)
		return
	}
	if existed {
		mergePreview(&confirmed, placeholder)
	}
	s.upsertServerItemLocked(confirmed)
	if result.Warning != "" {
		s.metrics.RecordSubmission("partial")
		s.showToastLocked(result.Warning)
	} else {
		s.metrics.RecordSubmission("created")
	}
	s.ensurePollingLocked()
	s.mu.Unlock()
}

// Archive archives an announcement. For an optimistic item the removal is
// local, the server does not know the record yet; the archive intent is
// tombstoned so an in-flight create still ends up archived server-side.
func (s *ReconcilerService) Archive(ctx context.Context, id string) error {
	if s.removeIfOptimistic(id, tombstoneArchive) {
		return nil
	}
	updated, err := s.api.Archive(ctx, id)
	if err != nil {
		s.setError(err)
		return err
	}
	s.mu.Lock()
	s.upsertServerItemLocked(*updated)
	s.mu.Unlock()
	return nil
}

// Delete removes an announcement. Optimistic items are removed locally and
// tombstoned so an in-flight create cannot resurrect them.
func (s *ReconcilerService) Delete(ctx context.Context, id string) error {
	if s.removeIfOptimistic(id, tombstoneDelete) {
		return nil
	}
	if _, err := s.api.Delete(ctx, id); err != nil {
		s.setError(err)
		return err
	}
	s.mu.Lock()
	s.dropServerItemLocked(id)
	s.mu.Unlock()
	return nil
}

// Merged returns the union of server and optimistic items, sorted by
// creation time descending with id descending as the tiebreak. The order is
// deterministic and stable across reloads.
func (s *ReconcilerService) Merged() []models.Announcement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mergedLocked()
}

// Bucket returns the merged items belonging to one status bucket. The
// projection is computed on demand and is always consistent with Merged.
func (s *ReconcilerService) Bucket(bucket models.Bucket) []models.Announcement {
	merged := s.Merged()
	out := make([]models.Announcement, 0, len(merged))
	for _, item := range merged {
		if item.Bucket() == bucket {
			out = append(out, item)
		}
	}
	return out
}

// Counts returns per-bucket item counts for badge display.
func (s *ReconcilerService) Counts() map[models.Bucket]int {
	counts := map[models.Bucket]int{
		models.BucketActive:        0,
		models.BucketActionsNeeded: 0,
		models.BucketArchived:      0,
	}
	for _, item := range s.Merged() {
		counts[item.Bucket()]++
	}
	return counts
}

// Toast returns the active transient message, if any.
func (s *ReconcilerService) Toast() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toast
}

// LastError returns the most recent surfaced failure.
func (s *ReconcilerService) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// ClearError resets the error slot; the consumer calls this after display.
func (s *ReconcilerService) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = ""
}

// Polling reports whether the background refresh loop is running.
func (s *ReconcilerService) Polling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polling
}

// Close tears the reconciler down, cancelling the polling loop and any
// pending toast expiry.
func (s *ReconcilerService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.pollCancel != nil {
		s.pollCancel()
		s.pollCancel = nil
	}
	s.polling = false
	if s.toastTimer != nil {
		s.toastTimer.Stop()
		s.toastTimer = nil
	}
	s.metrics.SetPollingActive(false)
}

func (s *ReconcilerService) mergedLocked() []models.Announcement {
	merged := make([]models.Announcement, 0, len(s.serverItems)+len(s.optimistic))
	merged = append(merged, s.serverItems...)
	for _, item := range s.optimistic {
		merged = append(merged, item)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].CreatedAt.After(merged[j].CreatedAt)
		}
		return merged[i].ID > merged[j].ID
	})
	return merged
}

func (s *ReconcilerService) upsertServerItemLocked(item models.Announcement) {
	for i := range s.serverItems {
		if s.serverItems[i].ID == item.ID {
			s.serverItems[i] = item
			return
		}
	}
	s.serverItems = append(s.serverItems, item)
}

func (s *ReconcilerService) dropServerItemLocked(id string) {
	for i := range s.serverItems {
		if s.serverItems[i].ID == id {
			s.serverItems = append(s.serverItems[:i], s.serverItems[i+1:]...)
			return
		}
	}
}

func (s *ReconcilerService) removeIfOptimistic(id string, intent tombstoneIntent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.optimistic[id]; !ok {
		return false
	}
	delete(s.optimistic, id)
	// The create may already be in flight; tombstone the local id so the
	// eventual confirmation is settled per the intent instead of reappearing.
	s.tombstones[id] = intent
	return true
}

func (s *ReconcilerService) settleTombstone(id string, intent tombstoneIntent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if intent == tombstoneArchive {
		updated, err := s.api.Archive(ctx, id)
		if err != nil {
			s.logger.Warn("failed to archive tombstoned announcement", zap.String("id", id), zap.Error(err))
			return
		}
		if updated != nil {
			s.mu.Lock()
			s.upsertServerItemLocked(*updated)
			s.mu.Unlock()
		}
		return
	}
	if _, err := s.api.Delete(ctx, id); err != nil {
		s.logger.Warn("failed to delete tombstoned announcement", zap.String("id", id), zap.Error(err))
	}
}

func (s *ReconcilerService) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = appErrors.FromError(err).Message
}

func (s *ReconcilerService) showToastLocked(message string) {
	if s.toastTimer != nil {
		s.toastTimer.Stop()
	}
	s.toast = message
	s.toastTimer = time.AfterFunc(s.toastTTL, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.toast == message {
			s.toast = ""
		}
	})
}

func (s *ReconcilerService) anyPendingLocked() bool {
	for _, item := range s.mergedLocked() {
		if item.Status() == models.StatusPendingReview {
			return true
		}
	}
	return false
}

// ensurePollingLocked starts the background refresh loop if anything is under
// review and no loop is active. Starting is idempotent.
func (s *ReconcilerService) ensurePollingLocked() {
	if s.polling || s.closed || !s.anyPendingLocked() {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.pollCancel = cancel
	s.polling = true
	s.metrics.SetPollingActive(true)
	go s.pollLoop(ctx)
}

func (s *ReconcilerService) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.metrics.RecordPollingTick()
			// Silent refresh; a single failed reload does not stop the
			// loop, the next tick retries.
			if err := s.reload(ctx, "poll"); err != nil {
				s.logger.Debug("polling reload failed", zap.Error(err))
				continue
			}
			s.mu.Lock()
			done := !s.anyPendingLocked()
			if done {
				s.polling = false
				if s.pollCancel != nil {
					s.pollCancel()
					s.pollCancel = nil
				}
				s.metrics.SetPollingActive(false)
			}
			s.mu.Unlock()
			if done {
				return
			}
		}
	}
}

func (s *ReconcilerService) warnUnknownStatusesLocked(items []models.Announcement) {
	for _, item := range items {
		if !models.KnownRawStatus(item.RawStatus) {
			s.logger.Warn("unrecognized announcement status, treating as pending review",
				zap.String("id", item.ID), zap.String("status", item.RawStatus))
		}
	}
}

// mergePreview carries the optimistic preview photos over when the confirmed
// record has none yet (media upload may still be settling server-side).
func mergePreview(confirmed *models.Announcement, placeholder models.Announcement) {
	if _, ok := confirmed.PreviewPhoto(); ok {
		return
	}
	photos, ok := placeholder.Data.Get(models.PhotosField)
	if !ok {
		return
	}
	if confirmed.Data == nil {
		confirmed.Data = jsonval.Document{}
	} else {
		confirmed.Data = confirmed.Data.Clone()
	}
	confirmed.Data[models.PhotosField] = photos
}
