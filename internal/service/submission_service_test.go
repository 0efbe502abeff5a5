package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/delegationapp/delegate/internal/models"
	"github.com/delegationapp/delegate/pkg/jsonval"
	"github.com/delegationapp/delegate/pkg/storage"
)

type stubResolver struct {
	mu       sync.Mutex
	inserted []models.Announcement
	resolved map[string]SubmissionResult
	done     chan struct{}
}

func newStubResolver() *stubResolver {
	return &stubResolver{resolved: make(map[string]SubmissionResult), done: make(chan struct{}, 8)}
}

func (r *stubResolver) InsertOptimistic(placeholder models.Announcement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserted = append(r.inserted, placeholder)
}

func (r *stubResolver) ResolveSubmission(localID string, result SubmissionResult) {
	r.mu.Lock()
	r.resolved[localID] = result
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *stubResolver) waitResolved(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("submission never resolved")
	}
}

func (r *stubResolver) result(localID string) SubmissionResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolved[localID]
}

func newTestPipeline(t *testing.T, api *stubAPI, resolver submissionResolver) *SubmissionService {
	t.Helper()
	previews, err := storage.NewPreviewStore(t.TempDir())
	require.NoError(t, err)
	svc := NewSubmissionService(api, &stubSession{token: "tok", ok: true}, resolver, previews,
		SubmissionConfig{Workers: 1, BufferSize: 4}, zap.NewNop())
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)
	return svc
}

func TestSubmitRequiresSession(t *testing.T) {
	resolver := newStubResolver()
	svc := NewSubmissionService(&stubAPI{}, &stubSession{}, resolver, nil,
		SubmissionConfig{Workers: 1, BufferSize: 1}, zap.NewNop())

	_, err := svc.Submit(SubmissionPayload{Category: models.CategoryHelp, Title: "Wash windows"}, nil)
	require.Error(t, err)
	assert.Empty(t, resolver.inserted)
}

func TestSubmitReturnsPlaceholderImmediately(t *testing.T) {
	api := &stubAPI{
		created:  &models.Announcement{ID: "42", RawStatus: "pending", CreatedAt: time.Now()},
		uploaded: &models.Announcement{ID: "42", RawStatus: "pending", CreatedAt: time.Now()},
	}
	resolver := newStubResolver()
	svc := newTestPipeline(t, api, resolver)

	payload := SubmissionPayload{
		Category: models.CategoryHelp,
		Title:    "Wash windows",
		Data:     jsonval.Document{"budget": jsonval.String("1500")},
	}
	attachments := []models.Attachment{{Name: "a.jpg", Data: []byte{0x01}}}

	placeholder, err := svc.Submit(payload, attachments)
	require.NoError(t, err)
	assert.True(t, placeholder.IsLocal())
	assert.Equal(t, models.StatusPendingReview, placeholder.Status())
	assert.Equal(t, "Wash windows", placeholder.Title)

	_, ok := placeholder.SubmissionID()
	assert.True(t, ok, "placeholder carries the pending-operation marker")
	_, ok = placeholder.PreviewPhoto()
	assert.True(t, ok, "attachment previews are visible before the upload finishes")

	// the caller's payload document is not mutated
	_, ok = payload.Data.Get(models.SubmissionIDField)
	assert.False(t, ok)

	resolver.waitResolved(t)
	result := resolver.result(placeholder.ID)
	require.NoError(t, result.Err)
	assert.Equal(t, "42", result.Announcement.ID)
	assert.Empty(t, result.Warning)
	assert.Len(t, api.uploadedWith, 1)
}

func TestSubmitCreateFailure(t *testing.T) {
	api := &stubAPI{createErr: context.DeadlineExceeded}
	resolver := newStubResolver()
	svc := newTestPipeline(t, api, resolver)

	placeholder, err := svc.Submit(SubmissionPayload{Category: models.CategoryHelp, Title: "Wash windows"}, nil)
	require.NoError(t, err, "Submit itself succeeds, the failure lands asynchronously")

	resolver.waitResolved(t)
	result := resolver.result(placeholder.ID)
	assert.Error(t, result.Err)
	assert.Nil(t, result.Announcement)
}

func TestSubmitPartialFailureIsSuccessWithWarning(t *testing.T) {
	api := &stubAPI{
		created:   &models.Announcement{ID: "42", RawStatus: "pending", CreatedAt: time.Now()},
		uploadErr: context.DeadlineExceeded,
	}
	resolver := newStubResolver()
	svc := newTestPipeline(t, api, resolver)

	placeholder, err := svc.Submit(SubmissionPayload{Category: models.CategoryHelp, Title: "Wash windows"},
		[]models.Attachment{{Name: "a.jpg", Data: []byte{0x01}}})
	require.NoError(t, err)

	resolver.waitResolved(t)
	result := resolver.result(placeholder.ID)
	require.NoError(t, result.Err)
	assert.Equal(t, "42", result.Announcement.ID, "the created record survives the lost media")
	assert.Equal(t, "announcement created, photos failed to upload", result.Warning)
}

func TestSubmitUploadWithoutRecordIsPartialFailure(t *testing.T) {
	// UploadMedia answering with neither a record nor an error must not take
	// down the pipeline; the created record wins and the warning surfaces.
	api := &stubAPI{created: &models.Announcement{ID: "42", RawStatus: "pending", CreatedAt: time.Now()}}
	resolver := newStubResolver()
	svc := newTestPipeline(t, api, resolver)

	placeholder, err := svc.Submit(SubmissionPayload{Category: models.CategoryHelp, Title: "Wash windows"},
		[]models.Attachment{{Name: "a.jpg", Data: []byte{0x01}}})
	require.NoError(t, err)

	resolver.waitResolved(t)
	result := resolver.result(placeholder.ID)
	require.NoError(t, result.Err)
	require.NotNil(t, result.Announcement)
	assert.Equal(t, "42", result.Announcement.ID)
	assert.Equal(t, "announcement created, photos failed to upload", result.Warning)
}

func TestSubmitCreateWithoutRecordFails(t *testing.T) {
	api := &stubAPI{}
	resolver := newStubResolver()
	svc := newTestPipeline(t, api, resolver)

	placeholder, err := svc.Submit(SubmissionPayload{Category: models.CategoryHelp, Title: "Wash windows"}, nil)
	require.NoError(t, err)

	resolver.waitResolved(t)
	result := resolver.result(placeholder.ID)
	assert.Error(t, result.Err)
	assert.Nil(t, result.Announcement)
}

func TestSubmitNoUploadWithoutAttachments(t *testing.T) {
	api := &stubAPI{created: &models.Announcement{ID: "42", RawStatus: "pending", CreatedAt: time.Now()}}
	resolver := newStubResolver()
	svc := newTestPipeline(t, api, resolver)

	_, err := svc.Submit(SubmissionPayload{Category: models.CategoryHelp, Title: "Wash windows"}, nil)
	require.NoError(t, err)

	resolver.waitResolved(t)
	assert.Nil(t, api.uploadedWith)
}

// End to end through the real reconciler: submit, watch the placeholder in
// actions_needed, then watch the confirmation replace it.
func TestSubmissionLifecycle(t *testing.T) {
	created := models.Announcement{ID: "42", Category: models.CategoryDelivery, Title: "Move a couch", RawStatus: "active", CreatedAt: time.Now()}
	api := &stubAPI{created: &created}
	reconciler := newTestReconciler(api)
	defer reconciler.Close()
	svc := newTestPipeline(t, api, reconciler)

	placeholder, err := svc.Submit(SubmissionPayload{Category: models.CategoryDelivery, Title: "Move a couch"}, nil)
	require.NoError(t, err)

	// optimistic state is observable before the network settles
	actions := reconciler.Bucket(models.BucketActionsNeeded)
	if len(actions) == 1 {
		assert.Equal(t, placeholder.ID, actions[0].ID)
	}

	assert.Eventually(t, func() bool {
		merged := reconciler.Merged()
		return len(merged) == 1 && merged[0].ID == "42"
	}, 2*time.Second, 10*time.Millisecond)

	assert.Empty(t, reconciler.Bucket(models.BucketActionsNeeded))
	active := reconciler.Bucket(models.BucketActive)
	require.Len(t, active, 1)
	assert.Equal(t, "Move a couch", active[0].Title)
}
