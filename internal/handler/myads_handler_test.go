package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/delegationapp/delegate/internal/dto"
	"github.com/delegationapp/delegate/internal/models"
	"github.com/delegationapp/delegate/internal/service"
	"github.com/delegationapp/delegate/pkg/response"
)

type fakeSession struct{}

func (fakeSession) Token() (string, bool) { return "tok", true }

type fakeAPI struct {
	mine     []models.Announcement
	archived []string
	deleted  []string
}

func (f *fakeAPI) Create(ctx context.Context, payload service.SubmissionPayload) (*models.Announcement, error) {
	return &models.Announcement{ID: "42", Category: payload.Category, Title: payload.Title, RawStatus: "pending_review", CreatedAt: time.Now()}, nil
}

func (f *fakeAPI) UploadMedia(ctx context.Context, id string, files []models.Attachment) (*models.Announcement, error) {
	return &models.Announcement{ID: id, RawStatus: "pending_review"}, nil
}

func (f *fakeAPI) ListMine(ctx context.Context) ([]models.Announcement, error) {
	return f.mine, nil
}

func (f *fakeAPI) ListPublic(ctx context.Context, page, pageSize int) ([]models.Announcement, int, error) {
	return f.mine, len(f.mine), nil
}

func (f *fakeAPI) Archive(ctx context.Context, id string) (*models.Announcement, error) {
	f.archived = append(f.archived, id)
	return &models.Announcement{ID: id, RawStatus: "archived"}, nil
}

func (f *fakeAPI) Delete(ctx context.Context, id string) (bool, error) {
	f.deleted = append(f.deleted, id)
	return true, nil
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func newLoadedReconciler(t *testing.T, api *fakeAPI) *service.ReconcilerService {
	t.Helper()
	reconciler := service.NewReconcilerService(api, fakeSession{}, time.Hour, time.Hour, nil, zap.NewNop())
	t.Cleanup(reconciler.Close)
	require.NoError(t, reconciler.Reload(context.Background()))
	return reconciler
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, data interface{}) {
	t.Helper()
	var env response.Envelope
	env.Data = data
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
}

func TestMyAdsHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api := &fakeAPI{mine: []models.Announcement{
		{ID: "1", Title: "Wash windows", RawStatus: "active", CreatedAt: time.Now()},
		{ID: "2", Title: "Move a couch", RawStatus: "needs_fix", CreatedAt: time.Now().Add(-time.Hour)},
	}}
	handler := NewMyAdsHandler(newLoadedReconciler(t, api), nil)

	c, w := newGinContext(http.MethodGet, "/my-ads", nil)
	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var views []dto.AdView
	decodeEnvelope(t, w, &views)
	require.Len(t, views, 2)
	assert.Equal(t, "1", views[0].ID)
	assert.Equal(t, models.BucketActive, views[0].Bucket)
}

func TestMyAdsHandlerListBucketFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api := &fakeAPI{mine: []models.Announcement{
		{ID: "1", RawStatus: "active", CreatedAt: time.Now()},
		{ID: "2", RawStatus: "needs_fix", CreatedAt: time.Now()},
	}}
	handler := NewMyAdsHandler(newLoadedReconciler(t, api), nil)

	c, w := newGinContext(http.MethodGet, "/my-ads?bucket=actions_needed", nil)
	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	var views []dto.AdView
	decodeEnvelope(t, w, &views)
	require.Len(t, views, 1)
	assert.Equal(t, "2", views[0].ID)

	c, w = newGinContext(http.MethodGet, "/my-ads?bucket=trash", nil)
	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMyAdsHandlerCounts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api := &fakeAPI{mine: []models.Announcement{
		{ID: "1", RawStatus: "active", CreatedAt: time.Now()},
		{ID: "2", RawStatus: "rejected", CreatedAt: time.Now()},
		{ID: "3", RawStatus: "pending", CreatedAt: time.Now()},
	}}
	handler := NewMyAdsHandler(newLoadedReconciler(t, api), nil)

	c, w := newGinContext(http.MethodGet, "/my-ads/counts", nil)
	handler.Counts(c)
	require.Equal(t, http.StatusOK, w.Code)

	var counts dto.CountsResponse
	decodeEnvelope(t, w, &counts)
	assert.Equal(t, 1, counts.Active)
	assert.Equal(t, 1, counts.ActionsNeeded)
	assert.Equal(t, 1, counts.Archived)
}

func TestMyAdsHandlerArchiveAndDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api := &fakeAPI{mine: []models.Announcement{{ID: "1", RawStatus: "active", CreatedAt: time.Now()}}}
	handler := NewMyAdsHandler(newLoadedReconciler(t, api), nil)

	c, w := newGinContext(http.MethodPost, "/my-ads/1/archive", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	handler.Archive(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"1"}, api.archived)

	c, w = newGinContext(http.MethodDelete, "/my-ads/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"1"}, api.deleted)
}

func TestMyAdsHandlerToastAndError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reconciler := newLoadedReconciler(t, &fakeAPI{})
	handler := NewMyAdsHandler(reconciler, nil)

	c, w := newGinContext(http.MethodGet, "/my-ads/toast", nil)
	handler.Toast(c)
	require.Equal(t, http.StatusOK, w.Code)
	var toast dto.ToastResponse
	decodeEnvelope(t, w, &toast)
	assert.Empty(t, toast.Message)

	reconciler.InsertOptimistic(models.Announcement{ID: models.LocalIDPrefix + "x", RawStatus: "pending", CreatedAt: time.Now()})
	c, w = newGinContext(http.MethodGet, "/my-ads/toast", nil)
	handler.Toast(c)
	decodeEnvelope(t, w, &toast)
	assert.Equal(t, "announcement submitted for review", toast.Message)

	c, w = newGinContext(http.MethodDelete, "/my-ads/error", nil)
	handler.ClearError(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestMyAdsHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reconciler := newLoadedReconciler(t, &fakeAPI{mine: []models.Announcement{{ID: "1", Title: "Wash windows", RawStatus: "active"}}})
	exporter := service.NewExportService(reconciler, t.TempDir(), zap.NewNop())
	handler := NewMyAdsHandler(reconciler, exporter)

	c, w := newGinContext(http.MethodPost, "/my-ads/export?format=csv", nil)
	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Path string `json:"path"`
	}
	decodeEnvelope(t, w, &out)
	assert.NotEmpty(t, out.Path)
}
