package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/delegationapp/delegate/internal/dto"
	"github.com/delegationapp/delegate/internal/models"
	"github.com/delegationapp/delegate/internal/service"
	appErrors "github.com/delegationapp/delegate/pkg/errors"
	"github.com/delegationapp/delegate/pkg/response"
)

// MyAdsHandler exposes the reconciled "my announcements" view to the UI
// process.
type MyAdsHandler struct {
	reconciler *service.ReconcilerService
	exporter   *service.ExportService
}

// NewMyAdsHandler constructs the handler.
func NewMyAdsHandler(reconciler *service.ReconcilerService, exporter *service.ExportService) *MyAdsHandler {
	return &MyAdsHandler{reconciler: reconciler, exporter: exporter}
}

// List godoc
// @Summary My announcements, optionally filtered to one bucket
// @Tags MyAds
// @Produce json
// @Param bucket query string false "active | actions_needed | archived"
// @Success 200 {object} response.Envelope
// @Router /my-ads [get]
func (h *MyAdsHandler) List(c *gin.Context) {
	bucket := c.Query("bucket")
	var items []models.Announcement
	switch models.Bucket(bucket) {
	case models.BucketActive, models.BucketActionsNeeded, models.BucketArchived:
		items = h.reconciler.Bucket(models.Bucket(bucket))
	case "":
		items = h.reconciler.Merged()
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown bucket: "+bucket))
		return
	}
	response.JSON(c, http.StatusOK, dto.NewAdViews(items), nil)
}

// Counts godoc
// @Summary Per-bucket badge counts
// @Tags MyAds
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /my-ads/counts [get]
func (h *MyAdsHandler) Counts(c *gin.Context) {
	counts := h.reconciler.Counts()
	response.JSON(c, http.StatusOK, dto.CountsResponse{
		Active:        counts[models.BucketActive],
		ActionsNeeded: counts[models.BucketActionsNeeded],
		Archived:      counts[models.BucketArchived],
	}, nil)
}

// Reload godoc
// @Summary Refresh the list from the backend
// @Tags MyAds
// @Produce json
// @Success 204
// @Router /my-ads/reload [post]
func (h *MyAdsHandler) Reload(c *gin.Context) {
	if err := h.reconciler.Reload(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Toast godoc
// @Summary Active transient message, empty when none
// @Tags MyAds
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /my-ads/toast [get]
func (h *MyAdsHandler) Toast(c *gin.Context) {
	response.JSON(c, http.StatusOK, dto.ToastResponse{Message: h.reconciler.Toast()}, nil)
}

// LastError godoc
// @Summary Most recent surfaced failure
// @Tags MyAds
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /my-ads/error [get]
func (h *MyAdsHandler) LastError(c *gin.Context) {
	response.JSON(c, http.StatusOK, dto.ErrorSlotResponse{Message: h.reconciler.LastError()}, nil)
}

// ClearError godoc
// @Summary Clear the error slot after display
// @Tags MyAds
// @Success 204
// @Router /my-ads/error [delete]
func (h *MyAdsHandler) ClearError(c *gin.Context) {
	h.reconciler.ClearError()
	response.NoContent(c)
}

// Archive godoc
// @Summary Archive an announcement
// @Tags MyAds
// @Param id path string true "Announcement ID"
// @Success 204
// @Router /my-ads/{id}/archive [post]
func (h *MyAdsHandler) Archive(c *gin.Context) {
	if err := h.reconciler.Archive(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete an announcement
// @Tags MyAds
// @Param id path string true "Announcement ID"
// @Success 204
// @Router /my-ads/{id} [delete]
func (h *MyAdsHandler) Delete(c *gin.Context) {
	if err := h.reconciler.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export a summary of my announcements
// @Tags MyAds
// @Produce json
// @Param format query string true "csv | pdf"
// @Success 200 {object} response.Envelope
// @Router /my-ads/export [post]
func (h *MyAdsHandler) Export(c *gin.Context) {
	path, err := h.exporter.Export(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"path": path}, nil)
}
