package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/delegationapp/delegate/internal/dto"
	"github.com/delegationapp/delegate/internal/models"
	"github.com/delegationapp/delegate/internal/service"
	appErrors "github.com/delegationapp/delegate/pkg/errors"
	"github.com/delegationapp/delegate/pkg/response"
)

// DraftHandler drives the authoring flow over the gateway.
type DraftHandler struct {
	drafts     *service.DraftService
	pipeline   *service.SubmissionService
	reconciler *service.ReconcilerService
}

// NewDraftHandler constructs the handler.
func NewDraftHandler(drafts *service.DraftService, pipeline *service.SubmissionService, reconciler *service.ReconcilerService) *DraftHandler {
	return &DraftHandler{drafts: drafts, pipeline: pipeline, reconciler: reconciler}
}

// Create godoc
// @Summary Start a new draft
// @Tags Drafts
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /drafts [post]
func (h *DraftHandler) Create(c *gin.Context) {
	var req dto.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	svcReq := service.NewDraftRequest{ID: req.ID, Category: req.Category}
	if req.RestartFrom != "" {
		for _, item := range h.reconciler.Merged() {
			if item.ID == req.RestartFrom {
				existing := item
				svcReq.Prefill = &existing
				break
			}
		}
		if svcReq.Prefill == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "announcement to restart from not found"))
			return
		}
	}
	draft, err := h.drafts.New(c.Request.Context(), svcReq)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewDraftView(*draft))
}

// List godoc
// @Summary Stored drafts
// @Tags Drafts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /drafts [get]
func (h *DraftHandler) List(c *gin.Context) {
	drafts, err := h.drafts.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDraftViews(drafts), nil)
}

// Get godoc
// @Summary One draft
// @Tags Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Router /drafts/{id} [get]
func (h *DraftHandler) Get(c *gin.Context) {
	draft, err := h.drafts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDraftView(*draft), nil)
}

// SetField godoc
// @Summary Mutate one draft field
// @Tags Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Router /drafts/{id}/fields [post]
func (h *DraftHandler) SetField(c *gin.Context) {
	var req dto.SetFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	draft, err := h.drafts.SetField(c.Request.Context(), c.Param("id"), req.Field, req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDraftView(*draft), nil)
}

// ValidateStep godoc
// @Summary Validate one authoring step
// @Tags Drafts
// @Accept json
// @Param id path string true "Draft ID"
// @Success 204
// @Router /drafts/{id}/validate [post]
func (h *DraftHandler) ValidateStep(c *gin.Context) {
	var req dto.ValidateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	draft, err := h.drafts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.drafts.ValidateStep(draft, req.Step); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Attach godoc
// @Summary Attach a photo to a draft
// @Tags Drafts
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Router /drafts/{id}/attachments [post]
func (h *DraftHandler) Attach(c *gin.Context) {
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "photo file required"))
		return
	}
	defer file.Close() //nolint:errcheck
	data, err := io.ReadAll(io.LimitReader(file, 10<<20))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read photo"))
		return
	}
	draft, err := h.drafts.Attach(c.Request.Context(), c.Param("id"), models.Attachment{Name: header.Filename, Data: data})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDraftView(*draft), nil)
}

// Delete godoc
// @Summary Discard a draft
// @Tags Drafts
// @Param id path string true "Draft ID"
// @Success 204
// @Router /drafts/{id} [delete]
func (h *DraftHandler) Delete(c *gin.Context) {
	if err := h.drafts.Discard(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submit godoc
// @Summary Submit a draft; returns the optimistic placeholder immediately
// @Tags Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Success 202 {object} response.Envelope
// @Router /drafts/{id}/submit [post]
func (h *DraftHandler) Submit(c *gin.Context) {
	id := c.Param("id")
	payload, attachments, err := h.drafts.Prepare(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	placeholder, err := h.pipeline.Submit(payload, attachments)
	if err != nil {
		response.Error(c, err)
		return
	}
	// The draft is consumed exactly once; discard it now that the pipeline
	// owns the submission.
	if err := h.drafts.Discard(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, dto.NewAdView(*placeholder), nil)
}
