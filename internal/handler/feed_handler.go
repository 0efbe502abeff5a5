package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/delegationapp/delegate/internal/dto"
	"github.com/delegationapp/delegate/internal/service"
	"github.com/delegationapp/delegate/pkg/response"
)

// FeedHandler exposes the public announcement feed.
type FeedHandler struct {
	feed *service.FeedService
}

// NewFeedHandler constructs the handler.
func NewFeedHandler(feed *service.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// List godoc
// @Summary Public announcement feed
// @Tags Feed
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /feed [get]
func (h *FeedHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	items, pagination, err := h.feed.List(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewAdViews(items), pagination)
}
