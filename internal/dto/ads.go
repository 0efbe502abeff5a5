package dto

import (
	"time"

	"github.com/delegationapp/delegate/internal/models"
)

// AdView is the gateway's projection of one announcement.
type AdView struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Category     models.Category    `json:"category"`
	Status       models.Status      `json:"status"`
	Bucket       models.Bucket      `json:"bucket"`
	CreatedAt    time.Time          `json:"created_at"`
	Optimistic   bool               `json:"optimistic"`
	PreviewPhoto string             `json:"preview_photo,omitempty"`
	Severity     string             `json:"severity"`
	Moderation   *models.Moderation `json:"moderation,omitempty"`
}

// NewAdView derives the view, including the moderation projection.
func NewAdView(a models.Announcement) AdView {
	view := AdView{
		ID:         a.ID,
		Title:      a.Title,
		Category:   a.Category,
		Status:     a.Status(),
		Bucket:     a.Bucket(),
		CreatedAt:  a.CreatedAt,
		Optimistic: a.IsLocal(),
	}
	if photo, ok := a.PreviewPhoto(); ok {
		view.PreviewPhoto = photo
	}
	moderation := models.ModerationFor(a)
	view.Severity = moderation.ItemSeverity().String()
	if moderation.Decision != nil || len(moderation.Reasons) > 0 || len(moderation.Suggestions) > 0 {
		view.Moderation = &moderation
	}
	return view
}

// NewAdViews maps a list of announcements.
func NewAdViews(items []models.Announcement) []AdView {
	views := make([]AdView, 0, len(items))
	for _, item := range items {
		views = append(views, NewAdView(item))
	}
	return views
}

// CountsResponse carries per-bucket badge counts.
type CountsResponse struct {
	Active        int `json:"active"`
	ActionsNeeded int `json:"actions_needed"`
	Archived      int `json:"archived"`
}

// ToastResponse carries the active transient message, empty when none.
type ToastResponse struct {
	Message string `json:"message"`
}

// ErrorSlotResponse carries the most recent surfaced failure.
type ErrorSlotResponse struct {
	Message string `json:"message"`
}
