package dto

import (
	"time"

	"github.com/delegationapp/delegate/internal/models"
)

// CreateDraftRequest starts a new authoring flow.
type CreateDraftRequest struct {
	ID       string `json:"id" binding:"required"`
	Category string `json:"category" binding:"required"`
	// RestartFrom pre-fills the draft from an existing announcement the
	// user is resubmitting after rejection.
	RestartFrom string `json:"restart_from,omitempty"`
}

// SetFieldRequest mutates one draft field.
type SetFieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// ValidateStepRequest names the step to validate.
type ValidateStepRequest struct {
	Step string `json:"step" binding:"required"`
}

// DraftView is the gateway's projection of a draft.
type DraftView struct {
	ID             string                 `json:"id"`
	Category       models.Category        `json:"category"`
	Title          string                 `json:"title"`
	Budget         string                 `json:"budget"`
	Notes          string                 `json:"notes"`
	Audience       string                 `json:"audience"`
	Phone          string                 `json:"phone"`
	PickupAddress  string                 `json:"pickup_address,omitempty"`
	DropoffAddress string                 `json:"dropoff_address,omitempty"`
	Address        string                 `json:"address,omitempty"`
	Cargo          models.CargoDimensions `json:"cargo"`
	Floor          *int                   `json:"floor,omitempty"`
	StartAt        *time.Time             `json:"start_at,omitempty"`
	EndAt          *time.Time             `json:"end_at,omitempty"`
	Attachments    int                    `json:"attachments"`
}

// NewDraftView derives the view.
func NewDraftView(d models.Draft) DraftView {
	view := DraftView{
		ID:             d.ID,
		Category:       d.Category,
		Title:          d.Title,
		Budget:         d.Budget,
		Notes:          d.Notes,
		Audience:       d.Audience,
		Phone:          d.Phone,
		PickupAddress:  d.PickupAddress,
		DropoffAddress: d.DropoffAddress,
		Address:        d.Address,
		Cargo:          d.Cargo,
		Floor:          d.Floor,
		EndAt:          d.EndAt,
		Attachments:    len(d.Attachments),
	}
	if !d.StartAt.IsZero() {
		start := d.StartAt
		view.StartAt = &start
	}
	return view
}

// NewDraftViews maps a list of drafts.
func NewDraftViews(drafts []models.Draft) []DraftView {
	views := make([]DraftView, 0, len(drafts))
	for _, draft := range drafts {
		views = append(views, NewDraftView(draft))
	}
	return views
}
