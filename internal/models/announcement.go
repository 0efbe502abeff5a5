package models

import (
	"strings"
	"time"

	"github.com/delegationapp/delegate/pkg/jsonval"
)

// Category distinguishes the two task kinds the marketplace supports.
type Category string

const (
	CategoryDelivery Category = "delivery"
	CategoryHelp     Category = "help"
)

// Status is the normalized announcement status. The backend emits a wider,
// evolving set of raw strings; the client collapses them here.
type Status string

const (
	StatusActive        Status = "active"
	StatusPendingReview Status = "pending_review"
	StatusNeedsFix      Status = "needs_fix"
	StatusArchived      Status = "archived"
	StatusRejected      Status = "rejected"
)

// Bucket groups normalized statuses for the three list tabs.
type Bucket string

const (
	BucketActive        Bucket = "active"
	BucketActionsNeeded Bucket = "actions_needed"
	BucketArchived      Bucket = "archived"
)

// LocalIDPrefix marks announcements that exist only on this device while a
// submission is in flight.
const LocalIDPrefix = "local-"

// SubmissionIDField is the data key linking an optimistic placeholder to its
// pending network operation.
const SubmissionIDField = "client_submission_id"

// PhotosField is the data key carrying photo paths or URLs.
const PhotosField = "photos"

// Announcement is the server-of-record entity, or an optimistic placeholder
// for one when ID carries LocalIDPrefix.
type Announcement struct {
	ID        string          `json:"id"`
	Category  Category        `json:"category"`
	Title     string          `json:"title"`
	RawStatus string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	Data      jsonval.Document `json:"data"`
}

// NormalizeStatus collapses a raw backend status string into the fixed set.
// Unrecognized values normalize to pending_review: showing a new backend
// state as "in review" is safer than presenting it as live.
func NormalizeStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active", "published", "open":
		return StatusActive
	case "draft", "pending", "review", "in_review", "pending_review":
		return StatusPendingReview
	case "needs_fix", "needs_changes", "revision":
		return StatusNeedsFix
	case "archived", "closed", "expired":
		return StatusArchived
	case "rejected", "declined":
		return StatusRejected
	default:
		return StatusPendingReview
	}
}

// KnownRawStatus reports whether the raw string maps to the fixed set without
// hitting the unrecognized-value fallback.
func KnownRawStatus(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active", "published", "open",
		"draft", "pending", "review", "in_review", "pending_review",
		"needs_fix", "needs_changes", "revision",
		"archived", "closed", "expired",
		"rejected", "declined":
		return true
	default:
		return false
	}
}

// BucketFor places a normalized status into exactly one list bucket.
func BucketFor(s Status) Bucket {
	switch s {
	case StatusPendingReview, StatusNeedsFix:
		return BucketActionsNeeded
	case StatusArchived, StatusRejected:
		return BucketArchived
	default:
		return BucketActive
	}
}

// Status returns the announcement's normalized status.
func (a Announcement) Status() Status {
	return NormalizeStatus(a.RawStatus)
}

// Bucket returns the list bucket the announcement belongs to.
func (a Announcement) Bucket() Bucket {
	return BucketFor(a.Status())
}

// IsLocal reports whether the announcement is an optimistic placeholder.
func (a Announcement) IsLocal() bool {
	return strings.HasPrefix(a.ID, LocalIDPrefix)
}

// SubmissionID returns the pending-operation marker, if any.
func (a Announcement) SubmissionID() (string, bool) {
	return a.Data.GetString(SubmissionIDField)
}

// PreviewPhoto returns the first photo path/URL attached to the announcement.
func (a Announcement) PreviewPhoto() (string, bool) {
	photos, ok := a.Data.Get(PhotosField)
	if !ok {
		return "", false
	}
	items, ok := photos.AsArray()
	if !ok || len(items) == 0 {
		return "", false
	}
	return items[0].AsString()
}

// Pagination describes paged list metadata on gateway responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
