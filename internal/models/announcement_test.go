package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/delegationapp/delegate/pkg/jsonval"
)

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]Status{
		"active":         StatusActive,
		"Published":      StatusActive,
		"OPEN":           StatusActive,
		"draft":          StatusPendingReview,
		"pending":        StatusPendingReview,
		"review":         StatusPendingReview,
		"in_review":      StatusPendingReview,
		"pending_review": StatusPendingReview,
		"needs_fix":      StatusNeedsFix,
		"needs_changes":  StatusNeedsFix,
		"revision":       StatusNeedsFix,
		"archived":       StatusArchived,
		"closed":         StatusArchived,
		"expired":        StatusArchived,
		"rejected":       StatusRejected,
		"declined":       StatusRejected,
		" active ":       StatusActive,
	}
	for raw, want := range cases {
		assert.Equal(t, want, NormalizeStatus(raw), "raw=%q", raw)
	}
}

func TestNormalizeStatusUnknownFallsBackToPendingReview(t *testing.T) {
	for _, raw := range []string{"", "shadow_banned", "???", "actively"} {
		assert.Equal(t, StatusPendingReview, NormalizeStatus(raw), "raw=%q", raw)
		assert.False(t, KnownRawStatus(raw), "raw=%q", raw)
	}
	assert.True(t, KnownRawStatus("Published"))
}

func TestBucketForCoversEveryStatus(t *testing.T) {
	assert.Equal(t, BucketActive, BucketFor(StatusActive))
	assert.Equal(t, BucketActionsNeeded, BucketFor(StatusPendingReview))
	assert.Equal(t, BucketActionsNeeded, BucketFor(StatusNeedsFix))
	assert.Equal(t, BucketArchived, BucketFor(StatusArchived))
	assert.Equal(t, BucketArchived, BucketFor(StatusRejected))
}

func TestAnnouncementHelpers(t *testing.T) {
	a := Announcement{
		ID:        LocalIDPrefix + "abc",
		RawStatus: "pending",
		Data: jsonval.Document{
			SubmissionIDField: jsonval.String("sub-1"),
			PhotosField: jsonval.Array([]jsonval.Value{
				jsonval.String("/previews/abc-0.bin"),
				jsonval.String("/previews/abc-1.bin"),
			}),
		},
	}

	assert.True(t, a.IsLocal())
	assert.Equal(t, BucketActionsNeeded, a.Bucket())

	id, ok := a.SubmissionID()
	assert.True(t, ok)
	assert.Equal(t, "sub-1", id)

	photo, ok := a.PreviewPhoto()
	assert.True(t, ok)
	assert.Equal(t, "/previews/abc-0.bin", photo)

	server := Announcement{ID: "42", RawStatus: "active"}
	assert.False(t, server.IsLocal())
	_, ok = server.SubmissionID()
	assert.False(t, ok)
	_, ok = server.PreviewPhoto()
	assert.False(t, ok)
}
