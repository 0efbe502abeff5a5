package service

import (
	"context"

	"github.com/delegationapp/delegate/internal/models"
	"github.com/delegationapp/delegate/pkg/jsonval"
)

// SubmissionPayload is the create-announcement body built from a valid draft.
type SubmissionPayload struct {
	Category models.Category  `json:"category"`
	Title    string           `json:"title"`
	Data     jsonval.Document `json:"data"`
}

// AnnouncementAPI is the marketplace backend as the engine sees it. All calls
// are request/response over an authenticated transport.
type AnnouncementAPI interface {
	Create(ctx context.Context, payload SubmissionPayload) (*models.Announcement, error)
	UploadMedia(ctx context.Context, id string, files []models.Attachment) (*models.Announcement, error)
	ListMine(ctx context.Context) ([]models.Announcement, error)
	ListPublic(ctx context.Context, page, pageSize int) ([]models.Announcement, int, error)
	Archive(ctx context.Context, id string) (*models.Announcement, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// AddressResolver turns free-text addresses into coordinates. A nil
// coordinate with a nil error means the address was not found.
type AddressResolver interface {
	Resolve(ctx context.Context, text string) (*models.Coordinate, error)
}

// SessionProvider exposes the current auth token. ok is false when the user
// is unauthenticated or the stored token has expired.
type SessionProvider interface {
	Token() (string, bool)
}
