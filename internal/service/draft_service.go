package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/delegationapp/delegate/internal/models"
	appErrors "github.com/delegationapp/delegate/pkg/errors"
	"github.com/delegationapp/delegate/pkg/jsonval"
)

// Authoring step names, in the order the flow walks them.
const (
	StepDetails  = "details"
	StepLocation = "location"
	StepSchedule = "schedule"
	StepContact  = "contact"
)

type draftStore interface {
	Get(ctx context.Context, id string) (*models.Draft, error)
	Save(ctx context.Context, draft *models.Draft) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Draft, error)
}

// DraftService owns the authoring flow: field mutation, step validation,
// geocoding, and conversion into a submission payload.
type DraftService struct {
	store     draftStore
	resolver  AddressResolver
	validator *validator.Validate
	maxPhotos int
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewDraftService constructs the service.
func NewDraftService(store draftStore, resolver AddressResolver, maxPhotos int, metrics *MetricsService, logger *zap.Logger) *DraftService {
	if maxPhotos <= 0 {
		maxPhotos = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	v := validator.New()
	v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		switch models.Category(strings.ToLower(fl.Field().String())) {
		case models.CategoryDelivery, models.CategoryHelp:
			return true
		default:
			return false
		}
	})
	return &DraftService{
		store:     store,
		resolver:  resolver,
		validator: v,
		maxPhotos: maxPhotos,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// NewDraftRequest creates a draft, optionally pre-filled from an existing
// announcement being restarted.
type NewDraftRequest struct {
	ID       string          `validate:"required"`
	Category string          `validate:"required,category"`
	Prefill  *models.Announcement
}

// New creates and persists an empty draft.
func (s *DraftService) New(ctx context.Context, req NewDraftRequest) (*models.Draft, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid draft request")
	}
	draft := &models.Draft{
		ID:       req.ID,
		Category: models.Category(strings.ToLower(req.Category)),
	}
	if req.Prefill != nil {
		draft.PrefillFrom(*req.Prefill)
	}
	if err := s.store.Save(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return draft, nil
}

// Get loads a draft by id.
func (s *DraftService) Get(ctx context.Context, id string) (*models.Draft, error) {
	draft, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "draft not found")
	}
	return draft, nil
}

// List returns all stored drafts.
func (s *DraftService) List(ctx context.Context) ([]models.Draft, error) {
	drafts, err := s.store.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list drafts")
	}
	return drafts, nil
}

// Discard removes a draft.
func (s *DraftService) Discard(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete draft")
	}
	return nil
}

// SetField mutates a single named draft field and persists the result.
// Unknown fields are rejected so typos in the UI surface immediately.
func (s *DraftService) SetField(ctx context.Context, id, field, value string) (*models.Draft, error) {
	draft, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch field {
	case "title":
		draft.Title = value
	case "budget":
		draft.Budget = value
	case "notes":
		draft.Notes = value
	case "audience":
		draft.Audience = value
	case "phone":
		draft.Phone = value
	case "pickup_address":
		draft.PickupAddress = value
	case "dropoff_address":
		draft.DropoffAddress = value
	case "address":
		draft.Address = value
	case "start_at":
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "start_at must be RFC3339")
		}
		draft.StartAt = t
	case "end_at":
		if value == "" {
			draft.EndAt = nil
			break
		}
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "end_at must be RFC3339")
		}
		draft.EndAt = &t
	case "floor":
		if value == "" {
			draft.Floor = nil
			break
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "floor must be an integer")
		}
		draft.Floor = &n
	case "cargo_length":
		if err := setDimension(&draft.Cargo.Length, value); err != nil {
			return nil, err
		}
	case "cargo_width":
		if err := setDimension(&draft.Cargo.Width, value); err != nil {
			return nil, err
		}
	case "cargo_height":
		if err := setDimension(&draft.Cargo.Height, value); err != nil {
			return nil, err
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown draft field: "+field)
	}
	if err := s.store.Save(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return draft, nil
}

// Attach adds a photo to the draft, enforcing the attachment cap.
func (s *DraftService) Attach(ctx context.Context, id string, attachment models.Attachment) (*models.Draft, error) {
	draft, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(draft.Attachments) >= s.maxPhotos {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attachment limit reached")
	}
	draft.Attachments = append(draft.Attachments, attachment)
	if err := s.store.Save(ctx, draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return draft, nil
}

// ValidateStep runs the named step's field rules. A nil return unlocks
// progression to the next step.
func (s *DraftService) ValidateStep(draft *models.Draft, step string) error {
	switch step {
	case StepDetails:
		if err := ValidateTitle(draft.Title); err != nil {
			return err
		}
		return ValidateBudget(draft.Budget)
	case StepLocation:
		for _, address := range draft.Addresses() {
			if err := ValidateAddress(address); err != nil {
				return err
			}
		}
		if draft.Category == models.CategoryDelivery {
			if err := ValidateRoute(draft.PickupAddress, draft.DropoffAddress); err != nil {
				return err
			}
			if err := ValidateCargo(draft.Cargo); err != nil {
				return err
			}
		}
		return ValidateFloor(draft.Floor)
	case StepSchedule:
		return ValidateTimeWindow(draft.StartAt, draft.EndAt, s.now())
	case StepContact:
		_, err := NormalizePhone(draft.Phone)
		return err
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown step: "+step)
	}
}

// ValidateAll runs every step, gating submission.
func (s *DraftService) ValidateAll(draft *models.Draft) error {
	for _, step := range []string{StepDetails, StepLocation, StepSchedule, StepContact} {
		if err := s.ValidateStep(draft, step); err != nil {
			return err
		}
	}
	return nil
}

// GeocodeIfChanged resolves each address field that has no memoized point
// yet. Unchanged addresses hit the per-draft cache and cost nothing. A
// not-found address is a field-scoped, user-facing error.
func (s *DraftService) GeocodeIfChanged(ctx context.Context, draft *models.Draft) error {
	for field, address := range draft.Addresses() {
		if _, ok := draft.CachedPoint(address); ok {
			s.metrics.RecordGeocodeLookup("hit")
			continue
		}
		point, err := s.resolver.Resolve(ctx, address)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "geocoding failed for "+field)
		}
		if point == nil {
			s.metrics.RecordGeocodeLookup("not_found")
			return appErrors.Clone(appErrors.ErrAddressNotFound, "address not found: "+field)
		}
		s.metrics.RecordGeocodeLookup("miss")
		draft.RememberPoint(address, *point)
	}
	if err := s.store.Save(ctx, draft); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return nil
}

// Payload converts a fully validated, geocoded draft into the submission
// payload. It fails if validation or geocoding was skipped.
func (s *DraftService) Payload(draft *models.Draft) (SubmissionPayload, error) {
	if err := s.ValidateAll(draft); err != nil {
		return SubmissionPayload{}, err
	}
	points, ok := draft.Points()
	if !ok {
		return SubmissionPayload{}, appErrors.Clone(appErrors.ErrValidation, "addresses are not geocoded yet")
	}

	phone, err := NormalizePhone(draft.Phone)
	if err != nil {
		return SubmissionPayload{}, err
	}

	data := jsonval.Document{
		"budget":   jsonval.String(strings.TrimSpace(draft.Budget)),
		"start_at": jsonval.String(draft.StartAt.UTC().Format(time.RFC3339)),
	}
	if draft.EndAt != nil {
		data["end_at"] = jsonval.String(draft.EndAt.UTC().Format(time.RFC3339))
	}
	if draft.Notes != "" {
		data["notes"] = jsonval.String(draft.Notes)
	}
	if draft.Audience != "" {
		data["audience"] = jsonval.String(draft.Audience)
	}
	if phone != "" {
		data["phone"] = jsonval.String(phone)
	}
	if draft.Floor != nil {
		data["floor"] = jsonval.Number(float64(*draft.Floor))
	}
	for field, address := range draft.Addresses() {
		data[field] = jsonval.String(strings.TrimSpace(address))
		point := points[field]
		data[field+"_point"] = jsonval.Object(map[string]jsonval.Value{
			"lat": jsonval.Number(point.Lat),
			"lon": jsonval.Number(point.Lon),
		})
	}
	if draft.Category == models.CategoryDelivery {
		if cargo := cargoValue(draft.Cargo); !cargo.IsNull() {
			data["cargo"] = cargo
		}
	}

	return SubmissionPayload{
		Category: draft.Category,
		Title:    strings.TrimSpace(draft.Title),
		Data:     data,
	}, nil
}

// Prepare loads a draft and takes it through the full submission gate:
// validation, geocoding, payload conversion. The returned payload and
// attachments are ready for the pipeline; the draft itself is discarded by
// the caller once the pipeline accepts them.
func (s *DraftService) Prepare(ctx context.Context, id string) (SubmissionPayload, []models.Attachment, error) {
	draft, err := s.Get(ctx, id)
	if err != nil {
		return SubmissionPayload{}, nil, err
	}
	if err := s.ValidateAll(draft); err != nil {
		return SubmissionPayload{}, nil, err
	}
	if err := s.GeocodeIfChanged(ctx, draft); err != nil {
		return SubmissionPayload{}, nil, err
	}
	payload, err := s.Payload(draft)
	if err != nil {
		return SubmissionPayload{}, nil, err
	}
	return payload, draft.Attachments, nil
}

func cargoValue(cargo models.CargoDimensions) jsonval.Value {
	obj := make(map[string]jsonval.Value)
	if cargo.Length != nil {
		obj["length"] = jsonval.Number(*cargo.Length)
	}
	if cargo.Width != nil {
		obj["width"] = jsonval.Number(*cargo.Width)
	}
	if cargo.Height != nil {
		obj["height"] = jsonval.Number(*cargo.Height)
	}
	if len(obj) == 0 {
		return jsonval.Null()
	}
	return jsonval.Object(obj)
}

func setDimension(target **float64, value string) error {
	if value == "" {
		*target = nil
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "cargo dimensions must be numeric")
	}
	*target = &f
	return nil
}
