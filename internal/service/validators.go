package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/delegationapp/delegate/internal/models"
	appErrors "github.com/delegationapp/delegate/pkg/errors"
)

// Field rule boundaries. These mirror what the backend enforces; failing
// locally keeps a doomed submission off the wire.
const (
	titleMinLen = 3
	titleMaxLen = 200

	budgetMax = 1_000_000

	startLeadTime = 5 * time.Minute
	minTimeWindow = 10 * time.Minute

	addressMinLen = 5

	cargoMaxLength = 85
	cargoMaxWidth  = 57
	cargoMaxHeight = 57

	floorMin = 0
	floorMax = 200
)

// ValidateTitle checks title length bounds.
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if len([]rune(trimmed)) < titleMinLen {
		return appErrors.Clone(appErrors.ErrValidation, "title must be at least 3 characters")
	}
	if len([]rune(trimmed)) > titleMaxLen {
		return appErrors.Clone(appErrors.ErrValidation, "title must be at most 200 characters")
	}
	return nil
}

// ValidateBudget checks the budget parses as a non-negative decimal within
// the marketplace cap.
func ValidateBudget(budget string) error {
	trimmed := strings.TrimSpace(budget)
	if trimmed == "" {
		return appErrors.Clone(appErrors.ErrValidation, "budget is required")
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "budget must be a number")
	}
	if value < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "budget must not be negative")
	}
	if value > budgetMax {
		return appErrors.Clone(appErrors.ErrValidation, "budget must not exceed 1000000")
	}
	return nil
}

// ValidateTimeWindow checks the start lead time and, when an end is present,
// the minimum window length. now is injected for determinism.
func ValidateTimeWindow(start time.Time, end *time.Time, now time.Time) error {
	if start.Before(now.Add(startLeadTime)) {
		return appErrors.Clone(appErrors.ErrValidation, "start time must be at least 5 minutes from now")
	}
	if end != nil && end.Before(start.Add(minTimeWindow)) {
		return appErrors.Clone(appErrors.ErrValidation, "end time must be at least 10 minutes after start")
	}
	return nil
}

// ValidateAddress checks the minimum useful address length after whitespace
// normalization.
func ValidateAddress(address string) error {
	normalized := models.NormalizeAddress(address)
	if normalized == "" {
		return appErrors.Clone(appErrors.ErrValidation, "address is required")
	}
	if len([]rune(normalized)) < addressMinLen {
		return appErrors.Clone(appErrors.ErrValidation, "address must be at least 5 characters")
	}
	return nil
}

// ValidateRoute rejects a route whose pickup and dropoff normalize to the
// same address.
func ValidateRoute(pickup, dropoff string) error {
	if models.NormalizeAddress(pickup) == models.NormalizeAddress(dropoff) {
		return appErrors.Clone(appErrors.ErrValidation, "pickup and dropoff must differ")
	}
	return nil
}

// ValidateCargo checks optional per-axis cargo dimensions against the courier
// maxima.
func ValidateCargo(cargo models.CargoDimensions) error {
	check := func(value *float64, max float64, name string) error {
		if value == nil {
			return nil
		}
		if *value <= 0 {
			return appErrors.Clone(appErrors.ErrValidation, "cargo "+name+" must be positive")
		}
		if *value > max {
			return appErrors.Clone(appErrors.ErrValidation, "cargo "+name+" exceeds the maximum")
		}
		return nil
	}
	if err := check(cargo.Length, cargoMaxLength, "length"); err != nil {
		return err
	}
	if err := check(cargo.Width, cargoMaxWidth, "width"); err != nil {
		return err
	}
	return check(cargo.Height, cargoMaxHeight, "height")
}

// ValidateFloor checks the optional floor number range.
func ValidateFloor(floor *int) error {
	if floor == nil {
		return nil
	}
	if *floor < floorMin || *floor > floorMax {
		return appErrors.Clone(appErrors.ErrValidation, "floor must be between 0 and 200")
	}
	return nil
}

// NormalizePhone converts an 11-digit `+7`- or `8`-prefixed Russian number to
// canonical +7XXXXXXXXXX form. Empty input is allowed (phone is optional);
// anything else that does not match is rejected.
func NormalizePhone(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	hasPlus := strings.HasPrefix(trimmed, "+")
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, trimmed)
	switch {
	case hasPlus && len(digits) == 11 && digits[0] == '7':
		return "+" + digits, nil
	case !hasPlus && len(digits) == 11 && digits[0] == '8':
		return "+7" + digits[1:], nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "phone must be a +7 or 8 prefixed 11-digit number")
	}
}
