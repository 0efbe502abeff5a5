package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/delegationapp/delegate/internal/models"
	appErrors "github.com/delegationapp/delegate/pkg/errors"
)

// GeocodeClient is the HTTP implementation of service.AddressResolver.
type GeocodeClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewGeocodeClient constructs the client.
func NewGeocodeClient(baseURL string, timeout time.Duration, logger *zap.Logger) *GeocodeClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeocodeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type geocodeResponse struct {
	Results []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"results"`
}

// Resolve geocodes free text. A nil coordinate with nil error means the
// address was not found.
func (c *GeocodeClient) Resolve(ctx context.Context, text string) (*models.Coordinate, error) {
	endpoint := c.baseURL + "?q=" + url.QueryEscape(text)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "geocoder unreachable")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, appErrors.New(appErrors.ErrUpstream.Code, resp.StatusCode, fmt.Sprintf("geocoder returned %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to read geocoder response")
	}
	var decoded geocodeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "malformed geocoder response")
	}
	if len(decoded.Results) == 0 {
		return nil, nil
	}
	return &models.Coordinate{Lat: decoded.Results[0].Lat, Lon: decoded.Results[0].Lon}, nil
}
