// Package remote implements the engine's injected capabilities against the
// marketplace's JSON/HTTP backend. The backend schema is treated as opaque
// beyond the fields the client actually reads.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/delegationapp/delegate/internal/models"
	"github.com/delegationapp/delegate/internal/service"
	appErrors "github.com/delegationapp/delegate/pkg/errors"
)

// envelope mirrors the backend's response contract.
type envelope struct {
	Data       json.RawMessage    `json:"data"`
	Error      *apiError          `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AnnouncementClient is the HTTP implementation of service.AnnouncementAPI.
type AnnouncementClient struct {
	baseURL      string
	client       *http.Client
	uploadClient *http.Client
	session      service.SessionProvider
	logger       *zap.Logger
}

// NewAnnouncementClient constructs the client.
func NewAnnouncementClient(baseURL string, requestTimeout, uploadTimeout time.Duration, session service.SessionProvider, logger *zap.Logger) *AnnouncementClient {
	if requestTimeout <= 0 {
		requestTimeout = 5 * time.Second
	}
	if uploadTimeout <= 0 {
		uploadTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: requestTimeout},
		uploadClient: &http.Client{Timeout: uploadTimeout},
		session:      session,
		logger:       logger,
	}
}

// Create posts a new announcement.
func (c *AnnouncementClient) Create(ctx context.Context, payload service.SubmissionPayload) (*models.Announcement, error) {
	var out models.Announcement
	if err := c.doJSON(ctx, http.MethodPost, "/announcements", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadMedia attaches files to an existing announcement via multipart.
func (c *AnnouncementClient) UploadMedia(ctx context.Context, id string, files []models.Attachment) (*models.Announcement, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for i, file := range files {
		name := file.Name
		if name == "" {
			name = fmt.Sprintf("photo-%d", i)
		}
		part, err := writer.CreateFormFile("photos", name)
		if err != nil {
			return nil, fmt.Errorf("create multipart part: %w", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, fmt.Errorf("write multipart part: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/announcements/"+id+"/media", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var out models.Announcement
	if err := c.send(c.uploadClient, req, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMine fetches the authenticated user's announcements.
func (c *AnnouncementClient) ListMine(ctx context.Context) ([]models.Announcement, error) {
	var out []models.Announcement
	if err := c.doJSON(ctx, http.MethodGet, "/announcements/mine", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPublic fetches a page of the public feed.
func (c *AnnouncementClient) ListPublic(ctx context.Context, page, pageSize int) ([]models.Announcement, int, error) {
	path := "/announcements?page=" + strconv.Itoa(page) + "&page_size=" + strconv.Itoa(pageSize)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, 0, err
	}
	var out []models.Announcement
	var pagination *models.Pagination
	if err := c.send(c.client, req, &out, &pagination); err != nil {
		return nil, 0, err
	}
	total := len(out)
	if pagination != nil {
		total = pagination.TotalCount
	}
	return out, total, nil
}

// Archive archives an announcement server-side.
func (c *AnnouncementClient) Archive(ctx context.Context, id string) (*models.Announcement, error) {
	var out models.Announcement
	if err := c.doJSON(ctx, http.MethodPost, "/announcements/"+id+"/archive", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an announcement server-side.
func (c *AnnouncementClient) Delete(ctx context.Context, id string) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodDelete, "/announcements/"+id, nil)
	if err != nil {
		return false, err
	}
	if err := c.send(c.client, req, nil, nil); err != nil {
		return false, err
	}
	return true, nil
}

func (c *AnnouncementClient) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(c.client, req, out, nil)
}

func (c *AnnouncementClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	token, ok := c.session.Token()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNoSession, "")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *AnnouncementClient) send(client *http.Client, req *http.Request, out interface{}, pagination **models.Pagination) error {
	resp, err := client.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "backend unreachable")
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to read response")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return appErrors.Clone(appErrors.ErrUnauthorized, "session rejected by backend")
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "malformed backend response")
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		message := fmt.Sprintf("backend returned %d", resp.StatusCode)
		if env.Error != nil && env.Error.Message != "" {
			message = env.Error.Message
		}
		return appErrors.New(appErrors.ErrUpstream.Code, resp.StatusCode, message)
	}

	if pagination != nil {
		*pagination = env.Pagination
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "malformed backend payload")
		}
	}
	return nil
}
