package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pyreportal/kiosk-agent/internal/models"
	"github.com/pyreportal/kiosk-agent/pkg/config"
	appErrors "github.com/pyreportal/kiosk-agent/pkg/errors"
)

// AssignmentAPI is the request/response contract to the remote authority
// that owns the tag-to-person mapping. The kiosk only consumes it; the
// server is the sole arbiter of assignment-conflict invariants.
type AssignmentAPI interface {
	CheckTagAssignment(ctx context.Context, token string, tagID models.Tag) (*models.TagAssignment, error)
	AssignTag(ctx context.Context, token string, personID int, tagID models.Tag) (*models.AssignmentResult, error)
	ListRoster(ctx context.Context, token string, filter models.RosterFilter) ([]models.Person, error)
	Checkin(ctx context.Context, token string, scan CheckinRequest) (*models.CheckinResult, error)
	Health(ctx context.Context) error
}

// CheckinRequest is the payload for an attendance check-in/out scan.
type CheckinRequest struct {
	TagID      string `json:"tag_id"`
	TerminalID string `json:"terminal_id"`
	Timestamp  int64  `json:"timestamp"`
	StaffID    *int   `json:"staff_id,omitempty"`
}

type assignRequest struct {
	PersonID int    `json:"person_id"`
	TagID    string `json:"tag_id"`
}

// AssignmentClient is the HTTP implementation of AssignmentAPI.
type AssignmentClient struct {
	baseURL string
	client  *http.Client
}

// NewAssignmentClient constructs a client against the configured base URL.
func NewAssignmentClient(cfg config.AssignmentConfig) *AssignmentClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AssignmentClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// CheckTagAssignment resolves the current owner of a tag.
func (c *AssignmentClient) CheckTagAssignment(ctx context.Context, token string, tagID models.Tag) (*models.TagAssignment, error) {
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrAuthMissing, "")
	}

	endpoint := fmt.Sprintf("%s/tags/%s/assignment", c.baseURL, url.PathEscape(tagID.String()))
	var assignment models.TagAssignment
	if err := c.doJSON(ctx, http.MethodGet, endpoint, token, nil, &assignment, appErrors.ErrLookupFailed); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// AssignTag commits the tag to the selected person. Conflict responses
// from the server are authoritative and surfaced as commit failures with
// the server's message.
func (c *AssignmentClient) AssignTag(ctx context.Context, token string, personID int, tagID models.Tag) (*models.AssignmentResult, error) {
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrAuthMissing, "")
	}

	endpoint := c.baseURL + "/tags/assign"
	var result models.AssignmentResult
	if err := c.doJSON(ctx, http.MethodPost, endpoint, token, assignRequest{PersonID: personID, TagID: tagID.String()}, &result, appErrors.ErrCommitFailed); err != nil {
		return nil, err
	}
	if !result.Success {
		message := result.Message
		if message == "" {
			message = appErrors.ErrCommitFailed.Message
		}
		return nil, appErrors.Clone(appErrors.ErrCommitFailed, message)
	}
	return &result, nil
}

// ListRoster fetches the candidate pool for the selection grid.
func (c *AssignmentClient) ListRoster(ctx context.Context, token string, filter models.RosterFilter) ([]models.Person, error) {
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrAuthMissing, "")
	}

	query := url.Values{}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.Group != "" {
		query.Set("group", filter.Group)
	}
	if filter.Type != "" {
		query.Set("type", string(filter.Type))
	}
	endpoint := c.baseURL + "/roster"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var people []models.Person
	if err := c.doJSON(ctx, http.MethodGet, endpoint, token, nil, &people, appErrors.ErrLookupFailed); err != nil {
		return nil, err
	}
	return people, nil
}

// Checkin posts an attendance scan. A nil result with nil error means the
// tag is unknown to the server (404), mirroring the kiosk display contract.
func (c *AssignmentClient) Checkin(ctx context.Context, token string, scan CheckinRequest) (*models.CheckinResult, error) {
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrAuthMissing, "")
	}

	body, err := json.Marshal(scan)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode checkin request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rfid/scan", bytes.NewReader(body))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build checkin request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrLookupFailed.Code, appErrors.ErrLookupFailed.Status, "attendance scan failed")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var result models.CheckinResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrLookupFailed.Code, appErrors.ErrLookupFailed.Status, "decode checkin response")
		}
		return &result, nil
	case http.StatusNotFound:
		return nil, nil
	case http.StatusUnauthorized:
		return nil, appErrors.Clone(appErrors.ErrAuthMissing, "staff login expired")
	case http.StatusForbidden:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not authorised to record attendance scans")
	default:
		return nil, appErrors.Clone(appErrors.ErrLookupFailed, fmt.Sprintf("attendance scan failed (status %d)", resp.StatusCode))
	}
}

// Health probes the service so the offline flusher knows when the network
// is back.
func (c *AssignmentClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("assignment service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// doJSON issues an authenticated request and maps error statuses into the
// workflow taxonomy using the provided fallback sentinel.
func (c *AssignmentClient) doJSON(ctx context.Context, method, endpoint, token string, payload, dest interface{}, fallback *appErrors.Error) error {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode request")
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return appErrors.Wrap(err, fallback.Code, fallback.Status, fallback.Message)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if dest == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return appErrors.Wrap(err, fallback.Code, fallback.Status, "decode response")
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return appErrors.Clone(appErrors.ErrAuthMissing, "staff login expired")
	case resp.StatusCode == http.StatusConflict:
		var conflict models.AssignmentResult
		if err := json.NewDecoder(resp.Body).Decode(&conflict); err == nil && conflict.Message != "" {
			return appErrors.Clone(appErrors.ErrCommitFailed, conflict.Message)
		}
		return appErrors.Clone(appErrors.ErrCommitFailed, "the server rejected the assignment")
	default:
		return appErrors.Clone(fallback, fmt.Sprintf("%s (status %d)", fallback.Message, resp.StatusCode))
	}
}
