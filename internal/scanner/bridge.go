package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pyreportal/kiosk-agent/internal/models"
)

// Bridge is the generic command-invocation contract to the scanner daemon
// that owns the physical reader. The agent must tolerate the daemon being
// entirely absent (non-kiosk execution) and fall back to the mock adapter.
type Bridge interface {
	Status(ctx context.Context) (models.ScannerStatus, error)
	ScanOnce(ctx context.Context) (models.ScanResult, error)
}

type bridgeScanResponse struct {
	Success bool   `json:"success"`
	TagID   string `json:"tag_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HTTPBridge talks to the local scanner daemon over loopback HTTP.
type HTTPBridge struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBridge constructs a bridge client. The caller owns scan timeouts
// via context; the embedded client timeout only bounds status probes.
func NewHTTPBridge(baseURL string) *HTTPBridge {
	return &HTTPBridge{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Status asks the daemon whether a reader is attached and initialised.
func (b *HTTPBridge) Status(ctx context.Context) (models.ScannerStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/scanner/status", nil)
	if err != nil {
		return models.ScannerStatus{}, err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return models.ScannerStatus{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.ScannerStatus{}, fmt.Errorf("scanner bridge status: unexpected status %d", resp.StatusCode)
	}

	var status models.ScannerStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return models.ScannerStatus{}, fmt.Errorf("decode scanner status: %w", err)
	}
	return status, nil
}

// ScanOnce performs a single blocking read on the daemon. The daemon
// enforces its own card-polling loop; the caller's context carries the
// upper bound.
func (b *HTTPBridge) ScanOnce(ctx context.Context) (models.ScanResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/scanner/scan", nil)
	if err != nil {
		return models.ScanResult{}, err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return models.ScanResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.ScanResult{}, fmt.Errorf("scanner bridge scan: unexpected status %d", resp.StatusCode)
	}

	var payload bridgeScanResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.ScanResult{}, fmt.Errorf("decode scan response: %w", err)
	}
	if !payload.Success {
		return models.ScanResult{}, fmt.Errorf("scanner bridge: %s", payload.Error)
	}

	return models.ScanResult{
		TagID:     models.Tag(payload.TagID),
		ScannedAt: time.Now().UTC(),
	}, nil
}
