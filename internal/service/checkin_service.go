package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pyreportal/kiosk-agent/internal/client"
	"github.com/pyreportal/kiosk-agent/internal/models"
	"github.com/pyreportal/kiosk-agent/pkg/config"
	appErrors "github.com/pyreportal/kiosk-agent/pkg/errors"
	"github.com/pyreportal/kiosk-agent/pkg/jobs"
)

// PendingScanQueue is the offline queue contract. Requeue returns a scan
// to the head so delivery order survives a failed flush attempt.
type PendingScanQueue interface {
	Enqueue(ctx context.Context, scan models.PendingScan) error
	Requeue(ctx context.Context, scan models.PendingScan) error
	Dequeue(ctx context.Context) (*models.PendingScan, error)
	Len(ctx context.Context) (int64, error)
}

// StaffSource exposes what the check-in path needs from the auth session.
type StaffSource interface {
	Token() (string, error)
	StaffID() *int
}

// CheckinResponse is the kiosk-facing outcome of one attendance scan.
type CheckinResponse struct {
	Result  *models.CheckinResult `json:"result,omitempty"`
	Queued  bool                  `json:"queued"`
	Unknown bool                  `json:"unknown"`
}

// CheckinService posts attendance scans to the assignment service. Scans
// that cannot be delivered are queued and flushed later by a background
// worker, so a dropped network never loses a tap.
type CheckinService struct {
	api         client.AssignmentAPI
	auth        StaffSource
	pending     PendingScanQueue
	queue       *jobs.Queue
	terminalID  string
	maxAttempts int
	enabled     bool
	interval    time.Duration
	logger      *zap.Logger
}

// NewCheckinService constructs the service. A nil pending queue or a
// disabled config turns offline buffering off; failures then surface
// directly to the caller.
func NewCheckinService(api client.AssignmentAPI, auth StaffSource, pending PendingScanQueue, cfg config.OfflineConfig, terminalID string, logger *zap.Logger) *CheckinService {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	s := &CheckinService{
		api:         api,
		auth:        auth,
		pending:     pending,
		terminalID:  terminalID,
		maxAttempts: maxAttempts,
		enabled:     cfg.Enabled && pending != nil,
		interval:    cfg.FlushInterval,
		logger:      logger,
	}
	s.queue = jobs.NewQueue("pending-scan-flush", s.handleFlush, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 1,
		Logger:     logger,
	})
	return s
}

// Start launches the flush worker and its periodic trigger.
func (s *CheckinService) Start(ctx context.Context) {
	if !s.enabled {
		return
	}
	s.queue.Start(ctx)
	interval := s.interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.TriggerFlush()
			}
		}
	}()
}

// Stop drains the flush worker.
func (s *CheckinService) Stop() {
	if s.enabled {
		s.queue.Stop()
	}
}

// Checkin records one attendance scan. When delivery fails for transient
// reasons the scan is queued and the caller is told so; an unknown tag is
// reported as such, never queued.
func (s *CheckinService) Checkin(ctx context.Context, tagID models.Tag) (*CheckinResponse, error) {
	if !tagID.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTagFormat, "")
	}

	request := client.CheckinRequest{
		TagID:      tagID.String(),
		TerminalID: s.terminalID,
		Timestamp:  time.Now().Unix(),
		StaffID:    s.auth.StaffID(),
	}

	token, err := s.auth.Token()
	if err != nil {
		return s.deferScan(ctx, request, err)
	}

	result, err := s.api.Checkin(ctx, token, request)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrAuthMissing) || appErrors.HasCode(err, appErrors.ErrForbidden) {
			return nil, err
		}
		return s.deferScan(ctx, request, err)
	}
	if result == nil {
		return &CheckinResponse{Unknown: true}, nil
	}

	// New scans mean the backlog may be deliverable again.
	s.TriggerFlush()
	return &CheckinResponse{Result: result}, nil
}

// PendingCount reports how many scans wait in the offline queue.
func (s *CheckinService) PendingCount(ctx context.Context) (int64, error) {
	if !s.enabled {
		return 0, nil
	}
	return s.pending.Len(ctx)
}

// TriggerFlush asks the worker to drain the queue soon. Safe to call often;
// an unstarted or disabled worker ignores it.
func (s *CheckinService) TriggerFlush() {
	if !s.enabled {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: "flush"}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Debug("flush trigger dropped", zap.Error(err))
	}
}

func (s *CheckinService) deferScan(ctx context.Context, request client.CheckinRequest, cause error) (*CheckinResponse, error) {
	if !s.enabled {
		return nil, cause
	}

	scan := models.PendingScan{
		ID:         uuid.NewString(),
		TagID:      request.TagID,
		TerminalID: request.TerminalID,
		Timestamp:  request.Timestamp,
		StaffID:    request.StaffID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.pending.Enqueue(ctx, scan); err != nil {
		s.logger.Error("failed to queue offline scan", zap.String("tag_id", scan.TagID), zap.Error(err))
		return nil, cause
	}

	s.logger.Warn("attendance scan queued for later delivery",
		zap.String("tag_id", scan.TagID),
		zap.Error(cause))
	return &CheckinResponse{Queued: true}, nil
}

// handleFlush drains the pending queue until it is empty, delivery fails
// or the operator session is gone. Scans are retried a bounded number of
// times and then dropped.
func (s *CheckinService) handleFlush(ctx context.Context, _ jobs.Job) error {
	token, err := s.auth.Token()
	if err != nil {
		// No operator session; the backlog waits for the next login.
		return nil
	}
	if err := s.api.Health(ctx); err != nil {
		s.logger.Debug("skipping flush, assignment service unreachable", zap.Error(err))
		return nil
	}

	for {
		scan, err := s.pending.Dequeue(ctx)
		if err != nil {
			return err
		}
		if scan == nil {
			return nil
		}

		request := client.CheckinRequest{
			TagID:      scan.TagID,
			TerminalID: scan.TerminalID,
			Timestamp:  scan.Timestamp,
			StaffID:    scan.StaffID,
		}
		if _, err := s.api.Checkin(ctx, token, request); err != nil {
			if appErrors.HasCode(err, appErrors.ErrAuthMissing) {
				s.requeue(ctx, *scan)
				return nil
			}
			scan.Attempts++
			if scan.Attempts >= s.maxAttempts {
				s.logger.Error("dropping pending scan after repeated failures",
					zap.String("tag_id", scan.TagID),
					zap.Int("attempts", scan.Attempts),
					zap.Error(err))
				continue
			}
			s.requeue(ctx, *scan)
			return nil
		}
		s.logger.Info("flushed pending scan", zap.String("tag_id", scan.TagID))
	}
}

func (s *CheckinService) requeue(ctx context.Context, scan models.PendingScan) {
	if err := s.pending.Requeue(ctx, scan); err != nil {
		s.logger.Error("failed to requeue pending scan", zap.String("tag_id", scan.TagID), zap.Error(err))
	}
}
