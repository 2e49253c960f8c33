package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pyreportal/kiosk-agent/internal/repository"
	"github.com/pyreportal/kiosk-agent/internal/scanner"
	"github.com/pyreportal/kiosk-agent/internal/workflow"
	"github.com/pyreportal/kiosk-agent/pkg/config"
	appErrors "github.com/pyreportal/kiosk-agent/pkg/errors"
)

// SessionService creates and tracks workflow sessions. Each kiosk page
// owns one session; the service wires every machine with the same adapter,
// remote client and recorder.
type SessionService struct {
	sessions *repository.SessionRepository
	adapter  scanner.Adapter
	api      workflow.AssignmentService
	auth     workflow.TokenProvider
	recorder workflow.Recorder
	modalCfg config.ModalConfig
	logger   *zap.Logger
}

// NewSessionService constructs the service.
func NewSessionService(
	sessions *repository.SessionRepository,
	adapter scanner.Adapter,
	api workflow.AssignmentService,
	auth workflow.TokenProvider,
	recorder workflow.Recorder,
	modalCfg config.ModalConfig,
	logger *zap.Logger,
) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessions: sessions,
		adapter:  adapter,
		api:      api,
		auth:     auth,
		recorder: recorder,
		modalCfg: modalCfg,
		logger:   logger,
	}
}

// Create starts a fresh idle session and returns it.
func (s *SessionService) Create(ctx context.Context) *workflow.Session {
	id := uuid.NewString()
	machine := workflow.New(ctx, workflow.Config{
		SessionID: id,
		Adapter:   s.adapter,
		API:       s.api,
		Auth:      s.auth,
		Recorder:  s.recorder,
		Modal:     s.modalCfg,
		Logger:    s.logger,
	})
	session := &workflow.Session{ID: id, Machine: machine, CreatedAt: time.Now().UTC()}
	s.sessions.Save(session)
	s.logger.Info("workflow session created", zap.String("session_id", id))
	return session
}

// Get resolves a live session by id.
func (s *SessionService) Get(id string) (*workflow.Session, error) {
	session := s.sessions.Find(id)
	if session == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "workflow session not found")
	}
	return session, nil
}

// Delete tears a session down.
func (s *SessionService) Delete(id string) {
	s.sessions.Delete(id)
}

// StartPruning removes sessions older than maxAge on the given interval
// until the context ends. Kiosk pages that navigate away without cleanup
// would otherwise accumulate forever.
func (s *SessionService) StartPruning(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 || maxAge <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.sessions.PruneOlderThan(time.Now().Add(-maxAge)); removed > 0 {
					s.logger.Info("pruned stale workflow sessions", zap.Int("removed", removed))
				}
			}
		}
	}()
}
