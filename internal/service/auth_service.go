package service

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/pyreportal/kiosk-agent/internal/models"
	appErrors "github.com/pyreportal/kiosk-agent/pkg/errors"
)

// AuthService holds the staff operator session in memory. The kiosk is a
// single-operator device, so one session at a time is the contract; a new
// login replaces the previous one. Nothing is persisted to disk.
type AuthService struct {
	mu     sync.RWMutex
	info   *models.AuthInfo
	logger *zap.Logger
}

// NewAuthService constructs an empty (logged-out) session holder.
func NewAuthService(logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{logger: logger}
}

// SetSession stores the operator credentials received after a remote login.
func (s *AuthService) SetSession(info models.AuthInfo) error {
	if info.AccessToken == "" {
		return appErrors.Clone(appErrors.ErrValidation, "an access token is required")
	}

	s.mu.Lock()
	s.info = &info
	s.mu.Unlock()

	s.logger.Info("staff session stored",
		zap.Int("user_id", info.UserID),
		zap.String("username", info.Username))
	return nil
}

// ClearSession logs the operator out.
func (s *AuthService) ClearSession() {
	s.mu.Lock()
	s.info = nil
	s.mu.Unlock()
	s.logger.Info("staff session cleared")
}

// Info returns a copy of the stored session, or nil when logged out.
func (s *AuthService) Info() *models.AuthInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return nil
	}
	info := *s.info
	return &info
}

// StaffID returns the logged-in operator's user id, if any.
func (s *AuthService) StaffID() *int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return nil
	}
	id := s.info.UserID
	return &id
}

// Token returns the current access token. It fails with AUTH_MISSING when
// no operator is logged in or the token's expiry claim has passed, so the
// workflow can fail locally instead of sending a doomed request.
func (s *AuthService) Token() (string, error) {
	s.mu.RLock()
	info := s.info
	s.mu.RUnlock()

	if info == nil || info.AccessToken == "" {
		return "", appErrors.Clone(appErrors.ErrAuthMissing, "")
	}
	if tokenExpired(info.AccessToken) {
		return "", appErrors.Clone(appErrors.ErrAuthMissing, "staff login expired")
	}
	return info.AccessToken, nil
}

// tokenExpired inspects the exp claim without verifying the signature; the
// assignment service is the signature authority. Tokens that do not parse
// as JWTs are treated as opaque and passed through.
func tokenExpired(raw string) bool {
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Now().After(exp.Time)
}
