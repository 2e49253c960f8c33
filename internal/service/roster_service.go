package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pyreportal/kiosk-agent/internal/client"
	"github.com/pyreportal/kiosk-agent/internal/models"
	"github.com/pyreportal/kiosk-agent/internal/roster"
	"github.com/pyreportal/kiosk-agent/internal/workflow"
	appErrors "github.com/pyreportal/kiosk-agent/pkg/errors"
)

const rosterCachePrefix = "kiosk:roster"

// RosterCache is the slice of the cache repository the roster service uses.
type RosterCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// RosterService fetches the candidate pool from the assignment service and
// renders it as fixed-capacity grid pages. Fetched pools are cached briefly
// so paging through the grid does not re-query the server per page.
type RosterService struct {
	api      client.AssignmentAPI
	auth     workflow.TokenProvider
	cache    RosterCache
	ttl      time.Duration
	pageSize int
	logger   *zap.Logger
}

// NewRosterService constructs the service. A nil cache disables caching.
func NewRosterService(api client.AssignmentAPI, auth workflow.TokenProvider, cache RosterCache, ttl time.Duration, pageSize int, logger *zap.Logger) *RosterService {
	if pageSize <= 0 {
		pageSize = roster.DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{api: api, auth: auth, cache: cache, ttl: ttl, pageSize: pageSize, logger: logger}
}

// List returns the full candidate pool for the filter, via cache when warm.
func (s *RosterService) List(ctx context.Context, filter models.RosterFilter) ([]models.Person, error) {
	key := rosterCacheKey(filter)

	if s.cache != nil {
		var cached []models.Person
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !appErrors.HasCode(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("roster cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	token, err := s.auth.Token()
	if err != nil {
		return nil, err
	}

	people, err := s.api.ListRoster(ctx, token, filter)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, people, s.ttl); err != nil {
			s.logger.Warn("roster cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return people, nil
}

// Page renders one grid page of the pool. The selected id, when present,
// marks the matching slot so the UI can highlight the current pick.
func (s *RosterService) Page(ctx context.Context, filter models.RosterFilter, page int, selectedID *int) (*roster.Page, error) {
	people, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	grid := roster.NewGrid(people, s.pageSize)
	grid.SetPage(page)
	if selectedID != nil {
		grid.Select(*selectedID)
	}
	rendered := grid.Render()
	return &rendered, nil
}

// Find resolves one pool member by id.
func (s *RosterService) Find(ctx context.Context, filter models.RosterFilter, personID int) (*models.Person, error) {
	people, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range people {
		if people[i].ID == personID {
			person := people[i]
			return &person, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "person not found in the current roster")
}

// Invalidate drops every cached roster pool. Called after a successful
// commit so reassignments show up on the next page load.
func (s *RosterService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, rosterCachePrefix+":*"); err != nil {
		s.logger.Warn("roster cache invalidation failed", zap.Error(err))
	}
}

func rosterCacheKey(filter models.RosterFilter) string {
	return fmt.Sprintf("%s:%s:%s:%s", rosterCachePrefix, filter.Type, filter.Group, filter.Search)
}
