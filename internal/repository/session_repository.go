package repository

import (
	"sync"
	"time"

	"github.com/pyreportal/kiosk-agent/internal/workflow"
)

// SessionRepository keeps workflow sessions in memory. The active page
// owns its session exclusively; nothing is persisted across restarts.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*workflow.Session
}

// NewSessionRepository constructs an empty store.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*workflow.Session)}
}

// Save stores the session, replacing any prior entry with the same ID.
func (r *SessionRepository) Save(session *workflow.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
}

// Find returns the session or nil.
func (r *SessionRepository) Find(id string) *workflow.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// Delete removes the session; deleting an unknown ID is a no-op.
func (r *SessionRepository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// PruneOlderThan drops sessions created before the cutoff and reports how
// many were removed. Abandoned kiosk pages leave sessions behind; a
// periodic prune keeps the map bounded.
func (r *SessionRepository) PruneOlderThan(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, session := range r.sessions {
		if session.CreatedAt.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live sessions.
func (r *SessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
