package workflow

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pyreportal/kiosk-agent/internal/models"
	"github.com/pyreportal/kiosk-agent/internal/modal"
	"github.com/pyreportal/kiosk-agent/internal/scanner"
	"github.com/pyreportal/kiosk-agent/pkg/config"
	appErrors "github.com/pyreportal/kiosk-agent/pkg/errors"
)

// AssignmentService is the slice of the remote contract the machine needs.
type AssignmentService interface {
	CheckTagAssignment(ctx context.Context, token string, tagID models.Tag) (*models.TagAssignment, error)
	AssignTag(ctx context.Context, token string, personID int, tagID models.Tag) (*models.AssignmentResult, error)
}

// TokenProvider supplies the current staff access token. It returns
// AUTH_MISSING when no operator is logged in, which the machine checks
// before any network call.
type TokenProvider interface {
	Token() (string, error)
}

// Recorder appends an entry to the local scan audit log. Implementations
// must never block the workflow; failures are their own concern.
type Recorder interface {
	Record(ctx context.Context, event models.ScanEvent)
}

// Machine drives one tag assignment workflow session:
//
//	idle -> scanning -> scanned -> selecting_owner -> committing -> succeeded
//
// with failed reachable from every non-terminal state and idle reachable
// again via Reset ("scan another"). The mutex serialises transitions; scan
// and commit I/O run unlocked with in-flight flags so a duplicate trigger
// is ignored rather than queued.
type Machine struct {
	mu sync.Mutex

	sessionID string
	phase     models.Phase

	scannedTag models.Tag
	assignment *models.TagAssignment
	selectedID *int
	selected   *models.Person
	result     *models.AssignmentResult

	failureCode    string
	failureMessage string

	scannerStatus models.ScannerStatus
	adapter       scanner.Adapter
	api           AssignmentService
	auth          TokenProvider
	recorder      Recorder
	logger        *zap.Logger

	modal    *modal.Controller
	modalCfg config.ModalConfig

	// lastClose has its own lock: the modal timer callback fires on its
	// own goroutine and Close may be invoked while the machine lock is
	// already held.
	closeMu   sync.Mutex
	lastClose *models.ModalCloseEvent

	scanInFlight   bool
	commitInFlight bool
	updatedAt      time.Time
}

// Config wires a machine's collaborators.
type Config struct {
	SessionID string
	Adapter   scanner.Adapter
	API       AssignmentService
	Auth      TokenProvider
	Recorder  Recorder
	Modal     config.ModalConfig
	Logger    *zap.Logger
}

// New constructs an idle machine. Scanner status is polled exactly once
// here; the session keeps that answer for its whole lifetime.
func New(ctx context.Context, cfg Config) *Machine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Machine{
		sessionID: cfg.SessionID,
		phase:     models.PhaseIdle,
		adapter:   cfg.Adapter,
		api:       cfg.API,
		auth:      cfg.Auth,
		recorder:  cfg.Recorder,
		logger:    logger,
		modal:     modal.NewController(),
		modalCfg:  cfg.Modal,
		updatedAt: time.Now().UTC(),
	}
	m.scannerStatus = cfg.Adapter.Status(ctx)
	return m
}

// StartScan moves idle -> scanning, acquires a tag and immediately issues
// exactly one assignment lookup. A duplicate call while a scan is
// outstanding is ignored, not queued. All prior session fields are cleared
// first so no stale data carries forward.
func (m *Machine) StartScan(ctx context.Context) models.WorkflowSnapshot {
	m.mu.Lock()

	if m.scanInFlight || m.phase == models.PhaseScanning {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}

	m.clearLocked()

	// On a kiosk platform an unavailable reader fails fast with no timer
	// armed. The mock adapter always reports available, so development
	// contexts never hit this branch.
	if !m.scannerStatus.Available {
		m.failLocked(appErrors.ErrScannerUnavailable, nil)
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}

	m.phase = models.PhaseScanning
	m.scanInFlight = true
	m.touchLocked()

	m.setLastClose(nil)
	m.modal.Open(modal.Options{
		AutoClose:       m.modalCfg.ScanAutoClose,
		CloseOnBackdrop: true,
		CloseOnEscape:   true,
	}, func(event models.ModalCloseEvent) {
		e := event
		m.setLastClose(&e)
	})
	m.mu.Unlock()

	result, err := m.adapter.BeginScan(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanInFlight = false

	// The operator may have dismissed the overlay while the read was in
	// flight. The underlying request cannot be aborted, so the resolved
	// result is discarded here instead.
	if m.phase != models.PhaseScanning {
		return m.snapshotLocked()
	}

	if err != nil {
		appErr := appErrors.FromError(err)
		m.failLocked(appErr, err)
		m.record(models.ScanEventScan, "", nil, appErr.Code)
		return m.snapshotLocked()
	}

	m.scannedTag = result.TagID
	m.record(models.ScanEventScan, result.TagID.String(), nil, "OK")
	m.modal.Close(models.ModalCloseManual)

	token, err := m.auth.Token()
	if err != nil {
		m.failLocked(appErrors.FromError(err), err)
		return m.snapshotLocked()
	}

	assignment, err := m.lookup(ctx, token, result.TagID)
	if m.phase != models.PhaseScanning {
		// Session was reset or cancelled while the lookup was in flight.
		return m.snapshotLocked()
	}
	if err != nil {
		appErr := appErrors.FromError(err)
		m.failLocked(appErr, err)
		m.record(models.ScanEventLookup, result.TagID.String(), nil, appErr.Code)
		return m.snapshotLocked()
	}

	m.assignment = assignment
	m.phase = models.PhaseScanned
	m.touchLocked()
	m.record(models.ScanEventLookup, result.TagID.String(), assignment.Person, "OK")
	return m.snapshotLocked()
}

// lookup releases the lock around the remote call so a slow service cannot
// wedge snapshot reads.
func (m *Machine) lookup(ctx context.Context, token string, tag models.Tag) (*models.TagAssignment, error) {
	m.mu.Unlock()
	defer m.mu.Lock()
	assignment, err := m.api.CheckTagAssignment(ctx, token, tag)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrAuthMissing) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrLookupFailed.Code, appErrors.ErrLookupFailed.Status, appErrors.ErrLookupFailed.Message)
	}
	return assignment, nil
}

// CancelScan dismisses the scanning overlay for an operator cause. The
// session returns to idle; an in-flight hardware read resolves on its own
// and is discarded.
func (m *Machine) CancelScan(cause models.ModalCloseCause) models.WorkflowSnapshot {
	m.modal.Close(cause)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == models.PhaseScanning {
		m.phase = models.PhaseIdle
		m.touchLocked()
	}
	return m.snapshotLocked()
}

// EnterSelection moves scanned -> selecting_owner. The tag and the
// assignment-check result travel with the navigation payload so the roster
// screen distinguishes first assignment from reassignment without a second
// query.
func (m *Machine) EnterSelection() (models.WorkflowSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != models.PhaseScanned {
		return m.snapshotLocked(), appErrors.Clone(appErrors.ErrConflict, "no scanned tag to assign")
	}

	m.phase = models.PhaseSelectingOwner
	m.touchLocked()
	return m.snapshotLocked(), nil
}

// Select records the single picked candidate, replacing any prior pick.
func (m *Machine) Select(person models.Person) (models.WorkflowSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != models.PhaseSelectingOwner {
		return m.snapshotLocked(), appErrors.Clone(appErrors.ErrConflict, "not in the owner selection step")
	}

	id := person.ID
	m.selectedID = &id
	p := person
	m.selected = &p
	m.touchLocked()
	return m.snapshotLocked(), nil
}

// Commit issues the reassignment. Invalid selection and missing auth are
// guarded before any network call; a commit already in flight makes a
// duplicate call a no-op. The commit request is not idempotent at the
// transport level, which is why re-entry is blocked rather than retried.
func (m *Machine) Commit(ctx context.Context) models.WorkflowSnapshot {
	m.mu.Lock()

	if m.commitInFlight || m.phase == models.PhaseCommitting {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}

	if m.phase != models.PhaseSelectingOwner {
		m.failLocked(appErrors.Clone(appErrors.ErrInvalidSelection, ""), nil)
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}

	if m.scannedTag == "" || m.selectedID == nil {
		m.failLocked(appErrors.Clone(appErrors.ErrInvalidSelection, ""), nil)
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}

	token, err := m.auth.Token()
	if err != nil {
		m.failLocked(appErrors.FromError(err), err)
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}

	m.phase = models.PhaseCommitting
	m.commitInFlight = true
	personID := *m.selectedID
	tag := m.scannedTag
	m.touchLocked()
	m.mu.Unlock()

	result, err := m.api.AssignTag(ctx, token, personID, tag)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitInFlight = false

	// The session may have been reset while the request was in flight. The
	// late result is discarded, the same as a cancelled scan.
	if m.phase != models.PhaseCommitting {
		return m.snapshotLocked()
	}

	if err != nil {
		appErr := appErrors.FromError(err)
		m.failLocked(appErr, err)
		m.record(models.ScanEventCommit, tag.String(), m.selected, appErr.Code)
		return m.snapshotLocked()
	}

	m.result = result
	m.phase = models.PhaseSucceeded
	m.touchLocked()
	m.record(models.ScanEventCommit, tag.String(), m.selected, "OK")
	return m.snapshotLocked()
}

// Reset is the "scan another" action: back to idle from failed, succeeded
// or anywhere else, dropping all session fields.
func (m *Machine) Reset() models.WorkflowSnapshot {
	m.modal.Close(models.ModalCloseManual)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
	m.phase = models.PhaseIdle
	m.touchLocked()
	return m.snapshotLocked()
}

// Handoff emits the navigation payload carried between the scan screen
// and the selection screen. It must round-trip losslessly through Restore.
func (m *Machine) Handoff() models.NavigationState {
	m.mu.Lock()
	defer m.mu.Unlock()

	nav := models.NavigationState{
		AssignmentSuccess: m.phase == models.PhaseSucceeded,
		ScannedTag:        m.scannedTag.String(),
		TagAssignment:     m.assignment,
	}
	if m.selected != nil {
		nav.PersonName = m.selected.Name
	}
	if m.result != nil {
		nav.PreviousTag = m.result.PreviousTag
	}
	return nav
}

// Restore rebuilds the scanned state from a navigation payload. A complete
// payload needs no network call. A payload with no tag cannot be restored;
// the machine stays idle and the caller falls back to a fresh scan. A tag
// without its assignment-check result re-issues the lookup rather than
// guessing, so a reassignment is never presented as a first assignment;
// when that lookup cannot be answered the machine also falls back to idle.
func (m *Machine) Restore(ctx context.Context, nav models.NavigationState) models.WorkflowSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearLocked()
	if nav.ScannedTag == "" {
		m.phase = models.PhaseIdle
		m.touchLocked()
		return m.snapshotLocked()
	}

	m.scannedTag = models.Tag(nav.ScannedTag)
	m.assignment = nav.TagAssignment

	if m.assignment == nil {
		m.phase = models.PhaseScanning
		m.touchLocked()

		token, err := m.auth.Token()
		if err != nil {
			return m.restoreFallbackLocked()
		}
		assignment, err := m.lookup(ctx, token, m.scannedTag)
		if m.phase != models.PhaseScanning {
			return m.snapshotLocked()
		}
		if err != nil {
			return m.restoreFallbackLocked()
		}
		m.assignment = assignment
	}

	m.phase = models.PhaseScanned
	m.touchLocked()
	return m.snapshotLocked()
}

func (m *Machine) restoreFallbackLocked() models.WorkflowSnapshot {
	m.scannedTag = ""
	m.assignment = nil
	m.phase = models.PhaseIdle
	m.touchLocked()
	return m.snapshotLocked()
}

// Snapshot returns the current externally visible state.
func (m *Machine) Snapshot() models.WorkflowSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) clearLocked() {
	m.scannedTag = ""
	m.assignment = nil
	m.selectedID = nil
	m.selected = nil
	m.result = nil
	m.failureCode = ""
	m.failureMessage = ""
	m.setLastClose(nil)
}

func (m *Machine) setLastClose(event *models.ModalCloseEvent) {
	m.closeMu.Lock()
	m.lastClose = event
	m.closeMu.Unlock()
}

func (m *Machine) getLastClose() *models.ModalCloseEvent {
	m.closeMu.Lock()
	defer m.closeMu.Unlock()
	return m.lastClose
}

func (m *Machine) failLocked(appErr *appErrors.Error, cause error) {
	m.phase = models.PhaseFailed
	m.failureCode = appErr.Code
	m.failureMessage = appErr.Message
	m.touchLocked()
	if cause != nil {
		m.logger.Warn("workflow step failed",
			zap.String("session_id", m.sessionID),
			zap.String("code", appErr.Code),
			zap.Error(cause))
	}
}

func (m *Machine) touchLocked() {
	m.updatedAt = time.Now().UTC()
}

func (m *Machine) snapshotLocked() models.WorkflowSnapshot {
	snap := models.WorkflowSnapshot{
		SessionID:      m.sessionID,
		Phase:          m.phase,
		ScannedTag:     m.scannedTag.String(),
		TagAssignment:  m.assignment,
		Result:         m.result,
		FailureCode:    m.failureCode,
		FailureMessage: m.failureMessage,
		Scanner:        m.scannerStatus,
		Modal:          m.modal.State(m.getLastClose()),
		UpdatedAt:      m.updatedAt,
	}
	if m.selectedID != nil {
		id := *m.selectedID
		snap.SelectedPersonID = &id
	}
	return snap
}

// record appends to the audit log without blocking; the recorder is
// optional in tests.
func (m *Machine) record(kind models.ScanEventKind, tagID string, person *models.Person, outcome string) {
	if m.recorder == nil {
		return
	}
	event := models.ScanEvent{
		SessionID:  m.sessionID,
		Kind:       kind,
		TagID:      tagID,
		Outcome:    outcome,
		OccurredAt: time.Now().UTC(),
	}
	if person != nil {
		id := person.ID
		name := person.Name
		event.PersonID = &id
		event.PersonName = &name
	}
	if m.result != nil && m.result.PreviousTag != "" {
		prev := m.result.PreviousTag
		event.PreviousTag = &prev
	}
	m.recorder.Record(context.Background(), event)
}
