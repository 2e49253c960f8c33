package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyreportal/kiosk-agent/internal/models"
	"github.com/pyreportal/kiosk-agent/pkg/config"
	appErrors "github.com/pyreportal/kiosk-agent/pkg/errors"
)

type scriptedAdapter struct {
	mu     sync.Mutex
	result models.ScanResult
	err    error
	status models.ScannerStatus
	gate   chan struct{}
	calls  int
}

func (a *scriptedAdapter) BeginScan(ctx context.Context) (models.ScanResult, error) {
	a.mu.Lock()
	a.calls++
	gate := a.gate
	a.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return a.result, a.err
}

func (a *scriptedAdapter) Status(ctx context.Context) models.ScannerStatus {
	return a.status
}

func (a *scriptedAdapter) scanCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type scriptedAPI struct {
	mu          sync.Mutex
	assignment  *models.TagAssignment
	lookupErr   error
	lookupCalls int
	result      *models.AssignmentResult
	assignErr   error
	assignGate  chan struct{}
	assignCalls int
}

func (a *scriptedAPI) CheckTagAssignment(ctx context.Context, token string, tagID models.Tag) (*models.TagAssignment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lookupCalls++
	if a.lookupErr != nil {
		return nil, a.lookupErr
	}
	return a.assignment, nil
}

func (a *scriptedAPI) AssignTag(ctx context.Context, token string, personID int, tagID models.Tag) (*models.AssignmentResult, error) {
	a.mu.Lock()
	a.assignCalls++
	gate := a.assignGate
	assignErr := a.assignErr
	result := a.result
	a.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if assignErr != nil {
		return nil, assignErr
	}
	return result, nil
}

func (a *scriptedAPI) lookups() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lookupCalls
}

func (a *scriptedAPI) assigns() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.assignCalls
}

type staticAuth struct {
	token string
	err   error
}

func (a *staticAuth) Token() (string, error) {
	return a.token, a.err
}

type capturingRecorder struct {
	mu     sync.Mutex
	events []models.ScanEvent
}

func (r *capturingRecorder) Record(ctx context.Context, event models.ScanEvent) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *capturingRecorder) all() []models.ScanEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ScanEvent, len(r.events))
	copy(out, r.events)
	return out
}

func availableAdapter(tag models.Tag) *scriptedAdapter {
	return &scriptedAdapter{
		result: models.ScanResult{TagID: tag, ScannedAt: time.Now().UTC()},
		status: models.ScannerStatus{Available: true, Platform: "development"},
	}
}

func newTestMachine(adapter *scriptedAdapter, api *scriptedAPI, auth TokenProvider, recorder Recorder) *Machine {
	return New(context.Background(), Config{
		SessionID: "session-test",
		Adapter:   adapter,
		API:       api,
		Auth:      auth,
		Recorder:  recorder,
		Modal:     config.ModalConfig{ScanAutoClose: time.Minute},
	})
}

func TestStartScanUnassignedTag(t *testing.T) {
	adapter := availableAdapter("04:D6:94:82:97:6A:80")
	api := &scriptedAPI{assignment: &models.TagAssignment{Assigned: false}}
	recorder := &capturingRecorder{}
	m := newTestMachine(adapter, api, &staticAuth{token: "token"}, recorder)

	snap := m.StartScan(context.Background())

	assert.Equal(t, models.PhaseScanned, snap.Phase)
	assert.Equal(t, "04:D6:94:82:97:6A:80", snap.ScannedTag)
	require.NotNil(t, snap.TagAssignment)
	assert.False(t, snap.TagAssignment.Assigned)
	assert.Equal(t, 1, api.lookups())

	require.NotNil(t, snap.Modal)
	assert.False(t, snap.Modal.Open)
	require.NotNil(t, snap.Modal.LastClose)
	assert.Equal(t, models.ModalCloseManual, snap.Modal.LastClose.Cause)

	events := recorder.all()
	require.Len(t, events, 2)
	assert.Equal(t, models.ScanEventScan, events[0].Kind)
	assert.Equal(t, "OK", events[0].Outcome)
	assert.Equal(t, models.ScanEventLookup, events[1].Kind)
}

func TestStartScanAssignedTagCarriesOwner(t *testing.T) {
	adapter := availableAdapter("04:A7:B3:C2:D1:E0:F5")
	api := &scriptedAPI{assignment: &models.TagAssignment{
		Assigned: true,
		Person:   &models.Person{ID: 3, Name: "Anna", Type: models.PersonTypeStudent},
	}}
	m := newTestMachine(adapter, api, &staticAuth{token: "token"}, nil)

	snap := m.StartScan(context.Background())

	assert.Equal(t, models.PhaseScanned, snap.Phase)
	require.NotNil(t, snap.TagAssignment)
	assert.True(t, snap.TagAssignment.Assigned)
	require.NotNil(t, snap.TagAssignment.Person)
	assert.Equal(t, "Anna", snap.TagAssignment.Person.Name)
}

func TestStartScanScannerUnavailableFailsFast(t *testing.T) {
	adapter := &scriptedAdapter{status: models.ScannerStatus{Available: false, Platform: "kiosk", LastError: "no reader"}}
	api := &scriptedAPI{}
	m := newTestMachine(adapter, api, &staticAuth{token: "token"}, nil)

	snap := m.StartScan(context.Background())

	assert.Equal(t, models.PhaseFailed, snap.Phase)
	assert.Equal(t, appErrors.ErrScannerUnavailable.Code, snap.FailureCode)
	assert.Equal(t, 0, adapter.scanCalls())
	assert.Nil(t, snap.Modal)
}

func TestStartScanTimeoutFailsWithoutLookup(t *testing.T) {
	adapter := availableAdapter("")
	adapter.err = appErrors.Clone(appErrors.ErrScanTimeout, "")
	api := &scriptedAPI{}
	recorder := &capturingRecorder{}
	m := newTestMachine(adapter, api, &staticAuth{token: "token"}, recorder)

	snap := m.StartScan(context.Background())

	assert.Equal(t, models.PhaseFailed, snap.Phase)
	assert.Equal(t, appErrors.ErrScanTimeout.Code, snap.FailureCode)
	assert.Equal(t, 0, api.lookups())

	events := recorder.all()
	require.Len(t, events, 1)
	assert.Equal(t, appErrors.ErrScanTimeout.Code, events[0].Outcome)
}

func TestStartScanAuthMissingFailsBeforeLookup(t *testing.T) {
	adapter := availableAdapter("04:D6:94:82:97:6A:80")
	api := &scriptedAPI{}
	m := newTestMachine(adapter, api, &staticAuth{err: appErrors.Clone(appErrors.ErrAuthMissing, "")}, nil)

	snap := m.StartScan(context.Background())

	assert.Equal(t, models.PhaseFailed, snap.Phase)
	assert.Equal(t, appErrors.ErrAuthMissing.Code, snap.FailureCode)
	assert.Equal(t, 0, api.lookups())
}

func TestStartScanDuplicateIgnoredNotQueued(t *testing.T) {
	adapter := availableAdapter("04:D6:94:82:97:6A:80")
	adapter.gate = make(chan struct{})
	api := &scriptedAPI{assignment: &models.TagAssignment{Assigned: false}}
	m := newTestMachine(adapter, api, &staticAuth{token: "token"}, nil)

	done := make(chan models.WorkflowSnapshot, 1)
	go func() {
		done <- m.StartScan(context.Background())
	}()

	require.Eventually(t, func() bool {
		return adapter.scanCalls() == 1
	}, time.Second, 5*time.Millisecond)

	dup := m.StartScan(context.Background())
	assert.Equal(t, models.PhaseScanning, dup.Phase)

	close(adapter.gate)
	snap := <-done
	assert.Equal(t, models.PhaseScanned, snap.Phase)
	assert.Equal(t, 1, adapter.scanCalls())
	assert.Equal(t, 1, api.lookups())
}

func TestCancelScanDiscardsInFlightResult(t *testing.T) {
	adapter := availableAdapter("04:D6:94:82:97:6A:80")
	adapter.gate = make(chan struct{})
	api := &scriptedAPI{assignment: &models.TagAssignment{Assigned: false}}
	m := newTestMachine(adapter, api, &staticAuth{token: "token"}, nil)

	done := make(chan models.WorkflowSnapshot, 1)
	go func() {
		done <- m.StartScan(context.Background())
	}()

	require.Eventually(t, func() bool {
		return adapter.scanCalls() == 1
	}, time.Second, 5*time.Millisecond)

	cancelled := m.CancelScan(models.ModalCloseBackdrop)
	assert.Equal(t, models.PhaseIdle, cancelled.Phase)
	require.NotNil(t, cancelled.Modal)
	require.NotNil(t, cancelled.Modal.LastClose)
	assert.Equal(t, models.ModalCloseBackdrop, cancelled.Modal.LastClose.Cause)

	close(adapter.gate)
	snap := <-done
	assert.Equal(t, models.PhaseIdle, snap.Phase)
	assert.Empty(t, snap.ScannedTag)
	assert.Equal(t, 0, api.lookups())
}

func TestCommitReassignmentSucceeds(t *testing.T) {
	adapter := availableAdapter("04:A7:B3:C2:D1:E0:F5")
	api := &scriptedAPI{
		assignment: &models.TagAssignment{
			Assigned: true,
			Person:   &models.Person{ID: 3, Name: "Anna"},
		},
		result: &models.AssignmentResult{Success: true, PreviousTag: "04:11:22:33:44:55:66"},
	}
	recorder := &capturingRecorder{}
	m := newTestMachine(adapter, api, &staticAuth{token: "token"}, recorder)

	m.StartScan(context.Background())
	_, err := m.EnterSelection()
	require.NoError(t, err)
	_, err = m.Select(models.Person{ID: 7, Name: "Ben"})
	require.NoError(t, err)

	snap := m.Commit(context.Background())

	assert.Equal(t, models.PhaseSucceeded, snap.Phase)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "04:11:22:33:44:55:66", snap.Result.PreviousTag)
	assert.Equal(t, 1, api.assigns())

	events := recorder.all()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, models.ScanEventCommit, last.Kind)
	assert.Equal(t, "OK", last.Outcome)
	require.NotNil(t, last.PersonName)
	assert.Equal(t, "Ben", *last.PersonName)
}

func TestCommitWithoutSelectionFailsLocally(t *testing.T) {
	adapter := availableAdapter("04:D6:94:82:97:6A:80")
	api := &scriptedAPI{assignment: &models.TagAssignment{Assigned: false}}
	m := newTestMachine(adapter, api, &staticAuth{token: "token"}, nil)

	m.StartScan(context.Background())
	_, err := m.EnterSelection()
	require.NoError(t, err)

	snap := m.Commit(context.Background())

	assert.Equal(t, models.PhaseFailed, snap.Phase)
	assert.Equal(t, appErrors.ErrInvalidSelection.Code, snap.FailureCode)
	assert.Equal(t, 0, api.assigns())
}

func TestCommitServerConflictSurfacesMessage(t *testing.T) {
	adapter := availableAdapter("04:D6:94:82:97:6A:80")
	api := &scriptedAPI{
		assignment: &models.TagAssignment{Assigned: false},
		assignErr:  appErrors.Clone(appErrors.ErrCommitFailed, "tag already assigned to another person"),
	}
	m := newTestMachine(adapter, api, &staticAuth{token: "token"}, nil)

	m.StartScan(context.Background())
	_, err := m.EnterSelection()
	require.NoError(t, err)
	_, err = m.Select(models.Person{ID: 7, Name: "Ben"})
	require.NoError(t, err)

	snap := m.Commit(context.Background())

	assert.Equal(t, models.PhaseFailed, snap.Phase)
	assert.Equal(t, appErrors.ErrCommitFailed.Code, snap.FailureCode)
	assert.Equal(t, "tag already assigned to another person", snap.FailureMessage)
}

func TestCommitLateResultDiscardedAfterReset(t *testing.T) {
	adapter := availableAdapter("04:D6:94:82:97:6A:80")
	api := &scriptedAPI{
		assignment: &models.TagAssignment{Assigned: false},
		result:     &models.AssignmentResult{Success: true, PreviousTag: "04:11:22:33:44:55:66"},
		assignGate: make(chan struct{}),
	}
	m := newTestMachine(adapter, api, &staticAuth{token: "token"}, nil)

	m.StartScan(context.Background())
	_, err := m.EnterSelection()
	require.NoError(t, err)
	_, err = m.Select(models.Person{ID: 7, Name: "Ben"})
	require.NoError(t, err)

	done := make(chan models.WorkflowSnapshot, 1)
	go func() {
		done <- m.Commit(context.Background())
	}()

	require.Eventually(t, func() bool {
		return api.assigns() == 1
	}, time.Second, 5*time.Millisecond)

	reset := m.Reset()
	assert.Equal(t, models.PhaseIdle, reset.Phase)

	close(api.assignGate)
	snap := <-done
	assert.Equal(t, models.PhaseIdle, snap.Phase)
	assert.Empty(t, snap.ScannedTag)
	assert.Nil(t, snap.Result)
	assert.Equal(t, models.PhaseIdle, m.Snapshot().Phase)
}

func TestCommitLateFailureDiscardedAfterReset(t *testing.T) {
	adapter := availableAdapter("04:D6:94:82:97:6A:80")
	api := &scriptedAPI{
		assignment: &models.TagAssignment{Assigned: false},
		assignErr:  appErrors.Clone(appErrors.ErrCommitFailed, "upstream gone"),
		assignGate: make(chan struct{}),
	}
	m := newTestMachine(adapter, api, &staticAuth{token: "token"}, nil)

	m.StartScan(context.Background())
	_, err := m.EnterSelection()
	require.NoError(t, err)
	_, err = m.Select(models.Person{ID: 7, Name: "Ben"})
	require.NoError(t, err)

	done := make(chan models.WorkflowSnapshot, 1)
	go func() {
		done <- m.Commit(context.Background())
	}()

	require.Eventually(t, func() bool {
		return api.assigns() == 1
	}, time.Second, 5*time.Millisecond)

	m.Reset()

	close(api.assignGate)
	snap := <-done
	assert.Equal(t, models.PhaseIdle, snap.Phase)
	assert.Empty(t, snap.FailureCode)
}

func TestEnterSelectionRequiresScannedPhase(t *testing.T) {
	adapter := availableAdapter("04:D6:94:82:97:6A:80")
	m := newTestMachine(adapter, &scriptedAPI{}, &staticAuth{token: "token"}, nil)

	_, err := m.EnterSelection()
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
}

func TestSelectReplacesPriorPick(t *testing.T) {
	adapter := availableAdapter("04:D6:94:82:97:6A:80")
	api := &scriptedAPI{assignment: &models.TagAssignment{Assigned: false}}
	m := newTestMachine(adapter, api, &staticAuth{token: "token"}, nil)

	m.StartScan(context.Background())
	_, err := m.EnterSelection()
	require.NoError(t, err)

	_, err = m.Select(models.Person{ID: 3, Name: "Anna"})
	require.NoError(t, err)
	snap, err := m.Select(models.Person{ID: 7, Name: "Ben"})
	require.NoError(t, err)

	require.NotNil(t, snap.SelectedPersonID)
	assert.Equal(t, 7, *snap.SelectedPersonID)
}

func TestHandoffRestoreRoundTrip(t *testing.T) {
	adapter := availableAdapter("04:A7:B3:C2:D1:E0:F5")
	api := &scriptedAPI{
		assignment: &models.TagAssignment{
			Assigned: true,
			Person:   &models.Person{ID: 3, Name: "Anna"},
		},
		result: &models.AssignmentResult{Success: true, PreviousTag: "04:11:22:33:44:55:66"},
	}
	m := newTestMachine(adapter, api, &staticAuth{token: "token"}, nil)

	m.StartScan(context.Background())
	_, err := m.EnterSelection()
	require.NoError(t, err)
	_, err = m.Select(models.Person{ID: 7, Name: "Ben"})
	require.NoError(t, err)
	m.Commit(context.Background())

	nav := m.Handoff()
	assert.True(t, nav.AssignmentSuccess)
	assert.Equal(t, "Ben", nav.PersonName)
	assert.Equal(t, "04:11:22:33:44:55:66", nav.PreviousTag)
	assert.Equal(t, "04:A7:B3:C2:D1:E0:F5", nav.ScannedTag)
	require.NotNil(t, nav.TagAssignment)

	// A fresh machine rebuilds the scanned state without any network call.
	freshAPI := &scriptedAPI{}
	fresh := newTestMachine(availableAdapter(""), freshAPI, &staticAuth{token: "token"}, nil)
	snap := fresh.Restore(context.Background(), nav)

	assert.Equal(t, models.PhaseScanned, snap.Phase)
	assert.Equal(t, nav.ScannedTag, snap.ScannedTag)
	require.NotNil(t, snap.TagAssignment)
	assert.True(t, snap.TagAssignment.Assigned)
	assert.Equal(t, 1, api.lookups())
	assert.Equal(t, 0, freshAPI.lookups())
}

func TestRestoreWithoutTagStaysIdle(t *testing.T) {
	adapter := availableAdapter("")
	m := newTestMachine(adapter, &scriptedAPI{}, &staticAuth{token: "token"}, nil)

	snap := m.Restore(context.Background(), models.NavigationState{})
	assert.Equal(t, models.PhaseIdle, snap.Phase)
	assert.Empty(t, snap.ScannedTag)
}

func TestRestoreWithNilAssignmentRefetchesLookup(t *testing.T) {
	adapter := availableAdapter("")
	api := &scriptedAPI{assignment: &models.TagAssignment{
		Assigned: true,
		Person:   &models.Person{ID: 3, Name: "Anna"},
	}}
	m := newTestMachine(adapter, api, &staticAuth{token: "token"}, nil)

	snap := m.Restore(context.Background(), models.NavigationState{ScannedTag: "04:D6:94:82:97:6A:80"})

	assert.Equal(t, models.PhaseScanned, snap.Phase)
	assert.Equal(t, 1, api.lookups())
	require.NotNil(t, snap.TagAssignment)
	assert.True(t, snap.TagAssignment.Assigned)
	require.NotNil(t, snap.TagAssignment.Person)
	assert.Equal(t, "Anna", snap.TagAssignment.Person.Name)
}

func TestRestoreLookupFailureFallsBackToIdle(t *testing.T) {
	adapter := availableAdapter("")
	api := &scriptedAPI{lookupErr: appErrors.Clone(appErrors.ErrLookupFailed, "")}
	m := newTestMachine(adapter, api, &staticAuth{token: "token"}, nil)

	snap := m.Restore(context.Background(), models.NavigationState{ScannedTag: "04:D6:94:82:97:6A:80"})

	assert.Equal(t, models.PhaseIdle, snap.Phase)
	assert.Empty(t, snap.ScannedTag)
	assert.Nil(t, snap.TagAssignment)
}

func TestResetClearsEverything(t *testing.T) {
	adapter := availableAdapter("04:D6:94:82:97:6A:80")
	api := &scriptedAPI{assignment: &models.TagAssignment{Assigned: false}}
	m := newTestMachine(adapter, api, &staticAuth{token: "token"}, nil)

	m.StartScan(context.Background())
	snap := m.Reset()

	assert.Equal(t, models.PhaseIdle, snap.Phase)
	assert.Empty(t, snap.ScannedTag)
	assert.Nil(t, snap.TagAssignment)
	assert.Nil(t, snap.Result)
	assert.Empty(t, snap.FailureCode)
}

func TestFailureReachableFromEveryStepNeedsReset(t *testing.T) {
	adapter := availableAdapter("04:D6:94:82:97:6A:80")
	api := &scriptedAPI{lookupErr: appErrors.Clone(appErrors.ErrLookupFailed, "")}
	m := newTestMachine(adapter, api, &staticAuth{token: "token"}, nil)

	snap := m.StartScan(context.Background())
	assert.Equal(t, models.PhaseFailed, snap.Phase)
	assert.Equal(t, appErrors.ErrLookupFailed.Code, snap.FailureCode)

	// No automatic retry: the machine stays failed until an explicit reset.
	assert.Equal(t, models.PhaseFailed, m.Snapshot().Phase)
	assert.Equal(t, models.PhaseIdle, m.Reset().Phase)
}
