package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyreportal/kiosk-agent/internal/client"
	"github.com/pyreportal/kiosk-agent/internal/models"
	"github.com/pyreportal/kiosk-agent/internal/repository"
	"github.com/pyreportal/kiosk-agent/internal/scanner"
	"github.com/pyreportal/kiosk-agent/internal/service"
	"github.com/pyreportal/kiosk-agent/pkg/config"
	"github.com/pyreportal/kiosk-agent/pkg/response"
)

type stubAPI struct {
	assignment *models.TagAssignment
	result     *models.AssignmentResult
	people     []models.Person
}

func (s *stubAPI) CheckTagAssignment(ctx context.Context, token string, tagID models.Tag) (*models.TagAssignment, error) {
	return s.assignment, nil
}

func (s *stubAPI) AssignTag(ctx context.Context, token string, personID int, tagID models.Tag) (*models.AssignmentResult, error) {
	return s.result, nil
}

func (s *stubAPI) ListRoster(ctx context.Context, token string, filter models.RosterFilter) ([]models.Person, error) {
	return s.people, nil
}

func (s *stubAPI) Checkin(ctx context.Context, token string, scan client.CheckinRequest) (*models.CheckinResult, error) {
	return nil, nil
}

func (s *stubAPI) Health(ctx context.Context) error { return nil }

func newWorkflowRouter(t *testing.T, api *stubAPI) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	adapter := scanner.NewMock(config.ScannerConfig{MockLatency: 0})
	auth := service.NewAuthService(nil)
	require.NoError(t, auth.SetSession(models.AuthInfo{AccessToken: "token", UserID: 1, Username: "teacher"}))

	sessions := service.NewSessionService(repository.NewSessionRepository(), adapter, api, auth, nil, config.ModalConfig{ScanAutoClose: time.Minute}, nil)
	roster := service.NewRosterService(api, auth, nil, 0, 10, nil)
	metrics := service.NewMetricsService()
	h := NewWorkflowHandler(sessions, roster, metrics)

	r := gin.New()
	r.POST("/sessions", h.Create)
	r.GET("/sessions/:id", h.Get)
	r.DELETE("/sessions/:id", h.Delete)
	r.POST("/sessions/:id/scan", h.StartScan)
	r.POST("/sessions/:id/scan/cancel", h.CancelScan)
	r.POST("/sessions/:id/selection", h.EnterSelection)
	r.PUT("/sessions/:id/selection", h.Select)
	r.POST("/sessions/:id/commit", h.Commit)
	r.POST("/sessions/:id/reset", h.Reset)
	r.GET("/sessions/:id/handoff", h.Handoff)
	r.POST("/sessions/:id/restore", h.Restore)
	r.GET("/sessions/:id/roster", h.Roster)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var envelope response.Envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	}
	return w, envelope
}

func snapshotFrom(t *testing.T, envelope response.Envelope) models.WorkflowSnapshot {
	t.Helper()
	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var snap models.WorkflowSnapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	return snap
}

func TestWorkflowAssignmentEndToEnd(t *testing.T) {
	api := &stubAPI{
		assignment: &models.TagAssignment{Assigned: true, Person: &models.Person{ID: 3, Name: "Anna"}},
		result:     &models.AssignmentResult{Success: true, PreviousTag: "04:11:22:33:44:55:66"},
		people:     []models.Person{{ID: 3, Name: "Anna"}, {ID: 7, Name: "Ben"}},
	}
	r := newWorkflowRouter(t, api)

	w, envelope := doJSON(t, r, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	snap := snapshotFrom(t, envelope)
	require.NotEmpty(t, snap.SessionID)
	assert.Equal(t, models.PhaseIdle, snap.Phase)
	id := snap.SessionID

	w, envelope = doJSON(t, r, http.MethodPost, fmt.Sprintf("/sessions/%s/scan", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap = snapshotFrom(t, envelope)
	assert.Equal(t, models.PhaseScanned, snap.Phase)
	require.NotNil(t, snap.TagAssignment)
	assert.True(t, snap.TagAssignment.Assigned)

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/sessions/%s/selection", id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, envelope = doJSON(t, r, http.MethodPut, fmt.Sprintf("/sessions/%s/selection", id), gin.H{"person_id": 7})
	require.Equal(t, http.StatusOK, w.Code)
	snap = snapshotFrom(t, envelope)
	require.NotNil(t, snap.SelectedPersonID)
	assert.Equal(t, 7, *snap.SelectedPersonID)

	w, envelope = doJSON(t, r, http.MethodPost, fmt.Sprintf("/sessions/%s/commit", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap = snapshotFrom(t, envelope)
	assert.Equal(t, models.PhaseSucceeded, snap.Phase)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "04:11:22:33:44:55:66", snap.Result.PreviousTag)

	w, envelope = doJSON(t, r, http.MethodGet, fmt.Sprintf("/sessions/%s/handoff", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var nav models.NavigationState
	require.NoError(t, json.Unmarshal(raw, &nav))
	assert.True(t, nav.AssignmentSuccess)
	assert.Equal(t, "Ben", nav.PersonName)
	assert.NotEmpty(t, nav.ScannedTag)
}

func TestWorkflowSessionNotFound(t *testing.T) {
	r := newWorkflowRouter(t, &stubAPI{})

	w, envelope := doJSON(t, r, http.MethodGet, "/sessions/unknown", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestWorkflowCancelScanValidatesCause(t *testing.T) {
	r := newWorkflowRouter(t, &stubAPI{assignment: &models.TagAssignment{}})

	_, envelope := doJSON(t, r, http.MethodPost, "/sessions", nil)
	id := snapshotFrom(t, envelope).SessionID

	w, envelope := doJSON(t, r, http.MethodPost, fmt.Sprintf("/sessions/%s/scan/cancel", id), gin.H{"cause": "timeout"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, envelope.Error)

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/sessions/%s/scan/cancel", id), gin.H{"cause": "manual"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestWorkflowRosterPage(t *testing.T) {
	people := make([]models.Person, 0, 23)
	for i := 1; i <= 23; i++ {
		people = append(people, models.Person{ID: i, Name: fmt.Sprintf("Person %d", i)})
	}
	r := newWorkflowRouter(t, &stubAPI{people: people})

	_, envelope := doJSON(t, r, http.MethodPost, "/sessions", nil)
	id := snapshotFrom(t, envelope).SessionID

	w, envelope := doJSON(t, r, http.MethodGet, fmt.Sprintf("/sessions/%s/roster?page=2", id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var page struct {
		Slots        []json.RawMessage `json:"slots"`
		Index        int               `json:"index"`
		TotalPages   int               `json:"total_pages"`
		ShowControls bool              `json:"show_controls"`
	}
	require.NoError(t, json.Unmarshal(raw, &page))
	assert.Equal(t, 2, page.Index)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Slots, 10)
	assert.True(t, page.ShowControls)
}

func TestWorkflowRestore(t *testing.T) {
	r := newWorkflowRouter(t, &stubAPI{})

	_, envelope := doJSON(t, r, http.MethodPost, "/sessions", nil)
	id := snapshotFrom(t, envelope).SessionID

	nav := models.NavigationState{
		ScannedTag:    "04:D6:94:82:97:6A:80",
		TagAssignment: &models.TagAssignment{Assigned: true, Person: &models.Person{ID: 3, Name: "Anna"}},
	}
	w, envelope := doJSON(t, r, http.MethodPost, fmt.Sprintf("/sessions/%s/restore", id), nav)
	require.Equal(t, http.StatusOK, w.Code)
	snap := snapshotFrom(t, envelope)
	assert.Equal(t, models.PhaseScanned, snap.Phase)
	assert.Equal(t, nav.ScannedTag, snap.ScannedTag)
}
