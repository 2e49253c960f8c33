package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pyreportal/kiosk-agent/internal/models"
	"github.com/pyreportal/kiosk-agent/internal/service"
	appErrors "github.com/pyreportal/kiosk-agent/pkg/errors"
	"github.com/pyreportal/kiosk-agent/pkg/response"
)

// WorkflowHandler exposes the tag assignment workflow over HTTP. Every
// mutating endpoint returns the full post-transition snapshot so the UI
// renders from one payload.
type WorkflowHandler struct {
	sessions *service.SessionService
	roster   *service.RosterService
	metrics  *service.MetricsService
}

// NewWorkflowHandler constructs WorkflowHandler.
func NewWorkflowHandler(sessions *service.SessionService, roster *service.RosterService, metrics *service.MetricsService) *WorkflowHandler {
	return &WorkflowHandler{sessions: sessions, roster: roster, metrics: metrics}
}

// Create godoc
// @Summary Start a workflow session
// @Tags Workflow
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *WorkflowHandler) Create(c *gin.Context) {
	session := h.sessions.Create(c.Request.Context())
	h.metrics.SessionOpened()
	response.Created(c, session.Machine.Snapshot())
}

// Get godoc
// @Summary Get the current workflow snapshot
// @Tags Workflow
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *WorkflowHandler) Get(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session.Machine.Snapshot(), nil)
}

// Delete godoc
// @Summary Tear down a workflow session
// @Tags Workflow
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id} [delete]
func (h *WorkflowHandler) Delete(c *gin.Context) {
	if _, err := h.sessions.Get(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	h.sessions.Delete(c.Param("id"))
	h.metrics.SessionClosed()
	response.NoContent(c)
}

// StartScan godoc
// @Summary Start a tag scan
// @Tags Workflow
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/scan [post]
func (h *WorkflowHandler) StartScan(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	start := time.Now()
	snapshot := session.Machine.StartScan(c.Request.Context())

	outcome := "OK"
	if snapshot.Phase == models.PhaseFailed {
		outcome = snapshot.FailureCode
	}
	h.metrics.ObserveScan(outcome, time.Since(start))
	response.JSON(c, http.StatusOK, snapshot, nil)
}

type cancelScanRequest struct {
	Cause string `json:"cause"`
}

// CancelScan godoc
// @Summary Dismiss the scanning overlay
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body cancelScanRequest true "Close cause"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/scan/cancel [post]
func (h *WorkflowHandler) CancelScan(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	var req cancelScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	cause, err := parseCloseCause(req.Cause)
	if err != nil {
		response.Error(c, err)
		return
	}

	snapshot := session.Machine.CancelScan(cause)
	h.metrics.ObserveModalClose(cause)
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// EnterSelection godoc
// @Summary Move to the owner selection step
// @Tags Workflow
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/selection [post]
func (h *WorkflowHandler) EnterSelection(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	snapshot, err := session.Machine.EnterSelection()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

type selectRequest struct {
	PersonID int    `json:"person_id" binding:"required"`
	Search   string `json:"search"`
	Group    string `json:"group"`
	Type     string `json:"type"`
}

// Select godoc
// @Summary Pick the owner for the scanned tag
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body selectRequest true "Selection payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/selection [put]
func (h *WorkflowHandler) Select(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	person, err := h.roster.Find(c.Request.Context(), rosterFilter(req.Search, req.Group, req.Type), req.PersonID)
	if err != nil {
		response.Error(c, err)
		return
	}

	snapshot, err := session.Machine.Select(*person)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Commit godoc
// @Summary Commit the tag assignment
// @Tags Workflow
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/commit [post]
func (h *WorkflowHandler) Commit(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	snapshot := session.Machine.Commit(c.Request.Context())

	switch snapshot.Phase {
	case models.PhaseSucceeded:
		h.metrics.ObserveCommit("OK")
		h.roster.Invalidate(c.Request.Context())
	case models.PhaseFailed:
		h.metrics.ObserveCommit(snapshot.FailureCode)
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Reset godoc
// @Summary Reset the session for another scan
// @Tags Workflow
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/reset [post]
func (h *WorkflowHandler) Reset(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session.Machine.Reset(), nil)
}

// Handoff godoc
// @Summary Emit the navigation payload for the selection screen
// @Tags Workflow
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/handoff [get]
func (h *WorkflowHandler) Handoff(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session.Machine.Handoff(), nil)
}

// Restore godoc
// @Summary Rebuild the scanned state from a navigation payload
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body models.NavigationState true "Navigation payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/restore [post]
func (h *WorkflowHandler) Restore(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	var nav models.NavigationState
	if err := c.ShouldBindJSON(&nav); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	response.JSON(c, http.StatusOK, session.Machine.Restore(c.Request.Context(), nav), nil)
}

// Roster godoc
// @Summary Render one selection grid page
// @Tags Workflow
// @Produce json
// @Param id path string true "Session ID"
// @Param page query int false "Page index (0-based)"
// @Param search query string false "Search by name"
// @Param group query string false "Filter by group"
// @Param type query string false "student or staff"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/roster [get]
func (h *WorkflowHandler) Roster(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	page := 0
	if parsed, err := strconv.Atoi(c.DefaultQuery("page", "0")); err == nil {
		page = parsed
	}
	filter := rosterFilter(strings.TrimSpace(c.Query("search")), c.Query("group"), c.Query("type"))

	snapshot := session.Machine.Snapshot()
	rendered, err := h.roster.Page(c.Request.Context(), filter, page, snapshot.SelectedPersonID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rendered, nil)
}

func rosterFilter(search, group, personType string) models.RosterFilter {
	return models.RosterFilter{
		Search: search,
		Group:  group,
		Type:   models.PersonType(personType),
	}
}

func parseCloseCause(raw string) (models.ModalCloseCause, error) {
	switch models.ModalCloseCause(raw) {
	case models.ModalCloseBackdrop, models.ModalCloseEscape, models.ModalCloseManual:
		return models.ModalCloseCause(raw), nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "cause must be backdrop, escape or manual")
	}
}
