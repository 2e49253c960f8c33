package models

import "time"

// Phase enumerates the tag assignment workflow states.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseScanning       Phase = "scanning"
	PhaseScanned        Phase = "scanned"
	PhaseSelectingOwner Phase = "selecting_owner"
	PhaseCommitting     Phase = "committing"
	PhaseSucceeded      Phase = "succeeded"
	PhaseFailed         Phase = "failed"
)

// WorkflowSnapshot is the externally visible state of a workflow session.
// It is what the kiosk UI renders after every transition.
type WorkflowSnapshot struct {
	SessionID        string         `json:"session_id"`
	Phase            Phase          `json:"phase"`
	ScannedTag       string         `json:"scanned_tag,omitempty"`
	TagAssignment    *TagAssignment `json:"tag_assignment,omitempty"`
	SelectedPersonID *int           `json:"selected_person_id,omitempty"`
	Result           *AssignmentResult `json:"result,omitempty"`
	FailureCode      string         `json:"failure_code,omitempty"`
	FailureMessage   string         `json:"failure_message,omitempty"`
	Scanner          ScannerStatus  `json:"scanner"`
	Modal            *ModalState    `json:"modal,omitempty"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// NavigationState is the wire contract carried between the scan screen and
// the owner selection screen. It must round-trip losslessly: feeding a
// handoff back through restore reconstructs the scanned state without a
// second scan or lookup.
type NavigationState struct {
	AssignmentSuccess bool           `json:"assignment_success"`
	PersonName        string         `json:"person_name,omitempty"`
	PreviousTag       string         `json:"previous_tag,omitempty"`
	ScannedTag        string         `json:"scanned_tag"`
	TagAssignment     *TagAssignment `json:"tag_assignment,omitempty"`
}

// ModalState mirrors the scanning overlay for the UI.
type ModalState struct {
	Open        bool          `json:"open"`
	AutoCloseMs int64         `json:"auto_close_ms,omitempty"`
	OpenedAt    time.Time     `json:"opened_at"`
	LastClose   *ModalCloseEvent `json:"last_close,omitempty"`
}

// ModalCloseCause tags why an overlay closed. Carrying the cause (instead
// of inferring it from elapsed time) lets callers and tests distinguish a
// timeout from an operator dismissal.
type ModalCloseCause string

const (
	ModalCloseTimeout  ModalCloseCause = "timeout"
	ModalCloseBackdrop ModalCloseCause = "backdrop"
	ModalCloseEscape   ModalCloseCause = "escape"
	ModalCloseManual   ModalCloseCause = "manual"
)

// ModalCloseEvent is delivered exactly once per open through the close
// callback.
type ModalCloseEvent struct {
	Cause   ModalCloseCause `json:"cause"`
	Elapsed time.Duration   `json:"elapsed"`
}
