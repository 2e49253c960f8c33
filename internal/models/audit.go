package models

import "time"

// ScanEventKind labels the audited workflow step.
type ScanEventKind string

const (
	ScanEventScan   ScanEventKind = "SCAN"
	ScanEventLookup ScanEventKind = "LOOKUP"
	ScanEventCommit ScanEventKind = "COMMIT"
)

// ScanEvent is one audited row in the kiosk's local scan log. Recording is
// fire-and-forget: a failed insert is logged and never blocks the workflow.
type ScanEvent struct {
	ID          string        `db:"id" json:"id"`
	SessionID   string        `db:"session_id" json:"session_id"`
	Kind        ScanEventKind `db:"kind" json:"kind"`
	TagID       string        `db:"tag_id" json:"tag_id"`
	PersonID    *int          `db:"person_id" json:"person_id,omitempty"`
	PersonName  *string       `db:"person_name" json:"person_name,omitempty"`
	PreviousTag *string       `db:"previous_tag" json:"previous_tag,omitempty"`
	Outcome     string        `db:"outcome" json:"outcome"`
	Detail      *string       `db:"detail" json:"detail,omitempty"`
	OccurredAt  time.Time     `db:"occurred_at" json:"occurred_at"`
}

// ScanEventFilter narrows scan log listings and exports.
type ScanEventFilter struct {
	Day      *time.Time
	Kind     ScanEventKind
	TagID    string
	Page     int
	PageSize int
}
