package models

import "time"

// ScannerStatus reports whether a physical reader is reachable. It is
// polled once per workflow session and drives whether the "start scan"
// action is offered at all.
type ScannerStatus struct {
	Available bool   `json:"available"`
	Platform  string `json:"platform"`
	LastError string `json:"last_error,omitempty"`
}

// ScanResult is the shared result shape produced by every scan adapter
// implementation, so the workflow never branches on adapter identity.
type ScanResult struct {
	TagID     Tag       `json:"tag_id"`
	ScannedAt time.Time `json:"scanned_at"`
}

// PendingScan is an attendance check-in scan that could not be delivered
// (network down, auth missing or expired). It is queued for a later flush.
type PendingScan struct {
	ID         string    `json:"id"`
	TagID      string    `json:"tag_id"`
	TerminalID string    `json:"terminal_id"`
	Timestamp  int64     `json:"timestamp"`
	StaffID    *int      `json:"staff_id,omitempty"`
	Attempts   int       `json:"attempts"`
	CreatedAt  time.Time `json:"created_at"`
}

// CheckinResult mirrors the server response to an attendance scan.
type CheckinResult struct {
	PersonID    int    `json:"person_id"`
	PersonName  string `json:"person_name"`
	IsCheckedIn bool   `json:"is_checked_in"`
}
