package models

import "time"

// SystemMetrics is a lightweight aggregate for the maintenance screen; the
// full collector output lives on the Prometheus endpoint.
type SystemMetrics struct {
	ScansTotal               uint64    `json:"scans_total"`
	ScanFailures             uint64    `json:"scan_failures"`
	CommitsTotal             uint64    `json:"commits_total"`
	CommitFailures           uint64    `json:"commit_failures"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	ActiveSessions           int       `json:"active_sessions"`
	PendingScans             int64     `json:"pending_scans"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
