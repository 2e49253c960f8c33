package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pyreportal/kiosk-agent/internal/models"
)

// ScanEventRepository manages persistence for the kiosk's local scan
// audit log.
type ScanEventRepository struct {
	db *sqlx.DB
}

// NewScanEventRepository constructs a ScanEventRepository.
func NewScanEventRepository(db *sqlx.DB) *ScanEventRepository {
	return &ScanEventRepository{db: db}
}

// Insert appends one audited workflow step.
func (r *ScanEventRepository) Insert(ctx context.Context, event *models.ScanEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	query := `INSERT INTO scan_events (id, session_id, kind, tag_id, person_id, person_name, previous_tag, outcome, detail, occurred_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.SessionID,
		event.Kind,
		event.TagID,
		event.PersonID,
		event.PersonName,
		event.PreviousTag,
		event.Outcome,
		event.Detail,
		event.OccurredAt,
	); err != nil {
		return fmt.Errorf("insert scan event: %w", err)
	}
	return nil
}

// List returns audited events matching the provided filters, newest first.
func (r *ScanEventRepository) List(ctx context.Context, filter models.ScanEventFilter) ([]models.ScanEvent, int, error) {
	base := "FROM scan_events"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Day != nil {
		start := filter.Day.Truncate(24 * time.Hour)
		conditions = append(conditions, fmt.Sprintf("occurred_at >= $%d AND occurred_at < $%d", len(args)+1, len(args)+2))
		args = append(args, start, start.Add(24*time.Hour))
	}
	if filter.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, filter.Kind)
	}
	if filter.TagID != "" {
		conditions = append(conditions, fmt.Sprintf("tag_id = $%d", len(args)+1))
		args = append(args, filter.TagID)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, session_id, kind, tag_id, person_id, person_name, previous_tag, outcome, detail, occurred_at
        %s ORDER BY occurred_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var events []models.ScanEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list scan events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count scan events: %w", err)
	}
	return events, total, nil
}
