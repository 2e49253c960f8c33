package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pyreportal/kiosk-agent/internal/models"
	appErrors "github.com/pyreportal/kiosk-agent/pkg/errors"
	"github.com/pyreportal/kiosk-agent/pkg/export"
)

// ScanEventStore persists and lists audit rows.
type ScanEventStore interface {
	Insert(ctx context.Context, event *models.ScanEvent) error
	List(ctx context.Context, filter models.ScanEventFilter) ([]models.ScanEvent, int, error)
}

// AuditService records every workflow step into the local scan log and
// serves listings and exports over it. Recording is fire-and-forget: a
// broken database slows nothing down and fails no scan.
type AuditService struct {
	store  ScanEventStore
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewAuditService constructs the service. A nil store disables auditing
// entirely, which is the degraded mode when no database is configured.
func NewAuditService(store ScanEventStore, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		store:  store,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// Record appends one event asynchronously. Insert failures are logged and
// swallowed so the workflow never observes them.
func (s *AuditService) Record(ctx context.Context, event models.ScanEvent) {
	if s.store == nil {
		return
	}
	go func() {
		insertCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.Insert(insertCtx, &event); err != nil {
			s.logger.Warn("scan audit insert failed",
				zap.String("session_id", event.SessionID),
				zap.String("kind", string(event.Kind)),
				zap.Error(err))
		}
	}()
}

// List pages through the audit log.
func (s *AuditService) List(ctx context.Context, filter models.ScanEventFilter) ([]models.ScanEvent, *models.Pagination, error) {
	if s.store == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "scan log storage is not configured")
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}

	events, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scan log")
	}
	return events, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// ExportCSV renders the filtered scan log as CSV bytes.
func (s *AuditService) ExportCSV(ctx context.Context, filter models.ScanEventFilter) ([]byte, error) {
	data, err := s.dataset(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.csv.Render(*data)
}

// ExportPDF renders the filtered scan log as a tabular PDF.
func (s *AuditService) ExportPDF(ctx context.Context, filter models.ScanEventFilter) ([]byte, error) {
	data, err := s.dataset(ctx, filter)
	if err != nil {
		return nil, err
	}
	title := "Scan Log"
	if filter.Day != nil {
		title = fmt.Sprintf("Scan Log %s", filter.Day.Format("2006-01-02"))
	}
	return s.pdf.Render(*data, title)
}

var scanLogHeaders = []string{"Time", "Kind", "Tag", "Person", "Previous Tag", "Outcome", "Detail"}

func (s *AuditService) dataset(ctx context.Context, filter models.ScanEventFilter) (*export.Dataset, error) {
	if s.store == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "scan log storage is not configured")
	}

	// Exports ignore the caller's paging and pull one large page.
	filter.Page = 1
	filter.PageSize = 500

	events, _, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export scan log")
	}

	rows := make([]map[string]string, 0, len(events))
	for _, event := range events {
		row := map[string]string{
			"Time":    event.OccurredAt.Format(time.RFC3339),
			"Kind":    string(event.Kind),
			"Tag":     event.TagID,
			"Outcome": event.Outcome,
		}
		if event.PersonName != nil {
			row["Person"] = *event.PersonName
		}
		if event.PreviousTag != nil {
			row["Previous Tag"] = *event.PreviousTag
		}
		if event.Detail != nil {
			row["Detail"] = *event.Detail
		}
		rows = append(rows, row)
	}
	return &export.Dataset{Headers: scanLogHeaders, Rows: rows}, nil
}
