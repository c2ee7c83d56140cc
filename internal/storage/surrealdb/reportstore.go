package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/scrip/internal/common"
	"github.com/bobmcallan/scrip/internal/interfaces"
	"github.com/bobmcallan/scrip/internal/models"
)

// ReportStore persists completed reports. Record ids are the composite
// key, so a duplicate insert fails at the record level as well as on
// the unique index.
type ReportStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewReportStore(db *surrealdb.DB, logger *common.Logger) *ReportStore {
	return &ReportStore{db: db, logger: logger}
}

func reportRecordID(ticker, reportDate string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID("report", ticker+":"+reportDate)
}

func (s *ReportStore) GetReport(ctx context.Context, ticker, reportDate string) (*models.TickerReport, error) {
	report, err := surrealdb.Select[models.TickerReport](ctx, s.db, reportRecordID(ticker, reportDate))
	if err != nil {
		if isNotFoundError(err) {
			return nil, interfaces.ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to select report: %w", err)
	}
	if report == nil || report.Ticker == "" {
		return nil, interfaces.ErrReportNotFound
	}
	return report, nil
}

func (s *ReportStore) InsertReport(ctx context.Context, report *models.TickerReport) error {
	sql := "CREATE $rid CONTENT $report"
	vars := map[string]any{
		"rid":    reportRecordID(report.Ticker, report.ReportDate),
		"report": report,
	}

	if _, err := surrealdb.Query[[]models.TickerReport](ctx, s.db, sql, vars); err != nil {
		if isDuplicateError(err) {
			return interfaces.ErrDuplicateReport
		}
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

func (s *ReportStore) ListReports(ctx context.Context, ticker string) ([]*models.TickerReport, error) {
	sql := "SELECT * FROM report WHERE ticker = $ticker ORDER BY report_date DESC"
	vars := map[string]any{"ticker": ticker}

	results, err := surrealdb.Query[[]models.TickerReport](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	var reports []*models.TickerReport
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			reports = append(reports, &(*results)[0].Result[i])
		}
	}
	return reports, nil
}

func isNotFoundError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "not found")
}

// isDuplicateError recognizes both the record-id collision and the
// unique index violation.
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "already contains")
}

// Ensure ReportStore implements interface
var _ interfaces.ReportStore = (*ReportStore)(nil)
