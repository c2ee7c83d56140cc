package data

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/scrip/internal/interfaces"
	"github.com/bobmcallan/scrip/internal/models"
)

func newReport(ticker, date string) *models.TickerReport {
	return &models.TickerReport{
		ID:          uuid.New().String(),
		Ticker:      ticker,
		ReportDate:  date,
		Content:     "## Executive Summary\nStable day for " + ticker + ".",
		GeneratedAt: time.Now().Truncate(time.Second),
	}
}

func TestReportInsertAndGet(t *testing.T) {
	mgr := testManager(t)
	store := mgr.ReportStore()
	ctx := testContext()

	report := newReport("AAPL", "2026-08-25")
	require.NoError(t, store.InsertReport(ctx, report))

	got, err := store.GetReport(ctx, "AAPL", "2026-08-25")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.Ticker)
	assert.Equal(t, "2026-08-25", got.ReportDate)
	assert.Equal(t, report.Content, got.Content)

	// Same ticker, different date is a miss.
	_, err = store.GetReport(ctx, "AAPL", "2026-08-26")
	assert.ErrorIs(t, err, interfaces.ErrReportNotFound)

	// Different ticker, same date is a miss.
	_, err = store.GetReport(ctx, "MSFT", "2026-08-25")
	assert.ErrorIs(t, err, interfaces.ErrReportNotFound)
}

func TestReportDuplicateInsert(t *testing.T) {
	mgr := testManager(t)
	store := mgr.ReportStore()
	ctx := testContext()

	first := newReport("TSLA", "2026-08-25")
	require.NoError(t, store.InsertReport(ctx, first))

	// A second insert for the same key must fail, and the original
	// content must survive.
	second := newReport("TSLA", "2026-08-25")
	second.Content = "late writer"
	err := store.InsertReport(ctx, second)
	assert.ErrorIs(t, err, interfaces.ErrDuplicateReport)

	got, err := store.GetReport(ctx, "TSLA", "2026-08-25")
	require.NoError(t, err)
	assert.Equal(t, first.Content, got.Content)
}

func TestReportList(t *testing.T) {
	mgr := testManager(t)
	store := mgr.ReportStore()
	ctx := testContext()

	require.NoError(t, store.InsertReport(ctx, newReport("NVDA", "2026-08-21")))
	require.NoError(t, store.InsertReport(ctx, newReport("NVDA", "2026-08-24")))
	require.NoError(t, store.InsertReport(ctx, newReport("NVDA", "2026-08-25")))
	require.NoError(t, store.InsertReport(ctx, newReport("AMD", "2026-08-25")))

	reports, err := store.ListReports(ctx, "NVDA")
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, "2026-08-25", reports[0].ReportDate)
	assert.Equal(t, "2026-08-24", reports[1].ReportDate)
	assert.Equal(t, "2026-08-21", reports[2].ReportDate)
}
