// Package report implements the get-or-create report cache: at most one
// generation per (ticker, business date), no matter how many callers
// race for it.
package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/scrip/internal/common"
	"github.com/bobmcallan/scrip/internal/interfaces"
	"github.com/bobmcallan/scrip/internal/models"
)

// ErrLockTimeout is returned when a caller gives up waiting for another
// in-flight generation of the same ticker. The caller can retry; the
// winning generation continues unaffected.
var ErrLockTimeout = errors.New("timed out waiting for report lock")

// Service implements interfaces.ReportService with a double-checked
// per-ticker lock around generation. Locks are channel semaphores so a
// waiting caller can bail out on context cancellation or lock timeout.
type Service struct {
	store       interfaces.ReportStore
	generator   interfaces.ReportGenerator
	calendar    *common.Calendar
	lockTimeout time.Duration
	logger      *common.Logger

	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewService creates a report service.
func NewService(store interfaces.ReportStore, generator interfaces.ReportGenerator, calendar *common.Calendar, config *common.ReportConfig, logger *common.Logger) *Service {
	return &Service{
		store:       store,
		generator:   generator,
		calendar:    calendar,
		lockTimeout: config.GetLockTimeout(),
		logger:      logger,
		locks:       make(map[string]chan struct{}),
	}
}

// GetToday returns today's cached report without triggering generation.
func (s *Service) GetToday(ctx context.Context, ticker string) (*models.TickerReport, error) {
	dateKey := models.ReportDateKey(s.calendar.CurrentBusinessDate())
	return s.store.GetReport(ctx, ticker, dateKey)
}

// GetOrCreate returns today's report for the ticker, generating it if
// absent. The sequence is: check the store, acquire the ticker's lock,
// check again, generate, insert, release. The store check is repeated
// under the lock because a concurrent caller may have completed
// generation while this one waited.
func (s *Service) GetOrCreate(ctx context.Context, ticker string) (*models.TickerReport, error) {
	date := s.calendar.CurrentBusinessDate()
	dateKey := models.ReportDateKey(date)

	// Fast path: cache hit without touching the lock.
	report, err := s.store.GetReport(ctx, ticker, dateKey)
	if err == nil {
		return report, nil
	}
	if !errors.Is(err, interfaces.ErrReportNotFound) {
		return nil, fmt.Errorf("failed to check report cache for %s: %w", ticker, err)
	}

	if err := s.acquire(ctx, ticker); err != nil {
		return nil, err
	}
	defer s.release(ticker)

	// Re-check: another caller may have generated while we waited.
	report, err = s.store.GetReport(ctx, ticker, dateKey)
	if err == nil {
		s.logger.Debug().Str("ticker", ticker).Str("report_date", dateKey).Msg("Report generated by concurrent caller")
		return report, nil
	}
	if !errors.Is(err, interfaces.ErrReportNotFound) {
		return nil, fmt.Errorf("failed to re-check report cache for %s: %w", ticker, err)
	}

	return s.generate(ctx, ticker, date, dateKey)
}

func (s *Service) generate(ctx context.Context, ticker string, date time.Time, dateKey string) (*models.TickerReport, error) {
	s.logger.Info().Str("ticker", ticker).Str("report_date", dateKey).Msg("Generating report")

	content, err := s.generator.GenerateReport(ctx, ticker, date)
	if err != nil {
		// Nothing is persisted on failure; the next caller retries cleanly.
		return nil, err
	}

	report := &models.TickerReport{
		ID:          uuid.New().String(),
		Ticker:      ticker,
		ReportDate:  dateKey,
		Content:     content,
		GeneratedAt: time.Now(),
	}

	if err := s.store.InsertReport(ctx, report); err != nil {
		if errors.Is(err, interfaces.ErrDuplicateReport) {
			// Another process won the race; its report is the truth.
			s.logger.Warn().Str("ticker", ticker).Str("report_date", dateKey).Msg("Concurrent insert detected, using stored report")
			return s.store.GetReport(ctx, ticker, dateKey)
		}
		return nil, fmt.Errorf("failed to store report for %s: %w", ticker, err)
	}

	return report, nil
}

// acquire takes the ticker's semaphore, creating it on first use. The
// wait is bounded by the configured lock timeout and by ctx.
func (s *Service) acquire(ctx context.Context, ticker string) error {
	s.mu.Lock()
	sem, ok := s.locks[ticker]
	if !ok {
		sem = make(chan struct{}, 1)
		s.locks[ticker] = sem
	}
	s.mu.Unlock()

	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: %s after %s", ErrLockTimeout, ticker, s.lockTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) release(ticker string) {
	s.mu.Lock()
	sem := s.locks[ticker]
	s.mu.Unlock()
	<-sem
}

// Ensure Service implements ReportService
var _ interfaces.ReportService = (*Service)(nil)
