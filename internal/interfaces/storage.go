package interfaces

import (
	"context"
	"errors"

	"github.com/bobmcallan/scrip/internal/models"
)

// Sentinel errors shared by all storage implementations.
var (
	// ErrReportNotFound is returned when no completed report exists for
	// a (ticker, report date) key.
	ErrReportNotFound = errors.New("report not found")

	// ErrDuplicateReport is returned when an insert loses the race
	// against another writer for the same (ticker, report date) key.
	// Callers treat it as a cache hit and re-read.
	ErrDuplicateReport = errors.New("report already exists")

	// ErrMarketDataNotFound is returned when no price history has been
	// collected for a ticker yet.
	ErrMarketDataNotFound = errors.New("market data not found")

	// ErrUserNotFound is returned when a user lookup misses.
	ErrUserNotFound = errors.New("user not found")
)

// StorageManager coordinates all storage backends
type StorageManager interface {
	ReportStore() ReportStore
	MarketStore() MarketStore
	UserStore() UserStore

	Close() error
}

// ReportStore persists completed reports keyed by (ticker, report date).
// Writes are insert-only: completed reports are never updated or deleted.
type ReportStore interface {
	// GetReport returns the completed report for the key, or ErrReportNotFound.
	GetReport(ctx context.Context, ticker, reportDate string) (*models.TickerReport, error)

	// InsertReport persists a new completed report. The store enforces a
	// uniqueness constraint on (ticker, report_date); a conflicting insert
	// returns ErrDuplicateReport.
	InsertReport(ctx context.Context, report *models.TickerReport) error

	// ListReports returns all stored reports for a ticker, newest first.
	ListReports(ctx context.Context, ticker string) ([]*models.TickerReport, error)
}

// MarketStore persists price history and news articles.
type MarketStore interface {
	// GetMarketData returns the stored price history for a ticker, or
	// ErrMarketDataNotFound when none has been collected.
	GetMarketData(ctx context.Context, ticker string) (*models.MarketData, error)
	SaveMarketData(ctx context.Context, data *models.MarketData) error

	SaveNews(ctx context.Context, articles []models.NewsArticle) error
	GetNews(ctx context.Context, ticker string, limit int) ([]models.NewsArticle, error)
}

// UserStore persists users and their ticker subscriptions.
type UserStore interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, provider, providerID string) (*models.User, error)

	SaveSubscription(ctx context.Context, sub *models.Subscription) error
	DeleteSubscription(ctx context.Context, provider, providerID, ticker string) error
	ListUserTickers(ctx context.Context, provider, providerID string) ([]string, error)

	// ListSubscribedTickers returns the distinct set of tickers with at
	// least one subscription.
	ListSubscribedTickers(ctx context.Context) ([]string, error)

	// ListSubscribers returns the recipients subscribed to a ticker.
	ListSubscribers(ctx context.Context, ticker string) ([]models.Recipient, error)
}
