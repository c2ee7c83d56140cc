package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/scrip/internal/models"
)

// ReportService is the single entry point for report get-or-create
// semantics. All callers — the daily pipeline and ad-hoc requests —
// share one instance, which is the synchronization point guaranteeing
// at most one generation per (ticker, business date).
type ReportService interface {
	// GetOrCreate returns today's report for the ticker, generating and
	// persisting it if absent. Concurrent calls for the same ticker are
	// serialized; calls for different tickers are not.
	GetOrCreate(ctx context.Context, ticker string) (*models.TickerReport, error)

	// GetToday returns today's cached report or ErrReportNotFound,
	// without ever triggering generation.
	GetToday(ctx context.Context, ticker string) (*models.TickerReport, error)
}

// StageResult summarizes one collection stage of a pipeline run.
type StageResult struct {
	Succeeded int
	Failed    int
}

// CollectorService fetches and persists market data in throttled batches.
type CollectorService interface {
	CollectPrices(ctx context.Context, tickers []string) StageResult
	CollectNews(ctx context.Context, tickers []string) StageResult
}

// SubscriptionService manages users and ticker subscriptions.
type SubscriptionService interface {
	RegisterAuthorized(ctx context.Context, provider, providerID string) error
	IsAuthorized(ctx context.Context, provider, providerID string) (bool, error)
	Subscribe(ctx context.Context, provider, providerID, ticker string) error
	Unsubscribe(ctx context.Context, provider, providerID, ticker string) error
	UserTickers(ctx context.Context, provider, providerID string) ([]string, error)
	SubscribedTickers(ctx context.Context) ([]string, error)
	SubscribersOf(ctx context.Context, ticker string) ([]models.Recipient, error)
}

// RunReport summarizes one orchestrator run for operators.
type RunReport struct {
	RunID        string
	BusinessDate string
	Skipped      bool // non-business day, pipeline not executed
	Tickers      []string
	Prices       StageResult
	News         StageResult
	Reports      StageResult
	Deliveries   StageResult
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Orchestrator drives the scheduled daily pipeline.
type Orchestrator interface {
	// Start registers the cron trigger. Stop cancels it and waits for an
	// in-flight run to finish.
	Start() error
	Stop()

	// RunOnce executes one full pipeline pass. When force is true the
	// business-day gate is bypassed.
	RunOnce(ctx context.Context, force bool) (*RunReport, error)
}
