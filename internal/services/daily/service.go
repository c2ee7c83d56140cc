// Package daily drives the scheduled pipeline: collect market data for
// every subscribed ticker, generate the day's reports, and fan them out
// to subscribers.
package daily

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/scrip/internal/batch"
	"github.com/bobmcallan/scrip/internal/common"
	"github.com/bobmcallan/scrip/internal/interfaces"
	"github.com/bobmcallan/scrip/internal/models"
)

// runTimeout bounds one full pipeline pass, including every LLM call.
const runTimeout = 2 * time.Hour

// delivery is one (recipient, report) pair in the notification stage.
type delivery struct {
	recipient models.Recipient
	report    *models.TickerReport
	chart     []byte
}

// Orchestrator implements interfaces.Orchestrator. One instance owns
// the cron trigger; overlapping runs are skipped, not queued.
type Orchestrator struct {
	calendar  *common.Calendar
	subs      interfaces.SubscriptionService
	collector interfaces.CollectorService
	reports   interfaces.ReportService
	markets   interfaces.MarketStore
	notifier  interfaces.Notifier
	scheduler *common.SchedulerConfig
	notify    *common.NotifyConfig
	logger    *common.Logger

	cron  *cron.Cron
	runMu sync.Mutex
	wg    sync.WaitGroup
}

// NewOrchestrator creates the daily pipeline orchestrator.
func NewOrchestrator(
	calendar *common.Calendar,
	subs interfaces.SubscriptionService,
	collector interfaces.CollectorService,
	reports interfaces.ReportService,
	markets interfaces.MarketStore,
	notifier interfaces.Notifier,
	scheduler *common.SchedulerConfig,
	notify *common.NotifyConfig,
	logger *common.Logger,
) *Orchestrator {
	return &Orchestrator{
		calendar:  calendar,
		subs:      subs,
		collector: collector,
		reports:   reports,
		markets:   markets,
		notifier:  notifier,
		scheduler: scheduler,
		notify:    notify,
		logger:    logger,
	}
}

// Start registers the cron trigger in the business timezone.
func (o *Orchestrator) Start() error {
	o.cron = cron.New(cron.WithLocation(o.calendar.Location()))

	_, err := o.cron.AddFunc(o.scheduler.Schedule, o.scheduledRun)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", o.scheduler.Schedule, err)
	}

	o.cron.Start()
	o.logger.Info().
		Str("schedule", o.scheduler.Schedule).
		Str("timezone", o.calendar.Location().String()).
		Msg("Daily pipeline scheduled")
	return nil
}

// Stop cancels the trigger and waits for an in-flight run.
func (o *Orchestrator) Stop() {
	if o.cron != nil {
		<-o.cron.Stop().Done()
	}
	o.wg.Wait()
	o.logger.Info().Msg("Daily pipeline stopped")
}

func (o *Orchestrator) scheduledRun() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if _, err := o.RunOnce(ctx, false); err != nil {
		o.logger.Error().Err(err).Msg("Scheduled pipeline run failed")
	}
}

// RunOnce executes one pipeline pass. A second caller arriving while a
// run is in flight gets an error rather than a queued run; the cron
// schedule never fires often enough for that to matter, and ad-hoc
// report requests bypass the pipeline entirely.
func (o *Orchestrator) RunOnce(ctx context.Context, force bool) (*interfaces.RunReport, error) {
	if !o.runMu.TryLock() {
		return nil, fmt.Errorf("pipeline run already in progress")
	}
	o.wg.Add(1)
	defer func() {
		o.runMu.Unlock()
		o.wg.Done()
	}()

	run := &interfaces.RunReport{
		RunID:        uuid.New().String(),
		BusinessDate: models.ReportDateKey(o.calendar.CurrentBusinessDate()),
		StartedAt:    time.Now(),
	}

	if !force && !o.calendar.IsBusinessToday() {
		run.Skipped = true
		run.FinishedAt = time.Now()
		o.logger.Info().
			Str("run_id", run.RunID).
			Str("business_date", run.BusinessDate).
			Msg("Not a business day, pipeline skipped")
		return run, nil
	}

	// Snapshot the work list once; subscriptions changing mid-run apply
	// to the next run.
	tickers, err := o.subs.SubscribedTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribed tickers: %w", err)
	}
	run.Tickers = tickers

	if len(tickers) == 0 {
		run.FinishedAt = time.Now()
		o.logger.Info().Str("run_id", run.RunID).Msg("No subscribed tickers, nothing to do")
		return run, nil
	}

	o.logger.Info().
		Str("run_id", run.RunID).
		Str("business_date", run.BusinessDate).
		Int("tickers", len(tickers)).
		Msg("Pipeline run started")

	run.Prices = o.collector.CollectPrices(ctx, tickers)
	run.News = o.collector.CollectNews(ctx, tickers)
	generated := o.generateReports(ctx, tickers, run)
	run.Deliveries = o.deliverReports(ctx, generated)

	run.FinishedAt = time.Now()
	o.logger.Info().
		Str("run_id", run.RunID).
		Str("business_date", run.BusinessDate).
		Int("tickers", len(run.Tickers)).
		Int("prices_failed", run.Prices.Failed).
		Int("news_failed", run.News.Failed).
		Int("reports_failed", run.Reports.Failed).
		Int("deliveries_failed", run.Deliveries.Failed).
		Dur("elapsed", run.FinishedAt.Sub(run.StartedAt)).
		Msg("Pipeline run complete")

	return run, nil
}

// generateReports runs get-or-create for each ticker in turn. One
// ticker per LLM call keeps generation inside provider quotas; a
// failing ticker is logged and skipped.
func (o *Orchestrator) generateReports(ctx context.Context, tickers []string, run *interfaces.RunReport) map[string]*models.TickerReport {
	generated := make(map[string]*models.TickerReport, len(tickers))
	for i, ticker := range tickers {
		if ctx.Err() != nil {
			run.Reports.Failed += len(tickers) - i
			break
		}
		report, err := o.reports.GetOrCreate(ctx, ticker)
		if err != nil {
			run.Reports.Failed++
			o.logger.Warn().Err(err).Str("ticker", ticker).Msg("Report generation failed for ticker")
			continue
		}
		run.Reports.Succeeded++
		generated[ticker] = report
	}
	return generated
}

// deliverReports fans each generated report out to its subscribers in
// rate-limited batches.
func (o *Orchestrator) deliverReports(ctx context.Context, generated map[string]*models.TickerReport) interfaces.StageResult {
	var deliveries []delivery
	for ticker, report := range generated {
		recipients, err := o.subs.SubscribersOf(ctx, ticker)
		if err != nil {
			o.logger.Warn().Err(err).Str("ticker", ticker).Msg("Failed to resolve subscribers")
			continue
		}
		chartPNG := o.chartFor(ctx, ticker)
		for _, recipient := range recipients {
			deliveries = append(deliveries, delivery{recipient: recipient, report: report, chart: chartPNG})
		}
	}

	results := batch.Run(ctx, deliveries, o.notify.BatchSize, o.notify.GetBatchDelay(), func(ctx context.Context, d delivery) error {
		return o.notifier.SendReport(ctx, d.recipient, d.report, d.chart)
	})

	summary := interfaces.StageResult{}
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			o.logger.Warn().Err(r.Err).
				Str("ticker", r.Item.report.Ticker).
				Str("recipient", r.Item.recipient.Provider+":"+r.Item.recipient.ProviderID).
				Msg("Delivery failed")
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// chartFor renders the delivery chart, or nil when price history is
// missing. Missing charts degrade delivery to text only.
func (o *Orchestrator) chartFor(ctx context.Context, ticker string) []byte {
	data, err := o.markets.GetMarketData(ctx, ticker)
	if err != nil {
		if errors.Is(err, interfaces.ErrMarketDataNotFound) {
			o.logger.Debug().Str("ticker", ticker).Msg("No market data for chart")
		} else {
			o.logger.Warn().Err(err).Str("ticker", ticker).Msg("Market data load failed, chart skipped")
		}
		return nil
	}
	png, err := renderPriceChart(data)
	if err != nil {
		o.logger.Debug().Err(err).Str("ticker", ticker).Msg("Chart render skipped")
		return nil
	}
	return png
}

// Ensure Orchestrator implements Orchestrator
var _ interfaces.Orchestrator = (*Orchestrator)(nil)
