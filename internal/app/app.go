// Package app wires configuration, storage, clients, and services into
// a running application.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/scrip/internal/clients/eodhd"
	"github.com/bobmcallan/scrip/internal/clients/gemini"
	"github.com/bobmcallan/scrip/internal/clients/telegram"
	"github.com/bobmcallan/scrip/internal/common"
	"github.com/bobmcallan/scrip/internal/interfaces"
	"github.com/bobmcallan/scrip/internal/models"
	"github.com/bobmcallan/scrip/internal/services/analyst"
	"github.com/bobmcallan/scrip/internal/services/collector"
	"github.com/bobmcallan/scrip/internal/services/daily"
	"github.com/bobmcallan/scrip/internal/services/report"
	"github.com/bobmcallan/scrip/internal/services/subscription"
	"github.com/bobmcallan/scrip/internal/storage/surrealdb"
)

// App holds all initialized components.
type App struct {
	Config   *common.Config
	Logger   *common.Logger
	Calendar *common.Calendar
	Storage  interfaces.StorageManager

	EODHDClient  *eodhd.Client
	GeminiClient *gemini.Client
	Bot          *telegram.Bot

	Collector     interfaces.CollectorService
	Reports       interfaces.ReportService
	Subscriptions interfaces.SubscriptionService
	Orchestrator  interfaces.Orchestrator

	StartupTime time.Time
}

// New initializes the application from configuration.
func New(config *common.Config, logger *common.Logger) (*App, error) {
	calendar := common.NewCalendar(config.BusinessLocation())

	storage, err := surrealdb.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	eodhdClient := eodhd.NewClient(config.Clients.EODHD.APIKey,
		eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
		eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
		eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
		eodhd.WithLogger(logger),
	)

	geminiClient, err := gemini.NewClient(context.Background(), config.Clients.Gemini.APIKey,
		gemini.WithModel(config.Clients.Gemini.Model),
		gemini.WithTimeout(config.Clients.Gemini.GetTimeout()),
		gemini.WithLogger(logger),
	)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
	}

	markets := storage.MarketStore()

	analystSvc := analyst.NewService(markets, geminiClient, logger)
	collectorSvc := collector.NewService(eodhdClient, markets, &config.Collector, logger)
	reportSvc := report.NewService(storage.ReportStore(), analystSvc, calendar, &config.Report, logger)
	subscriptionSvc := subscription.NewService(storage.UserStore(), logger)

	a := &App{
		Config:        config,
		Logger:        logger,
		Calendar:      calendar,
		Storage:       storage,
		EODHDClient:   eodhdClient,
		GeminiClient:  geminiClient,
		Collector:     collectorSvc,
		Reports:       reportSvc,
		Subscriptions: subscriptionSvc,
		StartupTime:   time.Now(),
	}

	// The bot is optional: without a token, reports are still generated
	// and served over HTTP but nothing is delivered.
	var notifier interfaces.Notifier
	if config.Telegram.Token != "" {
		bot, err := telegram.NewBot(config.Telegram, subscriptionSvc, reportSvc, logger)
		if err != nil {
			storage.Close()
			return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
		}
		a.Bot = bot
		notifier = bot
	} else {
		logger.Warn().Msg("Telegram token not configured, report delivery disabled")
		notifier = noopNotifier{logger: logger}
	}

	a.Orchestrator = daily.NewOrchestrator(
		calendar,
		subscriptionSvc,
		collectorSvc,
		reportSvc,
		markets,
		notifier,
		&config.Scheduler,
		&config.Notify,
		logger,
	)

	return a, nil
}

// Start launches the background components: bot polling and the cron
// schedule.
func (a *App) Start() error {
	if err := a.Orchestrator.Start(); err != nil {
		return err
	}
	if a.Bot != nil {
		go a.Bot.Start()
	}
	return nil
}

// Close shuts down background components and storage.
func (a *App) Close() error {
	a.Orchestrator.Stop()
	if a.Bot != nil {
		a.Bot.Stop()
	}
	return a.Storage.Close()
}

// noopNotifier drops deliveries when no chat transport is configured.
type noopNotifier struct {
	logger *common.Logger
}

func (n noopNotifier) SendReport(_ context.Context, recipient models.Recipient, report *models.TickerReport, _ []byte) error {
	n.logger.Debug().
		Str("recipient", recipient.Provider+":"+recipient.ProviderID).
		Str("ticker", report.Ticker).
		Msg("Delivery dropped, no notifier configured")
	return nil
}
