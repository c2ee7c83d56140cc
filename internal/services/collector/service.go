// Package collector fetches market data from the external provider and
// persists it, in rate-limited batches so a large subscription set does
// not trip provider quotas.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/scrip/internal/batch"
	"github.com/bobmcallan/scrip/internal/common"
	"github.com/bobmcallan/scrip/internal/interfaces"
	"github.com/bobmcallan/scrip/internal/models"
)

// priceHistoryDays is how far back EOD collection reaches. A year of
// bars covers every indicator window the analyst looks at.
const priceHistoryDays = 365

const newsFetchLimit = 10

// Service implements interfaces.CollectorService.
type Service struct {
	client  interfaces.MarketDataClient
	markets interfaces.MarketStore
	config  *common.CollectorConfig
	logger  *common.Logger
}

// NewService creates a collector service.
func NewService(client interfaces.MarketDataClient, markets interfaces.MarketStore, config *common.CollectorConfig, logger *common.Logger) *Service {
	return &Service{
		client:  client,
		markets: markets,
		config:  config,
		logger:  logger,
	}
}

// CollectPrices fetches and stores EOD history for each ticker. One
// ticker failing never aborts the stage; failures are counted and the
// rest proceed.
func (s *Service) CollectPrices(ctx context.Context, tickers []string) interfaces.StageResult {
	results := batch.Run(ctx, tickers, s.config.MarketBatchSize, s.config.GetBatchDelay(), s.collectPrice)
	return s.summarize("prices", results)
}

// CollectNews fetches and stores recent news for each ticker. News
// endpoints throttle harder than price endpoints, so the stage runs
// with a smaller batch and double the inter-batch delay.
func (s *Service) CollectNews(ctx context.Context, tickers []string) interfaces.StageResult {
	results := batch.Run(ctx, tickers, s.config.NewsBatchSize, 2*s.config.GetBatchDelay(), s.collectNews)
	return s.summarize("news", results)
}

func (s *Service) collectPrice(ctx context.Context, ticker string) error {
	to := time.Now()
	from := to.AddDate(0, 0, -priceHistoryDays)

	bars, err := s.client.GetEOD(ctx, ticker, from, to)
	if err != nil {
		return fmt.Errorf("failed to fetch EOD for %s: %w", ticker, err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("no EOD bars returned for %s", ticker)
	}

	data := &models.MarketData{
		Ticker:      ticker,
		EOD:         bars,
		LastUpdated: time.Now(),
	}
	if err := s.markets.SaveMarketData(ctx, data); err != nil {
		return fmt.Errorf("failed to save market data for %s: %w", ticker, err)
	}

	s.logger.Debug().Str("ticker", ticker).Int("bars", len(bars)).Msg("Price history collected")
	return nil
}

func (s *Service) collectNews(ctx context.Context, ticker string) error {
	articles, err := s.client.GetNews(ctx, ticker, newsFetchLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch news for %s: %w", ticker, err)
	}
	if len(articles) == 0 {
		s.logger.Debug().Str("ticker", ticker).Msg("No news returned")
		return nil
	}

	now := time.Now()
	for i := range articles {
		articles[i].Ticker = ticker
		articles[i].CollectedAt = now
	}
	if err := s.markets.SaveNews(ctx, articles); err != nil {
		return fmt.Errorf("failed to save news for %s: %w", ticker, err)
	}

	s.logger.Debug().Str("ticker", ticker).Int("articles", len(articles)).Msg("News collected")
	return nil
}

func (s *Service) summarize(stage string, results []batch.Result[string]) interfaces.StageResult {
	summary := interfaces.StageResult{}
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			s.logger.Warn().Err(r.Err).Str("ticker", r.Item).Str("stage", stage).Msg("Collection failed for ticker")
		} else {
			summary.Succeeded++
		}
	}
	s.logger.Info().
		Str("stage", stage).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("Collection stage complete")
	return summary
}

// Ensure Service implements CollectorService
var _ interfaces.CollectorService = (*Service)(nil)
