// Package analyst turns stored market data into report content. It owns
// the prompt: what context goes in and what structure comes out. The
// LLM client stays a dumb transport.
package analyst

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/scrip/internal/common"
	"github.com/bobmcallan/scrip/internal/interfaces"
	"github.com/bobmcallan/scrip/internal/models"
)

// Context windows fed to the model. Older data adds tokens without
// adding signal.
const (
	maxPriceBars    = 90
	maxNewsArticles = 10
	maxNewsSnippet  = 500
)

// Service implements interfaces.ReportGenerator on top of stored
// market data. Generation never fetches from external providers; the
// collector is responsible for keeping the store current.
type Service struct {
	markets interfaces.MarketStore
	llm     interfaces.LLMClient
	logger  *common.Logger
}

// NewService creates an analyst service.
func NewService(markets interfaces.MarketStore, llm interfaces.LLMClient, logger *common.Logger) *Service {
	return &Service{
		markets: markets,
		llm:     llm,
		logger:  logger,
	}
}

// GenerateReport builds the analysis prompt from stored prices and news
// and asks the model for the report body.
func (s *Service) GenerateReport(ctx context.Context, ticker string, date time.Time) (string, error) {
	prompt, err := s.buildPrompt(ctx, ticker, date)
	if err != nil {
		return "", err
	}

	start := time.Now()
	content, err := s.llm.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("report generation for %s failed: %w", ticker, err)
	}

	s.logger.Info().
		Str("ticker", ticker).
		Str("report_date", models.ReportDateKey(date)).
		Dur("elapsed", time.Since(start)).
		Int("content_length", len(content)).
		Msg("Report content generated")

	return content, nil
}

func (s *Service) buildPrompt(ctx context.Context, ticker string, date time.Time) (string, error) {
	data, err := s.markets.GetMarketData(ctx, ticker)
	if err != nil {
		return "", fmt.Errorf("failed to load market data for %s: %w", ticker, err)
	}
	if data == nil || len(data.EOD) == 0 {
		return "", fmt.Errorf("no price history stored for %s", ticker)
	}

	news, err := s.markets.GetNews(ctx, ticker, maxNewsArticles)
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("News unavailable, generating from prices only")
		news = nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a professional equity research analyst. Write a daily research report for %s dated %s.\n\n",
		ticker, models.ReportDateKey(date))

	sb.WriteString("## Price History (most recent first)\n")
	sb.WriteString("date,open,high,low,close,volume\n")
	bars := data.EOD
	if len(bars) > maxPriceBars {
		bars = bars[:maxPriceBars]
	}
	for _, bar := range bars {
		fmt.Fprintf(&sb, "%s,%.2f,%.2f,%.2f,%.2f,%d\n",
			bar.Date.Format("2006-01-02"), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}

	if len(news) > 0 {
		sb.WriteString("\n## Recent News\n")
		for _, article := range news {
			fmt.Fprintf(&sb, "- [%s] %s\n", article.PublishedAt.Format("2006-01-02"), article.Title)
			if snippet := trimSnippet(article.Content); snippet != "" {
				fmt.Fprintf(&sb, "  %s\n", snippet)
			}
		}
	}

	sb.WriteString(`
## Instructions
Write the report in markdown with these sections:
1. Executive Summary - two or three sentences on where the stock stands today.
2. Fundamentals - what the news flow implies for the business.
3. Technicals - trend, momentum, and notable levels from the price history.
4. Risks - the main downside factors.
5. Scenarios - a brief bull case and bear case.

Base every claim on the data above. Do not invent figures.
End with a one-line disclaimer that this is not investment advice.
`)

	return sb.String(), nil
}

func trimSnippet(content string) string {
	content = strings.TrimSpace(content)
	if len(content) > maxNewsSnippet {
		content = content[:maxNewsSnippet] + "..."
	}
	return strings.ReplaceAll(content, "\n", " ")
}

// Ensure Service implements ReportGenerator
var _ interfaces.ReportGenerator = (*Service)(nil)
