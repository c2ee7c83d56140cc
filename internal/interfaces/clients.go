// Package interfaces defines service contracts for Scrip
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/scrip/internal/models"
)

// MarketDataClient fetches price and news data from the market data provider.
type MarketDataClient interface {
	// GetEOD fetches end-of-day bars for a ticker within a date range,
	// sorted descending (most recent first).
	GetEOD(ctx context.Context, ticker string, from, to time.Time) ([]models.EODBar, error)

	// GetNews fetches recent news articles for a ticker.
	GetNews(ctx context.Context, ticker string, limit int) ([]models.NewsArticle, error)
}

// LLMClient generates text from a prompt.
type LLMClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// ReportGenerator produces report content for a ticker on a business date.
// Generation may take minutes; implementations must honor ctx deadlines.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, ticker string, date time.Time) (string, error)
}

// Notifier delivers report content to a recipient over the chat transport.
type Notifier interface {
	// SendReport delivers report text; chart may be nil when no price
	// history was available to render.
	SendReport(ctx context.Context, recipient models.Recipient, report *models.TickerReport, chart []byte) error
}
