// Package eodhd provides a client for the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/scrip/internal/common"
	"github.com/bobmcallan/scrip/internal/interfaces"
	"github.com/bobmcallan/scrip/internal/models"
)

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements the MarketDataClient interface
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// eodBarJSON is the wire format for an EOD bar.
type eodBarJSON struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// GetEOD fetches end-of-day bars for the date range, sorted descending.
func (c *Client) GetEOD(ctx context.Context, ticker string, from, to time.Time) ([]models.EODBar, error) {
	params := url.Values{}
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))
	params.Set("period", "d")

	var raw []eodBarJSON
	if err := c.get(ctx, "/eod/"+url.PathEscape(ticker), params, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch EOD data for %s: %w", ticker, err)
	}

	bars := make([]models.EODBar, 0, len(raw))
	for _, r := range raw {
		date, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			c.logger.Warn().Str("ticker", ticker).Str("date", r.Date).Msg("Skipping bar with unparseable date")
			continue
		}
		bars = append(bars, models.EODBar{
			Date:   date,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.After(bars[j].Date) })
	return bars, nil
}

// newsArticleJSON is the wire format for a news item.
type newsArticleJSON struct {
	Date    string `json:"date"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Link    string `json:"link"`
}

// GetNews fetches recent news articles for a ticker.
func (c *Client) GetNews(ctx context.Context, ticker string, limit int) ([]models.NewsArticle, error) {
	params := url.Values{}
	params.Set("s", ticker)
	params.Set("limit", fmt.Sprintf("%d", limit))

	var raw []newsArticleJSON
	if err := c.get(ctx, "/news", params, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch news for %s: %w", ticker, err)
	}

	now := time.Now()
	articles := make([]models.NewsArticle, 0, len(raw))
	for _, r := range raw {
		published, err := time.Parse(time.RFC3339, r.Date)
		if err != nil {
			published = now
		}
		articles = append(articles, models.NewsArticle{
			Ticker:      ticker,
			Title:       r.Title,
			URL:         r.Link,
			Content:     r.Content,
			PublishedAt: published,
			CollectedAt: now,
		})
	}

	return articles, nil
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
