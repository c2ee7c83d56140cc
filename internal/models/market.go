// Package models defines data structures for Scrip
package models

import "time"

// EODBar is a single end-of-day price bar.
type EODBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// MarketData holds the stored price history for a ticker.
// EOD bars are sorted descending (most recent first).
type MarketData struct {
	Ticker      string    `json:"ticker"`
	EOD         []EODBar  `json:"eod"`
	LastUpdated time.Time `json:"last_updated"`
}

// NewsArticle is a stored news item for a ticker. Articles are kept raw;
// embedding and semantic indexing happen in a separate collaborator.
type NewsArticle struct {
	Ticker      string    `json:"ticker"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Content     string    `json:"content"`
	PublishedAt time.Time `json:"published_at"`
	CollectedAt time.Time `json:"collected_at"`
}
