package eodhd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1000))
}

func TestGetEODParsesAndSortsDescending(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eod/AAPL", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_token"))
		assert.Equal(t, "d", r.URL.Query().Get("period"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"date":"2026-08-20","open":1,"high":2,"low":0.5,"close":1.5,"volume":100},
			{"date":"2026-08-24","open":2,"high":3,"low":1.5,"close":2.5,"volume":200},
			{"date":"2026-08-21","open":1.5,"high":2.5,"low":1,"close":2,"volume":150}
		]`))
	})

	bars, err := client.GetEOD(context.Background(), "AAPL",
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, "2026-08-24", bars[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2026-08-21", bars[1].Date.Format("2006-01-02"))
	assert.Equal(t, "2026-08-20", bars[2].Date.Format("2006-01-02"))
	assert.Equal(t, 2.5, bars[0].Close)
	assert.Equal(t, int64(200), bars[0].Volume)
}

func TestGetEODSkipsUnparseableDates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"date":"garbage","close":1},
			{"date":"2026-08-24","close":2}
		]`))
	})

	bars, err := client.GetEOD(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
	require.NoError(t, err)
	assert.Len(t, bars, 1)
}

func TestGetEODAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid token"))
	})

	_, err := client.GetEOD(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestGetNews(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/news", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("s"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		w.Write([]byte(`[
			{"date":"2026-08-24T09:00:00Z","title":"Earnings beat","content":"Strong quarter.","link":"https://example.com/a"}
		]`))
	})

	articles, err := client.GetNews(context.Background(), "AAPL", 5)
	require.NoError(t, err)
	require.Len(t, articles, 1)

	assert.Equal(t, "AAPL", articles[0].Ticker)
	assert.Equal(t, "Earnings beat", articles[0].Title)
	assert.Equal(t, "https://example.com/a", articles[0].URL)
	assert.Equal(t, "2026-08-24", articles[0].PublishedAt.Format("2006-01-02"))
	assert.False(t, articles[0].CollectedAt.IsZero())
}
