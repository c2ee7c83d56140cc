package surrealdb

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/scrip/internal/common"
	"github.com/bobmcallan/scrip/internal/interfaces"
	"github.com/bobmcallan/scrip/internal/models"
)

// MarketStore persists price history (one record per ticker) and news
// articles (one record per article, deduplicated by URL).
type MarketStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewMarketStore(db *surrealdb.DB, logger *common.Logger) *MarketStore {
	return &MarketStore{db: db, logger: logger}
}

func (s *MarketStore) GetMarketData(ctx context.Context, ticker string) (*models.MarketData, error) {
	data, err := surrealdb.Select[models.MarketData](ctx, s.db, surrealmodels.NewRecordID("market_data", ticker))
	if err != nil {
		return nil, fmt.Errorf("failed to select market data: %w", err)
	}
	if data == nil || data.Ticker == "" {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrMarketDataNotFound, ticker)
	}
	return data, nil
}

func (s *MarketStore) SaveMarketData(ctx context.Context, data *models.MarketData) error {
	sql := "UPSERT $rid CONTENT $data"
	vars := map[string]any{
		"rid":  surrealmodels.NewRecordID("market_data", data.Ticker),
		"data": data,
	}

	if _, err := surrealdb.Query[[]models.MarketData](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to save market data: %w", err)
	}
	return nil
}

// newsRecordID derives a stable id from ticker and URL so re-collecting
// the same article upserts instead of duplicating.
func newsRecordID(article *models.NewsArticle) surrealmodels.RecordID {
	h := fnv.New64a()
	h.Write([]byte(article.URL))
	return surrealmodels.NewRecordID("news", fmt.Sprintf("%s:%x", article.Ticker, h.Sum64()))
}

func (s *MarketStore) SaveNews(ctx context.Context, articles []models.NewsArticle) error {
	for i := range articles {
		sql := "UPSERT $rid CONTENT $article"
		vars := map[string]any{
			"rid":     newsRecordID(&articles[i]),
			"article": &articles[i],
		}
		if _, err := surrealdb.Query[[]models.NewsArticle](ctx, s.db, sql, vars); err != nil {
			return fmt.Errorf("failed to save news article %s: %w", articles[i].URL, err)
		}
	}
	return nil
}

func (s *MarketStore) GetNews(ctx context.Context, ticker string, limit int) ([]models.NewsArticle, error) {
	sql := "SELECT * FROM news WHERE ticker = $ticker ORDER BY published_at DESC LIMIT $limit"
	vars := map[string]any{"ticker": ticker, "limit": limit}

	results, err := surrealdb.Query[[]models.NewsArticle](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to get news: %w", err)
	}

	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return nil, nil
}

// Ensure MarketStore implements interface
var _ interfaces.MarketStore = (*MarketStore)(nil)
