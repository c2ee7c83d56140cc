package surrealdb

import (
	"context"
	"fmt"
	"sort"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/scrip/internal/common"
	"github.com/bobmcallan/scrip/internal/interfaces"
	"github.com/bobmcallan/scrip/internal/models"
)

// UserStore persists users and subscriptions. Record ids are the
// natural composite keys, which makes subscription writes idempotent.
type UserStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewUserStore(db *surrealdb.DB, logger *common.Logger) *UserStore {
	return &UserStore{db: db, logger: logger}
}

func (s *UserStore) SaveUser(ctx context.Context, user *models.User) error {
	sql := "UPSERT $rid CONTENT $user"
	vars := map[string]any{
		"rid":  surrealmodels.NewRecordID("user", user.Key()),
		"user": user,
	}

	if _, err := surrealdb.Query[[]models.User](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *UserStore) GetUser(ctx context.Context, provider, providerID string) (*models.User, error) {
	key := provider + ":" + providerID
	user, err := surrealdb.Select[models.User](ctx, s.db, surrealmodels.NewRecordID("user", key))
	if err != nil {
		if isNotFoundError(err) {
			return nil, interfaces.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to select user: %w", err)
	}
	if user == nil || user.ProviderID == "" {
		return nil, interfaces.ErrUserNotFound
	}
	return user, nil
}

func (s *UserStore) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	sql := "UPSERT $rid CONTENT $sub"
	vars := map[string]any{
		"rid": surrealmodels.NewRecordID("subscription", sub.Key()),
		"sub": sub,
	}

	if _, err := surrealdb.Query[[]models.Subscription](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

func (s *UserStore) DeleteSubscription(ctx context.Context, provider, providerID, ticker string) error {
	key := provider + ":" + providerID + ":" + ticker
	if _, err := surrealdb.Delete[models.Subscription](ctx, s.db, surrealmodels.NewRecordID("subscription", key)); err != nil {
		if isNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

func (s *UserStore) ListUserTickers(ctx context.Context, provider, providerID string) ([]string, error) {
	sql := "SELECT ticker FROM subscription WHERE provider = $provider AND provider_id = $provider_id"
	vars := map[string]any{"provider": provider, "provider_id": providerID}

	type tickerRow struct {
		Ticker string `json:"ticker"`
	}

	results, err := surrealdb.Query[[]tickerRow](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list user tickers: %w", err)
	}

	var tickers []string
	if results != nil && len(*results) > 0 {
		for _, row := range (*results)[0].Result {
			tickers = append(tickers, row.Ticker)
		}
	}
	sort.Strings(tickers)
	return tickers, nil
}

func (s *UserStore) ListSubscribedTickers(ctx context.Context) ([]string, error) {
	sql := "SELECT ticker FROM subscription"

	type tickerRow struct {
		Ticker string `json:"ticker"`
	}

	results, err := surrealdb.Query[[]tickerRow](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribed tickers: %w", err)
	}

	seen := make(map[string]bool)
	var tickers []string
	if results != nil && len(*results) > 0 {
		for _, row := range (*results)[0].Result {
			if !seen[row.Ticker] {
				seen[row.Ticker] = true
				tickers = append(tickers, row.Ticker)
			}
		}
	}
	sort.Strings(tickers)
	return tickers, nil
}

func (s *UserStore) ListSubscribers(ctx context.Context, ticker string) ([]models.Recipient, error) {
	sql := "SELECT provider, provider_id FROM subscription WHERE ticker = $ticker"
	vars := map[string]any{"ticker": ticker}

	results, err := surrealdb.Query[[]models.Recipient](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return nil, nil
}

// Ensure UserStore implements interface
var _ interfaces.UserStore = (*UserStore)(nil)
