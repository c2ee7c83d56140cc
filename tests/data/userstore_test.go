package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/scrip/internal/interfaces"
	"github.com/bobmcallan/scrip/internal/models"
)

func newSubscription(providerID, ticker string) *models.Subscription {
	return &models.Subscription{
		Provider:   "telegram",
		ProviderID: providerID,
		Ticker:     ticker,
		CreatedAt:  time.Now().Truncate(time.Second),
	}
}

func TestUserLifecycle(t *testing.T) {
	mgr := testManager(t)
	store := mgr.UserStore()
	ctx := testContext()

	user := &models.User{
		Provider:   "telegram",
		ProviderID: "1001",
		Authorized: true,
		CreatedAt:  time.Now().Truncate(time.Second),
	}
	require.NoError(t, store.SaveUser(ctx, user))

	got, err := store.GetUser(ctx, "telegram", "1001")
	require.NoError(t, err)
	assert.True(t, got.Authorized)

	_, err = store.GetUser(ctx, "telegram", "9999")
	assert.ErrorIs(t, err, interfaces.ErrUserNotFound)
}

func TestSubscriptionLifecycle(t *testing.T) {
	mgr := testManager(t)
	store := mgr.UserStore()
	ctx := testContext()

	require.NoError(t, store.SaveSubscription(ctx, newSubscription("1001", "AAPL")))
	require.NoError(t, store.SaveSubscription(ctx, newSubscription("1001", "MSFT")))
	require.NoError(t, store.SaveSubscription(ctx, newSubscription("1002", "AAPL")))

	// Duplicate subscribe is idempotent.
	require.NoError(t, store.SaveSubscription(ctx, newSubscription("1001", "AAPL")))

	tickers, err := store.ListUserTickers(ctx, "telegram", "1001")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickers)

	all, err := store.ListSubscribedTickers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, all)

	subscribers, err := store.ListSubscribers(ctx, "AAPL")
	require.NoError(t, err)
	assert.Len(t, subscribers, 2)

	require.NoError(t, store.DeleteSubscription(ctx, "telegram", "1001", "AAPL"))

	tickers, err = store.ListUserTickers(ctx, "telegram", "1001")
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT"}, tickers)

	// Deleting a missing subscription is a no-op.
	require.NoError(t, store.DeleteSubscription(ctx, "telegram", "1001", "AAPL"))
}
