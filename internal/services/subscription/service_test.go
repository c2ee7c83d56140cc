package subscription

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/scrip/internal/common"
	"github.com/bobmcallan/scrip/internal/interfaces"
	"github.com/bobmcallan/scrip/internal/models"
)

// mockUserStore is an in-memory UserStore.
type mockUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
	subs  map[string]*models.Subscription
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users: make(map[string]*models.User),
		subs:  make(map[string]*models.Subscription),
	}
}

func (m *mockUserStore) SaveUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.Key()] = user
	return nil
}

func (m *mockUserStore) GetUser(_ context.Context, provider, providerID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[provider+":"+providerID]; ok {
		return u, nil
	}
	return nil, interfaces.ErrUserNotFound
}

func (m *mockUserStore) SaveSubscription(_ context.Context, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[sub.Key()] = sub
	return nil
}

func (m *mockUserStore) DeleteSubscription(_ context.Context, provider, providerID, ticker string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, provider+":"+providerID+":"+ticker)
	return nil
}

func (m *mockUserStore) ListUserTickers(_ context.Context, provider, providerID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var tickers []string
	for _, s := range m.subs {
		if s.Provider == provider && s.ProviderID == providerID {
			tickers = append(tickers, s.Ticker)
		}
	}
	sort.Strings(tickers)
	return tickers, nil
}

func (m *mockUserStore) ListSubscribedTickers(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var tickers []string
	for _, s := range m.subs {
		if !seen[s.Ticker] {
			seen[s.Ticker] = true
			tickers = append(tickers, s.Ticker)
		}
	}
	sort.Strings(tickers)
	return tickers, nil
}

func (m *mockUserStore) ListSubscribers(_ context.Context, ticker string) ([]models.Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var recipients []models.Recipient
	for _, s := range m.subs {
		if s.Ticker == ticker {
			recipients = append(recipients, models.Recipient{Provider: s.Provider, ProviderID: s.ProviderID})
		}
	}
	return recipients, nil
}

func TestRegisterAndAuthorize(t *testing.T) {
	store := newMockUserStore()
	svc := NewService(store, common.NewSilentLogger())
	ctx := context.Background()

	ok, err := svc.IsAuthorized(ctx, "telegram", "1001")
	require.NoError(t, err)
	assert.False(t, ok, "unknown user is unauthorized, not an error")

	require.NoError(t, svc.RegisterAuthorized(ctx, "telegram", "1001"))

	ok, err = svc.IsAuthorized(ctx, "telegram", "1001")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubscribeNormalizesTicker(t *testing.T) {
	store := newMockUserStore()
	svc := NewService(store, common.NewSilentLogger())
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "telegram", "1001", " aapl "))

	tickers, err := svc.UserTickers(ctx, "telegram", "1001")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, tickers)

	// Same ticker in different case is the same subscription.
	require.NoError(t, svc.Subscribe(ctx, "telegram", "1001", "AAPL"))
	tickers, _ = svc.UserTickers(ctx, "telegram", "1001")
	assert.Len(t, tickers, 1)
}

func TestSubscribeRejectsEmptyTicker(t *testing.T) {
	svc := NewService(newMockUserStore(), common.NewSilentLogger())
	assert.Error(t, svc.Subscribe(context.Background(), "telegram", "1001", "  "))
	assert.Error(t, svc.Unsubscribe(context.Background(), "telegram", "1001", ""))
}

func TestUnsubscribe(t *testing.T) {
	store := newMockUserStore()
	svc := NewService(store, common.NewSilentLogger())
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "telegram", "1001", "AAPL"))
	require.NoError(t, svc.Unsubscribe(ctx, "telegram", "1001", "aapl"))

	tickers, err := svc.UserTickers(ctx, "telegram", "1001")
	require.NoError(t, err)
	assert.Empty(t, tickers)

	// Unsubscribing again is a no-op.
	require.NoError(t, svc.Unsubscribe(ctx, "telegram", "1001", "AAPL"))
}

func TestSubscribedTickersAndSubscribers(t *testing.T) {
	store := newMockUserStore()
	svc := NewService(store, common.NewSilentLogger())
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "telegram", "1001", "AAPL"))
	require.NoError(t, svc.Subscribe(ctx, "telegram", "1002", "AAPL"))
	require.NoError(t, svc.Subscribe(ctx, "telegram", "1002", "MSFT"))

	tickers, err := svc.SubscribedTickers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickers)

	subscribers, err := svc.SubscribersOf(ctx, "aapl")
	require.NoError(t, err)
	assert.Len(t, subscribers, 2)
}
