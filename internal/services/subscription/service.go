// Package subscription manages users and their ticker subscriptions.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/scrip/internal/common"
	"github.com/bobmcallan/scrip/internal/interfaces"
	"github.com/bobmcallan/scrip/internal/models"
)

// Service implements interfaces.SubscriptionService over the user store.
type Service struct {
	users  interfaces.UserStore
	logger *common.Logger
}

// NewService creates a subscription service.
func NewService(users interfaces.UserStore, logger *common.Logger) *Service {
	return &Service{
		users:  users,
		logger: logger,
	}
}

// RegisterAuthorized records a user as authorized. Re-registering an
// existing user is a no-op refresh, not an error.
func (s *Service) RegisterAuthorized(ctx context.Context, provider, providerID string) error {
	user := &models.User{
		Provider:   provider,
		ProviderID: providerID,
		Authorized: true,
		CreatedAt:  time.Now(),
	}
	if err := s.users.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save user %s: %w", user.Key(), err)
	}
	s.logger.Info().Str("user", user.Key()).Msg("User authorized")
	return nil
}

// IsAuthorized reports whether the user exists and is authorized. An
// unknown user is simply unauthorized, not an error.
func (s *Service) IsAuthorized(ctx context.Context, provider, providerID string) (bool, error) {
	user, err := s.users.GetUser(ctx, provider, providerID)
	if err != nil {
		if errors.Is(err, interfaces.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up user: %w", err)
	}
	return user.Authorized, nil
}

// Subscribe adds a ticker to the user's subscription set. Subscribing
// twice to the same ticker is idempotent.
func (s *Service) Subscribe(ctx context.Context, provider, providerID, ticker string) error {
	ticker = normalizeTicker(ticker)
	if ticker == "" {
		return errors.New("ticker is required")
	}

	sub := &models.Subscription{
		Provider:   provider,
		ProviderID: providerID,
		Ticker:     ticker,
		CreatedAt:  time.Now(),
	}
	if err := s.users.SaveSubscription(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription %s: %w", sub.Key(), err)
	}
	s.logger.Info().Str("subscription", sub.Key()).Msg("Subscription added")
	return nil
}

// Unsubscribe removes a ticker from the user's subscription set.
// Removing a ticker the user never subscribed to is a no-op.
func (s *Service) Unsubscribe(ctx context.Context, provider, providerID, ticker string) error {
	ticker = normalizeTicker(ticker)
	if ticker == "" {
		return errors.New("ticker is required")
	}

	if err := s.users.DeleteSubscription(ctx, provider, providerID, ticker); err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	s.logger.Info().
		Str("user", provider+":"+providerID).
		Str("ticker", ticker).
		Msg("Subscription removed")
	return nil
}

// UserTickers returns the tickers one user is subscribed to.
func (s *Service) UserTickers(ctx context.Context, provider, providerID string) ([]string, error) {
	return s.users.ListUserTickers(ctx, provider, providerID)
}

// SubscribedTickers returns the distinct tickers with at least one
// subscriber. This is the daily pipeline's work list.
func (s *Service) SubscribedTickers(ctx context.Context) ([]string, error) {
	return s.users.ListSubscribedTickers(ctx)
}

// SubscribersOf returns the recipients for a ticker's report delivery.
func (s *Service) SubscribersOf(ctx context.Context, ticker string) ([]models.Recipient, error) {
	return s.users.ListSubscribers(ctx, normalizeTicker(ticker))
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Ensure Service implements SubscriptionService
var _ interfaces.SubscriptionService = (*Service)(nil)
