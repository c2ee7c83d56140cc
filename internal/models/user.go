package models

import "time"

// User is a chat user known to the bot. Provider qualifies the
// provider-scoped identifier (currently always "telegram").
type User struct {
	Provider   string    `json:"provider"`
	ProviderID string    `json:"provider_id"`
	Authorized bool      `json:"authorized"`
	CreatedAt  time.Time `json:"created_at"`
}

// Key returns the storage identifier for the user.
func (u *User) Key() string {
	return u.Provider + ":" + u.ProviderID
}

// Subscription relates a user to a ticker. Set membership only — no
// ordering, no duplicates.
type Subscription struct {
	Provider   string    `json:"provider"`
	ProviderID string    `json:"provider_id"`
	Ticker     string    `json:"ticker"`
	CreatedAt  time.Time `json:"created_at"`
}

// Key returns the storage identifier for the subscription.
func (s *Subscription) Key() string {
	return s.Provider + ":" + s.ProviderID + ":" + s.Ticker
}

// Recipient identifies a notification target resolved from a subscription.
type Recipient struct {
	Provider   string `json:"provider"`
	ProviderID string `json:"provider_id"`
}
