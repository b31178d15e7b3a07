package domain

import "time"

// Session represents a merchant authorization against the Admin API.
// OAuth creates one per shop install; webhook handlers mutate or delete it.
type Session struct {
	ID          string    `json:"id"`
	Shop        string    `json:"shop"`
	State       string    `json:"state"`
	Scope       string    `json:"scope"`
	AccessToken string    `json:"access_token"`
	IsOnline    bool      `json:"is_online"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// OAuthState is the short-lived CSRF record persisted between the OAuth
// initiation and callback legs.
type OAuthState struct {
	State     string    `json:"state"`
	Shop      string    `json:"shop"`
	Scopes    []string  `json:"scopes"`
	ExpiresAt time.Time `json:"expires_at"`
}
