package ports

import "time"

// TokenMinter signs short-lived custom bearer tokens for auth identities.
type TokenMinter interface {
	MintCustomToken(uid string, claims map[string]string, now time.Time) (string, error)
}
