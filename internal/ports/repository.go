package ports

import (
	"context"

	"rcs360-sync-layer/internal/domain"
)

// ProfileRepository defines the interface for shop profile persistence.
type ProfileRepository interface {
	// SaveProfile replaces the profile document for profile.ShopDomain.
	SaveProfile(ctx context.Context, profile *domain.ShopProfile) error

	// MergeProfile upserts only the supplied sync fields, setting installedAt
	// once on first write.
	MergeProfile(ctx context.Context, profile *domain.ShopProfile) error

	// GetProfile retrieves a profile by shop domain, nil when absent.
	GetProfile(ctx context.Context, shopDomain string) (*domain.ShopProfile, error)

	// LogWebhook records a processed webhook event.
	LogWebhook(ctx context.Context, event *domain.WebhookEvent) error
}

// AuthStore defines the interface for shop auth identities.
type AuthStore interface {
	// GetUser retrieves an auth user by uid. Returns an error carrying
	// errors.CodeNotFound when the identity does not exist.
	GetUser(ctx context.Context, uid string) (*domain.AuthUser, error)

	// CreateUser creates a new auth identity.
	CreateUser(ctx context.Context, user *domain.AuthUser) error

	// SetCustomClaims replaces the custom claim map for uid.
	SetCustomClaims(ctx context.Context, uid string, claims map[string]string) error
}

// SessionStore defines the interface for Admin API session persistence.
type SessionStore interface {
	SaveSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// SessionsForShop lists all sessions recorded for a shop.
	SessionsForShop(ctx context.Context, shop string) ([]*domain.Session, error)

	// UpdateScope overwrites the stored scope string for one session.
	UpdateScope(ctx context.Context, id string, scope string) error

	// DeleteSessionsForShop removes every session for the shop and returns
	// how many were deleted. Zero is not an error.
	DeleteSessionsForShop(ctx context.Context, shop string) (int, error)

	// SaveOAuthState and TakeOAuthState manage the short-lived CSRF record
	// between the two OAuth legs. Take deletes on read.
	SaveOAuthState(ctx context.Context, state *domain.OAuthState) error
	TakeOAuthState(ctx context.Context, state string) (*domain.OAuthState, error)
}
