package ports

import (
	"context"

	"rcs360-sync-layer/internal/domain"
)

// AdminAPI defines the Admin GraphQL operations this app performs.
type AdminAPI interface {
	// FetchShopCounts runs the fixed shop/counts query for an authenticated
	// session. It surfaces every failure; callers decide how to degrade.
	FetchShopCounts(ctx context.Context, session *domain.Session) (*domain.ShopSnapshot, error)
}

// OAuthClient defines the install-flow operations against the platform.
type OAuthClient interface {
	// AuthorizeURL builds the merchant consent URL for the OAuth leg.
	AuthorizeURL(shop string, scopes []string, redirectURI string, state string) string

	// ExchangeToken swaps the authorization code for an offline access token
	// and the granted scope string.
	ExchangeToken(ctx context.Context, shop string, code string) (accessToken string, scope string, err error)

	// RegisterWebhooks subscribes the app's webhook topics for the shop.
	RegisterWebhooks(ctx context.Context, shop string, accessToken string, address string) error
}
