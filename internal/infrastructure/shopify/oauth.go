package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"

	"rcs360-sync-layer/internal/domain"
	"rcs360-sync-layer/internal/ports"
)

// OAuthAdapter implements the install flow against the platform's OAuth
// endpoints, using go-shopify for the authenticated Admin REST calls.
type OAuthAdapter struct {
	apiKey    string
	apiSecret string
	app       goshopify.App
	logger    zerolog.Logger
}

// NewOAuthAdapter creates an OAuth client for this app's API credentials.
func NewOAuthAdapter(apiKey, apiSecret string, logger zerolog.Logger) ports.OAuthClient {
	return &OAuthAdapter{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		app: goshopify.App{
			ApiKey:    apiKey,
			ApiSecret: apiSecret,
		},
		logger: logger,
	}
}

// AuthorizeURL builds the merchant consent URL. Scopes must be comma-joined
// without spaces or the platform rejects the request.
func (a *OAuthAdapter) AuthorizeURL(shop string, scopes []string, redirectURI string, state string) string {
	return fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
		shop,
		a.apiKey,
		url.QueryEscape(strings.Join(scopes, ",")),
		url.QueryEscape(redirectURI),
		url.QueryEscape(state),
	)
}

// ExchangeToken swaps the authorization code for an offline access token.
// The library's GetAccessToken discards the granted scope string, so the token
// endpoint is called directly.
func (a *OAuthAdapter) ExchangeToken(ctx context.Context, shop string, code string) (string, string, error) {
	tokenURL := fmt.Sprintf("https://%s/admin/oauth/access_token", shop)

	values := url.Values{}
	values.Set("client_id", a.apiKey)
	values.Set("client_secret", a.apiSecret)
	values.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(values.Encode()))
	if err != nil {
		return "", "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to exchange token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("failed to exchange token: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
		Scope       string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return "", "", fmt.Errorf("failed to decode token response: %w", err)
	}

	return tokenResponse.AccessToken, tokenResponse.Scope, nil
}

// RegisterWebhooks subscribes the app's topics for the shop. Registration is
// best-effort per topic; the first failure aborts so the caller can log it.
func (a *OAuthAdapter) RegisterWebhooks(ctx context.Context, shop string, accessToken string, address string) error {
	client, err := goshopify.NewClient(a.app, shop, accessToken)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	for _, topic := range []string{domain.TopicScopesUpdate, domain.TopicAppUninstalled} {
		webhook := goshopify.Webhook{
			Topic:   topic,
			Address: address,
			Format:  "json",
		}
		if _, err := client.Webhook.Create(ctx, webhook); err != nil {
			return fmt.Errorf("failed to create %s webhook: %w", topic, err)
		}
		a.logger.Info().Str("shop", shop).Str("topic", topic).Msg("Registered webhook subscription")
	}

	return nil
}
