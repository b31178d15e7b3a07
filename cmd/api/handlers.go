package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rcs360-sync-layer/internal/application"
	"rcs360-sync-layer/internal/domain"
	apperrors "rcs360-sync-layer/internal/errors"
	"rcs360-sync-layer/internal/infrastructure/metrics"
	"rcs360-sync-layer/internal/infrastructure/middleware"
	"rcs360-sync-layer/internal/infrastructure/shopify"
	"rcs360-sync-layer/internal/ports"
)

const oauthStateTTL = 10 * time.Minute

// offlineSessionID is the single offline Admin API session per shop.
func offlineSessionID(shop string) string {
	return "offline_" + shop
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError translates a coded error into its JSON rendering. The error's
// own message is surfaced in the body, cause included; callers pass the same
// message the companion app displayed historically. Unknown errors render as
// internal.
func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeInternal
	message := ""
	if typed := apperrors.As(err); typed != nil {
		code = typed.Code()
		message = typed.Message()
		if cause := typed.Unwrap(); cause != nil {
			message = fmt.Sprintf("%s: %v", message, cause)
		}
	}
	meta := apperrors.MetadataFor(code)
	if message == "" {
		message = meta.PublicMessage
	}
	writeJSON(w, meta.HTTPStatus, map[string]string{"error": message})
}

// preflightHandler answers CORS preflights passed through the policy
// middleware: 204, headers only.
func preflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// methodNotAllowedHandler is the JSON 405 for GET on the POST-only API routes.
func methodNotAllowedHandler(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
			"error": method + " not supported",
		})
	}
}

// indexHandler serves the embedded admin landing: run the counts query for the
// shop's offline session and redirect to the companion app. A shop without a
// stored session is sent through the install flow instead.
func indexHandler(syncService *application.SyncService, sessions ports.SessionStore, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		shop, _ := middleware.ShopFromContext(ctx)
		shopParam := r.URL.Query().Get("shop")
		if shop == "" {
			shop = shopParam
		}

		session, err := sessions.GetSession(ctx, offlineSessionID(shop))
		if err != nil {
			logger.Error().Err(err).Str("shop", shop).Msg("Session lookup failed on index")
		}
		if session == nil && err == nil {
			http.Redirect(w, r, "/auth/shopify?shop="+shop, http.StatusFound)
			return
		}

		redirectURL := syncService.ComposeRedirect(ctx, session, shopParam, r.URL.Query().Get("host"))
		http.Redirect(w, r, redirectURL, http.StatusFound)
	}
}

// authenticateShopHandler issues a custom auth token for a shop domain.
func authenticateShopHandler(authService *application.AuthService, apiMetrics *metrics.APIMetrics, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ShopDomain     string `json:"shopDomain"`
			ShopOwnerEmail string `json:"shopOwnerEmail"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, apperrors.New(apperrors.CodeValidation, "Invalid JSON body"))
			return
		}

		token, err := authService.IssueToken(r.Context(), body.ShopDomain, body.ShopOwnerEmail)
		if err != nil {
			logger.Error().Err(err).Str("shop", body.ShopDomain).Msg("Token issuance failed")
			writeError(w, err)
			return
		}

		apiMetrics.IncTokenIssued()
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

// saveShopDataHandler persists one sync payload from the companion app.
func saveShopDataHandler(profileService *application.ProfileService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input application.SaveShopDataInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeError(w, apperrors.New(apperrors.CodeValidation, "Invalid JSON body"))
			return
		}

		if err := profileService.SaveShopData(r.Context(), input); err != nil {
			logger.Error().Err(err).Str("shop", input.ShopDomain).Msg("Saving shop data failed")
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// webhookHandler verifies, logs, and dispatches platform webhook deliveries.
func webhookHandler(
	verifier *shopify.WebhookVerifier,
	repo ports.ProfileRepository,
	dispatcher *application.WebhookDispatcher,
	apiMetrics *metrics.APIMetrics,
	logger zerolog.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		topic := r.Header.Get("X-Shopify-Topic")
		if topic == "" {
			writeError(w, apperrors.New(apperrors.CodeValidation, "Missing X-Shopify-Topic header"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, apperrors.New(apperrors.CodeValidation, "Failed to read request body"))
			return
		}
		defer r.Body.Close()

		if err := verifier.Verify(payload, r.Header.Get("X-Shopify-Hmac-SHA256")); err != nil {
			apiMetrics.IncWebhookEvent(topic, false)
			logger.Warn().Err(err).Str("topic", topic).Msg("Webhook signature verification failed")
			writeError(w, apperrors.New(apperrors.CodeUnauthorized, "Invalid signature"))
			return
		}

		event := &domain.WebhookEvent{
			Topic:     topic,
			Shop:      shopFromWebhook(r, payload),
			Payload:   payload,
			Verified:  true,
			CreatedAt: time.Now(),
		}
		apiMetrics.IncWebhookEvent(topic, true)

		if err := repo.LogWebhook(ctx, event); err != nil {
			// The log is an audit trail; delivery processing continues without it.
			logger.Error().Err(err).Str("topic", topic).Msg("Failed to log webhook event")
		}

		if err := dispatcher.Dispatch(ctx, event); err != nil {
			logger.Error().Err(err).Str("topic", topic).Str("shop", event.Shop).Msg("Failed to dispatch webhook event")
			// 500 triggers the platform's redelivery.
			writeError(w, apperrors.Wrap(apperrors.CodeInternal, err, "webhook dispatch failed"))
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
	}
}

// shopFromWebhook extracts the shop domain from the delivery payload, falling
// back to the X-Shopify-Shop-Domain header.
func shopFromWebhook(r *http.Request, payload []byte) string {
	var body map[string]interface{}
	if err := json.Unmarshal(payload, &body); err == nil {
		if shop, ok := body["myshopify_domain"].(string); ok && shop != "" {
			return shop
		}
		if shop, ok := body["domain"].(string); ok && shop != "" {
			return shop
		}
	}
	return r.Header.Get("X-Shopify-Shop-Domain")
}

// oauthInitHandler starts the install flow: persist a CSRF state record and
// send the merchant to the consent screen.
func oauthInitHandler(oauthClient ports.OAuthClient, sessions ports.SessionStore, scopes []string, appURL string, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		shop := r.URL.Query().Get("shop")
		if !domain.ValidShopDomain(shop) {
			writeError(w, apperrors.New(apperrors.CodeValidation, "Invalid shop parameter"))
			return
		}

		state := uuid.NewString()
		if err := sessions.SaveOAuthState(ctx, &domain.OAuthState{
			State:     state,
			Shop:      shop,
			Scopes:    scopes,
			ExpiresAt: time.Now().Add(oauthStateTTL),
		}); err != nil {
			logger.Error().Err(err).Str("shop", shop).Msg("Failed to save oauth state")
			writeError(w, apperrors.Wrap(apperrors.CodeDependency, err, "starting install"))
			return
		}

		authURL := oauthClient.AuthorizeURL(shop, scopes, appURL+"/auth/callback", state)
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// oauthCallbackHandler finishes the install flow: state check, code exchange,
// offline session persistence, webhook subscription, redirect into the admin.
func oauthCallbackHandler(oauthClient ports.OAuthClient, sessions ports.SessionStore, apiKey string, appURL string, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		shop := r.URL.Query().Get("shop")
		code := r.URL.Query().Get("code")
		stateParam := r.URL.Query().Get("state")
		if shop == "" || code == "" || stateParam == "" {
			writeError(w, apperrors.New(apperrors.CodeValidation, "Missing required parameters"))
			return
		}

		state, err := sessions.TakeOAuthState(ctx, stateParam)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to load oauth state")
			writeError(w, apperrors.Wrap(apperrors.CodeDependency, err, "completing install"))
			return
		}
		if state == nil || state.Shop != shop {
			writeError(w, apperrors.New(apperrors.CodeUnauthorized, "Invalid state"))
			return
		}

		accessToken, grantedScope, err := oauthClient.ExchangeToken(ctx, shop, code)
		if err != nil {
			logger.Error().Err(err).Str("shop", shop).Msg("Failed to exchange token")
			writeError(w, apperrors.Wrap(apperrors.CodeDependency, err, "exchanging authorization code"))
			return
		}

		session := &domain.Session{
			ID:          offlineSessionID(shop),
			Shop:        shop,
			State:       stateParam,
			Scope:       grantedScope,
			AccessToken: accessToken,
			IsOnline:    false,
			CreatedAt:   time.Now(),
		}
		if err := sessions.SaveSession(ctx, session); err != nil {
			logger.Error().Err(err).Str("shop", shop).Msg("Failed to save session")
			writeError(w, apperrors.Wrap(apperrors.CodeDependency, err, "saving session"))
			return
		}

		if err := registerWebhooks(ctx, oauthClient, shop, accessToken, appURL); err != nil {
			// Subscriptions can be repaired on the next install; the merchant
			// flow is not blocked on them.
			logger.Error().Err(err).Str("shop", shop).Msg("Webhook registration failed")
		}

		logger.Info().Str("shop", shop).Str("scope", grantedScope).Msg("Install completed")
		http.Redirect(w, r, fmt.Sprintf("https://%s/admin/apps/%s", shop, apiKey), http.StatusFound)
	}
}

func registerWebhooks(ctx context.Context, oauthClient ports.OAuthClient, shop, accessToken, appURL string) error {
	return oauthClient.RegisterWebhooks(ctx, shop, accessToken, appURL+"/webhooks/shopify")
}
