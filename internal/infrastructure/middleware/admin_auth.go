package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"rcs360-sync-layer/internal/config"
	"rcs360-sync-layer/internal/domain"
)

type contextKey string

// ShopContextKey carries the verified shop domain extracted from an embedded
// session token.
const ShopContextKey contextKey = "verifiedShop"

// ShopFromContext returns the shop domain verified by AdminAuth, if any.
func ShopFromContext(ctx context.Context) (string, bool) {
	shop, ok := ctx.Value(ShopContextKey).(string)
	return shop, ok
}

// sessionTokenClaims is the payload of a Shopify embedded app session token.
type sessionTokenClaims struct {
	Dest string `json:"dest"`
	jwt.RegisteredClaims
}

// AdminAuth verifies the embedded app session token that the Shopify admin
// attaches to API calls. The token is an HS256 JWT signed with the app's API
// secret, with the API key as audience and the shop admin URL in the dest
// claim. Accepted from the Authorization header or the id_token query
// parameter. Requests without a valid token are sent into the install flow
// when they name a valid shop, and rejected with 401 otherwise.
func AdminAuth(cfg config.ShopifyConfig, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractSessionToken(r)
			if raw == "" {
				rejectSession(w, r)
				return
			}

			claims := &sessionTokenClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(cfg.APISecret), nil
			},
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
				jwt.WithAudience(cfg.APIKey),
			)
			if err != nil || !token.Valid {
				logger.Warn().Err(err).Msg("Rejected invalid session token")
				rejectSession(w, r)
				return
			}

			shop := shopFromDest(claims.Dest)
			if !domain.ValidShopDomain(shop) {
				logger.Warn().Str("dest", claims.Dest).Msg("Session token dest is not a shop admin URL")
				rejectSession(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ShopContextKey, shop)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// rejectSession denies a request that failed session-token verification. A
// request naming a valid shop is a merchant without a working session, so it
// goes through OAuth instead of an error page.
func rejectSession(w http.ResponseWriter, r *http.Request) {
	if shop := r.URL.Query().Get("shop"); domain.ValidShopDomain(shop) {
		http.Redirect(w, r, "/auth/shopify?shop="+url.QueryEscape(shop), http.StatusFound)
		return
	}
	unauthorized(w)
}

// extractSessionToken pulls the raw JWT from the Authorization header, falling
// back to the id_token query parameter used during iframe bootstrapping.
func extractSessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("id_token")
}

// shopFromDest converts a dest claim like https://shop.myshopify.com/admin
// into the bare shop domain.
func shopFromDest(dest string) string {
	shop := strings.TrimPrefix(dest, "https://")
	if idx := strings.Index(shop, "/"); idx >= 0 {
		shop = shop[:idx]
	}
	return shop
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"Unauthorized"}`))
}
