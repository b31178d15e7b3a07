package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"rcs360-sync-layer/internal/config"
)

// shopifyAdminOrigin is where the embedded app iframe is served from.
const shopifyAdminOrigin = "https://admin.shopify.com"

// AllowedOrigins resolves the full CORS allow-list: the companion app, the
// Shopify admin, plus any configured extras.
func AllowedOrigins(companion config.CompanionConfig, cfg config.CORSConfig) []string {
	origins := []string{companion.BaseURL, shopifyAdminOrigin}
	origins = append(origins, cfg.ExtraOrigins...)
	return origins
}

// CORS returns middleware applying the API's allowed origin policy. Origins
// outside the allow-list get no CORS headers at all. Preflights pass through
// to the registered OPTIONS handlers so the routes answer them with 204.
func CORS(companion config.CompanionConfig, cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:     AllowedOrigins(companion, cfg),
		AllowedMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials:   true,
		MaxAge:             300,
		OptionsPassthrough: true,
	}).Handler
}
