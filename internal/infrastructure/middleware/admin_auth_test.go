package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcs360-sync-layer/internal/config"
)

const (
	testAPIKey    = "test-api-key"
	testAPISecret = "test-api-secret"
)

func mintSessionToken(t *testing.T, secret, audience, dest string, expiresAt time.Time) string {
	t.Helper()
	claims := sessionTokenClaims{
		Dest: dest,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    dest + "/admin",
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func adminAuthHandler(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var seenShop string
	cfg := config.ShopifyConfig{APIKey: testAPIKey, APISecret: testAPISecret}
	mw := AdminAuth(cfg, zerolog.Nop())
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shop, ok := ShopFromContext(r.Context())
		require.True(t, ok)
		seenShop = shop
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &seenShop
}

func TestAdminAuthAcceptsBearerToken(t *testing.T) {
	handler, seenShop := adminAuthHandler(t)
	token := mintSessionToken(t, testAPISecret, testAPIKey, "https://teststore.myshopify.com", time.Now().Add(time.Minute))

	req := httptest.NewRequest(http.MethodPost, "/api/authenticateShop", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "teststore.myshopify.com", *seenShop)
}

func TestAdminAuthAcceptsIDTokenQueryParam(t *testing.T) {
	handler, seenShop := adminAuthHandler(t)
	token := mintSessionToken(t, testAPISecret, testAPIKey, "https://teststore.myshopify.com", time.Now().Add(time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/api/authenticateShop?id_token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "teststore.myshopify.com", *seenShop)
}

func TestAdminAuthRejectsMissingToken(t *testing.T) {
	handler, _ := adminAuthHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/authenticateShop", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuthRedirectsShopToInstallWithoutToken(t *testing.T) {
	handler, _ := adminAuthHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/?shop=teststore.myshopify.com", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/shopify?shop=teststore.myshopify.com", rec.Header().Get("Location"))
}

func TestAdminAuthRedirectsShopToInstallOnInvalidToken(t *testing.T) {
	handler, _ := adminAuthHandler(t)
	token := mintSessionToken(t, "not-the-secret", testAPIKey, "https://teststore.myshopify.com", time.Now().Add(time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/?shop=teststore.myshopify.com", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/shopify?shop=teststore.myshopify.com", rec.Header().Get("Location"))
}

func TestAdminAuthNoRedirectForInvalidShopParam(t *testing.T) {
	handler, _ := adminAuthHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/?shop=evil.example.com", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuthRejectsWrongSecret(t *testing.T) {
	handler, _ := adminAuthHandler(t)
	token := mintSessionToken(t, "not-the-secret", testAPIKey, "https://teststore.myshopify.com", time.Now().Add(time.Minute))

	req := httptest.NewRequest(http.MethodPost, "/api/authenticateShop", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuthRejectsWrongAudience(t *testing.T) {
	handler, _ := adminAuthHandler(t)
	token := mintSessionToken(t, testAPISecret, "some-other-app", "https://teststore.myshopify.com", time.Now().Add(time.Minute))

	req := httptest.NewRequest(http.MethodPost, "/api/authenticateShop", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuthRejectsExpiredToken(t *testing.T) {
	handler, _ := adminAuthHandler(t)
	token := mintSessionToken(t, testAPISecret, testAPIKey, "https://teststore.myshopify.com", time.Now().Add(-time.Minute))

	req := httptest.NewRequest(http.MethodPost, "/api/authenticateShop", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuthRejectsNonShopDest(t *testing.T) {
	handler, _ := adminAuthHandler(t)
	token := mintSessionToken(t, testAPISecret, testAPIKey, "https://evil.example.com", time.Now().Add(time.Minute))

	req := httptest.NewRequest(http.MethodPost, "/api/authenticateShop", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestShopFromDest(t *testing.T) {
	assert.Equal(t, "teststore.myshopify.com", shopFromDest("https://teststore.myshopify.com"))
	assert.Equal(t, "teststore.myshopify.com", shopFromDest("https://teststore.myshopify.com/admin"))
}
