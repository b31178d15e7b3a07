package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// WebhookVerifier checks platform webhook signatures.
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier creates a verifier for the app's shared secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Verify validates the X-Shopify-Hmac-SHA256 header against the raw payload.
func (v *WebhookVerifier) Verify(payload []byte, hmacHeader string) error {
	if hmacHeader == "" {
		return errors.New("missing hmac header")
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(hmacHeader)) {
		return errors.New("hmac signature mismatch")
	}
	return nil
}
