package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	payload := []byte(`{"domain":"teststore.myshopify.com"}`)
	v := NewWebhookVerifier("shhh")

	if err := v.Verify(payload, sign("shhh", payload)); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"domain":"teststore.myshopify.com"}`)
	v := NewWebhookVerifier("shhh")

	if err := v.Verify(payload, sign("other", payload)); err == nil {
		t.Fatalf("expected signature mismatch")
	}
}

func TestVerifyRejectsMissingHeader(t *testing.T) {
	v := NewWebhookVerifier("shhh")
	if err := v.Verify([]byte("{}"), ""); err == nil {
		t.Fatalf("expected error for missing header")
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	v := NewWebhookVerifier("shhh")
	good := sign("shhh", []byte(`{"a":1}`))
	if err := v.Verify([]byte(`{"a":2}`), good); err == nil {
		t.Fatalf("expected error for tampered payload")
	}
}
