package entity

import (
	"testing"
	"time"

	"rcs360-sync-layer/internal/domain"
)

func TestAuthUserDocRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	user := &domain.AuthUser{
		UID:          "shop:teststore.myshopify.com",
		Email:        "owner@example.com",
		CustomClaims: map[string]string{"shopDomain": "teststore.myshopify.com"},
		CreatedAt:    created,
		UpdatedAt:    created,
	}

	got := MongoAuthUserDocFromDomain(user).ToDomain()

	if got.UID != user.UID {
		t.Fatalf("uid mismatch: %q", got.UID)
	}
	if got.Email != user.Email {
		t.Fatalf("email mismatch: %q", got.Email)
	}
	if got.CustomClaims["shopDomain"] != "teststore.myshopify.com" {
		t.Fatalf("claims mismatch: %v", got.CustomClaims)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("createdAt mismatch: %v", got.CreatedAt)
	}
}
