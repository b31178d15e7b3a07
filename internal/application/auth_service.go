package application

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"rcs360-sync-layer/internal/domain"
	apperrors "rcs360-sync-layer/internal/errors"
	"rcs360-sync-layer/internal/ports"
)

// DefaultOwnerEmail is recorded on identities created without a known owner.
const DefaultOwnerEmail = "unknown@rcs360.co.uk"

// AuthService issues custom bearer tokens for shop identities.
type AuthService struct {
	authStore ports.AuthStore
	minter    ports.TokenMinter
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService creates a token issuer over the auth store and minter.
func NewAuthService(authStore ports.AuthStore, minter ports.TokenMinter, logger zerolog.Logger) *AuthService {
	return &AuthService{
		authStore: authStore,
		minter:    minter,
		logger:    logger,
		now:       time.Now,
	}
}

// IssueToken maps a shop domain to its auth identity, creating it on first
// use, re-applies the shopDomain claim, and mints a fresh custom token.
// Input validation happens before any auth-store access.
func (s *AuthService) IssueToken(ctx context.Context, shopDomain string, ownerEmail string) (string, error) {
	if shopDomain == "" {
		return "", apperrors.New(apperrors.CodeValidation, "Missing shopDomain")
	}
	if !domain.ValidShopDomain(shopDomain) {
		return "", apperrors.New(apperrors.CodeValidation, "Invalid shopDomain format")
	}

	uid := domain.AuthUserID(shopDomain)

	_, err := s.authStore.GetUser(ctx, uid)
	switch {
	case err == nil:
		// Identity exists; claims are refreshed below regardless.
	case apperrors.HasCode(err, apperrors.CodeNotFound):
		email := ownerEmail
		if email == "" {
			email = DefaultOwnerEmail
		}
		if createErr := s.authStore.CreateUser(ctx, &domain.AuthUser{
			UID:   uid,
			Email: email,
		}); createErr != nil {
			return "", apperrors.Wrap(apperrors.CodeDependency, createErr, "creating auth user")
		}
		s.logger.Info().Str("uid", uid).Msg("Created auth user for shop")
	default:
		return "", apperrors.Wrap(apperrors.CodeDependency, err, "auth user lookup")
	}

	claims := map[string]string{"shopDomain": shopDomain}
	if err := s.authStore.SetCustomClaims(ctx, uid, claims); err != nil {
		return "", apperrors.Wrap(apperrors.CodeDependency, err, "setting custom claims")
	}

	token, err := s.minter.MintCustomToken(uid, claims, s.now())
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeDependency, err, "minting custom token")
	}

	s.logger.Info().Str("uid", uid).Msg("Issued custom token")
	return token, nil
}
