package credentials

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"rcs360-sync-layer/internal/config"
)

// customTokenAudience is the fixed audience the identity toolkit expects on
// service-account minted tokens.
const customTokenAudience = "https://identitytoolkit.googleapis.com/google.identity.identitytoolkit.v1.IdentityToolkit"

// customTokenTTL is the maximum lifetime the identity toolkit accepts.
const customTokenTTL = time.Hour

var signingMethod = jwt.SigningMethodRS256

// ServiceAccount is the parsed signing credential for the auth backend.
// It is constructed exactly once at startup; a bad credential is fatal.
type ServiceAccount struct {
	ProjectID   string
	ClientEmail string
	privateKey  *rsa.PrivateKey
}

type keyFile struct {
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// Load resolves the service account from the env triple when complete,
// otherwise from the configured key file. Neither resolving is an error.
func Load(cfg config.FirebaseConfig) (*ServiceAccount, error) {
	if cfg.ProjectID != "" && cfg.ClientEmail != "" && cfg.PrivateKey != "" {
		// Deployment environments store the PEM with escaped newlines.
		pemKey := strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")
		return newServiceAccount(cfg.ProjectID, cfg.ClientEmail, pemKey)
	}

	if cfg.KeyFile != "" {
		raw, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading service account key file: %w", err)
		}
		var kf keyFile
		if err := json.Unmarshal(raw, &kf); err != nil {
			return nil, fmt.Errorf("parsing service account key file: %w", err)
		}
		return newServiceAccount(kf.ProjectID, kf.ClientEmail, kf.PrivateKey)
	}

	return nil, errors.New("no service account credential: set FIREBASE_PROJECT_ID/FIREBASE_CLIENT_EMAIL/FIREBASE_PRIVATE_KEY or FIREBASE_KEY_FILE")
}

func newServiceAccount(projectID, clientEmail, pemKey string) (*ServiceAccount, error) {
	if projectID == "" || clientEmail == "" || pemKey == "" {
		return nil, errors.New("service account credential is incomplete")
	}

	key, err := parseRSAPrivateKey(pemKey)
	if err != nil {
		return nil, fmt.Errorf("parsing service account private key: %w", err)
	}

	return &ServiceAccount{
		ProjectID:   projectID,
		ClientEmail: clientEmail,
		privateKey:  key,
	}, nil
}

func parseRSAPrivateKey(pemKey string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("unsupported private key type %T", parsed)
	}
	return key, nil
}

// customTokenClaims is the token shape the auth backend's client SDKs exchange
// for a session credential.
type customTokenClaims struct {
	UID    string            `json:"uid"`
	Claims map[string]string `json:"claims,omitempty"`
	jwt.RegisteredClaims
}

// MintCustomToken issues a short-lived signed bearer token for the uid,
// embedding the custom claim map.
func (sa *ServiceAccount) MintCustomToken(uid string, claims map[string]string, now time.Time) (string, error) {
	if uid == "" {
		return "", errors.New("uid is required")
	}

	tokenClaims := customTokenClaims{
		UID:    uid,
		Claims: claims,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sa.ClientEmail,
			Subject:   sa.ClientEmail,
			Audience:  jwt.ClaimStrings{customTokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(customTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(signingMethod, tokenClaims)
	signed, err := token.SignedString(sa.privateKey)
	if err != nil {
		return "", fmt.Errorf("signing custom token: %w", err)
	}
	return signed, nil
}

// PublicKey exposes the verification half of the signing key.
func (sa *ServiceAccount) PublicKey() *rsa.PublicKey {
	return &sa.privateKey.PublicKey
}
