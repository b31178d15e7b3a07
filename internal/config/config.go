package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config is the process-wide configuration, resolved once at startup.
type Config struct {
	App       AppConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Shopify   ShopifyConfig
	Firebase  FirebaseConfig
	Companion CompanionConfig
	CORS      CORSConfig
	Profile   ProfileConfig
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env      string `envconfig:"NODE_ENV" default:"development"`
	Port     string `envconfig:"PORT" default:"8080"`
	URL      string `envconfig:"APP_URL" default:"http://localhost:8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

type MongoConfig struct {
	URI      string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	Database string `envconfig:"MONGODB_DATABASE" default:"rcs360"`
}

type RedisConfig struct {
	URL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
}

type ShopifyConfig struct {
	APIKey    string `envconfig:"SHOPIFY_API_KEY" required:"true"`
	APISecret string `envconfig:"SHOPIFY_API_SECRET" required:"true"`
	Scopes    string `envconfig:"SHOPIFY_SCOPES" default:"read_customers,read_products,read_orders"`
}

func (s ShopifyConfig) ScopeList() []string {
	parts := strings.Split(s.Scopes, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// FirebaseConfig selects one of two credential providers: the explicit env
// triple, or a local service-account key file. The triple wins when complete.
type FirebaseConfig struct {
	ProjectID   string `envconfig:"FIREBASE_PROJECT_ID"`
	ClientEmail string `envconfig:"FIREBASE_CLIENT_EMAIL"`
	PrivateKey  string `envconfig:"FIREBASE_PRIVATE_KEY"`
	KeyFile     string `envconfig:"FIREBASE_KEY_FILE"`
}

type CompanionConfig struct {
	BaseURL string `envconfig:"COMPANION_APP_URL" default:"https://app.rcs360.co.uk"`
}

type CORSConfig struct {
	// Extra origins on top of the companion app and the Shopify admin.
	ExtraOrigins []string `envconfig:"CORS_EXTRA_ORIGINS"`
}

type ProfileConfig struct {
	// MergeWrites switches the profile writer from the legacy full-overwrite
	// behavior to merge semantics with a set-once installedAt.
	MergeWrites bool `envconfig:"SHOP_PROFILE_MERGE_WRITES" default:"false"`
}
