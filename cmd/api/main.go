package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rcs360-sync-layer/internal/application"
	"rcs360-sync-layer/internal/application/webhook_handlers"
	"rcs360-sync-layer/internal/config"
	"rcs360-sync-layer/internal/domain"
	"rcs360-sync-layer/internal/infrastructure/credentials"
	"rcs360-sync-layer/internal/infrastructure/metrics"
	appmiddleware "rcs360-sync-layer/internal/infrastructure/middleware"
	"rcs360-sync-layer/internal/infrastructure/repository"
	shopifyinfra "rcs360-sync-layer/internal/infrastructure/shopify"
	"rcs360-sync-layer/internal/ports"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("No .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.App.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	// Connect to MongoDB
	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.Mongo.Database)

	// Connect to Redis
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid REDIS_URL")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	cancel()

	// Signing credential for custom auth tokens; a bad credential is fatal.
	serviceAccount, err := credentials.Load(cfg.Firebase)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load service account credential")
	}

	// Metrics
	apiMetrics := metrics.NewAPIMetrics(prometheus.DefaultRegisterer)

	// Repositories
	profileRepo := repository.NewMongoRepository(db)
	authStore := repository.NewMongoAuthStore(db)
	sessionStore := repository.NewRedisSessionStore(redisClient)

	// Platform clients
	adminAPI := instrumentAdminAPI(shopifyinfra.NewAdminClient(logger), apiMetrics)
	oauthClient := shopifyinfra.NewOAuthAdapter(cfg.Shopify.APIKey, cfg.Shopify.APISecret, logger)
	webhookVerifier := shopifyinfra.NewWebhookVerifier(cfg.Shopify.APISecret)

	// Application services
	syncService := application.NewSyncService(adminAPI, logger, cfg.Companion.BaseURL)
	authService := application.NewAuthService(authStore, serviceAccount, logger)
	profileService := application.NewProfileService(profileRepo, logger, cfg.Profile.MergeWrites)

	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewScopesUpdateHandler(logger, sessionStore))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(logger, sessionStore))

	// Router
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.Metrics(apiMetrics))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// Embedded admin landing, behind session-token verification
	r.Group(func(r chi.Router) {
		r.Use(appmiddleware.AdminAuth(cfg.Shopify, logger))
		r.Get("/", indexHandler(syncService, sessionStore, logger))
	})

	// Companion-app API, behind the CORS allow-list
	r.Route("/api", func(r chi.Router) {
		r.Use(appmiddleware.CORS(cfg.Companion, cfg.CORS))
		r.Post("/authenticateShop", authenticateShopHandler(authService, apiMetrics, logger))
		r.Options("/authenticateShop", preflightHandler())
		r.Get("/authenticateShop", methodNotAllowedHandler(http.MethodGet))
		r.Post("/saveShopData", saveShopDataHandler(profileService, logger))
		r.Options("/saveShopData", preflightHandler())
		r.Get("/saveShopData", methodNotAllowedHandler(http.MethodGet))
	})

	// OAuth install flow
	r.Get("/auth/shopify", oauthInitHandler(oauthClient, sessionStore, cfg.Shopify.ScopeList(), cfg.App.URL, logger))
	r.Get("/auth/callback", oauthCallbackHandler(oauthClient, sessionStore, cfg.Shopify.APIKey, cfg.App.URL, logger))

	// Webhooks
	r.Post("/webhooks/shopify", webhookHandler(webhookVerifier, profileRepo, webhookDispatcher, apiMetrics, logger))

	logger.Info().Str("port", cfg.App.Port).Str("env", cfg.App.Env).Msg("Starting API server")
	if err := http.ListenAndServe(":"+cfg.App.Port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

// instrumentedAdminAPI counts failed counts queries on the way through.
type instrumentedAdminAPI struct {
	inner      ports.AdminAPI
	apiMetrics *metrics.APIMetrics
}

func instrumentAdminAPI(inner ports.AdminAPI, apiMetrics *metrics.APIMetrics) ports.AdminAPI {
	return &instrumentedAdminAPI{inner: inner, apiMetrics: apiMetrics}
}

func (i *instrumentedAdminAPI) FetchShopCounts(ctx context.Context, session *domain.Session) (*domain.ShopSnapshot, error) {
	snapshot, err := i.inner.FetchShopCounts(ctx, session)
	if err != nil {
		i.apiMetrics.IncCountsFailure()
	}
	return snapshot, err
}
