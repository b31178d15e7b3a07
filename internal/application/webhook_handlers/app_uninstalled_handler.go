package webhook_handlers

import (
	"context"

	"github.com/rs/zerolog"

	"rcs360-sync-layer/internal/domain"
	"rcs360-sync-layer/internal/ports"
)

// AppUninstalledHandler removes a shop's sessions when the merchant
// uninstalls the app.
type AppUninstalledHandler struct {
	logger   zerolog.Logger
	sessions ports.SessionStore
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler.
func NewAppUninstalledHandler(logger zerolog.Logger, sessions ports.SessionStore) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		logger:   logger,
		sessions: sessions,
	}
}

// CanHandle returns true if this handler can process the given topic.
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == domain.TopicAppUninstalled
}

// Handle deletes every session for the shop. The platform redelivers this
// webhook, so an already-empty session set is success, not an error.
// Auth identities and the shop profile document are kept for audit purposes.
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	deleted, err := h.sessions.DeleteSessionsForShop(ctx, event.Shop)
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("shop", event.Shop).
		Int("deletedSessions", deleted).
		Msg("App uninstalled, session cleanup completed")

	return nil
}
