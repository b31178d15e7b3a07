package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"rcs360-sync-layer/internal/domain"
	"rcs360-sync-layer/internal/ports"
)

// ScopesUpdateHandler mirrors granted-scope changes onto stored sessions.
type ScopesUpdateHandler struct {
	logger   zerolog.Logger
	sessions ports.SessionStore
}

// NewScopesUpdateHandler creates a new scopes update webhook handler.
func NewScopesUpdateHandler(logger zerolog.Logger, sessions ports.SessionStore) *ScopesUpdateHandler {
	return &ScopesUpdateHandler{
		logger:   logger,
		sessions: sessions,
	}
}

// CanHandle returns true if this handler can process the given topic.
func (h *ScopesUpdateHandler) CanHandle(topic string) bool {
	return topic == domain.TopicScopesUpdate
}

// Handle overwrites the stored scope string for every session of the shop.
// A shop with no sessions is a no-op: the merchant may have uninstalled
// between delivery attempts.
func (h *ScopesUpdateHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var payload struct {
		Current []string `json:"current"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse scopes update payload: %w", err)
	}

	sessions, err := h.sessions.SessionsForShop(ctx, event.Shop)
	if err != nil {
		return fmt.Errorf("failed to load sessions for %s: %w", event.Shop, err)
	}
	if len(sessions) == 0 {
		h.logger.Info().Str("shop", event.Shop).Msg("Scopes update for shop with no sessions, skipping")
		return nil
	}

	scope := strings.Join(payload.Current, ",")
	for _, session := range sessions {
		if err := h.sessions.UpdateScope(ctx, session.ID, scope); err != nil {
			return fmt.Errorf("failed to update scope for session %s: %w", session.ID, err)
		}
	}

	h.logger.Info().
		Str("shop", event.Shop).
		Str("scope", scope).
		Int("sessions", len(sessions)).
		Msg("Updated session scopes")

	return nil
}
