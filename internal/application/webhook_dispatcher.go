package application

import (
	"context"

	"github.com/rs/zerolog"

	"rcs360-sync-layer/internal/domain"
)

// WebhookHandler processes one family of webhook topics.
type WebhookHandler interface {
	// CanHandle returns true if this handler can process the given topic.
	CanHandle(topic string) bool

	// Handle processes a verified webhook event.
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes verified events to registered handlers.
type WebhookDispatcher struct {
	handlers []WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates an empty dispatcher.
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler to the dispatch chain.
func (d *WebhookDispatcher) RegisterHandler(handler WebhookHandler) {
	d.handlers = append(d.handlers, handler)
}

// Dispatch routes an event to every handler claiming its topic. Unclaimed
// topics are logged and acknowledged; the platform retries on failure, so
// only genuine handler errors propagate.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	handled := false
	for _, handler := range d.handlers {
		if !handler.CanHandle(event.Topic) {
			continue
		}
		handled = true
		if err := handler.Handle(ctx, event); err != nil {
			return err
		}
	}

	if !handled {
		d.logger.Warn().Str("topic", event.Topic).Str("shop", event.Shop).Msg("No handler registered for webhook topic")
	}

	return nil
}
