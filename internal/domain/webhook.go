package domain

import "time"

// Webhook topics this app subscribes to.
const (
	TopicScopesUpdate   = "app/scopes_update"
	TopicAppUninstalled = "app/uninstalled"
)

// WebhookEvent is a verified inbound platform event.
type WebhookEvent struct {
	Topic     string    `json:"topic"`
	Shop      string    `json:"shop"`
	Payload   []byte    `json:"payload"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}
