package webhook_handlers

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcs360-sync-layer/internal/domain"
)

type fakeSessionStore struct {
	sessions map[string]*domain.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]*domain.Session{}}
}

func (f *fakeSessionStore) SaveSession(ctx context.Context, session *domain.Session) error {
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeSessionStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	return f.sessions[id], nil
}

func (f *fakeSessionStore) SessionsForShop(ctx context.Context, shop string) ([]*domain.Session, error) {
	var out []*domain.Session
	for _, s := range f.sessions {
		if s.Shop == shop {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) UpdateScope(ctx context.Context, id string, scope string) error {
	f.sessions[id].Scope = scope
	return nil
}

func (f *fakeSessionStore) DeleteSessionsForShop(ctx context.Context, shop string) (int, error) {
	deleted := 0
	for id, s := range f.sessions {
		if s.Shop == shop {
			delete(f.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeSessionStore) SaveOAuthState(ctx context.Context, state *domain.OAuthState) error {
	return nil
}

func (f *fakeSessionStore) TakeOAuthState(ctx context.Context, state string) (*domain.OAuthState, error) {
	return nil, nil
}

func event(topic, shop, payload string) *domain.WebhookEvent {
	return &domain.WebhookEvent{
		Topic:     topic,
		Shop:      shop,
		Payload:   []byte(payload),
		Verified:  true,
		CreatedAt: time.Now(),
	}
}

func TestScopesUpdateRewritesEverySession(t *testing.T) {
	store := newFakeSessionStore()
	require.NoError(t, store.SaveSession(context.Background(), &domain.Session{ID: "s1", Shop: "teststore.myshopify.com", Scope: "read_products"}))
	require.NoError(t, store.SaveSession(context.Background(), &domain.Session{ID: "s2", Shop: "teststore.myshopify.com", Scope: "read_products"}))
	require.NoError(t, store.SaveSession(context.Background(), &domain.Session{ID: "other", Shop: "other.myshopify.com", Scope: "read_orders"}))

	handler := NewScopesUpdateHandler(zerolog.Nop(), store)
	assert.True(t, handler.CanHandle(domain.TopicScopesUpdate))
	assert.False(t, handler.CanHandle(domain.TopicAppUninstalled))

	err := handler.Handle(context.Background(), event(domain.TopicScopesUpdate, "teststore.myshopify.com",
		`{"previous":["read_products"],"current":["read_products","read_customers"]}`))
	require.NoError(t, err)

	assert.Equal(t, "read_products,read_customers", store.sessions["s1"].Scope)
	assert.Equal(t, "read_products,read_customers", store.sessions["s2"].Scope)
	assert.Equal(t, "read_orders", store.sessions["other"].Scope, "other shops untouched")
}

func TestScopesUpdateNoSessionsIsNoOp(t *testing.T) {
	handler := NewScopesUpdateHandler(zerolog.Nop(), newFakeSessionStore())

	err := handler.Handle(context.Background(), event(domain.TopicScopesUpdate, "gone.myshopify.com",
		`{"current":["read_products"]}`))
	assert.NoError(t, err)
}

func TestScopesUpdateRejectsMalformedPayload(t *testing.T) {
	handler := NewScopesUpdateHandler(zerolog.Nop(), newFakeSessionStore())

	err := handler.Handle(context.Background(), event(domain.TopicScopesUpdate, "teststore.myshopify.com", `not json`))
	assert.Error(t, err)
}

func TestAppUninstalledDeletesSessions(t *testing.T) {
	store := newFakeSessionStore()
	require.NoError(t, store.SaveSession(context.Background(), &domain.Session{ID: "s1", Shop: "teststore.myshopify.com"}))
	require.NoError(t, store.SaveSession(context.Background(), &domain.Session{ID: "other", Shop: "other.myshopify.com"}))

	handler := NewAppUninstalledHandler(zerolog.Nop(), store)
	assert.True(t, handler.CanHandle(domain.TopicAppUninstalled))

	err := handler.Handle(context.Background(), event(domain.TopicAppUninstalled, "teststore.myshopify.com", `{}`))
	require.NoError(t, err)

	assert.NotContains(t, store.sessions, "s1")
	assert.Contains(t, store.sessions, "other")
}

func TestAppUninstalledRedeliveryIsIdempotent(t *testing.T) {
	store := newFakeSessionStore()
	require.NoError(t, store.SaveSession(context.Background(), &domain.Session{ID: "s1", Shop: "teststore.myshopify.com"}))

	handler := NewAppUninstalledHandler(zerolog.Nop(), store)
	uninstall := event(domain.TopicAppUninstalled, "teststore.myshopify.com", `{}`)

	require.NoError(t, handler.Handle(context.Background(), uninstall))
	require.NoError(t, handler.Handle(context.Background(), uninstall), "redelivery with nothing left must still succeed")
	assert.Empty(t, store.sessions)
}
