package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rcs360-sync-layer/internal/domain"
	apperrors "rcs360-sync-layer/internal/errors"
	"rcs360-sync-layer/internal/ports"
)

const (
	sessionKeyPrefix    = "session:"
	shopSessionsPrefix  = "shop_sessions:"
	oauthStateKeyPrefix = "oauth_state:"

	oauthStateTTL = 10 * time.Minute
)

// RedisSessionStore implements SessionStore on Redis. Sessions are stored as
// JSON under session:<id> with a per-shop index set for bulk deletes.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a session store over an established client.
func NewRedisSessionStore(client *redis.Client) ports.SessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(id string) string       { return sessionKeyPrefix + id }
func shopSessionsKey(s string) string   { return shopSessionsPrefix + s }
func oauthStateKey(state string) string { return oauthStateKeyPrefix + state }

// SaveSession persists a session and indexes it under its shop.
func (s *RedisSessionStore) SaveSession(ctx context.Context, session *domain.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(session.ID), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if err := s.client.SAdd(ctx, shopSessionsKey(session.Shop), session.ID).Err(); err != nil {
		return fmt.Errorf("failed to index session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID, nil when absent.
func (s *RedisSessionStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// SessionsForShop lists all sessions recorded for a shop. Index entries whose
// session row is already gone are skipped.
func (s *RedisSessionStore) SessionsForShop(ctx context.Context, shop string) ([]*domain.Session, error) {
	ids, err := s.client.SMembers(ctx, shopSessionsKey(shop)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for shop: %w", err)
	}

	sessions := make([]*domain.Session, 0, len(ids))
	for _, id := range ids {
		session, err := s.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		if session != nil {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

// UpdateScope overwrites the stored scope string for one session.
func (s *RedisSessionStore) UpdateScope(ctx context.Context, id string, scope string) error {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if session == nil {
		return apperrors.New(apperrors.CodeNotFound, "session %s not found", id)
	}

	session.Scope = scope
	return s.SaveSession(ctx, session)
}

// DeleteSessionsForShop removes every session for a shop. Zero deletions is
// not an error; duplicate webhook delivery makes that path routine.
func (s *RedisSessionStore) DeleteSessionsForShop(ctx context.Context, shop string) (int, error) {
	ids, err := s.client.SMembers(ctx, shopSessionsKey(shop)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions for shop: %w", err)
	}

	deleted := 0
	for _, id := range ids {
		n, err := s.client.Del(ctx, sessionKey(id)).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to delete session: %w", err)
		}
		deleted += int(n)
	}

	if err := s.client.Del(ctx, shopSessionsKey(shop)).Err(); err != nil {
		return deleted, fmt.Errorf("failed to clear session index: %w", err)
	}

	return deleted, nil
}

// SaveOAuthState persists the CSRF record for the duration of the OAuth leg.
func (s *RedisSessionStore) SaveOAuthState(ctx context.Context, state *domain.OAuthState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode oauth state: %w", err)
	}

	if err := s.client.Set(ctx, oauthStateKey(state.State), raw, oauthStateTTL).Err(); err != nil {
		return fmt.Errorf("failed to save oauth state: %w", err)
	}
	return nil
}

// TakeOAuthState retrieves and deletes the CSRF record, nil when absent.
func (s *RedisSessionStore) TakeOAuthState(ctx context.Context, stateValue string) (*domain.OAuthState, error) {
	raw, err := s.client.GetDel(ctx, oauthStateKey(stateValue)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take oauth state: %w", err)
	}

	var state domain.OAuthState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode oauth state: %w", err)
	}
	return &state, nil
}
