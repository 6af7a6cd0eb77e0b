package identity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/inventory-console/internal/domain"
)

// SessionStore persists signed-in sessions so they survive reloads and restarts.
type SessionStore interface {
	Create(ctx context.Context, identity domain.Identity, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*domain.Identity, error)
	Delete(ctx context.Context, sessionID string) error
}

// RedisSessionStore keeps sessions in Redis with TTL.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionStore builds a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client, prefix string) *RedisSessionStore {
	if prefix == "" {
		prefix = "console:session"
	}
	return &RedisSessionStore{client: client, prefix: prefix}
}

type sessionRecord struct {
	Email    string    `json:"email"`
	IssuedAt time.Time `json:"issued_at"`
}

func (s *RedisSessionStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

// Create writes a session id -> identity mapping with TTL.
func (s *RedisSessionStore) Create(ctx context.Context, identity domain.Identity, ttl time.Duration) error {
	payload, err := json.Marshal(sessionRecord{Email: identity.Email, IssuedAt: identity.IssuedAt})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(identity.SessionID), payload, ttl).Err()
}

// Get resolves a session id. A missing or expired session yields nil.
func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*domain.Identity, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record sessionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return &domain.Identity{SessionID: sessionID, Email: record.Email, IssuedAt: record.IssuedAt}, nil
}

// Delete removes a session.
func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
