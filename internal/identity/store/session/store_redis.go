package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"attest/internal/identity/models"
	id "attest/pkg/domain"
)

const sessionKeyPrefix = "session:"

// sessionJSON is the JSON-serializable representation of a Session.
// Explicit tags keep the Redis payload format stable across refactors.
type sessionJSON struct {
	Token             string `json:"token"`
	PrincipalID       string `json:"principal_id"`
	Kind              string `json:"kind"`
	DeviceDisplayName string `json:"device_display_name"`
	CreatedAt         int64  `json:"created_at"` // Unix nano
	ExpiresAt         int64  `json:"expires_at"` // Unix nano
}

// RedisStore persists sessions in Redis with TTL-based expiry.
// Redis evicts the key at the absolute expiry, so expired sessions
// disappear without any sweep; FindByToken still reports them as missing
// in the window before eviction runs.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed session store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Create stores a new session with a TTL matching its absolute expiry.
func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	payload, err := json.Marshal(&sessionJSON{
		Token:             session.Token,
		PrincipalID:       session.PrincipalID.String(),
		Kind:              string(session.Kind),
		DeviceDisplayName: session.DeviceDisplayName,
		CreatedAt:         session.CreatedAt.UnixNano(),
		ExpiresAt:         session.ExpiresAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.Token, payload, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// FindByToken retrieves a session by its opaque token.
func (s *RedisStore) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("session not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find session by token: %w", err)
	}
	var j sessionJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	principalID, err := uuid.Parse(j.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("parse principal id: %w", err)
	}
	return &models.Session{
		Token:             j.Token,
		PrincipalID:       principalID,
		Kind:              id.PrincipalKind(j.Kind),
		DeviceDisplayName: j.DeviceDisplayName,
		CreatedAt:         time.Unix(0, j.CreatedAt),
		ExpiresAt:         time.Unix(0, j.ExpiresAt),
	}, nil
}

// Delete removes a session. Deleting an unknown token is not an error.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
