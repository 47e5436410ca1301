package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/opsdesk/opsdesk/internal/shared"
)

// TokenStore keeps opaque bearer tokens in Redis with a TTL. Tokens map to
// the principal they were issued for; revocation deletes the key.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

type tokenPayload struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func tokenKey(token string) string {
	return "auth:token:" + token
}

// Issue creates a fresh token for the principal.
func (s *TokenStore) Issue(ctx context.Context, p shared.Principal) (string, error) {
	if s == nil || s.client == nil {
		return "", errors.New("auth: token store not initialised")
	}
	token := uuid.NewString()
	raw, err := json.Marshal(tokenPayload{UserID: p.UserID, Email: p.Email, Name: p.Name})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, tokenKey(token), raw, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the principal for a token, refreshing its TTL.
func (s *TokenStore) Resolve(ctx context.Context, token string) (*shared.Principal, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("auth: token store not initialised")
	}
	if token == "" {
		return nil, shared.ErrTokenInvalid
	}
	raw, err := s.client.Get(ctx, tokenKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	var payload tokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, shared.ErrTokenInvalid
	}
	_ = s.client.Expire(ctx, tokenKey(token), s.ttl).Err()
	return &shared.Principal{UserID: payload.UserID, Email: payload.Email, Name: payload.Name}, nil
}

// Revoke deletes a token.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if s == nil || s.client == nil || token == "" {
		return nil
	}
	return s.client.Del(ctx, tokenKey(token)).Err()
}
