package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"colourful-store-api/internal/cache"
	"colourful-store-api/internal/model"
)

const (
	// TokenPrefix is the prefix for all session tokens
	TokenPrefix = "cst_"

	// TokenCacheKeyPrefix is the session store key prefix for tokens
	TokenCacheKeyPrefix = "colourful:session:"
)

// Session resolution errors, distinguished so handlers can tell an expired
// token from a replaced one.
type SessionError string

func (e SessionError) Error() string { return string(e) }

const (
	// ErrTokenNotFound means the token does not exist in the session store.
	ErrTokenNotFound SessionError = "token not found"

	// ErrTokenExpired means the token existed but its lifetime ran out.
	ErrTokenExpired SessionError = "token expired"

	// ErrSessionReplaced means the token is real but a newer login on another
	// device superseded it.
	ErrSessionReplaced SessionError = "session replaced"
)

// SessionService issues and validates session tokens backed by the session
// store (Redis in production, in-process memory as a fallback).
type SessionService struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewSessionService creates a new session service.
func NewSessionService(c cache.Cache, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &SessionService{cache: c, ttl: ttl}
}

// Generate creates a new session token and stores its data.
func (s *SessionService) Generate(ctx context.Context, data model.SessionData) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	token := TokenPrefix + hex.EncodeToString(tokenBytes)

	data.CreatedAt = time.Now()
	data.ExpiresAt = data.CreatedAt.Add(s.ttl)

	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to serialize session data: %w", err)
	}

	if err := s.cache.Set(ctx, TokenCacheKeyPrefix+token, jsonData, s.ttl); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	log.Printf("[SessionService] Issued session for %s, expires=%v", data.UserEmail, data.ExpiresAt)

	return token, nil
}

// Validate checks a token and returns its session data.
func (s *SessionService) Validate(ctx context.Context, token string) (*model.SessionData, error) {
	if token == "" || len(token) < len(TokenPrefix) || token[:len(TokenPrefix)] != TokenPrefix {
		return nil, ErrTokenNotFound
	}

	key := TokenCacheKeyPrefix + token
	jsonData, err := s.cache.Get(ctx, key)
	if err == cache.ErrCacheMiss {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var data model.SessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}

	if time.Now().After(data.ExpiresAt) {
		_ = s.cache.Delete(ctx, key)
		return nil, ErrTokenExpired
	}

	return &data, nil
}

// Revoke deletes a token from the session store.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, TokenCacheKeyPrefix+token)
}
