package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"colourful-store-api/internal/cache"
	"colourful-store-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionService(t *testing.T) (*SessionService, *cache.MemoryCache) {
	t.Helper()

	memCache := cache.NewMemoryCache()
	t.Cleanup(func() { memCache.Close() })

	return NewSessionService(memCache, time.Hour), memCache
}

func TestSessionRoundTrip(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()

	token, err := svc.Generate(ctx, model.SessionData{
		UserEmail: "alice@example.com",
		IsAdmin:   true,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, TokenPrefix))

	data, err := svc.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", data.UserEmail)
	assert.True(t, data.IsAdmin)
	assert.True(t, data.ExpiresAt.After(time.Now()))
}

func TestSessionTokensAreUnique(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()

	first, err := svc.Generate(ctx, model.SessionData{UserEmail: "alice@example.com"})
	require.NoError(t, err)
	second, err := svc.Generate(ctx, model.SessionData{UserEmail: "alice@example.com"})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSessionValidateRejectsMalformedTokens(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()

	for _, token := range []string{"", "cst", "abcdef", "bearer cst_x"} {
		_, err := svc.Validate(ctx, token)
		assert.ErrorIs(t, err, ErrTokenNotFound, "token %q", token)
	}
}

func TestSessionValidateUnknownToken(t *testing.T) {
	svc, _ := newTestSessionService(t)

	_, err := svc.Validate(context.Background(), TokenPrefix+"deadbeef")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestSessionExpiry(t *testing.T) {
	svc, memCache := newTestSessionService(t)
	ctx := context.Background()

	// Plant a session whose embedded lifetime already ran out while the
	// store entry is still alive.
	token := TokenPrefix + "expiredtoken"
	data, err := json.Marshal(model.SessionData{
		UserEmail: "alice@example.com",
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, memCache.Set(ctx, TokenCacheKeyPrefix+token, data, time.Hour))

	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// The expired entry is purged; the next check misses outright.
	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestSessionRevoke(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()

	token, err := svc.Generate(ctx, model.SessionData{UserEmail: "alice@example.com"})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, token))

	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}
