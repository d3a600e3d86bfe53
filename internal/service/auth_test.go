package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"colourful-store-api/internal/cache"
	"colourful-store-api/internal/model"
	"colourful-store-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserRepo is an in-memory UserRepository for service tests.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*model.User // keyed by email
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == username && username != "" {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Email]; ok {
		return repository.ErrDuplicate
	}
	r.nextID++
	user.ID = r.nextID
	copy := *user
	r.users[user.Email] = &copy
	return nil
}

func (r *fakeUserRepo) SetCurrentSessionToken(ctx context.Context, email, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[email]
	if !ok {
		return repository.ErrNotFound
	}
	u.CurrentSessionToken = token
	return nil
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newTestAuthService(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()

	memCache := cache.NewMemoryCache()
	t.Cleanup(func() { memCache.Close() })

	users := newFakeUserRepo()
	sessions := NewSessionService(memCache, time.Hour)
	return NewAuthService(users, sessions, nil), users
}

func registerTestUser(t *testing.T, svc *AuthService) *model.User {
	t.Helper()

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "s3cret",
		Nom:      "Martin",
		Prenom:   "Alice",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	user := registerTestUser(t, svc)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "s3cret", user.PasswordHash)

	token, logged, err := svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.True(t, len(token) > len(TokenPrefix))
	assert.Equal(t, "alice@example.com", logged.Email)

	resolved, err := svc.ResolveToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestLoginByUsername(t *testing.T) {
	svc, _ := newTestAuthService(t)
	registerTestUser(t, svc)

	token, _, err := svc.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)
	registerTestUser(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Username: "alice2",
		Password: "autre",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestAuthService(t)
	registerTestUser(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "bob@example.com",
		Username: "alice",
		Password: "autre",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLoginBadCredentials(t *testing.T) {
	svc, _ := newTestAuthService(t)
	registerTestUser(t, svc)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestLoginReplacesPreviousSession(t *testing.T) {
	svc, _ := newTestAuthService(t)
	registerTestUser(t, svc)
	ctx := context.Background()

	first, _, err := svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
	second, _, err := svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// The older token is real but no longer the account's active session.
	_, err = svc.ResolveToken(ctx, first)
	assert.ErrorIs(t, err, ErrSessionReplaced)

	_, err = svc.ResolveToken(ctx, second)
	assert.NoError(t, err)
}

func TestResolveSessionIgnoresSingleActiveRule(t *testing.T) {
	svc, _ := newTestAuthService(t)
	registerTestUser(t, svc)
	ctx := context.Background()

	first, _, err := svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)

	// Web cookie sessions resolve even after a newer login elsewhere.
	user, err := svc.ResolveSession(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _ := newTestAuthService(t)
	registerTestUser(t, svc)
	ctx := context.Background()

	token, _, err := svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	_, err = svc.ResolveToken(ctx, token)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	// Logging out twice fails cleanly.
	assert.ErrorIs(t, svc.Logout(ctx, token), ErrTokenNotFound)
}

func TestResolveTokenGarbage(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.ResolveToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}
