package service

import (
	"context"
	"log"

	"colourful-store-api/internal/model"
	"colourful-store-api/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// Account errors surfaced to the auth handlers.
type AuthError string

func (e AuthError) Error() string { return string(e) }

const (
	// ErrEmailTaken means the email is already registered.
	ErrEmailTaken AuthError = "email taken"

	// ErrUsernameTaken means the username is already registered.
	ErrUsernameTaken AuthError = "username taken"

	// ErrBadCredentials means the identifier/password pair did not match.
	ErrBadCredentials AuthError = "bad credentials"
)

// RegisterInput is the account creation payload.
type RegisterInput struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Nom       string `json:"nom"`
	Prenom    string `json:"prenom"`
	Telephone string `json:"telephone"`
}

// AuthService owns accounts and credential resolution. Token resolution
// enforces single-active-session semantics: a login invalidates every prior
// token for the same account.
type AuthService struct {
	users    repository.UserRepository
	sessions *SessionService
	limiter  *AuthLimiter
}

// NewAuthService creates a new auth service.
func NewAuthService(users repository.UserRepository, sessions *SessionService, limiter *AuthLimiter) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		limiter:  limiter,
	}
}

// Register creates a new account.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if err != repository.ErrNotFound {
		return nil, err
	}

	if input.Username != "" {
		if _, err := s.users.GetByUsername(ctx, input.Username); err == nil {
			return nil, ErrUsernameTaken
		} else if err != repository.ErrNotFound {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: string(hash),
		Nom:          input.Nom,
		Prenom:       input.Prenom,
		Telephone:    input.Telephone,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if err == repository.ErrDuplicate {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	log.Printf("[AuthService] Registered account %s", user.Email)
	return user, nil
}

// Login verifies the identifier (email or username) and password, issues a
// fresh session token and makes it the account's only active session.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (string, *model.User, error) {
	user, err := s.users.GetByEmail(ctx, identifier)
	if err == repository.ErrNotFound {
		user, err = s.users.GetByUsername(ctx, identifier)
	}
	if err == repository.ErrNotFound {
		return "", nil, ErrBadCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrBadCredentials
	}

	token, err := s.sessions.Generate(ctx, model.SessionData{
		UserEmail: user.Email,
		IsAdmin:   user.IsAdmin,
	})
	if err != nil {
		return "", nil, err
	}

	// Previous tokens stay in the session store until they expire, but
	// resolution rejects anything that is not the current one.
	if err := s.users.SetCurrentSessionToken(ctx, user.Email, token); err != nil {
		return "", nil, err
	}
	user.CurrentSessionToken = token

	return token, user, nil
}

// Logout revokes a session token. Returns ErrTokenNotFound if the token was
// not an active session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if _, err := s.sessions.Validate(ctx, token); err != nil {
		if _, ok := err.(SessionError); ok {
			return ErrTokenNotFound
		}
		return err
	}
	return s.sessions.Revoke(ctx, token)
}

// ResolveToken maps a bearer token to its account, rejecting expired tokens
// and tokens superseded by a login on another device. Failures are counted
// per credential prefix so repeated retries do not flood the log.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*model.User, error) {
	key := limiterKey(token)

	data, err := s.sessions.Validate(ctx, token)
	if err != nil {
		s.logFailure(key, "Session rejected for %s...: %v", key, err)
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, data.UserEmail)
	if err == repository.ErrNotFound {
		s.logFailure(key, "Session for unknown account %s", data.UserEmail)
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	if user.CurrentSessionToken != token {
		s.logFailure(key, "Inactive session for %s: newer login on another device", user.Email)
		return nil, ErrSessionReplaced
	}

	if s.limiter != nil {
		s.limiter.Reset(key)
	}
	return user, nil
}

// ResolveSession maps a web session cookie to its account. Unlike bearer
// tokens, web sessions are not subject to the single-active rule; a browser
// login does not kick the mobile app and vice versa.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*model.User, error) {
	data, err := s.sessions.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, data.UserEmail)
	if err == repository.ErrNotFound {
		return nil, ErrTokenNotFound
	}
	return user, err
}

// GetUser returns the account for an identity.
func (s *AuthService) GetUser(ctx context.Context, email string) (*model.User, error) {
	return s.users.GetByEmail(ctx, email)
}

func (s *AuthService) logFailure(key, format string, args ...interface{}) {
	if s.limiter == nil || s.limiter.RecordFailure(key) {
		log.Printf("[AuthService] "+format, args...)
	}
}

// limiterKey truncates a credential to the prefix used for failure counting.
func limiterKey(token string) string {
	if token == "" {
		return "no-token"
	}
	if len(token) > 20 {
		return token[:20]
	}
	return token
}

// UserProfile is the wire shape of an account in auth responses.
func UserProfile(user *model.User) map[string]interface{} {
	return map[string]interface{}{
		"id":         user.ID,
		"email":      user.Email,
		"username":   user.Username,
		"first_name": user.Prenom,
		"last_name":  user.Nom,
		"phone":      user.Telephone,
	}
}
