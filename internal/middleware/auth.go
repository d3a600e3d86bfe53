package middleware

import (
	"context"
	"net/http"
	"strings"

	"colourful-store-api/internal/model"
	"colourful-store-api/internal/service"
	"colourful-store-api/pkg/apierror"
)

// UserKey is the key for storing the resolved account in request context.
const UserKey contextKey = "user"

// SessionCookieName is the cookie carrying the web session token.
const SessionCookieName = "session"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Auth *service.AuthService
}

// NewAuthMiddleware resolves the request identity before any store access.
// An Authorization bearer token wins (mobile, single active session
// enforced); otherwise the session cookie is tried (web). Absence of both is
// a 401 and the handler never runs.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var user *model.User

			if token := BearerToken(r); token != "" {
				resolved, err := cfg.Auth.ResolveToken(r.Context(), token)
				if err == nil {
					user = resolved
				}
			} else if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				resolved, err := cfg.Auth.ResolveSession(r.Context(), cookie.Value)
				if err == nil {
					user = resolved
				}
			}

			if user == nil {
				writeError(w, apierror.Unauthenticated(""))
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects non-admin accounts. Must run after the auth middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil || !user.IsAdmin {
			writeError(w, apierror.Forbidden(""))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BearerToken extracts the bearer token from the Authorization header.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// GetUserFromContext retrieves the resolved account from request context.
func GetUserFromContext(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserKey).(*model.User); ok {
		return user
	}
	return nil
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}
