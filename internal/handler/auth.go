package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"colourful-store-api/internal/middleware"
	"colourful-store-api/internal/service"
	"colourful-store-api/pkg/apierror"
	"colourful-store-api/pkg/response"
)

// AuthHandler handles account and session HTTP requests.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.InvalidArgument("Données manquantes"))
		return
	}
	defer r.Body.Close()

	if req.Email == "" || req.Password == "" || req.Nom == "" || req.Prenom == "" {
		response.Error(w, apierror.InvalidArgument("Tous les champs sont requis"))
		return
	}

	user, err := h.auth.Register(r.Context(), req)
	switch err {
	case nil:
	case service.ErrEmailTaken:
		response.Error(w, apierror.InvalidArgument("Cet email est déjà utilisé"))
		return
	case service.ErrUsernameTaken:
		response.Error(w, apierror.InvalidArgument("Ce nom d'utilisateur est déjà utilisé"))
		return
	default:
		response.Error(w, err)
		return
	}

	response.Created(w, map[string]interface{}{
		"message": "Inscription réussie",
		"user":    service.UserProfile(user),
	})
}

// LoginRequest is the login payload; email doubles as a username field.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.InvalidArgument("Données manquantes"))
		return
	}
	defer r.Body.Close()

	if req.Email == "" || req.Password == "" {
		response.Error(w, apierror.InvalidArgument("Identifiant et mot de passe requis"))
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err == service.ErrBadCredentials {
		response.Error(w, apierror.Unauthenticated("Identifiant ou mot de passe incorrect"))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}

	// Web clients ride on the cookie; mobile clients keep the token.
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	response.OK(w, map[string]interface{}{
		"message": "Connexion réussie",
		"token":   token,
		"user":    service.UserProfile(user),
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
			token = cookie.Value
		}
	}

	if err := h.auth.Logout(r.Context(), token); err != nil {
		response.Error(w, apierror.Unauthenticated("Token invalide"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
	})

	response.OK(w, map[string]interface{}{"message": "Déconnexion réussie"})
}

// Me handles GET /api/auth/me. The error bodies distinguish an expired token
// from one superseded by a login on another device, so the mobile app can
// show the right message.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)

	user, err := h.auth.ResolveToken(r.Context(), token)
	if err != nil {
		switch err {
		case service.ErrTokenExpired:
			response.JSON(w, http.StatusUnauthorized, map[string]interface{}{
				"error":   "Token expiré, veuillez vous reconnecter",
				"expired": true,
			})
		case service.ErrSessionReplaced:
			response.JSON(w, http.StatusUnauthorized, map[string]interface{}{
				"error":            "Votre compte est connecté sur un autre appareil",
				"session_replaced": true,
			})
		default:
			response.JSON(w, http.StatusUnauthorized, map[string]interface{}{
				"error":   "Token invalide, veuillez vous reconnecter",
				"invalid": true,
			})
		}
		return
	}

	response.OK(w, map[string]interface{}{"user": service.UserProfile(user)})
}

// LoginStatus handles GET /api/login_status (web session probe).
func (h *AuthHandler) LoginStatus(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if user, err := h.auth.ResolveSession(r.Context(), cookie.Value); err == nil {
			response.OK(w, map[string]interface{}{
				"logged_in":  true,
				"user_email": user.Email,
			})
			return
		}
	}

	response.JSON(w, http.StatusUnauthorized, map[string]interface{}{"logged_in": false})
}
