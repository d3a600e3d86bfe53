package apierror

import (
	"encoding/json"
	"net/http"
)

// Error represents a structured API error response.
type Error struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"error"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// ToJSON converts the error to JSON bytes. Every error body carries a
// top-level "error" field the clients key off of.
func (e *Error) ToJSON() []byte {
	data, _ := json.Marshal(map[string]interface{}{
		"error": e.Message,
		"code":  e.Code,
	})
	return data
}

// Unauthenticated creates a 401 error. Handlers return this before touching
// any store state.
func Unauthenticated(message string) *Error {
	if message == "" {
		message = "Authentification requise"
	}
	return &Error{
		StatusCode: http.StatusUnauthorized,
		Code:       "UNAUTHENTICATED",
		Message:    message,
	}
}

// InvalidArgument creates a 400 error for malformed bodies, unknown container
// types and unparsable quantities.
func InvalidArgument(message string) *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_ARGUMENT",
		Message:    message,
	}
}

// TooManyItems creates a 400 error for container selections over capacity.
func TooManyItems(message string) *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Code:       "TOO_MANY_ITEMS",
		Message:    message,
	}
}

// NotFound creates a 404 Not Found error.
func NotFound(message string) *Error {
	if message == "" {
		message = "Ressource non trouvée"
	}
	return &Error{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    message,
	}
}

// Forbidden creates a 403 Forbidden error.
func Forbidden(message string) *Error {
	if message == "" {
		message = "Accès non autorisé"
	}
	return &Error{
		StatusCode: http.StatusForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
	}
}

// Internal creates a 500 Internal Server Error.
func Internal(message string) *Error {
	if message == "" {
		message = "Erreur interne du serveur"
	}
	return &Error{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL",
		Message:    message,
	}
}
