package model

import "time"

// SessionData is what a resolved credential maps to. Stored alongside the
// token in the session store.
type SessionData struct {
	UserEmail string    `json:"user_email"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
