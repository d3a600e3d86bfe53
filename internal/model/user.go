package model

import "time"

// User is a storefront account. Email is the identity every cart and order
// hangs off of.
type User struct {
	ID                  int64     `json:"id"`
	Email               string    `json:"email"`
	Username            string    `json:"username"`
	PasswordHash        string    `json:"-"`
	Nom                 string    `json:"nom"`
	Prenom              string    `json:"prenom"`
	Telephone           string    `json:"telephone"`
	IsAdmin             bool      `json:"is_admin"`
	CurrentSessionToken string    `json:"-"`
	CreatedAt           time.Time `json:"created_at"`
}
