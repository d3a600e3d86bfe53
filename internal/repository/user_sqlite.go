package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"colourful-store-api/internal/model"
)

// SQLiteUserRepository implements UserRepository using SQLite. Development
// fallback sharing the primary store file; production accounts live in MySQL.
type SQLiteUserRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteUserRepository creates a user repository over an opened store and
// bootstraps the users table.
func NewSQLiteUserRepository(db *sql.DB) (*SQLiteUserRepository, error) {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		username TEXT UNIQUE,
		password_hash TEXT NOT NULL,
		nom TEXT NOT NULL DEFAULT '',
		prenom TEXT NOT NULL DEFAULT '',
		telephone TEXT,
		is_admin INTEGER NOT NULL DEFAULT 0,
		current_session_token TEXT,
		created_at DATETIME NOT NULL
	);`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}
	return &SQLiteUserRepository{db: db}, nil
}

// GetByEmail returns the account for an email, or ErrNotFound.
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, email)
	return scanUser(row)
}

// GetByUsername returns the account for a username, or ErrNotFound.
func (r *SQLiteUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? LIMIT 1`, username)
	return scanUser(row)
}

// Create inserts a new account. Returns ErrDuplicate when the email or
// username is already taken.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.CreatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, username, password_hash, nom, prenom, telephone, is_admin, current_session_token, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, '', ?)`,
		user.Email, nullIfEmpty(user.Username), user.PasswordHash, user.Nom, user.Prenom,
		nullIfEmpty(user.Telephone), user.IsAdmin, user.CreatedAt)
	if err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	user.ID = id
	return nil
}

// SetCurrentSessionToken records the account's single active session token.
func (r *SQLiteUserRepository) SetCurrentSessionToken(ctx context.Context, email, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET current_session_token = ? WHERE email = ?`, token, email)
	if err != nil {
		return fmt.Errorf("failed to set session token: %w", err)
	}
	return requireAffected(result)
}

// Ensure SQLiteUserRepository implements UserRepository
var _ UserRepository = (*SQLiteUserRepository)(nil)
