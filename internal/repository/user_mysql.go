package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"colourful-store-api/internal/model"
)

// MySQLUserRepository implements UserRepository using MySQL. The users table
// is managed alongside the rest of the account infrastructure, not created
// here.
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQL user repository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

const userColumns = `id, email, username, password_hash, nom, prenom, telephone,
	is_admin, current_session_token, created_at`

// GetByEmail returns the account for an email, or ErrNotFound.
func (r *MySQLUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, email)
	return scanUser(row)
}

// GetByUsername returns the account for a username, or ErrNotFound.
func (r *MySQLUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? LIMIT 1`, username)
	return scanUser(row)
}

// Create inserts a new account. Returns ErrDuplicate when the email or
// username is already taken.
func (r *MySQLUserRepository) Create(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, username, password_hash, nom, prenom, telephone, is_admin, current_session_token, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, '', NOW())`,
		user.Email, nullIfEmpty(user.Username), user.PasswordHash, user.Nom, user.Prenom,
		nullIfEmpty(user.Telephone), user.IsAdmin)
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
func (r *MySQLUserRepository) SetCurrentSessionToken(ctx context.Context, email, token string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET current_session_token = ? WHERE email = ?`, token, email)
	if err != nil {
		return fmt.Errorf("failed to set session token: %w", err)
	}
	return requireAffected(result)
}

// scanUser reads a user row shared by the SQL backends.
func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var username, telephone, sessionToken sql.NullString
	err := row.Scan(&u.ID, &u.Email, &username, &u.PasswordHash, &u.Nom, &u.Prenom,
		&telephone, &u.IsAdmin, &sessionToken, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.Username = username.String
	u.Telephone = telephone.String
	u.CurrentSessionToken = sessionToken.String
	return &u, nil
}

// nullIfEmpty maps "" to NULL so unique nullable columns (username) accept
// any number of accounts without one.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// isDuplicateErr detects uniqueness violations across drivers without
// importing their error types.
func isDuplicateErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

// Ensure MySQLUserRepository implements UserRepository
var _ UserRepository = (*MySQLUserRepository)(nil)
