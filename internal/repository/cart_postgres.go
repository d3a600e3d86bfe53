package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"colourful-store-api/internal/model"
)

// PostgresCartRepository implements CartRepository using PostgreSQL. The
// existing-line lookup takes a row lock so concurrent adds for the same
// product serialize instead of duplicating.
type PostgresCartRepository struct {
	db *sql.DB
}

// NewPostgresCartRepository creates a cart repository over an opened store.
func NewPostgresCartRepository(db *sql.DB) *PostgresCartRepository {
	return &PostgresCartRepository{db: db}
}

// ListByOwner returns all cart lines for an owner, oldest first.
func (r *PostgresCartRepository) ListByOwner(ctx context.Context, owner string) ([]model.CartLine, error) {
	query := `SELECT id, user_email, product_type, product_id, product_data, quantity, added_at
		FROM cart_items WHERE user_email = $1 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	defer rows.Close()

	return scanCartLines(rows)
}

// AddOrIncrement inserts a line or bumps the quantity of the existing match,
// replacing its snapshot. One transaction either way.
func (r *PostgresCartRepository) AddOrIncrement(ctx context.Context, owner, productID, productType string, quantity int, productData []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM cart_items WHERE user_email = $1 AND product_id = $2 AND product_type = $3 FOR UPDATE`,
		owner, productID, productType).Scan(&id)

	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE cart_items SET quantity = quantity + $1, product_data = $2 WHERE id = $3`,
			quantity, string(productData), id)
		if err != nil {
			return fmt.Errorf("failed to increment cart line: %w", err)
		}
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO cart_items (user_email, product_type, product_id, product_data, quantity, added_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			owner, productType, productID, string(productData), quantity, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to insert cart line: %w", err)
		}
	default:
		return fmt.Errorf("failed to look up cart line: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cart add: %w", err)
	}
	return nil
}

// UpdateQuantity sets the quantity of the owner's line.
func (r *PostgresCartRepository) UpdateQuantity(ctx context.Context, owner string, lineID int64, quantity int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $1 WHERE id = $2 AND user_email = $3`,
		quantity, lineID, owner)
	if err != nil {
		return fmt.Errorf("failed to update quantity: %w", err)
	}
	return requireAffected(result)
}

// DeleteByID removes the owner's line.
func (r *PostgresCartRepository) DeleteByID(ctx context.Context, owner string, lineID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND user_email = $2`, lineID, owner)
	if err != nil {
		return fmt.Errorf("failed to delete cart line: %w", err)
	}
	return requireAffected(result)
}

// DeleteByProduct removes every line matching productID regardless of kind.
func (r *PostgresCartRepository) DeleteByProduct(ctx context.Context, owner, productID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_email = $1 AND product_id = $2`, owner, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete by product: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, ErrNotFound
	}
	return deleted, nil
}

// DeleteAll clears the owner's cart.
func (r *PostgresCartRepository) DeleteAll(ctx context.Context, owner string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_email = $1`, owner)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Ensure PostgresCartRepository implements CartRepository
var _ CartRepository = (*PostgresCartRepository)(nil)
