package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"colourful-store-api/internal/model"
)

// SQLiteCartRepository implements CartRepository using SQLite.
// Thread-safe with WAL mode for high-concurrency reads.
type SQLiteCartRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteCartRepository creates a cart repository over an opened store.
func NewSQLiteCartRepository(db *sql.DB) *SQLiteCartRepository {
	return &SQLiteCartRepository{db: db}
}

// ListByOwner returns all cart lines for an owner, oldest first.
func (r *SQLiteCartRepository) ListByOwner(ctx context.Context, owner string) ([]model.CartLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT id, user_email, product_type, product_id, product_data, quantity, added_at
		FROM cart_items WHERE user_email = ? ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	defer rows.Close()

	return scanCartLines(rows)
}

// AddOrIncrement inserts a line or bumps the quantity of the existing match,
// replacing its snapshot. One transaction either way.
func (r *SQLiteCartRepository) AddOrIncrement(ctx context.Context, owner, productID, productType string, quantity int, productData []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM cart_items WHERE user_email = ? AND product_id = ? AND product_type = ?`,
		owner, productID, productType).Scan(&id)

	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE cart_items SET quantity = quantity + ?, product_data = ? WHERE id = ?`,
			quantity, string(productData), id)
		if err != nil {
			return fmt.Errorf("failed to increment cart line: %w", err)
		}
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO cart_items (user_email, product_type, product_id, product_data, quantity, added_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
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
func (r *SQLiteCartRepository) UpdateQuantity(ctx context.Context, owner string, lineID int64, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = ? WHERE id = ? AND user_email = ?`,
		quantity, lineID, owner)
	if err != nil {
		return fmt.Errorf("failed to update quantity: %w", err)
	}
	return requireAffected(result)
}

// DeleteByID removes the owner's line.
func (r *SQLiteCartRepository) DeleteByID(ctx context.Context, owner string, lineID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = ? AND user_email = ?`, lineID, owner)
	if err != nil {
		return fmt.Errorf("failed to delete cart line: %w", err)
	}
	return requireAffected(result)
}

// DeleteByProduct removes every line matching productID regardless of kind.
func (r *SQLiteCartRepository) DeleteByProduct(ctx context.Context, owner, productID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_email = ? AND product_id = ?`, owner, productID)
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
func (r *SQLiteCartRepository) DeleteAll(ctx context.Context, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_email = ?`, owner)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// scanCartLines reads cart rows shared by both SQL backends.
func scanCartLines(rows *sql.Rows) ([]model.CartLine, error) {
	var lines []model.CartLine
	for rows.Next() {
		var line model.CartLine
		var data sql.NullString
		if err := rows.Scan(&line.ID, &line.Owner, &line.ProductType, &line.ProductID,
			&data, &line.Quantity, &line.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		if data.Valid {
			line.ProductData = []byte(data.String)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// requireAffected maps a zero-row mutation to ErrNotFound.
func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ensure SQLiteCartRepository implements CartRepository
var _ CartRepository = (*SQLiteCartRepository)(nil)
