package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"colourful-store-api/internal/model"
)

// SQLiteFavoriteRepository implements FavoriteRepository using SQLite.
type SQLiteFavoriteRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteFavoriteRepository creates a favorites repository over an opened store.
func NewSQLiteFavoriteRepository(db *sql.DB) *SQLiteFavoriteRepository {
	return &SQLiteFavoriteRepository{db: db}
}

// ListByOwner returns all favorites for an owner, newest first.
func (r *SQLiteFavoriteRepository) ListByOwner(ctx context.Context, owner string) ([]model.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_email, product_type, product_id, product_data, added_at
		FROM favorites WHERE user_email = ? ORDER BY added_at DESC, id DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()
	return scanFavorites(rows)
}

// Upsert inserts the favorite or replaces the snapshot of the existing one.
func (r *SQLiteFavoriteRepository) Upsert(ctx context.Context, fav *model.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM favorites WHERE user_email = ? AND product_id = ?`,
		fav.Owner, fav.ProductID).Scan(&id)

	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE favorites SET product_type = ?, product_data = ? WHERE id = ?`,
			fav.ProductType, string(fav.ProductData), id)
		if err != nil {
			return fmt.Errorf("failed to update favorite: %w", err)
		}
		fav.ID = id
	case err == sql.ErrNoRows:
		fav.AddedAt = time.Now().UTC()
		result, err := tx.ExecContext(ctx,
			`INSERT INTO favorites (user_email, product_type, product_id, product_data, added_at)
			VALUES (?, ?, ?, ?, ?)`,
			fav.Owner, fav.ProductType, fav.ProductID, string(fav.ProductData), fav.AddedAt)
		if err != nil {
			return fmt.Errorf("failed to insert favorite: %w", err)
		}
		if fav.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read favorite id: %w", err)
		}
	default:
		return fmt.Errorf("failed to look up favorite: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit favorite: %w", err)
	}
	return nil
}

// DeleteByProduct removes the owner's favorites for a product id.
func (r *SQLiteFavoriteRepository) DeleteByProduct(ctx context.Context, owner, productID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_email = ? AND product_id = ?`, owner, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete favorite: %w", err)
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

// DeleteAll clears the owner's favorites.
func (r *SQLiteFavoriteRepository) DeleteAll(ctx context.Context, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_email = ?`, owner); err != nil {
		return fmt.Errorf("failed to clear favorites: %w", err)
	}
	return nil
}

// scanFavorites reads favorite rows shared by both SQL backends.
func scanFavorites(rows *sql.Rows) ([]model.Favorite, error) {
	var favorites []model.Favorite
	for rows.Next() {
		var f model.Favorite
		var data sql.NullString
		if err := rows.Scan(&f.ID, &f.Owner, &f.ProductType, &f.ProductID, &data, &f.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		if data.Valid {
			f.ProductData = []byte(data.String)
		}
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}

// Ensure SQLiteFavoriteRepository implements FavoriteRepository
var _ FavoriteRepository = (*SQLiteFavoriteRepository)(nil)
