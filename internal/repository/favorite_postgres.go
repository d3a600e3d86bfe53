package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"colourful-store-api/internal/model"
)

// PostgresFavoriteRepository implements FavoriteRepository using PostgreSQL.
type PostgresFavoriteRepository struct {
	db *sql.DB
}

// NewPostgresFavoriteRepository creates a favorites repository over an opened store.
func NewPostgresFavoriteRepository(db *sql.DB) *PostgresFavoriteRepository {
	return &PostgresFavoriteRepository{db: db}
}

// ListByOwner returns all favorites for an owner, newest first.
func (r *PostgresFavoriteRepository) ListByOwner(ctx context.Context, owner string) ([]model.Favorite, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_email, product_type, product_id, product_data, added_at
		FROM favorites WHERE user_email = $1 ORDER BY added_at DESC, id DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()
	return scanFavorites(rows)
}

// Upsert inserts the favorite or replaces the snapshot of the existing one.
func (r *PostgresFavoriteRepository) Upsert(ctx context.Context, fav *model.Favorite) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM favorites WHERE user_email = $1 AND product_id = $2 FOR UPDATE`,
		fav.Owner, fav.ProductID).Scan(&id)

	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE favorites SET product_type = $1, product_data = $2 WHERE id = $3`,
			fav.ProductType, string(fav.ProductData), id)
		if err != nil {
			return fmt.Errorf("failed to update favorite: %w", err)
		}
		fav.ID = id
	case err == sql.ErrNoRows:
		fav.AddedAt = time.Now().UTC()
		err = tx.QueryRowContext(ctx,
			`INSERT INTO favorites (user_email, product_type, product_id, product_data, added_at)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			fav.Owner, fav.ProductType, fav.ProductID, string(fav.ProductData), fav.AddedAt).Scan(&fav.ID)
		if err != nil {
			return fmt.Errorf("failed to insert favorite: %w", err)
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
func (r *PostgresFavoriteRepository) DeleteByProduct(ctx context.Context, owner, productID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_email = $1 AND product_id = $2`, owner, productID)
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
func (r *PostgresFavoriteRepository) DeleteAll(ctx context.Context, owner string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_email = $1`, owner); err != nil {
		return fmt.Errorf("failed to clear favorites: %w", err)
	}
	return nil
}

// Ensure PostgresFavoriteRepository implements FavoriteRepository
var _ FavoriteRepository = (*PostgresFavoriteRepository)(nil)
