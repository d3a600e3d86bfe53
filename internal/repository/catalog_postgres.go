package repository

import (
	"context"
	"database/sql"
	"fmt"

	"colourful-store-api/internal/model"
)

// PostgresCatalogRepository implements CatalogRepository using PostgreSQL.
type PostgresCatalogRepository struct {
	db *sql.DB
}

// NewPostgresCatalogRepository creates a catalog repository over an opened store.
func NewPostgresCatalogRepository(db *sql.DB) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{db: db}
}

// GetProductByID returns a predefined product, or ErrNotFound.
func (r *PostgresCatalogRepository) GetProductByID(ctx context.Context, id int64) (*model.PredefinedProduct, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM predefined_products WHERE id = $1`, id)
	return scanProduct(row)
}

// GetProductByName returns the product with the exact name, or ErrNotFound.
func (r *PostgresCatalogRepository) GetProductByName(ctx context.Context, name string) (*model.PredefinedProduct, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM predefined_products WHERE name = $1 LIMIT 1`, name)
	return scanProduct(row)
}

// ListPublicProducts returns all non-internal products.
func (r *PostgresCatalogRepository) ListPublicProducts(ctx context.Context) ([]model.PredefinedProduct, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM predefined_products WHERE is_internal = FALSE ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// GetContainerType returns a container type, or ErrNotFound.
func (r *PostgresCatalogRepository) GetContainerType(ctx context.Context, id string) (*model.ContainerType, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, base_price, max_products, allowed_categories, image_url
		FROM container_types WHERE id = $1`, id)
	return scanContainerType(row)
}

// ListContainerTypes returns all container types.
func (r *PostgresCatalogRepository) ListContainerTypes(ctx context.Context) ([]model.ContainerType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, base_price, max_products, allowed_categories, image_url
		FROM container_types ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list container types: %w", err)
	}
	defer rows.Close()

	var types []model.ContainerType
	for rows.Next() {
		t, err := scanContainerTypeRow(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, *t)
	}
	return types, rows.Err()
}

// ListContainers returns all pre-assembled containers with their products.
func (r *PostgresCatalogRepository) ListContainers(ctx context.Context) ([]model.Container, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, container_type_id, price, description, image_url
		FROM containers ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	defer rows.Close()

	var containers []model.Container
	for rows.Next() {
		var c model.Container
		var description, imageURL sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.ContainerTypeID, &c.Price, &description, &imageURL); err != nil {
			return nil, fmt.Errorf("failed to scan container: %w", err)
		}
		c.Description = description.String
		c.ImageURL = imageURL.String
		containers = append(containers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range containers {
		products, err := r.containedProducts(ctx, containers[i].ID)
		if err != nil {
			return nil, err
		}
		containers[i].Products = products
	}
	return containers, nil
}

func (r *PostgresCatalogRepository) containedProducts(ctx context.Context, containerID int64) ([]model.ContainedProduct, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.image_url, p.price, cp.quantity
		FROM container_products cp
		JOIN predefined_products p ON p.id = cp.product_id
		WHERE cp.container_id = $1`, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contained products: %w", err)
	}
	defer rows.Close()
	return scanContainedProducts(rows)
}

// ListCategories returns all product categories.
func (r *PostgresCatalogRepository) ListCategories(ctx context.Context) ([]model.ProductCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description FROM product_categories ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

// Ensure PostgresCatalogRepository implements CatalogRepository
var _ CatalogRepository = (*PostgresCatalogRepository)(nil)
