package repository

import (
	"context"
	"database/sql"
	"fmt"

	"colourful-store-api/internal/model"
)

const productColumns = `id, name, description, container_type_id, price, image_url,
	is_customizable, is_internal, categories, quantity_per_category,
	initial_stock, current_stock, created_at`

// SQLiteCatalogRepository implements CatalogRepository using SQLite.
type SQLiteCatalogRepository struct {
	db *sql.DB
}

// NewSQLiteCatalogRepository creates a catalog repository over an opened store.
func NewSQLiteCatalogRepository(db *sql.DB) *SQLiteCatalogRepository {
	return &SQLiteCatalogRepository{db: db}
}

// GetProductByID returns a predefined product, or ErrNotFound.
func (r *SQLiteCatalogRepository) GetProductByID(ctx context.Context, id int64) (*model.PredefinedProduct, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM predefined_products WHERE id = ?`, id)
	return scanProduct(row)
}

// GetProductByName returns the product with the exact name, or ErrNotFound.
// Fallback lookup for legacy order items that only carry a name.
func (r *SQLiteCatalogRepository) GetProductByName(ctx context.Context, name string) (*model.PredefinedProduct, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM predefined_products WHERE name = ? LIMIT 1`, name)
	return scanProduct(row)
}

// ListPublicProducts returns all non-internal products.
func (r *SQLiteCatalogRepository) ListPublicProducts(ctx context.Context) ([]model.PredefinedProduct, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM predefined_products WHERE is_internal = 0 ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// GetContainerType returns a container type, or ErrNotFound.
func (r *SQLiteCatalogRepository) GetContainerType(ctx context.Context, id string) (*model.ContainerType, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, base_price, max_products, allowed_categories, image_url
		FROM container_types WHERE id = ?`, id)
	return scanContainerType(row)
}

// ListContainerTypes returns all container types.
func (r *SQLiteCatalogRepository) ListContainerTypes(ctx context.Context) ([]model.ContainerType, error) {
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
func (r *SQLiteCatalogRepository) ListContainers(ctx context.Context) ([]model.Container, error) {
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

func (r *SQLiteCatalogRepository) containedProducts(ctx context.Context, containerID int64) ([]model.ContainedProduct, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.image_url, p.price, cp.quantity
		FROM container_products cp
		JOIN predefined_products p ON p.id = cp.product_id
		WHERE cp.container_id = ?`, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contained products: %w", err)
	}
	defer rows.Close()
	return scanContainedProducts(rows)
}

// ListCategories returns all product categories.
func (r *SQLiteCatalogRepository) ListCategories(ctx context.Context) ([]model.ProductCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description FROM product_categories ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProductInto(s rowScanner, p *model.PredefinedProduct) error {
	var description, containerTypeID, imageURL, categories sql.NullString
	err := s.Scan(&p.ID, &p.Name, &description, &containerTypeID, &p.Price, &imageURL,
		&p.IsCustomizable, &p.IsInternal, &categories, &p.QuantityPerCategory,
		&p.InitialStock, &p.CurrentStock, &p.CreatedAt)
	if err != nil {
		return err
	}
	p.Description = description.String
	p.ContainerTypeID = containerTypeID.String
	p.ImageURL = imageURL.String
	p.Categories = categories.String
	return nil
}

func scanProduct(row *sql.Row) (*model.PredefinedProduct, error) {
	var p model.PredefinedProduct
	if err := scanProductInto(row, &p); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return &p, nil
}

func scanProducts(rows *sql.Rows) ([]model.PredefinedProduct, error) {
	var products []model.PredefinedProduct
	for rows.Next() {
		var p model.PredefinedProduct
		if err := scanProductInto(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanContainerTypeInto(s rowScanner, t *model.ContainerType) error {
	var allowed, imageURL sql.NullString
	if err := s.Scan(&t.ID, &t.Name, &t.BasePrice, &t.MaxProducts, &allowed, &imageURL); err != nil {
		return err
	}
	t.AllowedCategories = allowed.String
	t.ImageURL = imageURL.String
	return nil
}

func scanContainerType(row *sql.Row) (*model.ContainerType, error) {
	var t model.ContainerType
	if err := scanContainerTypeInto(row, &t); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan container type: %w", err)
	}
	return &t, nil
}

func scanContainerTypeRow(rows *sql.Rows) (*model.ContainerType, error) {
	var t model.ContainerType
	if err := scanContainerTypeInto(rows, &t); err != nil {
		return nil, fmt.Errorf("failed to scan container type: %w", err)
	}
	return &t, nil
}

func scanContainedProducts(rows *sql.Rows) ([]model.ContainedProduct, error) {
	var products []model.ContainedProduct
	for rows.Next() {
		var p model.ContainedProduct
		var imageURL sql.NullString
		if err := rows.Scan(&p.ProductID, &p.Name, &imageURL, &p.Price, &p.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan contained product: %w", err)
		}
		p.ImageURL = imageURL.String
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanCategories(rows *sql.Rows) ([]model.ProductCategory, error) {
	var categories []model.ProductCategory
	for rows.Next() {
		var c model.ProductCategory
		var description sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &description); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.Description = description.String
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Ensure SQLiteCatalogRepository implements CatalogRepository
var _ CatalogRepository = (*SQLiteCatalogRepository)(nil)
