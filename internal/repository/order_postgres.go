package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"colourful-store-api/internal/model"
)

// PostgresOrderRepository implements OrderRepository using PostgreSQL.
type PostgresOrderRepository struct {
	db *sql.DB
}

// NewPostgresOrderRepository creates an order repository over an opened store.
func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// Create persists the order and its items in one transaction.
func (r *PostgresOrderRepository) Create(ctx context.Context, order *model.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = model.StatusPending
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_email, total_price, payment_method, delivery_address, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		order.UserEmail, order.TotalPrice, order.PaymentMethod, string(order.DeliveryAddress),
		order.Status, order.CreatedAt, order.UpdatedAt).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO order_items (order_id, product_id, product_name, product_image, product_data, quantity, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if _, err := stmt.ExecContext(ctx, order.ID, item.ProductID, item.ProductName,
			item.ProductImage, string(item.ProductData), item.Quantity, item.Price); err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's orders, newest first, items included.
func (r *PostgresOrderRepository) ListByOwner(ctx context.Context, owner string) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_email, total_price, payment_method, delivery_address, status, created_at, updated_at
		FROM orders WHERE user_email = $1 ORDER BY created_at DESC, id DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.itemsFor(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// GetByID returns an order with its items, or ErrNotFound.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_email, total_price, payment_method, delivery_address, status, created_at, updated_at
		FROM orders WHERE id = $1`, id)

	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	items, err := r.itemsFor(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *PostgresOrderRepository) itemsFor(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, product_image, product_data, quantity, price
		FROM order_items WHERE order_id = $1 ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()
	return scanOrderItems(rows)
}

// UpdateStatus sets the order status. A transition into "delivered" runs the
// stock decrement for every item in the same transaction.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id int64, status string) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var oldStatus string
	err = tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&oldStatus)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read order status: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id)
	if err != nil {
		return "", fmt.Errorf("failed to update order status: %w", err)
	}

	if status == model.StatusDelivered && oldStatus != model.StatusDelivered {
		if err := r.decrementStock(ctx, tx, id); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit status update: %w", err)
	}
	return oldStatus, nil
}

func (r *PostgresOrderRepository) decrementStock(ctx context.Context, tx *sql.Tx, orderID int64) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT product_id, product_name, quantity FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("failed to read order items: %w", err)
	}
	defer rows.Close()

	type lineRef struct {
		productID string
		name      string
		quantity  int
	}
	var refs []lineRef
	for rows.Next() {
		var ref lineRef
		var productID, name sql.NullString
		if err := rows.Scan(&productID, &name, &ref.quantity); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		ref.productID = productID.String
		ref.name = name.String
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, ref := range refs {
		var id int64
		var name string
		var stock int
		found := false

		if catalogID, ok := ParseProductRef(ref.productID); ok {
			err := tx.QueryRowContext(ctx,
				`SELECT id, name, current_stock FROM predefined_products WHERE id = $1 FOR UPDATE`,
				catalogID).Scan(&id, &name, &stock)
			if err == nil {
				found = true
			} else if err != sql.ErrNoRows {
				return fmt.Errorf("failed to resolve product: %w", err)
			}
		}
		if !found && ref.name != "" {
			err := tx.QueryRowContext(ctx,
				`SELECT id, name, current_stock FROM predefined_products WHERE name = $1 LIMIT 1 FOR UPDATE`,
				ref.name).Scan(&id, &name, &stock)
			if err == nil {
				found = true
			} else if err != sql.ErrNoRows {
				return fmt.Errorf("failed to resolve product by name: %w", err)
			}
		}

		if !found || stock <= 0 {
			log.Printf("[OrderRepository] Skipping stock decrement for %q (name=%q): product missing or out of stock",
				ref.productID, ref.name)
			continue
		}

		newStock := stock - ref.quantity
		if newStock < 0 {
			newStock = 0
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE predefined_products SET current_stock = $1 WHERE id = $2`, newStock, id); err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
		log.Printf("[OrderRepository] Stock decremented for %s (id=%d): %d -> %d (ordered: %d)",
			name, id, stock, newStock, ref.quantity)
	}
	return nil
}

// Ensure PostgresOrderRepository implements OrderRepository
var _ OrderRepository = (*PostgresOrderRepository)(nil)
