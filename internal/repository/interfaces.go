package repository

import (
	"context"

	"colourful-store-api/internal/model"
)

// Sentinel errors shared by all backends.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrNotFound indicates the referenced row does not exist (or does not
	// belong to the given owner).
	ErrNotFound Error = "not found"

	// ErrDuplicate indicates a uniqueness violation (e.g. email already
	// registered).
	ErrDuplicate Error = "duplicate"
)

// CartRepository is the durable cart table. Every mutating method runs in a
// single transaction; a failure leaves the table unchanged.
type CartRepository interface {
	// ListByOwner returns all cart lines for an owner, oldest first.
	ListByOwner(ctx context.Context, owner string) ([]model.CartLine, error)

	// AddOrIncrement enforces the one-line-per-(owner,product,kind)
	// invariant: an existing match gets its quantity incremented and its
	// snapshot replaced, otherwise a new line is inserted.
	AddOrIncrement(ctx context.Context, owner, productID, productType string, quantity int, productData []byte) error

	// UpdateQuantity sets the quantity of the owner's line. Returns
	// ErrNotFound if no such line belongs to the owner.
	UpdateQuantity(ctx context.Context, owner string, lineID int64, quantity int) error

	// DeleteByID removes the owner's line. Returns ErrNotFound if absent.
	DeleteByID(ctx context.Context, owner string, lineID int64) error

	// DeleteByProduct removes every line matching productID regardless of
	// kind. Returns the number of deleted lines; zero means ErrNotFound.
	DeleteByProduct(ctx context.Context, owner, productID string) (int64, error)

	// DeleteAll clears the owner's cart. Not an error when already empty.
	DeleteAll(ctx context.Context, owner string) error
}

// CatalogRepository is the read/write surface over catalog entities. Cart
// and pricing code only ever reads; the stock column is mutated exclusively
// through the order repository's delivery hook.
type CatalogRepository interface {
	GetProductByID(ctx context.Context, id int64) (*model.PredefinedProduct, error)
	GetProductByName(ctx context.Context, name string) (*model.PredefinedProduct, error)
	ListPublicProducts(ctx context.Context) ([]model.PredefinedProduct, error)
	GetContainerType(ctx context.Context, id string) (*model.ContainerType, error)
	ListContainerTypes(ctx context.Context) ([]model.ContainerType, error)
	ListContainers(ctx context.Context) ([]model.Container, error)
	ListCategories(ctx context.Context) ([]model.ProductCategory, error)
}

// OrderRepository owns orders and the stock side-effect of delivery.
type OrderRepository interface {
	// Create persists the order and its items in one transaction and fills
	// in the assigned id.
	Create(ctx context.Context, order *model.Order) error

	// ListByOwner returns the owner's orders, newest first, items included.
	ListByOwner(ctx context.Context, owner string) ([]model.Order, error)

	// GetByID returns an order with its items, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.Order, error)

	// UpdateStatus sets the order status and, when the order transitions
	// into "delivered" from any other status, decrements catalog stock for
	// each item inside the same transaction. Returns the previous status.
	UpdateStatus(ctx context.Context, id int64, status string) (string, error)
}

// UserRepository is the account store.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error

	// SetCurrentSessionToken records the account's single active session.
	// Validation rejects any token that is not the current one.
	SetCurrentSessionToken(ctx context.Context, email, token string) error
}

// FavoriteRepository is the favorites table.
type FavoriteRepository interface {
	// ListByOwner returns all favorites for an owner, newest first.
	ListByOwner(ctx context.Context, owner string) ([]model.Favorite, error)

	// Upsert inserts the favorite or, when the owner already has one for the
	// same product id, replaces its snapshot.
	Upsert(ctx context.Context, fav *model.Favorite) error

	// DeleteByProduct removes the owner's favorites for a product id.
	// Returns the number deleted; zero means ErrNotFound.
	DeleteByProduct(ctx context.Context, owner, productID string) (int64, error)

	// DeleteAll clears the owner's favorites. Not an error when empty.
	DeleteAll(ctx context.Context, owner string) error
}
