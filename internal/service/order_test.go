package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"colourful-store-api/internal/model"
	"colourful-store-api/internal/repository"
	"colourful-store-api/pkg/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrderRepo is an in-memory OrderRepository for service tests.
type fakeOrderRepo struct {
	mu     sync.Mutex
	nextID int64
	orders []model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{}
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	order.ID = r.nextID
	order.CreatedAt = time.Now().UTC()
	order.UpdatedAt = order.CreatedAt
	if order.Status == "" {
		order.Status = model.StatusPending
	}
	r.orders = append(r.orders, *order)
	return nil
}

func (r *fakeOrderRepo) ListByOwner(ctx context.Context, owner string) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.Order
	for i := len(r.orders) - 1; i >= 0; i-- {
		if r.orders[i].UserEmail == owner {
			out = append(out, r.orders[i])
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.orders {
		if r.orders[i].ID == id {
			copy := r.orders[i]
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id int64, status string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.orders {
		if r.orders[i].ID == id {
			old := r.orders[i].Status
			r.orders[i].Status = status
			return old, nil
		}
	}
	return "", repository.ErrNotFound
}

var _ repository.OrderRepository = (*fakeOrderRepo)(nil)

func newTestOrderService() (*OrderService, *fakeOrderRepo, *fakeCartRepo) {
	orders := newFakeOrderRepo()
	carts := newFakeCartRepo()
	return NewOrderService(orders, carts), orders, carts
}

func TestOrderCreateClearsCart(t *testing.T) {
	svc, orders, carts := newTestOrderService()
	ctx := context.Background()

	require.NoError(t, carts.AddOrIncrement(ctx, "alice@example.com", "predefined_1", "predefined", 2, []byte(`{}`)))

	order, err := svc.Create(ctx, "alice@example.com", CreateOrderInput{
		TotalPrice:      25.0,
		PaymentMethod:   "card",
		DeliveryAddress: json.RawMessage(`{"ville":"Paris"}`),
		Items: []map[string]interface{}{
			{"id": "predefined_1", "nom": "Chocolat noir", "prix": 12.5, "quantite": float64(2)},
		},
	})
	require.NoError(t, err)

	assert.NotZero(t, order.ID)
	assert.Equal(t, model.StatusPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "predefined_1", order.Items[0].ProductID)
	assert.Equal(t, "Chocolat noir", order.Items[0].ProductName)
	assert.Equal(t, 12.5, order.Items[0].Price)
	assert.Equal(t, 2, order.Items[0].Quantity)
	// Missing item images fall back to the placeholder.
	assert.Equal(t, placeholderProductImage, order.Items[0].ProductImage)

	assert.Len(t, orders.orders, 1)
	assert.Empty(t, carts.lines)
}

func TestOrderCreateWithoutItems(t *testing.T) {
	svc, _, _ := newTestOrderService()

	_, err := svc.Create(context.Background(), "alice@example.com", CreateOrderInput{})
	require.Error(t, err)

	apiErr, ok := err.(*apierror.Error)
	require.True(t, ok)
	assert.Equal(t, "INVALID_ARGUMENT", apiErr.Code)
}

func TestOrderCreateCompletedAlias(t *testing.T) {
	svc, orders, _ := newTestOrderService()

	order, err := svc.Create(context.Background(), "alice@example.com", CreateOrderInput{
		Status: "completed",
		Items:  []map[string]interface{}{{"nom": "Chocolat"}},
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusDelivered, order.Status)
	assert.Equal(t, model.StatusDelivered, orders.orders[0].Status)
}

func TestOrderCreateUnknownStatus(t *testing.T) {
	svc, _, _ := newTestOrderService()

	_, err := svc.Create(context.Background(), "alice@example.com", CreateOrderInput{
		Status: "teleported",
		Items:  []map[string]interface{}{{"nom": "Chocolat"}},
	})
	require.Error(t, err)

	apiErr, ok := err.(*apierror.Error)
	require.True(t, ok)
	assert.Equal(t, "INVALID_ARGUMENT", apiErr.Code)
}

func TestOrderListTranslatesDelivered(t *testing.T) {
	svc, _, _ := newTestOrderService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice@example.com", CreateOrderInput{
		TotalPrice: 30,
		Status:     model.StatusDelivered,
		Items: []map[string]interface{}{
			{"id": "predefined_1", "nom": "Chocolat", "prix": 15.0, "quantite": float64(2), "note": "cadeau"},
		},
	})
	require.NoError(t, err)

	views, err := svc.ListByOwner(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, views, 1)

	view := views[0]
	assert.Equal(t, "completed", view["status"])
	assert.Equal(t, "1", view["id"])
	assert.Equal(t, 30.0, view["totalPrice"])

	items := view["items"].([]map[string]interface{})
	require.Len(t, items, 1)
	// The item snapshot is spread, the stored columns forced on top.
	assert.Equal(t, "cadeau", items[0]["note"])
	assert.Equal(t, "predefined_1", items[0]["id"])
	assert.Equal(t, "Chocolat", items[0]["nom"])
	assert.Equal(t, 15.0, items[0]["prix"])
	assert.Equal(t, 2, items[0]["quantite"])
}

func TestOrderUpdateStatusAlias(t *testing.T) {
	svc, orders, _ := newTestOrderService()
	ctx := context.Background()

	order, err := svc.Create(ctx, "alice@example.com", CreateOrderInput{
		Items: []map[string]interface{}{{"nom": "Chocolat"}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, order.ID, "completed"))
	assert.Equal(t, model.StatusDelivered, orders.orders[0].Status)
}

func TestOrderUpdateStatusInvalid(t *testing.T) {
	svc, _, _ := newTestOrderService()

	err := svc.UpdateStatus(context.Background(), 1, "teleported")
	require.Error(t, err)

	apiErr, ok := err.(*apierror.Error)
	require.True(t, ok)
	assert.Equal(t, "INVALID_ARGUMENT", apiErr.Code)
}

func TestOrderUpdateStatusUnknownOrder(t *testing.T) {
	svc, _, _ := newTestOrderService()

	err := svc.UpdateStatus(context.Background(), 42, model.StatusShipped)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
