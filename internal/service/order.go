package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"colourful-store-api/internal/model"
	"colourful-store-api/internal/repository"
	"colourful-store-api/pkg/apierror"
)

const placeholderProductImage = "/static/images/placeholder.jpg"

// Mobile clients use "completed" where the store says "delivered"; accepted
// on write, translated back on read.
var statusAliases = map[string]string{
	"completed": model.StatusDelivered,
}

// CreateOrderInput is the order creation payload.
type CreateOrderInput struct {
	TotalPrice      float64                  `json:"totalPrice"`
	PaymentMethod   string                   `json:"paymentMethod"`
	DeliveryAddress json.RawMessage          `json:"deliveryAddress"`
	Status          string                   `json:"status"`
	Items           []map[string]interface{} `json:"items"`
}

// OrderService owns order placement, listing and status transitions. The
// stock decrement on delivery lives inside the order repository's status
// update so it shares the transition's transaction.
type OrderService struct {
	orders repository.OrderRepository
	carts  repository.CartRepository
}

// NewOrderService creates a new order service.
func NewOrderService(orders repository.OrderRepository, carts repository.CartRepository) *OrderService {
	return &OrderService{orders: orders, carts: carts}
}

// Create places an order from the checkout payload and clears the owner's
// cart. A cart-clear failure is logged, not surfaced; the order stands.
func (s *OrderService) Create(ctx context.Context, owner string, input CreateOrderInput) (*model.Order, error) {
	if len(input.Items) == 0 {
		return nil, apierror.InvalidArgument("Commande sans articles")
	}

	status := input.Status
	if mapped, ok := statusAliases[status]; ok {
		status = mapped
	}
	if status == "" {
		status = model.StatusPending
	}
	if !model.ValidStatus(status) {
		return nil, apierror.InvalidArgument("Statut de commande invalide")
	}

	address := input.DeliveryAddress
	if len(address) == 0 {
		address = json.RawMessage("{}")
	}

	order := &model.Order{
		UserEmail:       owner,
		TotalPrice:      input.TotalPrice,
		PaymentMethod:   input.PaymentMethod,
		DeliveryAddress: address,
		Status:          status,
	}

	for _, item := range input.Items {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize order item: %w", err)
		}
		image := stringField(item, "image")
		if image == "" {
			image = placeholderProductImage
		}
		order.Items = append(order.Items, model.OrderItem{
			ProductID:    stringField(item, "id"),
			ProductName:  stringField(item, "nom"),
			ProductImage: image,
			ProductData:  data,
			Quantity:     intField(item, "quantite", 1),
			Price:        floatField(item, "prix"),
		})
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	if err := s.carts.DeleteAll(ctx, owner); err != nil {
		log.Printf("[OrderService] Failed to clear cart for %s after order %d: %v", owner, order.ID, err)
	}

	log.Printf("[OrderService] Order %d created for %s: %d items, total=%.2f",
		order.ID, owner, len(order.Items), order.TotalPrice)
	return order, nil
}

// ListByOwner returns the owner's orders in the wire shape, newest first.
// Delivered orders read back as "completed".
func (s *OrderService) ListByOwner(ctx context.Context, owner string) ([]map[string]interface{}, error) {
	orders, err := s.orders.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	result := make([]map[string]interface{}, 0, len(orders))
	for i := range orders {
		result = append(result, orderView(&orders[i]))
	}
	return result, nil
}

// UpdateStatus transitions an order. The repository runs the stock decrement
// when the transition enters "delivered"; nothing is restocked on the way
// out, delivered goods stay counted.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status string) error {
	if mapped, ok := statusAliases[status]; ok {
		status = mapped
	}
	if !model.ValidStatus(status) {
		return apierror.InvalidArgument("Statut invalide")
	}

	oldStatus, err := s.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return err
	}

	log.Printf("[OrderService] Order %d status: %s -> %s", orderID, oldStatus, status)
	return nil
}

// orderView maps a stored order to the wire shape: item snapshots spread
// first, the stored item columns forced on top.
func orderView(order *model.Order) map[string]interface{} {
	items := make([]map[string]interface{}, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]

		view := map[string]interface{}{}
		if len(item.ProductData) > 0 {
			_ = json.Unmarshal(item.ProductData, &view)
		}
		image := item.ProductImage
		if image == "" {
			image = placeholderProductImage
		}
		view["id"] = item.ProductID
		view["nom"] = item.ProductName
		view["prix"] = item.Price
		view["quantite"] = item.Quantity
		view["image"] = image

		items = append(items, view)
	}

	status := order.Status
	if status == model.StatusDelivered {
		status = "completed"
	}

	var address interface{}
	if len(order.DeliveryAddress) > 0 {
		_ = json.Unmarshal(order.DeliveryAddress, &address)
	}

	return map[string]interface{}{
		"id":              fmt.Sprintf("%d", order.ID),
		"items":           items,
		"totalPrice":      order.TotalPrice,
		"paymentMethod":   order.PaymentMethod,
		"deliveryAddress": address,
		"status":          status,
		"createdAt":       order.CreatedAt.Format(time.RFC3339),
	}
}

// floatField reads a payload field as a float64.
func floatField(payload map[string]interface{}, key string) float64 {
	v, ok := payload[key]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
	}
	return 0
}
