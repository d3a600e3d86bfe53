package model

import (
	"encoding/json"
	"time"
)

// Order statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether s is one of the known order statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Order is a placed order.
type Order struct {
	ID              int64           `json:"id"`
	UserEmail       string          `json:"user_email"`
	TotalPrice      float64         `json:"total_price"`
	PaymentMethod   string          `json:"payment_method"`
	DeliveryAddress json.RawMessage `json:"delivery_address"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderItem     `json:"items"`
}

// OrderItem is one line of a placed order. ProductID may carry a legacy
// encoding ("predefined_7", bare numeric) or be empty for synthesized
// products; ProductName is the fallback lookup key for the stock hook.
type OrderItem struct {
	ID           int64           `json:"id"`
	OrderID      int64           `json:"order_id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	ProductData  json.RawMessage `json:"product_data"`
	Quantity     int             `json:"quantity"`
	Price        float64         `json:"price"`
}
