package model

import (
	"encoding/json"
	"time"
)

// Product kinds stored on cart lines.
const (
	KindPredefined      = "predefined"
	KindCustomContainer = "contenant_personnalise"
)

// CartLine is one persisted cart row. The id is assigned by the store and is
// the authoritative identity of the line; clients never supply it.
type CartLine struct {
	ID          int64           `json:"id"`
	Owner       string          `json:"owner"`
	ProductType string          `json:"product_type"`
	ProductID   string          `json:"product_id"`
	ProductData json.RawMessage `json:"product_data"`
	Quantity    int             `json:"quantity"`
	AddedAt     time.Time       `json:"added_at"`
}

// Snapshot decodes the stored product data. A missing or corrupt snapshot
// degrades to an empty map rather than failing the cart.
func (l *CartLine) Snapshot() map[string]interface{} {
	if len(l.ProductData) == 0 {
		return map[string]interface{}{}
	}
	var data map[string]interface{}
	if err := json.Unmarshal(l.ProductData, &data); err != nil {
		return map[string]interface{}{}
	}
	return data
}

// CartView is the wire representation of a cart line: the stored snapshot
// overlaid on catalog data, with the store's id and quantity forced on top.
type CartView map[string]interface{}
