package model

import (
	"encoding/json"
	"time"
)

// Favorite is one saved product for a user. Same denormalized snapshot idea
// as a cart line, without a quantity.
type Favorite struct {
	ID          int64           `json:"id"`
	Owner       string          `json:"owner"`
	ProductType string          `json:"product_type"`
	ProductID   string          `json:"product_id"`
	ProductData json.RawMessage `json:"product_data"`
	AddedAt     time.Time       `json:"added_at"`
}

// Snapshot decodes the stored product data, degrading to an empty map.
func (f *Favorite) Snapshot() map[string]interface{} {
	if len(f.ProductData) == 0 {
		return map[string]interface{}{}
	}
	var data map[string]interface{}
	if err := json.Unmarshal(f.ProductData, &data); err != nil {
		return map[string]interface{}{}
	}
	return data
}
