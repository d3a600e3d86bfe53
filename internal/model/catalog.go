package model

import (
	"encoding/json"
	"time"
)

// PredefinedProduct is a catalog product with tracked stock.
type PredefinedProduct struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	ContainerTypeID     string    `json:"container_type_id"`
	Price               float64   `json:"price"`
	ImageURL            string    `json:"image_url"`
	IsCustomizable      bool      `json:"is_customizable"`
	IsInternal          bool      `json:"is_internal"`
	Categories          string    `json:"categories"` // JSON array of category ids
	QuantityPerCategory int       `json:"quantity_per_category"`
	InitialStock        int       `json:"initial_stock"`
	CurrentStock        int       `json:"current_stock"`
	CreatedAt           time.Time `json:"created_at"`
}

// CategoryList decodes the categories JSON column.
func (p *PredefinedProduct) CategoryList() []string {
	if p.Categories == "" {
		return []string{}
	}
	var cats []string
	if err := json.Unmarshal([]byte(p.Categories), &cats); err != nil {
		return []string{}
	}
	return cats
}

// ContainerType describes a customizable container: a base price plus
// constraints on what can go inside.
type ContainerType struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	BasePrice         float64 `json:"base_price"`
	MaxProducts       int     `json:"max_products"`
	AllowedCategories string  `json:"allowed_categories"` // JSON array of category ids
	ImageURL          string  `json:"image_url"`
}

// AllowedCategoryList decodes the allowed_categories JSON column.
func (t *ContainerType) AllowedCategoryList() []string {
	if t.AllowedCategories == "" {
		return []string{}
	}
	var cats []string
	if err := json.Unmarshal([]byte(t.AllowedCategories), &cats); err != nil {
		return []string{}
	}
	return cats
}

// Container is a pre-assembled bundle sold as-is.
type Container struct {
	ID              int64              `json:"id"`
	Name            string             `json:"name"`
	ContainerTypeID string             `json:"container_type_id"`
	Price           float64            `json:"price"`
	Description     string             `json:"description"`
	ImageURL        string             `json:"image_url"`
	Products        []ContainedProduct `json:"products"`
}

// ContainedProduct is one product inside a pre-assembled container.
type ContainedProduct struct {
	ProductID int64   `json:"id"`
	Name      string  `json:"name"`
	ImageURL  string  `json:"image_url"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// ProductCategory is a catalog category.
type ProductCategory struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
