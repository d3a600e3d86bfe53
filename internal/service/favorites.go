package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"colourful-store-api/internal/model"
	"colourful-store-api/internal/repository"
)

// FavoriteService owns saved products. Same denormalized snapshot idea as
// the cart, minus quantities.
type FavoriteService struct {
	favorites repository.FavoriteRepository
}

// NewFavoriteService creates a new favorite service.
func NewFavoriteService(favorites repository.FavoriteRepository) *FavoriteService {
	return &FavoriteService{favorites: favorites}
}

// List returns the owner's favorites in the wire shape, newest first.
func (s *FavoriteService) List(ctx context.Context, owner string) ([]map[string]interface{}, error) {
	favorites, err := s.favorites.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	result := make([]map[string]interface{}, 0, len(favorites))
	for i := range favorites {
		fav := &favorites[i]
		var data interface{}
		if len(fav.ProductData) > 0 {
			_ = json.Unmarshal(fav.ProductData, &data)
		}
		result = append(result, map[string]interface{}{
			"id":           fav.ID,
			"product_type": fav.ProductType,
			"product_id":   fav.ProductID,
			"product_data": data,
			"added_at":     fav.AddedAt.Format(time.RFC3339),
		})
	}
	return result, nil
}

// Toggle removes the favorite if the owner already has one for the product,
// otherwise adds it. Returns "added" or "removed".
func (s *FavoriteService) Toggle(ctx context.Context, owner, productID, productType string, productData map[string]interface{}) (string, error) {
	if productID == "" {
		return "", fmt.Errorf("missing product id")
	}

	_, err := s.favorites.DeleteByProduct(ctx, owner, productID)
	if err == nil {
		return "removed", nil
	}
	if err != repository.ErrNotFound {
		return "", err
	}

	if productType == "" {
		productType = model.KindPredefined
	}
	data, err := json.Marshal(productData)
	if err != nil {
		return "", fmt.Errorf("failed to serialize product data: %w", err)
	}

	fav := &model.Favorite{
		Owner:       owner,
		ProductType: productType,
		ProductID:   productID,
		ProductData: data,
	}
	if err := s.favorites.Upsert(ctx, fav); err != nil {
		return "", err
	}
	return "added", nil
}

// Remove deletes the owner's favorite for a product id. Returns
// repository.ErrNotFound when nothing was saved for it.
func (s *FavoriteService) Remove(ctx context.Context, owner, productID string) error {
	_, err := s.favorites.DeleteByProduct(ctx, owner, productID)
	return err
}

// Sync replaces the owner's favorites wholesale with the client-held list.
func (s *FavoriteService) Sync(ctx context.Context, owner string, localFavorites []map[string]interface{}) error {
	if err := s.favorites.DeleteAll(ctx, owner); err != nil {
		return err
	}

	for _, item := range localFavorites {
		productID := stringField(item, "product_id")
		if productID == "" {
			continue
		}
		productType := stringField(item, "product_type")
		if productType == "" {
			productType = model.KindPredefined
		}

		var data []byte
		if raw, ok := item["product_data"]; ok && raw != nil {
			var err error
			if data, err = json.Marshal(raw); err != nil {
				return fmt.Errorf("failed to serialize product data: %w", err)
			}
		} else {
			data = []byte("{}")
		}

		fav := &model.Favorite{
			Owner:       owner,
			ProductType: productType,
			ProductID:   productID,
			ProductData: data,
		}
		if err := s.favorites.Upsert(ctx, fav); err != nil {
			return err
		}
	}
	return nil
}
