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

// placeholderContainerImage is served when a container type has no image.
const placeholderContainerImage = `data:image/svg+xml,%3Csvg xmlns="http://www.w3.org/2000/svg" width="100" height="100"%3E%3Crect width="100" height="100" fill="%23ff6b9d"/%3E%3Ctext x="50" y="50" text-anchor="middle" dy=".3em" fill="white" font-size="14" font-family="Arial"%3EContenant%3C/text%3E%3C/svg%3E`

// ContainerService prices and creates custom containers: a base container
// price plus the prices of the selected sub-products, flattened into a single
// synthesized cart line.
type ContainerService struct {
	catalog repository.CatalogRepository
	cart    *CartService
	now     func() time.Time
}

// NewContainerService creates a new container service.
func NewContainerService(catalog repository.CatalogRepository, cart *CartService) *ContainerService {
	return &ContainerService{
		catalog: catalog,
		cart:    cart,
		now:     time.Now,
	}
}

// CreateContainer validates the selection against the container type's
// capacity, prices it, and writes one synthesized cart line with quantity 1.
// Unknown product references are skipped, not errors; stale clients may hold
// ids for products that no longer exist. Returns the synthesized product and
// the refreshed cart.
func (s *ContainerService) CreateContainer(ctx context.Context, owner, containerTypeID string, selected []string) (map[string]interface{}, []model.CartView, error) {
	containerType, err := s.catalog.GetContainerType(ctx, containerTypeID)
	if err == repository.ErrNotFound {
		return nil, nil, apierror.InvalidArgument("Type de contenant invalide")
	}
	if err != nil {
		return nil, nil, err
	}

	if len(selected) > containerType.MaxProducts {
		return nil, nil, apierror.TooManyItems(
			fmt.Sprintf("Vous ne pouvez sélectionner que %d produits maximum", containerType.MaxProducts))
	}

	total := containerType.BasePrice
	included := make([]map[string]interface{}, 0, len(selected))
	for _, ref := range selected {
		catalogID, ok := repository.ParseProductRef(ref)
		if !ok {
			continue
		}
		product, err := s.catalog.GetProductByID(ctx, catalogID)
		if err == repository.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		total += product.Price
		included = append(included, map[string]interface{}{
			"id":     ref,
			"nom":    product.Name,
			"marque": "COLOURFUL HDJT",
			"prix":   product.Price,
			"image":  product.ImageURL,
		})
	}

	// Millisecond-derived id so repeated submissions never collide.
	syntheticID := fmt.Sprintf("custom-%d", s.now().UnixMilli())

	image := containerType.ImageURL
	if image == "" {
		image = placeholderContainerImage
	}

	product := map[string]interface{}{
		"id":              syntheticID,
		"product_id":      syntheticID,
		"nom":             fmt.Sprintf("Contenant %s personnalisé", containerType.Name),
		"description":     fmt.Sprintf("Contenant personnalisé avec %d produits", len(selected)),
		"contenant":       containerTypeID,
		"prix":            total,
		"image":           image,
		"quantite":        1,
		"type":            model.KindCustomContainer,
		"product_type":    model.KindCustomContainer,
		"produits_inclus": included,
	}

	data, err := json.Marshal(product)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to serialize container: %w", err)
	}

	log.Printf("[ContainerService] Creating container for %s: type=%s products=%d price=%.2f",
		owner, containerTypeID, len(included), total)

	views, err := s.cart.AddLine(ctx, owner, syntheticID, model.KindCustomContainer, 1, data)
	if err != nil {
		return nil, nil, err
	}
	return product, views, nil
}
