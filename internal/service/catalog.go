package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"colourful-store-api/internal/cache"
	"colourful-store-api/internal/repository"

	"golang.org/x/sync/singleflight"
)

const (
	catalogCacheKeyPrefix = "colourful:catalog:"
	catalogCacheTTL       = 5 * time.Minute
)

// CatalogService serves the public catalog listings. Results are cached with
// a short TTL and rebuilt behind a singleflight group so a cold cache does
// not stampede the store.
type CatalogService struct {
	repo  repository.CatalogRepository
	cache cache.Cache
	group singleflight.Group
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repo repository.CatalogRepository, c cache.Cache) *CatalogService {
	return &CatalogService{repo: repo, cache: c}
}

// Products returns the public catalog: predefined products plus
// pre-assembled containers, in the wire shape clients render directly.
func (s *CatalogService) Products(ctx context.Context) ([]map[string]interface{}, error) {
	var result []map[string]interface{}
	err := s.cached(ctx, "products", &result, func() (interface{}, error) {
		return s.buildProducts(ctx)
	})
	return result, err
}

// ContainerTypes returns the container type index: id to name and base price.
func (s *CatalogService) ContainerTypes(ctx context.Context) (map[string]map[string]interface{}, error) {
	var result map[string]map[string]interface{}
	err := s.cached(ctx, "container_types", &result, func() (interface{}, error) {
		types, err := s.repo.ListContainerTypes(ctx)
		if err != nil {
			return nil, err
		}
		index := make(map[string]map[string]interface{}, len(types))
		for _, t := range types {
			index[t.ID] = map[string]interface{}{
				"nom":  t.Name,
				"prix": t.BasePrice,
			}
		}
		return index, nil
	})
	return result, err
}

// Compatibility returns, per container type, the constraints a custom
// container must satisfy: base price, capacity and allowed categories.
func (s *CatalogService) Compatibility(ctx context.Context) (map[string]map[string]interface{}, error) {
	var result map[string]map[string]interface{}
	err := s.cached(ctx, "compatibility", &result, func() (interface{}, error) {
		types, err := s.repo.ListContainerTypes(ctx)
		if err != nil {
			return nil, err
		}
		index := make(map[string]map[string]interface{}, len(types))
		for _, t := range types {
			var image interface{}
			if t.ImageURL != "" {
				image = t.ImageURL
			}
			index[t.ID] = map[string]interface{}{
				"nom":                   t.Name,
				"prix_base":             t.BasePrice,
				"max_produits":          t.MaxProducts,
				"categories_autorisees": t.AllowedCategoryList(),
				"image":                 image,
			}
		}
		return index, nil
	})
	return result, err
}

// Options returns the selectable products grouped by category. When a
// container type is given, categories outside its allowed set are dropped.
func (s *CatalogService) Options(ctx context.Context, containerTypeID string) (map[string]map[string]interface{}, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.ListPublicProducts(ctx)
	if err != nil {
		return nil, err
	}

	var allowed map[string]bool
	if containerTypeID != "" {
		containerType, err := s.repo.GetContainerType(ctx, containerTypeID)
		if err == repository.ErrNotFound {
			return map[string]map[string]interface{}{}, nil
		}
		if err != nil {
			return nil, err
		}
		allowed = make(map[string]bool)
		for _, id := range containerType.AllowedCategoryList() {
			allowed[id] = true
		}
	}

	result := make(map[string]map[string]interface{})
	for _, category := range categories {
		if allowed != nil && !allowed[category.ID] {
			continue
		}

		options := []map[string]interface{}{}
		for i := range products {
			product := &products[i]
			if product.ImageURL == "" || !containsString(product.CategoryList(), category.ID) {
				continue
			}
			options = append(options, map[string]interface{}{
				"id":     fmt.Sprintf("predefined_%d", product.ID),
				"nom":    product.Name,
				"marque": "COLOURFUL HDJT",
				"prix":   product.Price,
				"image":  product.ImageURL,
			})
		}

		result[category.ID] = map[string]interface{}{
			"nom":     category.Name,
			"options": options,
		}
	}
	return result, nil
}

func (s *CatalogService) buildProducts(ctx context.Context) ([]map[string]interface{}, error) {
	products, err := s.repo.ListPublicProducts(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]map[string]interface{}, 0, len(products))
	for i := range products {
		product := &products[i]
		result = append(result, map[string]interface{}{
			"id":                     fmt.Sprintf("product_%d", product.ID),
			"nom":                    product.Name,
			"description":            product.Description,
			"contenant":              product.ContainerTypeID,
			"prix":                   product.Price,
			"image":                  product.ImageURL,
			"categories":             product.CategoryList(),
			"personnalisable":        product.IsCustomizable,
			"quantite_par_categorie": product.QuantityPerCategory,
			"type":                   "product",
		})
	}

	containers, err := s.repo.ListContainers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range containers {
		container := &containers[i]

		seen := make(map[string]bool)
		categories := []string{}
		contained := make([]map[string]interface{}, 0, len(container.Products))
		for _, p := range container.Products {
			contained = append(contained, map[string]interface{}{
				"id":        p.ProductID,
				"name":      p.Name,
				"image_url": p.ImageURL,
				"price":     p.Price,
			})
			if product, err := s.repo.GetProductByID(ctx, p.ProductID); err == nil {
				for _, c := range product.CategoryList() {
					if !seen[c] {
						seen[c] = true
						categories = append(categories, c)
					}
				}
			}
		}

		result = append(result, map[string]interface{}{
			"id":                     fmt.Sprintf("container_%d", container.ID),
			"nom":                    container.Name,
			"description":            container.Description,
			"contenant":              container.ContainerTypeID,
			"prix":                   container.Price,
			"image":                  container.ImageURL,
			"categories":             categories,
			"personnalisable":        false,
			"quantite_par_categorie": 1,
			"type":                   "container",
			"contained_products":     contained,
		})
	}
	return result, nil
}

// cached reads a listing through the cache, rebuilding it behind singleflight
// on a miss. A cache outage degrades to a direct build, never an error.
func (s *CatalogService) cached(ctx context.Context, name string, out interface{}, build func() (interface{}, error)) error {
	key := catalogCacheKeyPrefix + name

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			if json.Unmarshal(data, out) == nil {
				return nil
			}
		} else if err != cache.ErrCacheMiss {
			log.Printf("[CatalogService] Cache read failed for %s: %v", name, err)
		}
	}

	value, err, _ := s.group.Do(name, func() (interface{}, error) {
		fresh, err := build()
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(fresh)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, data, catalogCacheTTL); err != nil {
				log.Printf("[CatalogService] Cache write failed for %s: %v", name, err)
			}
		}
		return data, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(value.([]byte), out)
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
