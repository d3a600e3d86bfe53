package service

import (
	"context"
	"testing"

	"colourful-store-api/internal/cache"
	"colourful-store-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalogService(t *testing.T) (*CatalogService, *fakeCatalogRepo) {
	t.Helper()

	memCache := cache.NewMemoryCache()
	t.Cleanup(func() { memCache.Close() })

	catalog := newFakeCatalogRepo()
	return NewCatalogService(catalog, memCache), catalog
}

func seedPublicCatalog(catalog *fakeCatalogRepo) {
	catalog.products[1] = &model.PredefinedProduct{
		ID:             1,
		Name:           "Chocolat noir",
		Description:    "Tablette 100g",
		Price:          12.5,
		ImageURL:       "/images/chocolat.jpg",
		Categories:     `["chocolats"]`,
		IsCustomizable: true,
	}
	catalog.products[2] = &model.PredefinedProduct{
		ID:         2,
		Name:       "Praliné",
		Price:      8,
		ImageURL:   "/images/praline.jpg",
		Categories: `["pralines"]`,
	}
	catalog.containers = []model.Container{{
		ID:              1,
		Name:            "Coffret découverte",
		ContainerTypeID: "coffret",
		Price:           2500,
		Products: []model.ContainedProduct{
			{ProductID: 1, Name: "Chocolat noir", Price: 12.5, Quantity: 2},
			{ProductID: 2, Name: "Praliné", Price: 8, Quantity: 1},
		},
	}}
	catalog.containerTypes["coffret"] = &model.ContainerType{
		ID:                "coffret",
		Name:              "Coffret",
		BasePrice:         1500,
		MaxProducts:       4,
		AllowedCategories: `["chocolats"]`,
		ImageURL:          "/images/coffret.jpg",
	}
	catalog.categories = []model.ProductCategory{
		{ID: "chocolats", Name: "Chocolats"},
		{ID: "pralines", Name: "Pralinés"},
	}
}

func findByID(t *testing.T, entries []map[string]interface{}, id string) map[string]interface{} {
	t.Helper()

	for _, entry := range entries {
		if entry["id"] == id {
			return entry
		}
	}
	t.Fatalf("no entry with id %q", id)
	return nil
}

func TestCatalogProducts(t *testing.T) {
	svc, catalog := newTestCatalogService(t)
	seedPublicCatalog(catalog)

	entries, err := svc.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)

	product := findByID(t, entries, "product_1")
	assert.Equal(t, "Chocolat noir", product["nom"])
	assert.Equal(t, 12.5, product["prix"])
	assert.Equal(t, "product", product["type"])
	assert.Equal(t, true, product["personnalisable"])

	container := findByID(t, entries, "container_1")
	assert.Equal(t, "container", container["type"])
	assert.Equal(t, 2500.0, container["prix"])
	assert.Equal(t, false, container["personnalisable"])
	// Category union of the contained products, deduplicated.
	assert.ElementsMatch(t, []interface{}{"chocolats", "pralines"}, container["categories"])
	assert.Len(t, container["contained_products"], 2)
}

func TestCatalogProductsServedFromCache(t *testing.T) {
	svc, catalog := newTestCatalogService(t)
	seedPublicCatalog(catalog)
	ctx := context.Background()

	_, err := svc.Products(ctx)
	require.NoError(t, err)
	calls := catalog.listPublicCalls

	_, err = svc.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, calls, catalog.listPublicCalls)
}

func TestCatalogProductsWithoutCache(t *testing.T) {
	catalog := newFakeCatalogRepo()
	seedPublicCatalog(catalog)
	svc := NewCatalogService(catalog, nil)

	entries, err := svc.Products(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestCatalogContainerTypes(t *testing.T) {
	svc, catalog := newTestCatalogService(t)
	seedPublicCatalog(catalog)

	types, err := svc.ContainerTypes(context.Background())
	require.NoError(t, err)
	require.Contains(t, types, "coffret")
	assert.Equal(t, "Coffret", types["coffret"]["nom"])
	assert.Equal(t, 1500.0, types["coffret"]["prix"])
}

func TestCatalogCompatibility(t *testing.T) {
	svc, catalog := newTestCatalogService(t)
	seedPublicCatalog(catalog)

	compat, err := svc.Compatibility(context.Background())
	require.NoError(t, err)
	require.Contains(t, compat, "coffret")

	entry := compat["coffret"]
	assert.Equal(t, 1500.0, entry["prix_base"])
	assert.Equal(t, float64(4), entry["max_produits"])
	assert.Equal(t, []interface{}{"chocolats"}, entry["categories_autorisees"])
}

func TestCatalogOptionsGroupsByCategory(t *testing.T) {
	svc, catalog := newTestCatalogService(t)
	seedPublicCatalog(catalog)

	options, err := svc.Options(context.Background(), "")
	require.NoError(t, err)
	require.Contains(t, options, "chocolats")
	require.Contains(t, options, "pralines")

	chocolats := options["chocolats"]["options"].([]map[string]interface{})
	require.Len(t, chocolats, 1)
	assert.Equal(t, "predefined_1", chocolats[0]["id"])
	assert.Equal(t, "COLOURFUL HDJT", chocolats[0]["marque"])
}

func TestCatalogOptionsFiltersByContainerType(t *testing.T) {
	svc, catalog := newTestCatalogService(t)
	seedPublicCatalog(catalog)
	ctx := context.Background()

	// The coffret only allows the chocolats category.
	options, err := svc.Options(ctx, "coffret")
	require.NoError(t, err)
	assert.Contains(t, options, "chocolats")
	assert.NotContains(t, options, "pralines")

	options, err = svc.Options(ctx, "inexistant")
	require.NoError(t, err)
	assert.Empty(t, options)
}

func TestCatalogOptionsSkipsImagelessProducts(t *testing.T) {
	svc, catalog := newTestCatalogService(t)
	seedPublicCatalog(catalog)
	catalog.products[1].ImageURL = ""

	options, err := svc.Options(context.Background(), "")
	require.NoError(t, err)
	chocolats := options["chocolats"]["options"].([]map[string]interface{})
	assert.Empty(t, chocolats)
}
