package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"colourful-store-api/internal/model"
	"colourful-store-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCartRepo is an in-memory CartRepository for service tests.
type fakeCartRepo struct {
	mu     sync.Mutex
	nextID int64
	lines  []model.CartLine
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{}
}

func (r *fakeCartRepo) ListByOwner(ctx context.Context, owner string) ([]model.CartLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.CartLine
	for _, line := range r.lines {
		if line.Owner == owner {
			out = append(out, line)
		}
	}
	return out, nil
}

func (r *fakeCartRepo) AddOrIncrement(ctx context.Context, owner, productID, productType string, quantity int, productData []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.lines {
		line := &r.lines[i]
		if line.Owner == owner && line.ProductID == productID && line.ProductType == productType {
			line.Quantity += quantity
			line.ProductData = append([]byte(nil), productData...)
			return nil
		}
	}

	r.nextID++
	r.lines = append(r.lines, model.CartLine{
		ID:          r.nextID,
		Owner:       owner,
		ProductType: productType,
		ProductID:   productID,
		ProductData: append([]byte(nil), productData...),
		Quantity:    quantity,
	})
	return nil
}

func (r *fakeCartRepo) UpdateQuantity(ctx context.Context, owner string, lineID int64, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.lines {
		if r.lines[i].ID == lineID && r.lines[i].Owner == owner {
			r.lines[i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeCartRepo) DeleteByID(ctx context.Context, owner string, lineID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.lines {
		if r.lines[i].ID == lineID && r.lines[i].Owner == owner {
			r.lines = append(r.lines[:i], r.lines[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeCartRepo) DeleteByProduct(ctx context.Context, owner, productID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var kept []model.CartLine
	var deleted int64
	for _, line := range r.lines {
		if line.Owner == owner && line.ProductID == productID {
			deleted++
			continue
		}
		kept = append(kept, line)
	}
	if deleted == 0 {
		return 0, repository.ErrNotFound
	}
	r.lines = kept
	return deleted, nil
}

func (r *fakeCartRepo) DeleteAll(ctx context.Context, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var kept []model.CartLine
	for _, line := range r.lines {
		if line.Owner != owner {
			kept = append(kept, line)
		}
	}
	r.lines = kept
	return nil
}

// fakeCatalogRepo is an in-memory CatalogRepository for service tests.
type fakeCatalogRepo struct {
	products        map[int64]*model.PredefinedProduct
	containerTypes  map[string]*model.ContainerType
	containers      []model.Container
	categories      []model.ProductCategory
	listPublicCalls int
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		products:       make(map[int64]*model.PredefinedProduct),
		containerTypes: make(map[string]*model.ContainerType),
	}
}

func (r *fakeCatalogRepo) GetProductByID(ctx context.Context, id int64) (*model.PredefinedProduct, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *p
	return &copy, nil
}

func (r *fakeCatalogRepo) GetProductByName(ctx context.Context, name string) (*model.PredefinedProduct, error) {
	for _, p := range r.products {
		if p.Name == name {
			copy := *p
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCatalogRepo) ListPublicProducts(ctx context.Context) ([]model.PredefinedProduct, error) {
	r.listPublicCalls++
	var out []model.PredefinedProduct
	for _, p := range r.products {
		if !p.IsInternal {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeCatalogRepo) GetContainerType(ctx context.Context, id string) (*model.ContainerType, error) {
	t, ok := r.containerTypes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *t
	return &copy, nil
}

func (r *fakeCatalogRepo) ListContainerTypes(ctx context.Context) ([]model.ContainerType, error) {
	var out []model.ContainerType
	for _, t := range r.containerTypes {
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeCatalogRepo) ListContainers(ctx context.Context) ([]model.Container, error) {
	return r.containers, nil
}

func (r *fakeCatalogRepo) ListCategories(ctx context.Context) ([]model.ProductCategory, error) {
	return r.categories, nil
}

var _ repository.CartRepository = (*fakeCartRepo)(nil)
var _ repository.CatalogRepository = (*fakeCatalogRepo)(nil)

func newTestCartService() (*CartService, *fakeCartRepo, *fakeCatalogRepo) {
	carts := newFakeCartRepo()
	catalog := newFakeCatalogRepo()
	return NewCartService(carts, catalog), carts, catalog
}

func TestCartAddAccumulatesQuantity(t *testing.T) {
	svc, carts, _ := newTestCartService()
	ctx := context.Background()

	payload := map[string]interface{}{
		"product_id": "predefined_1",
		"type":       "predefined",
		"nom":        "Chocolat noir",
		"prix":       12.5,
		"quantite":   float64(2),
	}

	views, err := svc.Add(ctx, "alice@example.com", payload)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 2, views[0]["quantite"])

	payload["quantite"] = float64(3)
	payload["nom"] = "Chocolat noir 70%"

	views, err = svc.Add(ctx, "alice@example.com", payload)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 5, views[0]["quantite"])
	// Snapshot is replaced on increment, not merged.
	assert.Equal(t, "Chocolat noir 70%", views[0]["nom"])

	require.Len(t, carts.lines, 1)
	assert.Equal(t, 5, carts.lines[0].Quantity)
}

func TestCartAddSeparateLinesPerKind(t *testing.T) {
	svc, carts, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "alice@example.com", map[string]interface{}{
		"product_id": "custom-17", "type": model.KindCustomContainer,
	})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "alice@example.com", map[string]interface{}{
		"product_id": "custom-17", "type": "predefined",
	})
	require.NoError(t, err)

	assert.Len(t, carts.lines, 2)
}

func TestCartUpdateQuantityZeroDeletesLine(t *testing.T) {
	svc, carts, _ := newTestCartService()
	ctx := context.Background()

	views, err := svc.Add(ctx, "alice@example.com", map[string]interface{}{"product_id": "predefined_1"})
	require.NoError(t, err)
	require.Len(t, views, 1)
	lineID := views[0]["id"].(int64)

	views, err = svc.UpdateQuantity(ctx, "alice@example.com", lineID, 0)
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.Empty(t, carts.lines)
}

func TestCartUpdateQuantityUnknownLine(t *testing.T) {
	svc, _, _ := newTestCartService()

	_, err := svc.UpdateQuantity(context.Background(), "alice@example.com", 42, 3)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCartUpdateQuantityWrongOwner(t *testing.T) {
	svc, _, _ := newTestCartService()
	ctx := context.Background()

	views, err := svc.Add(ctx, "alice@example.com", map[string]interface{}{"product_id": "predefined_1"})
	require.NoError(t, err)
	lineID := views[0]["id"].(int64)

	_, err = svc.UpdateQuantity(ctx, "mallory@example.com", lineID, 3)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCartDeleteByProduct(t *testing.T) {
	svc, _, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "alice@example.com", map[string]interface{}{
		"product_id": "predefined_1", "type": "predefined",
	})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "alice@example.com", map[string]interface{}{
		"product_id": "predefined_1", "type": model.KindCustomContainer,
	})
	require.NoError(t, err)

	deleted, views, err := svc.DeleteByProduct(ctx, "alice@example.com", "predefined_1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Empty(t, views)

	_, _, err = svc.DeleteByProduct(ctx, "alice@example.com", "predefined_1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCartListOverlaysCatalogUnderSnapshot(t *testing.T) {
	svc, _, catalog := newTestCartService()
	ctx := context.Background()

	catalog.products[1] = &model.PredefinedProduct{
		ID:          1,
		Name:        "Chocolat noir",
		Description: "Tablette 100g",
		Price:       12.5,
		ImageURL:    "/images/chocolat.jpg",
		Categories:  `["chocolats"]`,
	}

	// The stored snapshot carries a stale name and its own id/quantite keys.
	views, err := svc.Add(ctx, "alice@example.com", map[string]interface{}{
		"product_id": "predefined_1",
		"nom":        "Vieux nom",
		"id":         "bogus",
		"quantite":   float64(2),
	})
	require.NoError(t, err)
	require.Len(t, views, 1)
	view := views[0]

	// Snapshot keys shadow the catalog base.
	assert.Equal(t, "Vieux nom", view["nom"])
	// Keys absent from the snapshot come from the catalog.
	assert.Equal(t, "Tablette 100g", view["description"])
	assert.Equal(t, 12.5, view["prix"])
	// The store's id and quantity always win over the snapshot's.
	assert.Equal(t, int64(1), view["id"])
	assert.Equal(t, 2, view["quantite"])
	assert.Equal(t, "predefined_1", view["product_id"])
}

func TestCartListSkipsInternalProductRefresh(t *testing.T) {
	svc, _, catalog := newTestCartService()
	ctx := context.Background()

	catalog.products[1] = &model.PredefinedProduct{
		ID:         1,
		Name:       "Produit interne",
		Price:      1,
		IsInternal: true,
	}

	views, err := svc.Add(ctx, "alice@example.com", map[string]interface{}{
		"product_id": "predefined_1",
		"nom":        "Snapshot seul",
	})
	require.NoError(t, err)
	require.Len(t, views, 1)

	assert.Equal(t, "Snapshot seul", views[0]["nom"])
	_, hasDescription := views[0]["description"]
	assert.False(t, hasDescription)
}

func TestCartSyncAdoptsLocalOnlyItems(t *testing.T) {
	svc, carts, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "alice@example.com", map[string]interface{}{
		"product_id": "predefined_1", "quantite": float64(1),
	})
	require.NoError(t, err)

	local := []map[string]interface{}{
		{"product_id": "predefined_1", "quantite": float64(4)}, // already on the server
		{"product_id": "custom-99", "type": model.KindCustomContainer, "quantite": float64(1)},
	}

	views, err := svc.Sync(ctx, "alice@example.com", local)
	require.NoError(t, err)
	assert.Len(t, views, 2)
	require.Len(t, carts.lines, 2)

	// The matched server line keeps its quantity; nothing is summed.
	assert.Equal(t, 1, carts.lines[0].Quantity)
	assert.Equal(t, "custom-99", carts.lines[1].ProductID)
	assert.Equal(t, model.KindCustomContainer, carts.lines[1].ProductType)
}

func TestCartSyncIsIdempotent(t *testing.T) {
	svc, carts, _ := newTestCartService()
	ctx := context.Background()

	// Local items with only an id, no product_type. The adopted server line
	// gains a kind the local item never carried; the second sync must still
	// match it.
	local := []map[string]interface{}{
		{"id": "c1", "type": "custom", "quantite": float64(1)},
		{"product_id": "predefined_2", "quantite": float64(3)},
	}

	views, err := svc.Sync(ctx, "alice@example.com", local)
	require.NoError(t, err)
	assert.Len(t, views, 2)

	views, err = svc.Sync(ctx, "alice@example.com", local)
	require.NoError(t, err)
	assert.Len(t, views, 2)

	require.Len(t, carts.lines, 2)
	assert.Equal(t, 1, carts.lines[0].Quantity)
	assert.Equal(t, 3, carts.lines[1].Quantity)
}

func TestCartSyncNeverDeletesServerLines(t *testing.T) {
	svc, carts, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "alice@example.com", map[string]interface{}{"product_id": "predefined_1"})
	require.NoError(t, err)

	views, err := svc.Sync(ctx, "alice@example.com", nil)
	require.NoError(t, err)
	assert.Len(t, views, 1)
	assert.Len(t, carts.lines, 1)
}

func TestCartSnapshotSurvivesRoundTrip(t *testing.T) {
	svc, carts, _ := newTestCartService()
	ctx := context.Background()

	payload := map[string]interface{}{
		"product_id": "custom-1",
		"type":       model.KindCustomContainer,
		"produits_inclus": []interface{}{
			map[string]interface{}{"nom": "Chocolat", "prix": 12.5},
		},
	}
	views, err := svc.Add(ctx, "alice@example.com", payload)
	require.NoError(t, err)
	require.Len(t, views, 1)

	var stored map[string]interface{}
	require.NoError(t, json.Unmarshal(carts.lines[0].ProductData, &stored))
	assert.Equal(t, payload["produits_inclus"], stored["produits_inclus"])
	assert.Equal(t, payload["produits_inclus"], views[0]["produits_inclus"])
}
