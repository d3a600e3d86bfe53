package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"colourful-store-api/internal/model"
	"colourful-store-api/internal/repository"
)

// CartService owns the durable cart: listing with snapshot refresh, add with
// the one-line-per-product invariant, quantity updates with the zero floor,
// deletions, and reconciliation of client-held offline carts.
type CartService struct {
	carts   repository.CartRepository
	catalog repository.CatalogRepository
}

// NewCartService creates a new cart service.
func NewCartService(carts repository.CartRepository, catalog repository.CatalogRepository) *CartService {
	return &CartService{carts: carts, catalog: catalog}
}

// List returns the owner's cart as wire views, snapshots refreshed from the
// catalog where the line references a predefined product.
func (s *CartService) List(ctx context.Context, owner string) ([]model.CartView, error) {
	lines, err := s.carts.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, lines), nil
}

// Add inserts the payload as a cart line, or increments the quantity of the
// existing line for the same product key and kind. The whole payload becomes
// the line's snapshot. Returns the refreshed cart.
func (s *CartService) Add(ctx context.Context, owner string, payload map[string]interface{}) ([]model.CartView, error) {
	kind := stringField(payload, "type")
	if kind == "" {
		kind = model.KindPredefined
	}
	key := stringField(payload, "product_id")
	if key == "" {
		key = stringField(payload, "id")
	}
	quantity := intField(payload, "quantite", 1)

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize product data: %w", err)
	}

	if err := s.carts.AddOrIncrement(ctx, owner, key, kind, quantity, data); err != nil {
		return nil, err
	}
	return s.List(ctx, owner)
}

// AddLine is the low-level add used when the caller already holds the product
// key, kind and serialized snapshot. Same invariant as Add. Returns the
// refreshed cart.
func (s *CartService) AddLine(ctx context.Context, owner, key, kind string, quantity int, data []byte) ([]model.CartView, error) {
	if err := s.carts.AddOrIncrement(ctx, owner, key, kind, quantity, data); err != nil {
		return nil, err
	}
	return s.List(ctx, owner)
}

// UpdateQuantity sets a line's quantity; a quantity of zero or less deletes
// the line instead, a non-positive quantity is never persisted. Returns the
// refreshed cart.
func (s *CartService) UpdateQuantity(ctx context.Context, owner string, lineID int64, quantity int) ([]model.CartView, error) {
	var err error
	if quantity <= 0 {
		err = s.carts.DeleteByID(ctx, owner, lineID)
	} else {
		err = s.carts.UpdateQuantity(ctx, owner, lineID, quantity)
	}
	if err != nil {
		return nil, err
	}
	return s.List(ctx, owner)
}

// DeleteLine removes one line by id. Returns the refreshed cart.
func (s *CartService) DeleteLine(ctx context.Context, owner string, lineID int64) ([]model.CartView, error) {
	if err := s.carts.DeleteByID(ctx, owner, lineID); err != nil {
		return nil, err
	}
	return s.List(ctx, owner)
}

// DeleteByProduct removes every line for a product key regardless of kind.
// Returns the number of deleted lines and the refreshed cart.
func (s *CartService) DeleteByProduct(ctx context.Context, owner, productID string) (int64, []model.CartView, error) {
	deleted, err := s.carts.DeleteByProduct(ctx, owner, productID)
	if err != nil {
		return 0, nil, err
	}
	views, err := s.List(ctx, owner)
	if err != nil {
		return 0, nil, err
	}
	return deleted, views, nil
}

// Clear empties the owner's cart.
func (s *CartService) Clear(ctx context.Context, owner string) error {
	return s.carts.DeleteAll(ctx, owner)
}

// Sync reconciles a client-held offline cart with the server cart. Local
// items already present on the server (compound match on product key or raw
// id, with both kind fields agreeing) are left alone; the rest are adopted.
// Server lines are never deleted. Running the same sync twice is a no-op the
// second time. Returns the final server cart.
func (s *CartService) Sync(ctx context.Context, owner string, localCart []map[string]interface{}) ([]model.CartView, error) {
	lines, err := s.carts.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	serverViews := make([]map[string]interface{}, len(lines))
	for i := range lines {
		serverViews[i] = matchView(&lines[i])
	}

	for _, localItem := range localCart {
		if matchesAny(serverViews, localItem) {
			continue
		}

		kind := stringField(localItem, "type")
		if kind == "" {
			kind = stringField(localItem, "product_type")
		}
		if kind == "" {
			kind = model.KindPredefined
		}
		key := stringField(localItem, "product_id")
		if key == "" {
			key = stringField(localItem, "id")
		}
		quantity := intField(localItem, "quantite", 1)

		data, err := json.Marshal(localItem)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize local item: %w", err)
		}

		log.Printf("[CartService] Adopting local cart item for %s: key=%s kind=%s", owner, key, kind)
		if err := s.carts.AddOrIncrement(ctx, owner, key, kind, quantity, data); err != nil {
			return nil, err
		}
	}

	// Re-read so freshly assigned ids are part of the result.
	return s.List(ctx, owner)
}

// buildViews turns stored lines into wire views. For predefined products the
// catalog row is the base and the stored snapshot overlays it, so client
// customizations survive while stale display data is corrected. The store's
// id and quantity are written last, on purpose: both the snapshot and the
// catalog base can carry their own "id"/"quantite" keys and must never win.
func (s *CartService) buildViews(ctx context.Context, lines []model.CartLine) []model.CartView {
	views := make([]model.CartView, 0, len(lines))
	for i := range lines {
		line := &lines[i]
		snapshot := line.Snapshot()

		if line.ProductType == model.KindPredefined && line.ProductID != "" {
			if refreshed, ok := s.refreshSnapshot(ctx, line.ProductID, snapshot); ok {
				snapshot = refreshed
			}
		}

		view := model.CartView{
			"product_id":   line.ProductID,
			"product_type": line.ProductType,
		}
		for k, v := range snapshot {
			view[k] = v
		}
		view["quantite"] = line.Quantity
		view["id"] = line.ID

		views = append(views, view)
	}
	return views
}

// refreshSnapshot merges catalog data under a stored snapshot. Lookup
// failures keep the stored snapshot; staleness beats blocking the cart.
func (s *CartService) refreshSnapshot(ctx context.Context, productID string, snapshot map[string]interface{}) (map[string]interface{}, bool) {
	catalogID, ok := repository.ParseProductRef(productID)
	if !ok {
		return nil, false
	}
	product, err := s.catalog.GetProductByID(ctx, catalogID)
	if err != nil {
		if err != repository.ErrNotFound {
			log.Printf("[CartService] Catalog lookup failed for %s: %v", productID, err)
		}
		return nil, false
	}
	if product.IsInternal {
		return nil, false
	}

	merged := map[string]interface{}{
		"nom":                    product.Name,
		"description":            product.Description,
		"prix":                   product.Price,
		"image":                  product.ImageURL,
		"categories":             product.CategoryList(),
		"personnalisable":        product.IsCustomizable,
		"quantite_par_categorie": product.QuantityPerCategory,
		"type":                   "product",
	}
	for k, v := range snapshot {
		merged[k] = v
	}
	return merged, true
}

// matchView is the shape the merge comparison runs against: row fields with
// the stored snapshot spread on top, shadowing them where keys collide.
func matchView(line *model.CartLine) map[string]interface{} {
	view := map[string]interface{}{
		"id":           line.ID,
		"product_id":   line.ProductID,
		"product_type": line.ProductType,
		"quantite":     line.Quantity,
	}
	for k, v := range line.Snapshot() {
		view[k] = v
	}
	return view
}

// matchesAny applies the compound merge match: (product_id OR id) AND type
// AND product_type. Either identifier may be the only one populated depending
// on the client's code path; the kind fields must agree wherever both sides
// carry them. A kind field absent on one side does not veto the match, or a
// local item missing product_type could never match its own adopted server
// line and re-syncing would grow the cart.
func matchesAny(serverViews []map[string]interface{}, localItem map[string]interface{}) bool {
	for _, serverItem := range serverViews {
		idMatch := eqField(serverItem["product_id"], localItem["product_id"]) ||
			eqField(serverItem["id"], localItem["id"])
		if idMatch &&
			eqKind(serverItem["type"], localItem["type"]) &&
			eqKind(serverItem["product_type"], localItem["product_type"]) {
			return true
		}
	}
	return false
}

// eqField compares two loosely typed payload values. Numbers arrive as int64
// from the store but float64 from decoded JSON, so scalars compare through
// their printed form. Two absent values count as equal.
func eqField(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// eqKind compares kind fields: equality when both present, agreement when
// either side omits the field.
func eqKind(a, b interface{}) bool {
	if a == nil || b == nil {
		return true
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// stringField reads a payload field as a string, stringifying numbers.
func stringField(payload map[string]interface{}, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprint(t)
	default:
		return fmt.Sprint(t)
	}
}

// intField reads a payload field as an int, falling back when absent or
// unparsable.
func intField(payload map[string]interface{}, key string, fallback int) int {
	v, ok := payload[key]
	if !ok || v == nil {
		return fallback
	}
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
	}
	return fallback
}
