package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"colourful-store-api/internal/middleware"
	"colourful-store-api/internal/repository"
	"colourful-store-api/internal/service"
	"colourful-store-api/pkg/apierror"
	"colourful-store-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// CartHandler handles the cart HTTP surface.
type CartHandler struct {
	cart *service.CartService
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(cart *service.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

// List handles GET /api/cart. The body is the bare array of cart views.
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserFromContext(r.Context()).Email

	views, err := h.cart.List(r.Context(), owner)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, views)
}

// Add handles POST /api/cart.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserFromContext(r.Context()).Email

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload == nil {
		response.Error(w, apierror.InvalidArgument("Données manquantes"))
		return
	}
	defer r.Body.Close()

	views, err := h.cart.Add(r.Context(), owner, payload)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"message": "Produit ajouté au panier",
		"cart":    views,
	})
}

// UpdateQuantity handles PUT /api/cart/{id}.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserFromContext(r.Context()).Email

	lineID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, apierror.NotFound("Item non trouvé"))
		return
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload == nil {
		response.Error(w, apierror.InvalidArgument("Données manquantes"))
		return
	}
	defer r.Body.Close()

	quantity := 1
	if v, ok := payload["quantite"]; ok {
		if f, ok := v.(float64); ok {
			quantity = int(f)
		}
	}

	views, err := h.cart.UpdateQuantity(r.Context(), owner, lineID, quantity)
	if err == repository.ErrNotFound {
		response.Error(w, apierror.NotFound("Item non trouvé"))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{"cart": views})
}

// DeleteLine handles DELETE /api/cart/{id}.
func (h *CartHandler) DeleteLine(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserFromContext(r.Context()).Email

	lineID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, apierror.NotFound("Item non trouvé"))
		return
	}

	views, err := h.cart.DeleteLine(r.Context(), owner, lineID)
	if err == repository.ErrNotFound {
		response.Error(w, apierror.NotFound("Item non trouvé"))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{"cart": views})
}

// DeleteByProduct handles DELETE /api/cart/product/{product_id}.
func (h *CartHandler) DeleteByProduct(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserFromContext(r.Context()).Email
	productID := chi.URLParam(r, "product_id")

	deleted, views, err := h.cart.DeleteByProduct(r.Context(), owner, productID)
	if err == repository.ErrNotFound {
		response.Error(w, apierror.NotFound("Produit non trouvé dans le panier"))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"message": fmt.Sprintf("%d produit(s) retiré(s) du panier", deleted),
		"cart":    views,
	})
}

// SyncRequest is the offline cart reconciliation payload.
type SyncRequest struct {
	LocalCart *[]map[string]interface{} `json:"local_cart"`
}

// Sync handles POST /api/cart/sync.
func (h *CartHandler) Sync(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserFromContext(r.Context()).Email

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LocalCart == nil {
		response.Error(w, apierror.InvalidArgument("Données manquantes"))
		return
	}
	defer r.Body.Close()

	views, err := h.cart.Sync(r.Context(), owner, *req.LocalCart)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"message": "Panier synchronisé avec succès",
		"cart":    views,
	})
}
