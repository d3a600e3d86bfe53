package handler

import (
	"encoding/json"
	"net/http"

	"colourful-store-api/internal/middleware"
	"colourful-store-api/internal/repository"
	"colourful-store-api/internal/service"
	"colourful-store-api/pkg/apierror"
	"colourful-store-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// FavoriteHandler handles the favorites HTTP surface.
type FavoriteHandler struct {
	favorites *service.FavoriteService
}

// NewFavoriteHandler creates a new favorite handler.
func NewFavoriteHandler(favorites *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

// List handles GET /api/favorites.
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserFromContext(r.Context()).Email

	favorites, err := h.favorites.List(r.Context(), owner)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, favorites)
}

// ToggleRequest is the favorite toggle payload.
type ToggleRequest struct {
	ProductID   string                 `json:"product_id"`
	ProductType string                 `json:"product_type"`
	ProductData map[string]interface{} `json:"product_data"`
}

// Toggle handles POST /api/favorites: adds the product as a favorite, or
// removes it when already saved.
func (h *FavoriteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserFromContext(r.Context()).Email

	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		response.Error(w, apierror.InvalidArgument("Données manquantes"))
		return
	}
	defer r.Body.Close()

	action, err := h.favorites.Toggle(r.Context(), owner, req.ProductID, req.ProductType, req.ProductData)
	if err != nil {
		response.Error(w, err)
		return
	}

	if action == "added" {
		response.Created(w, map[string]interface{}{"message": "Favori ajouté", "action": action})
		return
	}
	response.OK(w, map[string]interface{}{"message": "Favori supprimé", "action": action})
}

// Delete handles DELETE /api/favorites/{product_id}.
func (h *FavoriteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserFromContext(r.Context()).Email
	productID := chi.URLParam(r, "product_id")

	if err := h.favorites.Remove(r.Context(), owner, productID); err != nil {
		if err == repository.ErrNotFound {
			response.Error(w, apierror.NotFound("Favori non trouvé"))
			return
		}
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{"message": "Favori supprimé"})
}

// SyncFavoritesRequest is the favorites sync payload.
type SyncFavoritesRequest struct {
	Favorites []map[string]interface{} `json:"favorites"`
}

// Sync handles POST /api/favorites/sync: replaces the server-side favorites
// with the client-held list.
func (h *FavoriteHandler) Sync(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserFromContext(r.Context()).Email

	var req SyncFavoritesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.InvalidArgument("Données manquantes"))
		return
	}
	defer r.Body.Close()

	if err := h.favorites.Sync(r.Context(), owner, req.Favorites); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{"message": "Favoris synchronisés avec succès"})
}
