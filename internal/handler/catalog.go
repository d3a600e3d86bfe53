package handler

import (
	"net/http"

	"colourful-store-api/internal/service"
	"colourful-store-api/pkg/response"
)

// CatalogHandler handles the public catalog endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Products handles GET /api/products.
func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, products)
}

// Containers handles GET /api/containers: the per-type constraint map custom
// container creation validates against.
func (h *CatalogHandler) Containers(w http.ResponseWriter, r *http.Request) {
	compatibility, err := h.catalog.Compatibility(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, compatibility)
}

// Options handles GET /api/options?container_type=... Selectable products by
// category, trimmed to the container type's allowed categories when given.
func (h *CatalogHandler) Options(w http.ResponseWriter, r *http.Request) {
	options, err := h.catalog.Options(r.Context(), r.URL.Query().Get("container_type"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, options)
}
