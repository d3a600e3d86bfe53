package handler

import (
	"encoding/json"
	"net/http"

	"colourful-store-api/internal/middleware"
	"colourful-store-api/internal/service"
	"colourful-store-api/pkg/apierror"
	"colourful-store-api/pkg/response"
)

// ContainerHandler handles custom container creation.
type ContainerHandler struct {
	containers *service.ContainerService
}

// NewContainerHandler creates a new container handler.
func NewContainerHandler(containers *service.ContainerService) *ContainerHandler {
	return &ContainerHandler{containers: containers}
}

// CreateContainerRequest is the container creation payload.
type CreateContainerRequest struct {
	ContenantType string   `json:"contenant_type"`
	Produits      []string `json:"produits"`
}

// Create handles POST /api/create-container.
func (h *ContainerHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserFromContext(r.Context()).Email

	var req CreateContainerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.InvalidArgument("Données manquantes"))
		return
	}
	defer r.Body.Close()

	product, views, err := h.containers.CreateContainer(r.Context(), owner, req.ContenantType, req.Produits)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"message": "Contenant personnalisé ajouté au panier",
		"produit": product,
		"cart":    views,
	})
}
