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

// OrderHandler handles the order HTTP surface.
type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// List handles GET /api/orders (and its /api/commandes alias).
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserFromContext(r.Context()).Email

	orders, err := h.orders.ListByOwner(r.Context(), owner)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, orders)
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserFromContext(r.Context()).Email

	var req service.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.InvalidArgument("Données manquantes"))
		return
	}
	defer r.Body.Close()

	order, err := h.orders.Create(r.Context(), owner, req)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, map[string]interface{}{
		"id":      fmt.Sprintf("%d", order.ID),
		"message": "Commande créée avec succès",
	})
}

// UpdateStatusRequest is the status transition payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PUT /api/orders/{id}. Admin only; a transition into
// "delivered" decrements stock for the ordered items.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, apierror.NotFound("Commande non trouvée"))
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		response.Error(w, apierror.InvalidArgument("Aucune donnée à mettre à jour"))
		return
	}
	defer r.Body.Close()

	if err := h.orders.UpdateStatus(r.Context(), orderID, req.Status); err != nil {
		if err == repository.ErrNotFound {
			response.Error(w, apierror.NotFound("Commande non trouvée"))
			return
		}
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{"message": "Statut mis à jour avec succès"})
}
