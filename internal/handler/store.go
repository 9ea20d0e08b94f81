package handler

import (
	"net/http"

	"github.com/puzzlerush/platform/internal/auth"
	"github.com/puzzlerush/platform/internal/domain"
	"github.com/puzzlerush/platform/internal/service"
)

// StoreHandler handles catalog, purchase, and inventory endpoints.
type StoreHandler struct {
	svc *service.StoreService
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(svc *service.StoreService) *StoreHandler {
	return &StoreHandler{svc: svc}
}

// Catalog handles GET /store/catalog.
func (h *StoreHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]interface{}{"items": h.svc.Catalog()})
}

// purchaseRequest is the POST /store/purchase body.
type purchaseRequest struct {
	Type     domain.ItemType    `json:"item_type"`
	Variant  domain.ItemVariant `json:"variant"`
	Quantity int64              `json:"quantity"`
}

// Purchase handles POST /store/purchase.
func (h *StoreHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	playerID := auth.PlayerIDFromContext(r.Context())

	var req purchaseRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.svc.Purchase(r.Context(), playerID, req.Type, req.Variant, req.Quantity)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

// Inventory handles GET /players/me/inventory.
func (h *StoreHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	playerID := auth.PlayerIDFromContext(r.Context())

	items, err := h.svc.Inventory(r.Context(), playerID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}
