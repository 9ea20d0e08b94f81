package handler

import (
	"net/http"

	"github.com/puzzlerush/platform/internal/adreward"
)

// AdRewardHandler handles the ad network's server-side-verification callback.
type AdRewardHandler struct {
	svc *adreward.Service
}

// NewAdRewardHandler creates a new AdRewardHandler.
func NewAdRewardHandler(svc *adreward.Service) *AdRewardHandler {
	return &AdRewardHandler{svc: svc}
}

// Callback handles GET /rewards/ssv. The network signs the raw query string,
// so verification runs on r.URL.RawQuery exactly as received.
func (h *AdRewardHandler) Callback(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.HandleCallback(r.Context(), r.URL.RawQuery)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"credited":   result.Credit.Amount,
		"idempotent": result.Idempotent,
	})
}
