package handler

import (
	"net/http"
	"strconv"

	"github.com/puzzlerush/platform/internal/auth"
	"github.com/puzzlerush/platform/internal/domain"
	"github.com/puzzlerush/platform/internal/service"
)

// PlayerHandler handles player profile endpoints.
type PlayerHandler struct {
	svc *service.PlayerService
}

// NewPlayerHandler creates a new PlayerHandler.
func NewPlayerHandler(svc *service.PlayerService) *PlayerHandler {
	return &PlayerHandler{svc: svc}
}

// GetMe handles GET /players/me.
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	player, err := h.svc.Me(r.Context(), auth.PlayerIDFromContext(r.Context()))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, player)
}

// GetStreak handles GET /players/me/streak. Returns STREAK_NOT_FOUND for
// players without an accepted session yet.
func (h *PlayerHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	streak, err := h.svc.Streak(r.Context(), auth.PlayerIDFromContext(r.Context()))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, streak)
}

// linkWalletRequest is the PUT /players/me/wallet body.
type linkWalletRequest struct {
	WalletAddress string `json:"wallet_address"`
}

// LinkWallet handles PUT /players/me/wallet.
func (h *PlayerHandler) LinkWallet(w http.ResponseWriter, r *http.Request) {
	var req linkWalletRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	player, err := h.svc.LinkWallet(r.Context(), auth.PlayerIDFromContext(r.Context()), req.WalletAddress)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, player)
}

// GetFraudHistory handles GET /players/me/fraud-attempts.
func (h *PlayerHandler) GetFraudHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	attempts, err := h.svc.FraudHistory(r.Context(), auth.PlayerIDFromContext(r.Context()), limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"attempts": attempts})
}
