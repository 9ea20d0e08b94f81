package handler

import (
	"net/http"

	"github.com/puzzlerush/platform/internal/domain"
	"github.com/puzzlerush/platform/internal/service"
)

// AuthHandler handles sign-in endpoints.
type AuthHandler struct {
	svc *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// SignIn handles POST /auth/google — find-or-create by Google subject.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var input service.SignInInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.svc.SignIn(r.Context(), input)
	if err != nil {
		RespondError(w, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	RespondJSON(w, status, result)
}
