package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/puzzlerush/platform/internal/auth"
	"github.com/puzzlerush/platform/internal/domain"
	"github.com/puzzlerush/platform/internal/settlement"
)

// SessionHandler handles session submission and result retrieval.
type SessionHandler struct {
	orchestrator *settlement.Orchestrator
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(orchestrator *settlement.Orchestrator) *SessionHandler {
	return &SessionHandler{orchestrator: orchestrator}
}

// submitRequest is the POST /sessions body.
type submitRequest struct {
	SessionID     string                  `json:"session_id"`
	Seed          string                  `json:"seed"`
	DeclaredScore int64                   `json:"declared_score"`
	DurationMs    int64                   `json:"duration_ms"`
	Telemetry     domain.TelemetrySummary `json:"telemetry"`
	TournamentID  int64                   `json:"tournament_id"`
	StartedAt     time.Time               `json:"started_at"`
}

// Submit handles POST /sessions — settles a completed session. Resubmitting
// a settled session id returns the stored result with replayed=true.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	playerID := auth.PlayerIDFromContext(r.Context())

	var req submitRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.orchestrator.SubmitSession(r.Context(), domain.SubmitSessionParams{
		SessionID:     req.SessionID,
		PlayerID:      playerID,
		Seed:          req.Seed,
		DeclaredScore: req.DeclaredScore,
		Duration:      time.Duration(req.DurationMs) * time.Millisecond,
		Telemetry:     req.Telemetry,
		TournamentID:  req.TournamentID,
		StartedAt:     req.StartedAt,
	})
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

// Get handles GET /sessions/{sessionID} — the stored settlement result.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	playerID := auth.PlayerIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	result, err := h.orchestrator.SessionResult(r.Context(), playerID, sessionID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}
