package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SessionStatus tracks a game session through settlement.
type SessionStatus string

const (
	SessionPending  SessionStatus = "pending"
	SessionAccepted SessionStatus = "accepted"
	SessionRejected SessionStatus = "rejected"
	SessionExpired  SessionStatus = "expired"
)

// TelemetrySummary is the fraud-relevant gameplay summary a client submits with
// a completed session.
type TelemetrySummary struct {
	InputCount     int           `json:"input_count"`
	PatternDigest  string        `json:"pattern_digest,omitempty"`
	PowerUpsUsed   []ItemVariant `json:"power_ups_used,omitempty"`
	ClientVersion  string        `json:"client_version,omitempty"`
}

// GameSession represents a game_sessions row. The session identifier is the
// idempotency key: a given id is settled at most once, and later submissions
// observe the stored terminal result.
type GameSession struct {
	ID            string           `json:"id"`
	PlayerID      uuid.UUID        `json:"player_id"`
	Seed          string           `json:"seed"`
	DeclaredScore int64            `json:"declared_score"`
	Duration      time.Duration    `json:"duration"`
	Telemetry     TelemetrySummary `json:"telemetry"`
	Status        SessionStatus    `json:"status"`
	Result        json.RawMessage  `json:"result,omitempty"`
	StartedAt     time.Time        `json:"started_at"`
	SubmittedAt   time.Time        `json:"submitted_at"`
	SettledAt     *time.Time       `json:"settled_at,omitempty"`
}

// Settled reports whether the session reached a terminal state.
func (s *GameSession) Settled() bool {
	return s.Status != SessionPending
}

// FraudReason enumerates the closed set of rejection reasons. Persisted
// verbatim into fraud_attempts.
type FraudReason string

const (
	FraudScoreRate      FraudReason = "score_rate_exceeded"
	FraudShortDuration  FraudReason = "duration_below_minimum"
	FraudInputRate      FraudReason = "input_rate_implausible"
	FraudMacroSignature FraudReason = "macro_signature_match"
	FraudHistoryAnomaly FraudReason = "score_history_implausible"
	FraudInvalidSeed    FraudReason = "invalid_seed"
)

// FraudAttempt is an immutable audit record, created exactly once per rejected
// session.
type FraudAttempt struct {
	ID              uuid.UUID       `json:"id"`
	PlayerID        uuid.UUID       `json:"player_id"`
	Reason          FraudReason     `json:"reason"`
	SessionSnapshot json.RawMessage `json:"session_snapshot"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Verdict is the fraud evaluator's output. Deterministic for identical inputs.
type Verdict struct {
	Clean  bool        `json:"clean"`
	Reason FraudReason `json:"reason,omitempty"`
}

// CleanVerdict is the verdict for a plausible session.
var CleanVerdict = Verdict{Clean: true}

// Suspicious builds a rejecting verdict with the given reason.
func Suspicious(reason FraudReason) Verdict {
	return Verdict{Clean: false, Reason: reason}
}
