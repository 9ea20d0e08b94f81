package domain

import (
	"time"

	"github.com/google/uuid"
)

// ItemDelta is a signed per-variant quantity change.
type ItemDelta struct {
	Type     ItemType    `json:"type"`
	Variant  ItemVariant `json:"variant"`
	Quantity int64       `json:"quantity"`
}

// ResourceDelta is the unit the ledger engine applies: a currency change plus
// any number of item changes, all-or-nothing.
type ResourceDelta struct {
	Points int64       `json:"points"`
	Items  []ItemDelta `json:"items,omitempty"`
}

// IsZero reports whether the delta changes nothing.
func (d ResourceDelta) IsZero() bool {
	return d.Points == 0 && len(d.Items) == 0
}

// SubmitSessionParams is the raw session payload handed to the orchestrator.
// Duration is the single source of truth; the HTTP handler converts the wire
// format's millisecond count at the boundary.
type SubmitSessionParams struct {
	SessionID     string
	PlayerID      uuid.UUID
	Seed          string
	DeclaredScore int64
	Duration      time.Duration
	Telemetry     TelemetrySummary
	TournamentID  int64
	StartedAt     time.Time
}

// RewardSettlement is the acceptance payload: everything the chain-submission
// collaborator needs, plus the deltas that were applied.
type RewardSettlement struct {
	SessionID     string        `json:"session_id"`
	PlayerID      uuid.UUID     `json:"player_id"`
	WalletAddress string        `json:"wallet_address"`
	TournamentID  int64         `json:"tournament_id"`
	Score         int64         `json:"score"`
	Applied       ResourceDelta `json:"applied"`
	NewStreak     int           `json:"new_streak"`
}

// SettlementResult is the terminal state for every submitted session. It is
// stored on the session row so duplicate submissions return it unchanged.
type SettlementResult struct {
	SessionID  string            `json:"session_id"`
	Status     SessionStatus     `json:"status"`
	Settlement *RewardSettlement `json:"settlement,omitempty"`
	Reason     FraudReason       `json:"reason,omitempty"`
	FraudID    *uuid.UUID        `json:"fraud_attempt_id,omitempty"`
	Replayed   bool              `json:"replayed,omitempty"`
}

// PurchaseParams is an item purchase routed to the ledger as a
// negative-currency / positive-inventory delta pair.
type PurchaseParams struct {
	PlayerID uuid.UUID   `json:"-"`
	Type     ItemType    `json:"item_type"`
	Variant  ItemVariant `json:"variant"`
	Quantity int64       `json:"quantity"`
	UnitCost int64       `json:"-"`
}

// GuardResult is the shared verdict type for the guard package.
type GuardResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Guard   string `json:"guard,omitempty"`
}
