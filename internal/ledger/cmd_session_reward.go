package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/puzzlerush/platform/internal/domain"
)

// SessionRewardParams holds the deltas earned by an accepted session: the
// point grant for the score and the consumption of power-ups declared in
// telemetry.
type SessionRewardParams struct {
	PlayerID         uuid.UUID
	SessionID        string
	Points           int64
	PowerUpsConsumed []domain.ItemVariant
}

// BuildSessionRewardDelta converts reward parameters into a ledger delta.
// Consumption of a power-up the player does not own fails the whole delta,
// which rejects sessions claiming unowned items.
func BuildSessionRewardDelta(params SessionRewardParams) domain.ResourceDelta {
	delta := domain.ResourceDelta{Points: params.Points}
	consumed := make(map[domain.ItemVariant]int64)
	for _, v := range params.PowerUpsConsumed {
		consumed[v]--
	}
	for _, v := range []domain.ItemVariant{domain.VariantShield, domain.VariantMagnet, domain.VariantMultiplier} {
		if qty, ok := consumed[v]; ok {
			delta.Items = append(delta.Items, domain.ItemDelta{
				Type:     domain.ItemPowerUp,
				Variant:  v,
				Quantity: qty,
			})
		}
	}
	return delta
}

// ExecuteSessionReward applies an accepted session's resource deltas to the
// locked player. The caller (the settlement orchestrator) already holds the
// player lock and owns the transaction; the settlement event is emitted by
// the orchestrator alongside the session-status write.
func (e *Engine) ExecuteSessionReward(ctx context.Context, tx pgx.Tx, player *domain.Player, params SessionRewardParams) (*domain.Player, domain.ResourceDelta, error) {
	delta := BuildSessionRewardDelta(params)
	updated, err := e.ApplyDelta(ctx, tx, player, delta)
	if err != nil {
		return nil, domain.ResourceDelta{}, fmt.Errorf("session %s reward: %w", params.SessionID, err)
	}
	return updated, delta, nil
}
