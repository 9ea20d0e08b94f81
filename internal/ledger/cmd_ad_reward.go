package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/puzzlerush/platform/internal/domain"
)

// AdRewardParams holds a verified SSV credit. Verification (signature, key,
// freshness) happens before the ledger is involved.
type AdRewardParams struct {
	PlayerID      uuid.UUID
	TransactionID string
	Amount        int64
	KeyID         string
}

// AdRewardResult is the return value of ExecuteAdReward.
type AdRewardResult struct {
	Credit     *domain.AdRewardCredit
	Player     *domain.Player
	Idempotent bool // true if this was a replayed callback that returned the existing credit
}

// ExecuteAdReward credits a verified ad reward as a single positive delta.
// The ad network's transaction id is the idempotency key: a replayed callback
// returns the original credit without paying twice.
func (e *Engine) ExecuteAdReward(ctx context.Context, tx pgx.Tx, params AdRewardParams) (*AdRewardResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	player, err := e.LockPlayerForUpdate(ctx, tx, params.PlayerID)
	if err != nil {
		return nil, err
	}

	existing, err := e.adRewards.FindByTransactionID(ctx, tx, params.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("find existing ad reward: %w", err)
	}
	if existing != nil {
		return &AdRewardResult{Credit: existing, Player: player, Idempotent: true}, nil
	}

	updated, err := e.ApplyDelta(ctx, tx, player, domain.ResourceDelta{Points: params.Amount})
	if err != nil {
		return nil, err
	}

	credit := &domain.AdRewardCredit{
		ID:            uuid.New(),
		PlayerID:      params.PlayerID,
		TransactionID: params.TransactionID,
		Amount:        params.Amount,
		KeyID:         params.KeyID,
	}
	if err := e.adRewards.Insert(ctx, tx, credit); err != nil {
		return nil, fmt.Errorf("insert ad reward credit: %w", err)
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewAdRewardCreditedEvent(credit)); err != nil {
		return nil, fmt.Errorf("insert ad reward event: %w", err)
	}

	return &AdRewardResult{Credit: credit, Player: updated}, nil
}
