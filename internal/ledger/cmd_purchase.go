package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/puzzlerush/platform/internal/domain"
)

// maxPurchaseQuantity bounds a single purchase. The cap also keeps
// unitCost*quantity far from int64 overflow, where a wrapped cost would turn
// a debit into a credit.
const maxPurchaseQuantity = 10_000

// purchaseDelta builds the debit/credit pair for a purchase after bounds
// checks on the client-supplied quantity.
func purchaseDelta(params domain.PurchaseParams) (domain.ResourceDelta, error) {
	if err := domain.ValidatePositiveAmount(params.Quantity); err != nil {
		return domain.ResourceDelta{}, domain.ErrValidation(err.Error())
	}
	if params.Quantity > maxPurchaseQuantity {
		return domain.ResourceDelta{}, domain.ErrValidation(
			fmt.Sprintf("quantity %d exceeds the per-purchase maximum of %d", params.Quantity, maxPurchaseQuantity))
	}
	if err := domain.ValidatePositiveAmount(params.UnitCost); err != nil {
		return domain.ResourceDelta{}, domain.ErrValidation(err.Error())
	}

	return domain.ResourceDelta{
		Points: -params.UnitCost * params.Quantity,
		Items: []domain.ItemDelta{
			{Type: params.Type, Variant: params.Variant, Quantity: params.Quantity},
		},
	}, nil
}

// ExecutePurchase debits currency and credits inventory as one unit. A
// purchase that would drive the point balance negative fails with
// INSUFFICIENT_QUANTITY and leaves both balances untouched.
func (e *Engine) ExecutePurchase(ctx context.Context, tx pgx.Tx, params domain.PurchaseParams) (*domain.Player, domain.ResourceDelta, error) {
	if !domain.ValidItemVariant(params.Type, params.Variant) {
		return nil, domain.ResourceDelta{}, domain.ErrValidation(
			fmt.Sprintf("unknown variant %q for item type %q", params.Variant, params.Type))
	}
	delta, err := purchaseDelta(params)
	if err != nil {
		return nil, domain.ResourceDelta{}, err
	}

	player, err := e.LockPlayerForUpdate(ctx, tx, params.PlayerID)
	if err != nil {
		return nil, domain.ResourceDelta{}, err
	}

	updated, err := e.ApplyDelta(ctx, tx, player, delta)
	if err != nil {
		return nil, domain.ResourceDelta{}, err
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewPurchaseCompletedEvent(player.ID, delta)); err != nil {
		return nil, domain.ResourceDelta{}, fmt.Errorf("insert purchase event: %w", err)
	}

	return updated, delta, nil
}
