package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/puzzlerush/platform/internal/domain"
)

type inventoryRepo struct{}

// NewInventoryRepository returns a pgx-backed InventoryRepository.
func NewInventoryRepository() InventoryRepository {
	return &inventoryRepo{}
}

func (r *inventoryRepo) Quantities(ctx context.Context, db DBTX, playerID uuid.UUID) ([]domain.InventoryItem, error) {
	rows, err := db.Query(ctx, `
		SELECT player_id, item_type, variant, quantity, updated_at
		FROM inventory_items
		WHERE player_id = $1
		ORDER BY item_type, variant`, playerID)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		var it domain.InventoryItem
		var itemType, variant string
		if err := rows.Scan(&it.PlayerID, &itemType, &variant, &it.Quantity, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		it.Type = domain.ItemType(itemType)
		it.Variant = domain.ItemVariant(variant)
		items = append(items, it)
	}
	return items, rows.Err()
}

// ApplyDelta adjusts one variant with server-side arithmetic. The quantity
// CHECK constraint is a backstop; the ledger engine verifies against the
// locked snapshot first so violations surface as domain errors, not pg errors.
func (r *inventoryRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, delta domain.ItemDelta) (int64, error) {
	row := tx.QueryRow(ctx, `
		INSERT INTO inventory_items (player_id, item_type, variant, quantity, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (player_id, item_type, variant) DO UPDATE
		SET quantity = inventory_items.quantity + EXCLUDED.quantity,
		    updated_at = now()
		RETURNING quantity`,
		playerID, string(delta.Type), string(delta.Variant), delta.Quantity)

	var quantity int64
	if err := row.Scan(&quantity); err != nil {
		return 0, fmt.Errorf("apply inventory delta: %w", err)
	}
	return quantity, nil
}
