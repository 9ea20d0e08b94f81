package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/puzzlerush/platform/internal/domain"
	"github.com/puzzlerush/platform/internal/repository"
)

// pgLockNotAvailable is raised when lock_timeout expires while waiting for the
// player row lock.
const pgLockNotAvailable = "55P03"

// Engine is the only path permitted to mutate player balances and item
// quantities. It provides:
//  1. LockPlayerForUpdate — row-level pessimistic lock, per-player serialization
//  2. ApplyDelta — all-or-nothing resource delta against the locked snapshot
// plus the purchase / session-reward / ad-reward commands built on them.
type Engine struct {
	players     repository.PlayerRepository
	inventory   repository.InventoryRepository
	adRewards   repository.AdRewardRepository
	outbox      repository.OutboxRepository
	lockTimeout time.Duration
}

// NewEngine creates a ledger engine with the given repositories. lockTimeout
// bounds how long any engine command waits for the player row lock.
func NewEngine(
	players repository.PlayerRepository,
	inventory repository.InventoryRepository,
	adRewards repository.AdRewardRepository,
	outbox repository.OutboxRepository,
	lockTimeout time.Duration,
) *Engine {
	return &Engine{
		players:     players,
		inventory:   inventory,
		adRewards:   adRewards,
		outbox:      outbox,
		lockTimeout: lockTimeout,
	}
}

// LockPlayerForUpdate acquires a row-level lock and returns the player. The
// engine sets lock_timeout on the transaction first, so a contended lock fails
// with the retryable LOCK_TIMEOUT error instead of blocking indefinitely.
func (e *Engine) LockPlayerForUpdate(ctx context.Context, tx pgx.Tx, playerID uuid.UUID) (*domain.Player, error) {
	if e.lockTimeout > 0 {
		_, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", e.lockTimeout.Milliseconds()))
		if err != nil {
			return nil, fmt.Errorf("set lock_timeout: %w", err)
		}
	}

	player, err := e.players.LockForUpdate(ctx, tx, playerID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
			return nil, domain.ErrLockTimeout()
		}
		return nil, fmt.Errorf("lock player: %w", err)
	}
	if player == nil {
		return nil, domain.ErrNotFound("player", playerID.String())
	}
	return player, nil
}

// variantKey identifies one inventory slot.
type variantKey struct {
	Type    domain.ItemType
	Variant domain.ItemVariant
}

// CheckDelta validates a resource delta against a balance snapshot. Every
// resulting balance must be >= 0; if any single component would violate that,
// the whole delta is rejected and nothing may be applied.
func CheckDelta(points int64, items []domain.InventoryItem, delta domain.ResourceDelta) error {
	if points+delta.Points < 0 {
		return domain.ErrInsufficientQuantity("points")
	}

	quantities := make(map[variantKey]int64, len(items))
	for _, it := range items {
		quantities[variantKey{it.Type, it.Variant}] = it.Quantity
	}
	for _, d := range delta.Items {
		key := variantKey{d.Type, d.Variant}
		quantities[key] += d.Quantity
		if quantities[key] < 0 {
			return domain.ErrInsufficientQuantity(fmt.Sprintf("%s/%s", d.Type, d.Variant))
		}
	}
	return nil
}

// ApplyDelta applies a resource delta to the locked player as a single
// all-or-nothing unit and returns the updated player.
//
// Steps:
//  1. Validate the delta against the locked snapshot (CheckDelta)
//  2. Update the point balance with server-side arithmetic
//  3. Apply each item delta
//
// All writes run within the caller's transaction, so a failure at any step
// rolls back the whole unit.
func (e *Engine) ApplyDelta(ctx context.Context, tx pgx.Tx, player *domain.Player, delta domain.ResourceDelta) (*domain.Player, error) {
	items, err := e.inventory.Quantities(ctx, tx, player.ID)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}
	if err := CheckDelta(player.Points, items, delta); err != nil {
		return nil, err
	}

	updated := player
	if delta.Points != 0 {
		updated, err = e.players.AddPoints(ctx, tx, player.ID, delta.Points)
		if err != nil {
			return nil, fmt.Errorf("apply points delta: %w", err)
		}
	}
	for _, d := range delta.Items {
		if d.Quantity == 0 {
			continue
		}
		if _, err := e.inventory.ApplyDelta(ctx, tx, player.ID, d); err != nil {
			return nil, fmt.Errorf("apply item delta %s/%s: %w", d.Type, d.Variant, err)
		}
	}
	return updated, nil
}
