package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/puzzlerush/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PlayerRepository provides access to players.
type PlayerRepository interface {
	// FindByID returns a player by ID.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Player, error)

	// FindByGoogleID returns a player by external auth subject id.
	FindByGoogleID(ctx context.Context, db DBTX, googleID string) (*domain.Player, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) and returns
	// the player. The caller's transaction must set lock_timeout so contended
	// locks fail fast instead of blocking indefinitely.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Player, error)

	// Create inserts a new player.
	Create(ctx context.Context, db DBTX, player *domain.Player) error

	// AddPoints atomically adjusts the point balance using server-side
	// arithmetic and returns the updated row. The non-negative check happens
	// in the ledger engine against the locked snapshot before this runs.
	AddPoints(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, delta int64) (*domain.Player, error)

	// UpdateWallet sets the player's linked wallet address.
	UpdateWallet(ctx context.Context, db DBTX, playerID uuid.UUID, walletAddress string) (*domain.Player, error)
}

// SessionRepository provides access to game_sessions.
type SessionRepository interface {
	// Find returns a session by player and session id. The pair is the
	// idempotency key.
	Find(ctx context.Context, db DBTX, playerID uuid.UUID, sessionID string) (*domain.GameSession, error)

	// Insert creates a pending session row.
	Insert(ctx context.Context, db DBTX, session *domain.GameSession) error

	// MarkSettled writes the terminal status and result snapshot. The write
	// happens inside the same transaction as the ledger mutation, so a crash
	// mid-pipeline cannot leave a session half-applied.
	MarkSettled(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, sessionID string, status domain.SessionStatus, result []byte) error

	// ListRecentAccepted returns the player's most recent accepted sessions,
	// newest first, for fraud-history heuristics.
	ListRecentAccepted(ctx context.Context, db DBTX, playerID uuid.UUID, limit int) ([]domain.GameSession, error)

	// ExpireStalePending marks pending sessions submitted before cutoff as
	// expired and returns the affected sessions.
	ExpireStalePending(ctx context.Context, db DBTX, cutoff time.Time) ([]domain.GameSession, error)
}

// FraudRepository provides access to fraud_attempts (append-only).
type FraudRepository interface {
	// Insert writes an immutable fraud attempt record.
	Insert(ctx context.Context, db DBTX, attempt *domain.FraudAttempt) error

	// ListByPlayer returns a player's fraud attempts, newest first.
	ListByPlayer(ctx context.Context, db DBTX, playerID uuid.UUID, limit int) ([]domain.FraudAttempt, error)
}

// StreakRepository provides access to streak_challenges.
type StreakRepository interface {
	// Find returns the player's streak record, or nil if none exists yet.
	Find(ctx context.Context, db DBTX, playerID uuid.UUID) (*domain.StreakChallenge, error)

	// Upsert writes the streak record within the settlement transaction.
	Upsert(ctx context.Context, tx pgx.Tx, challenge *domain.StreakChallenge) error
}

// InventoryRepository provides access to inventory_items.
type InventoryRepository interface {
	// Quantities returns the player's current per-variant quantities. Callers
	// holding the player row lock observe a consistent snapshot.
	Quantities(ctx context.Context, db DBTX, playerID uuid.UUID) ([]domain.InventoryItem, error)

	// ApplyDelta adjusts one variant's quantity with server-side arithmetic,
	// inserting the row if absent. Returns the updated quantity.
	ApplyDelta(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, delta domain.ItemDelta) (int64, error)
}

// AdRewardRepository provides access to ad_reward_credits.
type AdRewardRepository interface {
	// FindByTransactionID checks the SSV idempotency index for a duplicate
	// credit. Returns nil if none found.
	FindByTransactionID(ctx context.Context, db DBTX, transactionID string) (*domain.AdRewardCredit, error)

	// Insert records a verified credit.
	Insert(ctx context.Context, db DBTX, credit *domain.AdRewardCredit) error
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the
	// mutation it describes).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error
}
