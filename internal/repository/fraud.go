package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/puzzlerush/platform/internal/domain"
)

type fraudRepo struct{}

// NewFraudRepository returns a pgx-backed FraudRepository. The table is
// append-only: no update or delete paths exist.
func NewFraudRepository() FraudRepository {
	return &fraudRepo{}
}

func (r *fraudRepo) Insert(ctx context.Context, db DBTX, attempt *domain.FraudAttempt) error {
	_, err := db.Exec(ctx, `
		INSERT INTO fraud_attempts (id, player_id, reason, session_snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		attempt.ID,
		attempt.PlayerID,
		string(attempt.Reason),
		attempt.SessionSnapshot,
		attempt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert fraud attempt: %w", err)
	}
	return nil
}

func (r *fraudRepo) ListByPlayer(ctx context.Context, db DBTX, playerID uuid.UUID, limit int) ([]domain.FraudAttempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := db.Query(ctx, `
		SELECT id, player_id, reason, session_snapshot, created_at
		FROM fraud_attempts
		WHERE player_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list fraud attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.FraudAttempt
	for rows.Next() {
		var a domain.FraudAttempt
		var reason string
		if err := rows.Scan(&a.ID, &a.PlayerID, &reason, &a.SessionSnapshot, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan fraud attempt: %w", err)
		}
		a.Reason = domain.FraudReason(reason)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
