package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/puzzlerush/platform/internal/domain"
)

type streakRepo struct{}

// NewStreakRepository returns a pgx-backed StreakRepository.
func NewStreakRepository() StreakRepository {
	return &streakRepo{}
}

func (r *streakRepo) Find(ctx context.Context, db DBTX, playerID uuid.UUID) (*domain.StreakChallenge, error) {
	row := db.QueryRow(ctx, `
		SELECT player_id, length, last_qualifying_at, updated_at
		FROM streak_challenges WHERE player_id = $1`, playerID)

	var c domain.StreakChallenge
	err := row.Scan(&c.PlayerID, &c.Length, &c.LastQualifyingAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan streak challenge: %w", err)
	}
	return &c, nil
}

func (r *streakRepo) Upsert(ctx context.Context, tx pgx.Tx, challenge *domain.StreakChallenge) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO streak_challenges (player_id, length, last_qualifying_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (player_id) DO UPDATE
		SET length = EXCLUDED.length,
		    last_qualifying_at = EXCLUDED.last_qualifying_at,
		    updated_at = now()`,
		challenge.PlayerID, challenge.Length, challenge.LastQualifyingAt)
	if err != nil {
		return fmt.Errorf("upsert streak challenge: %w", err)
	}
	return nil
}
