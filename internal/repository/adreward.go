package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/puzzlerush/platform/internal/domain"
)

type adRewardRepo struct{}

// NewAdRewardRepository returns a pgx-backed AdRewardRepository.
func NewAdRewardRepository() AdRewardRepository {
	return &adRewardRepo{}
}

func (r *adRewardRepo) FindByTransactionID(ctx context.Context, db DBTX, transactionID string) (*domain.AdRewardCredit, error) {
	row := db.QueryRow(ctx, `
		SELECT id, player_id, transaction_id, amount, key_id
		FROM ad_reward_credits WHERE transaction_id = $1`, transactionID)

	var c domain.AdRewardCredit
	err := row.Scan(&c.ID, &c.PlayerID, &c.TransactionID, &c.Amount, &c.KeyID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan ad reward credit: %w", err)
	}
	return &c, nil
}

func (r *adRewardRepo) Insert(ctx context.Context, db DBTX, credit *domain.AdRewardCredit) error {
	_, err := db.Exec(ctx, `
		INSERT INTO ad_reward_credits (id, player_id, transaction_id, amount, key_id)
		VALUES ($1, $2, $3, $4, $5)`,
		credit.ID, credit.PlayerID, credit.TransactionID, credit.Amount, credit.KeyID)
	if err != nil {
		return fmt.Errorf("insert ad reward credit: %w", err)
	}
	return nil
}
