package adreward

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/puzzlerush/platform/internal/domain"
	"github.com/puzzlerush/platform/internal/ledger"
)

// Service verifies SSV callbacks and credits the reward through the ledger.
type Service struct {
	pool     *pgxpool.Pool
	engine   *ledger.Engine
	verifier *Verifier
	logger   *slog.Logger
}

// NewService creates an ad reward service.
func NewService(pool *pgxpool.Pool, engine *ledger.Engine, verifier *Verifier, logger *slog.Logger) *Service {
	return &Service{pool: pool, engine: engine, verifier: verifier, logger: logger}
}

// HandleCallback verifies a raw SSV callback query and credits the reward.
// The ad network retries callbacks, so the transaction id dedupe in the
// ledger makes this safe to call repeatedly with the same payload.
func (s *Service) HandleCallback(ctx context.Context, rawQuery string) (*ledger.AdRewardResult, error) {
	payload, err := s.verifier.Verify(rawQuery)
	if err != nil {
		s.logger.Warn("ssv verification failed", "error", err)
		return nil, err
	}

	playerID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return nil, domain.ErrValidation("user_id is not a valid player id")
	}
	if payload.RewardAmount <= 0 {
		return nil, domain.ErrValidation("reward_amount must be positive")
	}

	var result *ledger.AdRewardResult
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		result, err = s.engine.ExecuteAdReward(ctx, tx, ledger.AdRewardParams{
			PlayerID:      playerID,
			TransactionID: payload.TransactionID,
			Amount:        payload.RewardAmount,
			KeyID:         payload.KeyID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ad reward credited",
		"player_id", playerID,
		"transaction_id", payload.TransactionID,
		"amount", payload.RewardAmount,
		"idempotent", result.Idempotent,
	)
	return result, nil
}
