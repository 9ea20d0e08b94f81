package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/puzzlerush/platform/internal/domain"
	"github.com/puzzlerush/platform/internal/repository"
)

// PlayerService handles player profile reads and wallet linking.
type PlayerService struct {
	pool    *pgxpool.Pool
	players repository.PlayerRepository
	streaks repository.StreakRepository
	frauds  repository.FraudRepository
	logger  *slog.Logger
}

// NewPlayerService creates a PlayerService.
func NewPlayerService(pool *pgxpool.Pool, players repository.PlayerRepository, streaks repository.StreakRepository, frauds repository.FraudRepository, logger *slog.Logger) *PlayerService {
	return &PlayerService{pool: pool, players: players, streaks: streaks, frauds: frauds, logger: logger}
}

// Me returns the player's own profile.
func (s *PlayerService) Me(ctx context.Context, playerID uuid.UUID) (*domain.Player, error) {
	player, err := s.players.FindByID(ctx, s.pool, playerID)
	if err != nil {
		return nil, domain.ErrInternal("find player", err)
	}
	if player == nil {
		return nil, domain.ErrNotFound("player", playerID.String())
	}
	return player, nil
}

// Streak returns the player's streak record. Players who never settled an
// accepted session have no record and get STREAK_NOT_FOUND.
func (s *PlayerService) Streak(ctx context.Context, playerID uuid.UUID) (*domain.StreakChallenge, error) {
	streak, err := s.streaks.Find(ctx, s.pool, playerID)
	if err != nil {
		return nil, domain.ErrInternal("find streak", err)
	}
	if streak == nil {
		return nil, domain.ErrStreakNotFound(playerID.String())
	}
	return streak, nil
}

// LinkWallet stores the wallet address used for on-chain score submission.
func (s *PlayerService) LinkWallet(ctx context.Context, playerID uuid.UUID, walletAddress string) (*domain.Player, error) {
	if err := domain.ValidateWalletAddress(walletAddress); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	player, err := s.players.UpdateWallet(ctx, s.pool, playerID, walletAddress)
	if err != nil {
		return nil, domain.ErrInternal("update wallet", err)
	}
	if player == nil {
		return nil, domain.ErrNotFound("player", playerID.String())
	}

	s.logger.Info("wallet linked", "player_id", playerID)
	return player, nil
}

// FraudHistory returns the player's recorded fraud attempts, newest first.
func (s *PlayerService) FraudHistory(ctx context.Context, playerID uuid.UUID, limit int) ([]domain.FraudAttempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	attempts, err := s.frauds.ListByPlayer(ctx, s.pool, playerID, limit)
	if err != nil {
		return nil, domain.ErrInternal("list fraud attempts", err)
	}
	return attempts, nil
}
