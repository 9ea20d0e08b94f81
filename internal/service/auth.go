package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/puzzlerush/platform/internal/auth"
	"github.com/puzzlerush/platform/internal/domain"
	"github.com/puzzlerush/platform/internal/repository"
)

// AuthService handles Google sign-in. Accounts are created on first sign-in;
// there is no separate registration step.
type AuthService struct {
	pool    *pgxpool.Pool
	players repository.PlayerRepository
	outbox  repository.OutboxRepository
	jwtMgr  *auth.JWTManager
	logger  *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(pool *pgxpool.Pool, players repository.PlayerRepository, outbox repository.OutboxRepository, jwtMgr *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{pool: pool, players: players, outbox: outbox, jwtMgr: jwtMgr, logger: logger}
}

// SignInInput holds the sign-in request fields. GoogleID is the verified
// subject from the client's Google token.
type SignInInput struct {
	GoogleID     string `json:"google_id"`
	Nickname     string `json:"nickname,omitempty"`
	ReferralCode string `json:"referral_code,omitempty"`
	PhotoURI     string `json:"photo_uri,omitempty"`
}

// AuthResult is returned on successful sign-in.
type AuthResult struct {
	Token    string    `json:"token"`
	PlayerID uuid.UUID `json:"player_id"`
	Created  bool      `json:"created"`
	Points   int64     `json:"points"`
}

// SignIn finds or creates the player for a Google subject and issues a JWT.
func (s *AuthService) SignIn(ctx context.Context, input SignInInput) (*AuthResult, error) {
	if err := domain.ValidateGoogleID(input.GoogleID); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateNickname(input.Nickname); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateReferralCode(input.ReferralCode); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	player, err := s.players.FindByGoogleID(ctx, s.pool, input.GoogleID)
	if err != nil {
		return nil, domain.ErrInternal("find player", err)
	}

	created := false
	if player == nil {
		player, err = s.createPlayer(ctx, input)
		if err != nil {
			return nil, err
		}
		created = true
	}
	if player.Retired {
		return nil, domain.ErrUnauthorized("account is retired")
	}

	token, err := s.jwtMgr.GenerateToken(player.ID, player.GoogleID)
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}

	return &AuthResult{
		Token:    token,
		PlayerID: player.ID,
		Created:  created,
		Points:   player.Points,
	}, nil
}

func (s *AuthService) createPlayer(ctx context.Context, input SignInInput) (*domain.Player, error) {
	now := time.Now()
	player := &domain.Player{
		ID:        uuid.New(),
		GoogleID:  input.GoogleID,
		Nickname:  input.Nickname,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.ReferralCode != "" {
		player.ReferralCode = &input.ReferralCode
	}
	if input.PhotoURI != "" {
		player.PhotoURI = &input.PhotoURI
	}

	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		if err := s.players.Create(ctx, tx, player); err != nil {
			return err
		}
		return s.outbox.Insert(ctx, tx, domain.NewPlayerCreatedEvent(player.ID, player.GoogleID, player.Nickname))
	})
	if err != nil {
		// Concurrent first sign-ins race on the google_id unique index; the
		// loser re-reads the winner's row.
		existing, findErr := s.players.FindByGoogleID(ctx, s.pool, input.GoogleID)
		if findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, domain.ErrInternal("create player", err)
	}

	s.logger.Info("player created", "player_id", player.ID)
	return player, nil
}
