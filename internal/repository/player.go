package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/puzzlerush/platform/internal/domain"
	"github.com/puzzlerush/platform/internal/infra"
)

type playerRepo struct{}

// NewPlayerRepository returns a pgx-backed PlayerRepository.
func NewPlayerRepository() PlayerRepository {
	return &playerRepo{}
}

const playerColumns = `id, google_id, nickname, referral_code, photo_uri, wallet_address, points, retired, created_at, updated_at`

func (r *playerRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Player, error) {
	row := db.QueryRow(ctx, `
		SELECT `+playerColumns+`
		FROM players WHERE id = $1`, id)
	return scanPlayer(row)
}

func (r *playerRepo) FindByGoogleID(ctx context.Context, db DBTX, googleID string) (*domain.Player, error) {
	row := db.QueryRow(ctx, `
		SELECT `+playerColumns+`
		FROM players WHERE google_id = $1`, googleID)
	return scanPlayer(row)
}

func (r *playerRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Player, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+playerColumns+`
		FROM players WHERE id = $1 FOR UPDATE`, id)
	return scanPlayer(row)
}

func (r *playerRepo) Create(ctx context.Context, db DBTX, player *domain.Player) error {
	_, err := db.Exec(ctx, `
		INSERT INTO players (id, google_id, nickname, referral_code, photo_uri, wallet_address, points, retired, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		player.ID,
		player.GoogleID,
		player.Nickname,
		player.ReferralCode,
		player.PhotoURI,
		player.WalletAddress,
		infra.Int64ToNumeric(player.Points),
		player.Retired,
		player.CreatedAt,
		player.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

// AddPoints uses server-side arithmetic so the delta applies against the
// locked row, not a stale client-side read.
func (r *playerRepo) AddPoints(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, delta int64) (*domain.Player, error) {
	row := tx.QueryRow(ctx, `
		UPDATE players SET points = points + $1, updated_at = now()
		WHERE id = $2
		RETURNING `+playerColumns, infra.Int64ToNumeric(delta), playerID)
	return scanPlayer(row)
}

func (r *playerRepo) UpdateWallet(ctx context.Context, db DBTX, playerID uuid.UUID, walletAddress string) (*domain.Player, error) {
	row := db.QueryRow(ctx, `
		UPDATE players SET wallet_address = $1, updated_at = now()
		WHERE id = $2
		RETURNING `+playerColumns, walletAddress, playerID)
	return scanPlayer(row)
}

func scanPlayer(row pgx.Row) (*domain.Player, error) {
	var p domain.Player
	var pointsNum pgtype.Numeric
	err := row.Scan(&p.ID, &p.GoogleID, &p.Nickname, &p.ReferralCode, &p.PhotoURI,
		&p.WalletAddress, &pointsNum, &p.Retired, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan player: %w", err)
	}

	p.Points, err = infra.NumericToInt64(pointsNum)
	if err != nil {
		return nil, fmt.Errorf("convert points: %w", err)
	}
	return &p, nil
}
