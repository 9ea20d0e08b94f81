package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/puzzlerush/platform/internal/domain"
)

type sessionRepo struct{}

// NewSessionRepository returns a pgx-backed SessionRepository.
func NewSessionRepository() SessionRepository {
	return &sessionRepo{}
}

const sessionColumns = `id, player_id, seed, declared_score, duration_ms, telemetry, status, result, started_at, submitted_at, settled_at`

func (r *sessionRepo) Find(ctx context.Context, db DBTX, playerID uuid.UUID, sessionID string) (*domain.GameSession, error) {
	row := db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM game_sessions WHERE player_id = $1 AND id = $2`, playerID, sessionID)
	return scanSession(row)
}

func (r *sessionRepo) Insert(ctx context.Context, db DBTX, session *domain.GameSession) error {
	telemetry, err := json.Marshal(session.Telemetry)
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}
	_, err = db.Exec(ctx, `
		INSERT INTO game_sessions (id, player_id, seed, declared_score, duration_ms, telemetry, status, started_at, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		session.ID,
		session.PlayerID,
		session.Seed,
		session.DeclaredScore,
		session.Duration.Milliseconds(),
		telemetry,
		string(session.Status),
		session.StartedAt,
		session.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *sessionRepo) MarkSettled(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, sessionID string, status domain.SessionStatus, result []byte) error {
	tag, err := tx.Exec(ctx, `
		UPDATE game_sessions
		SET status = $1, result = $2, settled_at = now()
		WHERE player_id = $3 AND id = $4 AND status = 'pending'`,
		string(status), result, playerID, sessionID)
	if err != nil {
		return fmt.Errorf("mark session settled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Another settlement committed first; the idempotency read wins.
		return domain.ErrReplayedSession(sessionID)
	}
	return nil
}

func (r *sessionRepo) ListRecentAccepted(ctx context.Context, db DBTX, playerID uuid.UUID, limit int) ([]domain.GameSession, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	rows, err := db.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM game_sessions
		WHERE player_id = $1 AND status = 'accepted'
		ORDER BY settled_at DESC
		LIMIT $2`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

func (r *sessionRepo) ExpireStalePending(ctx context.Context, db DBTX, cutoff time.Time) ([]domain.GameSession, error) {
	rows, err := db.Query(ctx, `
		UPDATE game_sessions
		SET status = 'expired', settled_at = now()
		WHERE status = 'pending' AND submitted_at < $1
		RETURNING `+sessionColumns, cutoff)
	if err != nil {
		return nil, fmt.Errorf("expire stale sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

func collectSessions(rows pgx.Rows) ([]domain.GameSession, error) {
	var sessions []domain.GameSession
	for rows.Next() {
		s, err := scanSessionFrom(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func scanSession(row pgx.Row) (*domain.GameSession, error) {
	s, err := scanSessionFrom(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func scanSessionFrom(row pgx.Row) (*domain.GameSession, error) {
	var s domain.GameSession
	var durationMs int64
	var telemetry []byte
	var status string
	err := row.Scan(&s.ID, &s.PlayerID, &s.Seed, &s.DeclaredScore, &durationMs,
		&telemetry, &status, &s.Result, &s.StartedAt, &s.SubmittedAt, &s.SettledAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	s.Duration = time.Duration(durationMs) * time.Millisecond
	s.Status = domain.SessionStatus(status)
	if len(telemetry) > 0 {
		if err := json.Unmarshal(telemetry, &s.Telemetry); err != nil {
			return nil, fmt.Errorf("unmarshal telemetry: %w", err)
		}
	}
	return &s, nil
}
