package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/puzzlerush/platform/internal/domain"
	"github.com/puzzlerush/platform/internal/fraud"
	"github.com/puzzlerush/platform/internal/guard"
	"github.com/puzzlerush/platform/internal/ledger"
	"github.com/puzzlerush/platform/internal/repository"
	"github.com/puzzlerush/platform/internal/streak"
)

// Config holds orchestrator tuning.
type Config struct {
	// PointsPerScore converts declared score into ledger points.
	PointsPerScore int64
	// HistoryLimit is how many recent accepted sessions feed the fraud
	// evaluator's history heuristics.
	HistoryLimit int
}

// Orchestrator drives a submitted session through the settlement pipeline:
// seed check, idempotency check, fraud evaluation, then either fraud
// recording or the ledger and streak writes. Everything that persists runs in
// one transaction under the player row lock, so a session either fully
// settles or leaves no trace.
type Orchestrator struct {
	pool      *pgxpool.Pool
	engine    *ledger.Engine
	evaluator *fraud.Evaluator
	tracker   *streak.Tracker
	sessions  repository.SessionRepository
	frauds    repository.FraudRepository
	streaks   repository.StreakRepository
	outbox    repository.OutboxRepository
	inFlight  *guard.InFlightGuard
	cfg       Config
	logger    *slog.Logger
}

// NewOrchestrator creates a settlement orchestrator.
func NewOrchestrator(
	pool *pgxpool.Pool,
	engine *ledger.Engine,
	evaluator *fraud.Evaluator,
	tracker *streak.Tracker,
	sessions repository.SessionRepository,
	frauds repository.FraudRepository,
	streaks repository.StreakRepository,
	outbox repository.OutboxRepository,
	cfg Config,
	logger *slog.Logger,
) *Orchestrator {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	return &Orchestrator{
		pool:      pool,
		engine:    engine,
		evaluator: evaluator,
		tracker:   tracker,
		sessions:  sessions,
		frauds:    frauds,
		streaks:   streaks,
		outbox:    outbox,
		inFlight:  guard.NewInFlightGuard(),
		cfg:       cfg,
		logger:    logger,
	}
}

// SubmitSession settles a completed session. Duplicate submissions of an
// already-settled session id return the stored result unchanged with the
// Replayed flag set; they never touch the ledger again.
func (o *Orchestrator) SubmitSession(ctx context.Context, params domain.SubmitSessionParams) (*domain.SettlementResult, error) {
	if params.DeclaredScore < 0 {
		return nil, domain.ErrValidation("declared_score must be >= 0")
	}

	if err := guard.VerifySeed(params.SessionID, params.Seed); err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) && appErr.Code == "INVALID_SEED" {
			return o.rejectInvalidSeed(ctx, params)
		}
		return nil, err
	}

	if res := o.inFlight.Begin(ctx, params.SessionID); !res.Allowed {
		return nil, domain.ErrConflict(res.Reason)
	}
	defer o.inFlight.Finish(params.SessionID)

	var result *domain.SettlementResult
	err := pgx.BeginTxFunc(ctx, o.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		player, err := o.engine.LockPlayerForUpdate(ctx, tx, params.PlayerID)
		if err != nil {
			return err
		}

		session, err := o.sessions.Find(ctx, tx, params.PlayerID, params.SessionID)
		if err != nil {
			return fmt.Errorf("find session: %w", err)
		}
		if session != nil && session.Settled() {
			result, err = storedResult(session)
			return err
		}
		if session == nil {
			session = newSession(params)
			if err := o.sessions.Insert(ctx, tx, session); err != nil {
				return fmt.Errorf("insert session: %w", err)
			}
		}

		history, err := o.sessions.ListRecentAccepted(ctx, tx, params.PlayerID, o.cfg.HistoryLimit)
		if err != nil {
			return fmt.Errorf("load session history: %w", err)
		}

		verdict := o.evaluator.Evaluate(session, history)
		if !verdict.Clean {
			result, err = o.recordRejection(ctx, tx, session, verdict.Reason)
			return err
		}

		result, err = o.accept(ctx, tx, player, session, params)
		return err
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info("session settled",
		"session_id", params.SessionID,
		"player_id", params.PlayerID,
		"status", result.Status,
		"replayed", result.Replayed,
	)
	return result, nil
}

// SessionResult returns the stored settlement result for an already-submitted
// session.
func (o *Orchestrator) SessionResult(ctx context.Context, playerID uuid.UUID, sessionID string) (*domain.SettlementResult, error) {
	session, err := o.sessions.Find(ctx, o.pool, playerID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if session == nil {
		return nil, domain.ErrNotFound("session", sessionID)
	}
	if !session.Settled() {
		return &domain.SettlementResult{SessionID: sessionID, Status: domain.SessionPending}, nil
	}
	return storedResult(session)
}

// rejectInvalidSeed persists the rejection and fraud attempt for a session
// whose seed fails the binding check. No player lock is taken: nothing about
// the balance changes. The caller still receives the 422 seed error.
func (o *Orchestrator) rejectInvalidSeed(ctx context.Context, params domain.SubmitSessionParams) (*domain.SettlementResult, error) {
	err := pgx.BeginTxFunc(ctx, o.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		existing, err := o.sessions.Find(ctx, tx, params.PlayerID, params.SessionID)
		if err != nil {
			return fmt.Errorf("find session: %w", err)
		}
		if existing != nil && existing.Settled() {
			return nil
		}
		if existing == nil {
			if err := o.sessions.Insert(ctx, tx, newSession(params)); err != nil {
				return fmt.Errorf("insert session: %w", err)
			}
		}
		_, err = o.recordRejection(ctx, tx, newSession(params), domain.FraudInvalidSeed)
		return err
	})
	if err != nil {
		o.logger.Error("record invalid-seed rejection", "session_id", params.SessionID, "error", err)
	}
	return nil, domain.ErrInvalidSeed(params.SessionID)
}

// recordRejection writes the fraud attempt, marks the session rejected with
// the stored result snapshot, and queues the rejection events. Runs in the
// caller's transaction.
func (o *Orchestrator) recordRejection(ctx context.Context, tx pgx.Tx, session *domain.GameSession, reason domain.FraudReason) (*domain.SettlementResult, error) {
	snapshot, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session snapshot: %w", err)
	}
	attempt := &domain.FraudAttempt{
		ID:              uuid.New(),
		PlayerID:        session.PlayerID,
		Reason:          reason,
		SessionSnapshot: snapshot,
		CreatedAt:       time.Now(),
	}
	if err := o.frauds.Insert(ctx, tx, attempt); err != nil {
		return nil, fmt.Errorf("insert fraud attempt: %w", err)
	}

	result := &domain.SettlementResult{
		SessionID: session.ID,
		Status:    domain.SessionRejected,
		Reason:    reason,
		FraudID:   &attempt.ID,
	}
	if err := o.storeResult(ctx, tx, session, result); err != nil {
		return nil, err
	}

	if err := o.outbox.Insert(ctx, tx, domain.NewFraudRecordedEvent(attempt)); err != nil {
		return nil, fmt.Errorf("queue fraud event: %w", err)
	}
	if err := o.outbox.Insert(ctx, tx, domain.NewSettlementRejectedEvent(session.ID, session.PlayerID, reason)); err != nil {
		return nil, fmt.Errorf("queue rejection event: %w", err)
	}
	return result, nil
}

// accept applies the session's rewards, advances the streak, and marks the
// session accepted. The player row lock is already held.
func (o *Orchestrator) accept(ctx context.Context, tx pgx.Tx, player *domain.Player, session *domain.GameSession, params domain.SubmitSessionParams) (*domain.SettlementResult, error) {
	updated, applied, err := o.engine.ExecuteSessionReward(ctx, tx, player, ledger.SessionRewardParams{
		PlayerID:         session.PlayerID,
		SessionID:        session.ID,
		Points:           session.DeclaredScore * o.cfg.PointsPerScore,
		PowerUpsConsumed: session.Telemetry.PowerUpsUsed,
	})
	if err != nil {
		return nil, err
	}

	current, err := o.streaks.Find(ctx, tx, session.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("find streak: %w", err)
	}
	next := o.tracker.Advance(current, session.PlayerID, sessionEnd(session))
	if err := o.streaks.Upsert(ctx, tx, &next); err != nil {
		return nil, fmt.Errorf("upsert streak: %w", err)
	}

	settlement := &domain.RewardSettlement{
		SessionID:     session.ID,
		PlayerID:      session.PlayerID,
		WalletAddress: updated.WalletAddress,
		TournamentID:  params.TournamentID,
		Score:         session.DeclaredScore,
		Applied:       applied,
		NewStreak:     next.Length,
	}
	result := &domain.SettlementResult{
		SessionID:  session.ID,
		Status:     domain.SessionAccepted,
		Settlement: settlement,
	}
	if err := o.storeResult(ctx, tx, session, result); err != nil {
		return nil, err
	}

	if err := o.outbox.Insert(ctx, tx, domain.NewSettlementAcceptedEvent(settlement)); err != nil {
		return nil, fmt.Errorf("queue acceptance event: %w", err)
	}
	return result, nil
}

func (o *Orchestrator) storeResult(ctx context.Context, tx pgx.Tx, session *domain.GameSession, result *domain.SettlementResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal settlement result: %w", err)
	}
	if err := o.sessions.MarkSettled(ctx, tx, session.PlayerID, session.ID, result.Status, raw); err != nil {
		return fmt.Errorf("mark settled: %w", err)
	}
	return nil
}

// newSession builds the pending session row from a submission.
func newSession(params domain.SubmitSessionParams) *domain.GameSession {
	return &domain.GameSession{
		ID:            params.SessionID,
		PlayerID:      params.PlayerID,
		Seed:          params.Seed,
		DeclaredScore: params.DeclaredScore,
		Duration:      params.Duration,
		Telemetry:     params.Telemetry,
		Status:        domain.SessionPending,
		StartedAt:     params.StartedAt,
		SubmittedAt:   time.Now(),
	}
}

// sessionEnd derives the completion timestamp the streak tracker keys on.
func sessionEnd(session *domain.GameSession) time.Time {
	if !session.StartedAt.IsZero() {
		return session.StartedAt.Add(session.Duration)
	}
	return session.SubmittedAt
}

// storedResult unmarshals the result snapshot persisted on a settled session
// and flags it as a replay.
func storedResult(session *domain.GameSession) (*domain.SettlementResult, error) {
	if len(session.Result) == 0 {
		// Session was settled by the stale-session sweeper; no snapshot exists.
		return &domain.SettlementResult{
			SessionID: session.ID,
			Status:    session.Status,
			Replayed:  true,
		}, nil
	}
	var result domain.SettlementResult
	if err := json.Unmarshal(session.Result, &result); err != nil {
		return nil, fmt.Errorf("unmarshal stored result: %w", err)
	}
	result.Replayed = true
	return &result, nil
}
