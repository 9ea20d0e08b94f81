package guard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/puzzlerush/platform/internal/domain"
	"github.com/puzzlerush/platform/internal/repository"
)

// SessionSweeper expires pending game sessions that were never settled, so
// abandoned submissions cannot linger as open idempotency slots forever.
type SessionSweeper struct {
	pool     *pgxpool.Pool
	sessions repository.SessionRepository
	outbox   repository.OutboxRepository
	maxAge   time.Duration
	interval time.Duration
	logger   *slog.Logger
}

// NewSessionSweeper creates a sweeper for pending sessions older than maxAge.
func NewSessionSweeper(pool *pgxpool.Pool, sessions repository.SessionRepository, outbox repository.OutboxRepository, maxAge time.Duration, logger *slog.Logger) *SessionSweeper {
	return &SessionSweeper{
		pool:     pool,
		sessions: sessions,
		outbox:   outbox,
		maxAge:   maxAge,
		interval: time.Minute,
		logger:   logger,
	}
}

// Start schedules the sweep on a fixed interval. The returned scheduler is
// already running; the caller shuts it down on exit.
func (s *SessionSweeper) Start(ctx context.Context) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			if err := s.sweep(ctx); err != nil {
				s.logger.Error("session sweep failed", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule sweep job: %w", err)
	}

	sched.Start()
	s.logger.Info("session sweeper started", "interval", s.interval, "max_age", s.maxAge)
	return sched, nil
}

func (s *SessionSweeper) sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-s.maxAge)
	expired, err := s.sessions.ExpireStalePending(ctx, s.pool, cutoff)
	if err != nil {
		return err
	}
	for _, session := range expired {
		if err := s.outbox.Insert(ctx, s.pool, domain.NewSessionExpiredEvent(session.ID, session.PlayerID)); err != nil {
			s.logger.Error("record session expiry event", "session_id", session.ID, "error", err)
		}
	}
	if len(expired) > 0 {
		s.logger.Info("expired stale pending sessions", "count", len(expired))
	}
	return nil
}
