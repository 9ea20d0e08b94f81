package streak

import (
	"time"

	"github.com/google/uuid"
	"github.com/puzzlerush/platform/internal/domain"
)

// Tracker advances a player's daily streak from accepted session timestamps.
// It is pure: the orchestrator loads the current state inside its settlement
// transaction, calls Advance, and persists whatever comes back.
type Tracker struct {
	graceWindow time.Duration
}

// NewTracker creates a tracker with the given grace window between
// qualifying sessions.
func NewTracker(graceWindow time.Duration) *Tracker {
	return &Tracker{graceWindow: graceWindow}
}

// Advance computes the next streak state for an accepted session completed at
// completedAt. current is nil for a player with no streak row yet.
//
// The streak increments when the gap since the last qualifying session is
// positive and within the grace window, resets to 1 when the gap exceeds it,
// and ignores sessions that arrive at or before the last qualifying
// timestamp, so out-of-order settlement of delayed submissions can never
// rewind an already-advanced streak.
func (t *Tracker) Advance(current *domain.StreakChallenge, playerID uuid.UUID, completedAt time.Time) domain.StreakChallenge {
	if current == nil || current.LastQualifyingAt == nil {
		return domain.StreakChallenge{
			PlayerID:         playerID,
			Length:           1,
			LastQualifyingAt: &completedAt,
		}
	}

	gap := completedAt.Sub(*current.LastQualifyingAt)
	switch {
	case gap <= 0:
		return *current
	case gap <= t.graceWindow:
		return domain.StreakChallenge{
			PlayerID:         current.PlayerID,
			Length:           current.Length + 1,
			LastQualifyingAt: &completedAt,
		}
	default:
		return domain.StreakChallenge{
			PlayerID:         current.PlayerID,
			Length:           1,
			LastQualifyingAt: &completedAt,
		}
	}
}
