package streak

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/puzzlerush/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func challenge(playerID uuid.UUID, length int, last time.Time) *domain.StreakChallenge {
	return &domain.StreakChallenge{
		PlayerID:         playerID,
		Length:           length,
		LastQualifyingAt: &last,
	}
}

func TestAdvance_FirstSessionStartsStreak(t *testing.T) {
	tr := NewTracker(24 * time.Hour)
	playerID := uuid.New()

	next := tr.Advance(nil, playerID, base)

	assert.Equal(t, playerID, next.PlayerID)
	assert.Equal(t, 1, next.Length)
	require.NotNil(t, next.LastQualifyingAt)
	assert.Equal(t, base, *next.LastQualifyingAt)
}

func TestAdvance_NilTimestampTreatedAsFirst(t *testing.T) {
	tr := NewTracker(24 * time.Hour)
	playerID := uuid.New()

	next := tr.Advance(&domain.StreakChallenge{PlayerID: playerID}, playerID, base)

	assert.Equal(t, 1, next.Length)
	require.NotNil(t, next.LastQualifyingAt)
	assert.Equal(t, base, *next.LastQualifyingAt)
}

func TestAdvance_WithinGraceIncrements(t *testing.T) {
	tr := NewTracker(24 * time.Hour)
	playerID := uuid.New()

	next := tr.Advance(challenge(playerID, 3, base), playerID, base.Add(20*time.Hour))

	assert.Equal(t, 4, next.Length)
	assert.Equal(t, base.Add(20*time.Hour), *next.LastQualifyingAt)
}

func TestAdvance_ExactlyAtGraceIncrements(t *testing.T) {
	tr := NewTracker(24 * time.Hour)
	playerID := uuid.New()

	next := tr.Advance(challenge(playerID, 5, base), playerID, base.Add(24*time.Hour))

	assert.Equal(t, 6, next.Length)
}

func TestAdvance_BeyondGraceResets(t *testing.T) {
	tr := NewTracker(24 * time.Hour)
	playerID := uuid.New()

	next := tr.Advance(challenge(playerID, 7, base), playerID, base.Add(30*time.Hour))

	assert.Equal(t, 1, next.Length)
	assert.Equal(t, base.Add(30*time.Hour), *next.LastQualifyingAt)
}

func TestAdvance_OutOfOrderSessionIsNoOp(t *testing.T) {
	tr := NewTracker(24 * time.Hour)
	playerID := uuid.New()
	current := challenge(playerID, 4, base)

	t.Run("earlier completion", func(t *testing.T) {
		next := tr.Advance(current, playerID, base.Add(-time.Hour))
		assert.Equal(t, 4, next.Length)
		assert.Equal(t, base, *next.LastQualifyingAt)
	})

	t.Run("identical completion", func(t *testing.T) {
		next := tr.Advance(current, playerID, base)
		assert.Equal(t, 4, next.Length)
		assert.Equal(t, base, *next.LastQualifyingAt)
	})
}

func TestAdvance_TimestampNeverMovesBackward(t *testing.T) {
	tr := NewTracker(24 * time.Hour)
	playerID := uuid.New()

	state := tr.Advance(nil, playerID, base)
	for _, d := range []time.Duration{6 * time.Hour, 3 * time.Hour, 12 * time.Hour, 40 * time.Hour} {
		next := tr.Advance(&state, playerID, base.Add(d))
		require.NotNil(t, next.LastQualifyingAt)
		assert.False(t, next.LastQualifyingAt.Before(*state.LastQualifyingAt))
		state = next
	}
}
