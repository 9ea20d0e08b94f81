package fraud

import (
	"math"
	"testing"
	"time"

	"github.com/puzzlerush/platform/internal/domain"
	"github.com/stretchr/testify/assert"
)

func testConfig() Config {
	return Config{
		MaxScorePerSecond:      150,
		MinSessionDuration:     10 * time.Second,
		MaxInputsPerSecond:     25,
		MacroSignatures:        []string{"deadbeefcafe"},
		HistoryScoreMultiplier: 10,
		HistoryMinSessions:     5,
	}
}

func session(score int64, duration time.Duration, inputs int) *domain.GameSession {
	return &domain.GameSession{
		ID:            "sess-1",
		DeclaredScore: score,
		Duration:      duration,
		Telemetry:     domain.TelemetrySummary{InputCount: inputs},
	}
}

func TestEvaluate_CleanSession(t *testing.T) {
	e := NewEvaluator(testConfig())
	// 60s session, 3000 points (50/s), 300 inputs (5/s)
	v := e.Evaluate(session(3000, time.Minute, 300), nil)
	assert.True(t, v.Clean)
	assert.Empty(t, v.Reason)
}

func TestEvaluate_ScoreRateExceeded(t *testing.T) {
	e := NewEvaluator(testConfig())
	// 30s session claiming 10000 points: 333/s against a 150/s ceiling.
	v := e.Evaluate(session(10000, 30*time.Second, 100), nil)
	assert.False(t, v.Clean)
	assert.Equal(t, domain.FraudScoreRate, v.Reason)
}

func TestEvaluate_ScoreRateBoundary(t *testing.T) {
	e := NewEvaluator(testConfig())
	// Exactly at the ceiling passes: 150/s * 10s = 1500.
	v := e.Evaluate(session(1500, 10*time.Second, 50), nil)
	assert.True(t, v.Clean)

	// One point over fails.
	v = e.Evaluate(session(1501, 10*time.Second, 50), nil)
	assert.Equal(t, domain.FraudScoreRate, v.Reason)
}

func TestEvaluate_DurationBelowMinimum(t *testing.T) {
	e := NewEvaluator(testConfig())
	v := e.Evaluate(session(100, 9*time.Second, 20), nil)
	assert.False(t, v.Clean)
	assert.Equal(t, domain.FraudShortDuration, v.Reason)
}

func TestEvaluate_InputRateImplausible(t *testing.T) {
	e := NewEvaluator(testConfig())
	// 60s session with 3000 inputs: 50/s against a 25/s ceiling.
	v := e.Evaluate(session(1000, time.Minute, 3000), nil)
	assert.False(t, v.Clean)
	assert.Equal(t, domain.FraudInputRate, v.Reason)
}

func TestEvaluate_MacroSignatureWinsOverOtherChecks(t *testing.T) {
	e := NewEvaluator(testConfig())
	s := session(999999, time.Second, 99999)
	s.Telemetry.PatternDigest = "deadbeefcafe"
	v := e.Evaluate(s, nil)
	assert.Equal(t, domain.FraudMacroSignature, v.Reason)
}

func TestEvaluate_UnknownDigestIgnored(t *testing.T) {
	e := NewEvaluator(testConfig())
	s := session(3000, time.Minute, 300)
	s.Telemetry.PatternDigest = "0000000000"
	assert.True(t, e.Evaluate(s, nil).Clean)
}

func TestEvaluate_HistoryMultiplier(t *testing.T) {
	e := NewEvaluator(testConfig())

	history := make([]domain.GameSession, 5)
	for i := range history {
		history[i] = domain.GameSession{DeclaredScore: 500}
	}

	t.Run("score within multiplier passes", func(t *testing.T) {
		v := e.Evaluate(session(5000, time.Minute, 300), history)
		assert.True(t, v.Clean)
	})

	t.Run("score beyond multiplier flagged", func(t *testing.T) {
		v := e.Evaluate(session(5001, time.Minute, 300), history)
		assert.Equal(t, domain.FraudHistoryAnomaly, v.Reason)
	})

	t.Run("insufficient history skips the check", func(t *testing.T) {
		v := e.Evaluate(session(5001, time.Minute, 300), history[:3])
		assert.True(t, v.Clean)
	})
}

func TestEvaluate_HugeScoreDoesNotWrapPastCeiling(t *testing.T) {
	e := NewEvaluator(Config{MaxScorePerSecond: 100})

	// Scaling a score this large by 1000 wraps int64 negative; the check must
	// still reject it.
	v := e.Evaluate(session(1<<60, time.Minute, 10), nil)
	assert.False(t, v.Clean)
	assert.Equal(t, domain.FraudScoreRate, v.Reason)

	v = e.Evaluate(session(math.MaxInt64, time.Minute, 10), nil)
	assert.Equal(t, domain.FraudScoreRate, v.Reason)
}

func TestEvaluate_HugeDurationDoesNotWrapBudget(t *testing.T) {
	e := NewEvaluator(Config{MaxScorePerSecond: 100})

	// A duration whose budget exceeds int64 admits any representable score.
	v := e.Evaluate(session(5000, time.Duration(math.MaxInt64), 10), nil)
	assert.True(t, v.Clean)
}

func TestExceedsScoreRate_OverflowSafety(t *testing.T) {
	// Unrepresentable scaled score is always over budget.
	assert.True(t, exceedsScoreRate(math.MaxInt64/1000+1, 100, math.MaxInt64))
	// Budget beyond int64 admits any representable scaled score.
	assert.False(t, exceedsScoreRate(math.MaxInt64/1000, math.MaxInt64, 60_000))
	// In-range values compare exactly.
	assert.True(t, exceedsScoreRate(1501, 150, 10_000))
	assert.False(t, exceedsScoreRate(1500, 150, 10_000))
}

func TestEvaluate_Deterministic(t *testing.T) {
	e := NewEvaluator(testConfig())
	s := session(10000, 30*time.Second, 100)
	first := e.Evaluate(s, nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Evaluate(s, nil))
	}
}

func TestEvaluate_ZeroThresholdsDisableChecks(t *testing.T) {
	e := NewEvaluator(Config{MinSessionDuration: 0})
	v := e.Evaluate(session(999999, time.Second, 99999), nil)
	assert.True(t, v.Clean)
}
