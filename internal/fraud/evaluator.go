package fraud

import (
	"math"
	"time"

	"github.com/puzzlerush/platform/internal/domain"
)

// Config holds the plausibility thresholds. All values come from
// configuration so they can be tuned without redeploying the decision logic.
type Config struct {
	// MaxScorePerSecond caps declared score against declared duration.
	MaxScorePerSecond int64
	// MinSessionDuration is the shortest plausible completed session.
	MinSessionDuration time.Duration
	// MaxInputsPerSecond caps the telemetry input rate.
	MaxInputsPerSecond float64
	// MacroSignatures are telemetry pattern digests of known automation tools.
	MacroSignatures []string
	// HistoryScoreMultiplier flags a score this many times above the player's
	// recent best. Zero disables the heuristic.
	HistoryScoreMultiplier int64
	// HistoryMinSessions is how much accepted history the multiplier check
	// needs before it applies.
	HistoryMinSessions int
}

// Evaluator scores completed sessions against plausibility rules. It is
// read-only and side-effect free, and verdicts are deterministic for
// identical inputs, which the orchestrator relies on for idempotent
// re-submission handling.
type Evaluator struct {
	cfg        Config
	signatures map[string]bool
}

// NewEvaluator creates an evaluator with the given thresholds.
func NewEvaluator(cfg Config) *Evaluator {
	signatures := make(map[string]bool, len(cfg.MacroSignatures))
	for _, s := range cfg.MacroSignatures {
		signatures[s] = true
	}
	return &Evaluator{cfg: cfg, signatures: signatures}
}

// Evaluate computes the verdict for a session given the player's recent
// accepted history. Checks run in a fixed order and the first hit wins, so
// the persisted reason is stable across re-evaluations.
func (e *Evaluator) Evaluate(session *domain.GameSession, history []domain.GameSession) domain.Verdict {
	if session.Telemetry.PatternDigest != "" && e.signatures[session.Telemetry.PatternDigest] {
		return domain.Suspicious(domain.FraudMacroSignature)
	}

	if session.Duration < e.cfg.MinSessionDuration {
		return domain.Suspicious(domain.FraudShortDuration)
	}

	durationMs := session.Duration.Milliseconds()
	if e.cfg.MaxScorePerSecond > 0 && exceedsScoreRate(session.DeclaredScore, e.cfg.MaxScorePerSecond, durationMs) {
		return domain.Suspicious(domain.FraudScoreRate)
	}

	if e.cfg.MaxInputsPerSecond > 0 && session.Duration > 0 {
		inputRate := float64(session.Telemetry.InputCount) / session.Duration.Seconds()
		if inputRate > e.cfg.MaxInputsPerSecond {
			return domain.Suspicious(domain.FraudInputRate)
		}
	}

	if e.cfg.HistoryScoreMultiplier > 0 && len(history) >= e.cfg.HistoryMinSessions {
		var best int64
		for _, h := range history {
			if h.DeclaredScore > best {
				best = h.DeclaredScore
			}
		}
		if best > 0 && best <= math.MaxInt64/e.cfg.HistoryScoreMultiplier &&
			session.DeclaredScore > best*e.cfg.HistoryScoreMultiplier {
			return domain.Suspicious(domain.FraudHistoryAnomaly)
		}
	}

	return domain.CleanVerdict
}

// exceedsScoreRate reports score*1000 > limit*durationMs without either side
// overflowing int64. Integer arithmetic keeps the check free of float drift
// between evaluations of the same payload.
func exceedsScoreRate(score, limit, durationMs int64) bool {
	if score > math.MaxInt64/1000 {
		// The scaled score is not representable; no achievable session budget
		// admits it.
		return true
	}
	if durationMs > math.MaxInt64/limit {
		// The budget exceeds any representable scaled score.
		return false
	}
	return score*1000 > limit*durationMs
}
