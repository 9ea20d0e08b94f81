package guard

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/puzzlerush/platform/internal/domain"
)

// Seeds are client-generated but bound to the session id: the first 8 hex
// characters of a valid seed must equal the first 8 hex characters of
// SHA-256(sessionId). The server can verify the binding without ever having
// issued or stored the seed, and a seed lifted from one session fails on any
// other.

// SeedBindingLen is the length in hex characters of the bound seed prefix.
const SeedBindingLen = 8

// ExpectedSeedPrefix derives the prefix a session's seed must carry.
func ExpectedSeedPrefix(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:SeedBindingLen/2])
}

// VerifySeed checks seed format and session binding. Read-only and
// side-effect free, so it runs before any lock is taken.
func VerifySeed(sessionID, seed string) error {
	if err := domain.ValidateSessionID(sessionID); err != nil {
		return domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateSeedFormat(seed); err != nil {
		return domain.ErrInvalidSeed(sessionID)
	}
	if !strings.HasPrefix(seed, ExpectedSeedPrefix(sessionID)) {
		return domain.ErrInvalidSeed(sessionID)
	}
	return nil
}

// CheckReplay rejects a session that already reached a terminal state. The
// write that marks a session settled happens later, inside the same
// transaction as the ledger update; this check is read-only.
func CheckReplay(session *domain.GameSession) error {
	if session != nil && session.Settled() {
		return domain.ErrReplayedSession(session.ID)
	}
	return nil
}
