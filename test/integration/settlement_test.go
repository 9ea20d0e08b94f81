//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/puzzlerush/platform/test/integration/testutil"
)

type settlementResponse struct {
	SessionID  string `json:"session_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason"`
	Replayed   bool   `json:"replayed"`
	FraudID    string `json:"fraud_attempt_id"`
	Settlement *struct {
		Score     int64 `json:"score"`
		NewStreak int   `json:"new_streak"`
		Applied   struct {
			Points int64 `json:"points"`
		} `json:"applied"`
	} `json:"settlement"`
}

func TestSubmitSession_AcceptsCleanSession(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, playerID := env.SignInPlayer(testutil.NewGoogleID())

	sessionID := testutil.UniqueSessionID()
	resp := env.SubmitSession(token, sessionID, 600, 60_000, time.Now().Add(-time.Minute))
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result settlementResponse
	testutil.DecodeJSON(t, resp, &result)

	if result.Status != "accepted" {
		t.Fatalf("expected accepted, got %s (reason %s)", result.Status, result.Reason)
	}
	if result.Settlement == nil {
		t.Fatal("accepted result must carry a settlement")
	}
	if result.Settlement.Applied.Points != 600 {
		t.Errorf("expected 600 points applied, got %d", result.Settlement.Applied.Points)
	}
	if result.Settlement.NewStreak != 1 {
		t.Errorf("first accepted session should open streak 1, got %d", result.Settlement.NewStreak)
	}

	if got := testutil.PlayerPoints(t, env, playerID); got != 600 {
		t.Errorf("expected balance 600, got %d", got)
	}
	if n := testutil.CountOutboxEvents(t, env, playerID, "core.settlement.accepted"); n != 1 {
		t.Errorf("expected 1 accepted outbox event, got %d", n)
	}
}

func TestSubmitSession_ReplayReturnsStoredResult(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, playerID := env.SignInPlayer(testutil.NewGoogleID())

	sessionID := testutil.UniqueSessionID()
	started := time.Now().Add(-time.Minute)

	first := env.SubmitSession(token, sessionID, 500, 60_000, started)
	testutil.AssertStatus(t, first, http.StatusOK)
	var firstResult settlementResponse
	testutil.DecodeJSON(t, first, &firstResult)

	second := env.SubmitSession(token, sessionID, 500, 60_000, started)
	testutil.AssertStatus(t, second, http.StatusOK)
	var secondResult settlementResponse
	testutil.DecodeJSON(t, second, &secondResult)

	if !secondResult.Replayed {
		t.Error("duplicate submission should be flagged replayed")
	}
	if secondResult.Status != "accepted" {
		t.Errorf("replay should return the stored status, got %s", secondResult.Status)
	}

	// The reward was applied exactly once.
	if got := testutil.PlayerPoints(t, env, playerID); got != 500 {
		t.Errorf("expected balance 500 after replay, got %d", got)
	}
	if n := testutil.CountOutboxEvents(t, env, playerID, "core.settlement.accepted"); n != 1 {
		t.Errorf("replay must not emit a second accepted event, got %d", n)
	}
}

func TestSubmitSession_InvalidSeedRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, playerID := env.SignInPlayer(testutil.NewGoogleID())

	sessionID := testutil.UniqueSessionID()
	resp := env.POST("/sessions", map[string]interface{}{
		"session_id":     sessionID,
		"seed":           testutil.SeedFor("some-other-session"),
		"declared_score": 400,
		"duration_ms":    60_000,
		"started_at":     time.Now().Add(-time.Minute).Format(time.RFC3339),
		"telemetry":      map[string]interface{}{"input_count": 300},
	}, token)
	testutil.AssertStatus(t, resp, http.StatusUnprocessableEntity)
	testutil.AssertErrorCode(t, resp, "INVALID_SEED")

	if got := testutil.PlayerPoints(t, env, playerID); got != 0 {
		t.Errorf("invalid seed must not credit points, got %d", got)
	}
	reasons := testutil.FraudReasons(t, env, playerID)
	if len(reasons) != 1 || reasons[0] != "invalid_seed" {
		t.Errorf("expected one invalid_seed fraud attempt, got %v", reasons)
	}
	if status := testutil.SessionStatus(t, env, playerID, sessionID); status != "rejected" {
		t.Errorf("session should be persisted rejected, got %q", status)
	}

	// The id is burned: retrying with the correct seed observes the stored rejection.
	retry := env.SubmitSession(token, sessionID, 400, 60_000, time.Now().Add(-time.Minute))
	testutil.AssertStatus(t, retry, http.StatusOK)
	var retryResult settlementResponse
	testutil.DecodeJSON(t, retry, &retryResult)
	if retryResult.Status != "rejected" || !retryResult.Replayed {
		t.Errorf("expected replayed rejection, got status=%s replayed=%v", retryResult.Status, retryResult.Replayed)
	}
}

func TestSubmitSession_ImplausibleScoreRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, playerID := env.SignInPlayer(testutil.NewGoogleID())

	// 1,000,000 points over 60s blows through the 150/s ceiling.
	resp := env.SubmitSession(token, testutil.UniqueSessionID(), 1_000_000, 60_000, time.Now().Add(-time.Minute))
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result settlementResponse
	testutil.DecodeJSON(t, resp, &result)

	if result.Status != "rejected" {
		t.Fatalf("expected rejected, got %s", result.Status)
	}
	if result.Reason != "score_rate_exceeded" {
		t.Errorf("expected score_rate_exceeded, got %s", result.Reason)
	}
	if result.FraudID == "" {
		t.Error("rejection should reference the fraud attempt")
	}
	if got := testutil.PlayerPoints(t, env, playerID); got != 0 {
		t.Errorf("rejected session must not credit points, got %d", got)
	}
	if n := testutil.CountOutboxEvents(t, env, playerID, "core.settlement.rejected"); n != 1 {
		t.Errorf("expected 1 rejected outbox event, got %d", n)
	}
}

func TestSubmitSession_ShortDurationRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.SignInPlayer(testutil.NewGoogleID())

	resp := env.SubmitSession(token, testutil.UniqueSessionID(), 100, 5_000, time.Now())
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result settlementResponse
	testutil.DecodeJSON(t, resp, &result)
	if result.Status != "rejected" || result.Reason != "duration_below_minimum" {
		t.Errorf("expected duration_below_minimum rejection, got status=%s reason=%s", result.Status, result.Reason)
	}
}

func TestSubmitSession_UnownedPowerUpRollsBack(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, playerID := env.SignInPlayer(testutil.NewGoogleID())

	sessionID := testutil.UniqueSessionID()
	resp := env.POST("/sessions", map[string]interface{}{
		"session_id":     sessionID,
		"seed":           testutil.SeedFor(sessionID),
		"declared_score": 300,
		"duration_ms":    60_000,
		"started_at":     time.Now().Add(-time.Minute).Format(time.RFC3339),
		"telemetry": map[string]interface{}{
			"input_count":   300,
			"power_ups_used": []string{"shield"},
		},
	}, token)
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
	testutil.AssertErrorCode(t, resp, "INSUFFICIENT_QUANTITY")

	// The whole transaction rolled back: no points, no session row, so the
	// same id can be resubmitted once the claim is fixed.
	if got := testutil.PlayerPoints(t, env, playerID); got != 0 {
		t.Errorf("expected 0 points after rollback, got %d", got)
	}
	if status := testutil.SessionStatus(t, env, playerID, sessionID); status != "" {
		t.Errorf("expected no session row after rollback, got %q", status)
	}

	retry := env.SubmitSession(token, sessionID, 300, 60_000, time.Now().Add(-time.Minute))
	testutil.AssertStatus(t, retry, http.StatusOK)
	var retryResult settlementResponse
	testutil.DecodeJSON(t, retry, &retryResult)
	if retryResult.Status != "accepted" || retryResult.Replayed {
		t.Errorf("retry should settle fresh, got status=%s replayed=%v", retryResult.Status, retryResult.Replayed)
	}
}

func TestSessionResult_Endpoint(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.SignInPlayer(testutil.NewGoogleID())

	sessionID := testutil.UniqueSessionID()
	env.SubmitSession(token, sessionID, 200, 60_000, time.Now().Add(-time.Minute)).Body.Close()

	resp := env.GETAuth("/sessions/"+sessionID, token)
	testutil.AssertStatus(t, resp, http.StatusOK)
	var result settlementResponse
	testutil.DecodeJSON(t, resp, &result)
	if result.Status != "accepted" {
		t.Errorf("expected stored accepted result, got %s", result.Status)
	}

	missing := env.GETAuth("/sessions/"+uuid.NewString(), token)
	testutil.AssertStatus(t, missing, http.StatusNotFound)
	missing.Body.Close()
}

func TestSubmitSession_SessionsAreScopedPerPlayer(t *testing.T) {
	env := testutil.NewTestEnv(t)
	tokenA, playerA := env.SignInPlayer(testutil.NewGoogleID())
	tokenB, playerB := env.SignInPlayer(testutil.NewGoogleID())

	sessionID := testutil.UniqueSessionID()
	env.SubmitSession(tokenA, sessionID, 100, 60_000, time.Now().Add(-time.Minute)).Body.Close()

	// Player B reusing A's session id settles independently, it is not a replay.
	resp := env.SubmitSession(tokenB, sessionID, 100, 60_000, time.Now().Add(-time.Minute))
	testutil.AssertStatus(t, resp, http.StatusOK)
	var result settlementResponse
	testutil.DecodeJSON(t, resp, &result)
	if result.Replayed {
		t.Error("session ids are scoped per player")
	}

	if got := testutil.PlayerPoints(t, env, playerA); got != 100 {
		t.Errorf("player A expected 100 points, got %d", got)
	}
	if got := testutil.PlayerPoints(t, env, playerB); got != 100 {
		t.Errorf("player B expected 100 points, got %d", got)
	}
}
