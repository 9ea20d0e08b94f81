//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
)

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// AssertStatus checks that the response has the expected HTTP status code.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertErrorCode checks that the response body contains the expected error code.
func AssertErrorCode(t *testing.T, resp *http.Response, expectedCode string) {
	t.Helper()
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	DecodeJSON(t, resp, &errResp)
	if errResp.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, errResp.Code, errResp.Message)
	}
}

// PlayerPoints reads the player's point balance straight from the database.
func PlayerPoints(t *testing.T, env *TestEnv, playerID uuid.UUID) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var points int64
	err := env.Pool.QueryRow(ctx,
		"SELECT points FROM players WHERE id = $1", playerID).Scan(&points)
	if err != nil {
		t.Fatalf("PlayerPoints: %v", err)
	}
	return points
}

// InventoryQuantity returns the stored quantity for an item variant, zero when
// no row exists.
func InventoryQuantity(t *testing.T, env *TestEnv, playerID uuid.UUID, itemType, variant string) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var qty int64
	err := env.Pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(quantity), 0) FROM inventory_items WHERE player_id = $1 AND item_type = $2 AND variant = $3",
		playerID, itemType, variant).Scan(&qty)
	if err != nil {
		t.Fatalf("InventoryQuantity: %v", err)
	}
	return qty
}

// SessionStatus returns the stored status of a session row, empty when absent.
func SessionStatus(t *testing.T, env *TestEnv, playerID uuid.UUID, sessionID string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var status string
	err := env.Pool.QueryRow(ctx,
		"SELECT status FROM game_sessions WHERE player_id = $1 AND id = $2",
		playerID, sessionID).Scan(&status)
	if err != nil {
		return ""
	}
	return status
}

// FraudReasons returns the recorded fraud attempt reasons for a player, oldest first.
func FraudReasons(t *testing.T, env *TestEnv, playerID uuid.UUID) []string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := env.Pool.Query(ctx,
		"SELECT reason FROM fraud_attempts WHERE player_id = $1 ORDER BY created_at", playerID)
	if err != nil {
		t.Fatalf("FraudReasons: %v", err)
	}
	defer rows.Close()

	var reasons []string
	for rows.Next() {
		var reason string
		if err := rows.Scan(&reason); err != nil {
			t.Fatalf("FraudReasons: scan: %v", err)
		}
		reasons = append(reasons, reason)
	}
	return reasons
}

// CountOutboxEvents returns the number of outbox events of a type for a player.
func CountOutboxEvents(t *testing.T, env *TestEnv, playerID uuid.UUID, eventType string) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM event_outbox WHERE partition_key = $1 AND event_type = $2",
		playerID.String(), eventType).Scan(&count)
	if err != nil {
		t.Fatalf("CountOutboxEvents: %v", err)
	}
	return count
}

// StreakLength reads the stored streak length, zero when no row exists.
func StreakLength(t *testing.T, env *TestEnv, playerID uuid.UUID) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var length int
	err := env.Pool.QueryRow(ctx,
		"SELECT length FROM streak_challenges WHERE player_id = $1", playerID).Scan(&length)
	if err != nil {
		return 0
	}
	return length
}
