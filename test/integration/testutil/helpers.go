//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/puzzlerush/platform/internal/guard"
)

// NewGoogleID returns a unique external auth subject long enough to validate.
func NewGoogleID() string {
	return "google-sub-" + uuid.New().String()
}

// SeedFor derives a well-formed seed bound to the session id.
func SeedFor(sessionID string) string {
	const filler = "0123456789abcdef0123456789abcdef"
	prefix := guard.ExpectedSeedPrefix(sessionID)
	return prefix + filler[:32-len(prefix)]
}

// SignInPlayer signs in (creating on first call) and returns the auth token
// and player ID.
func (env *TestEnv) SignInPlayer(googleID string) (token string, playerID uuid.UUID) {
	env.t.Helper()
	resp := env.POST("/auth/google", map[string]string{"google_id": googleID}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		env.t.Fatalf("SignInPlayer: expected 200/201, got %d", resp.StatusCode)
	}

	var result struct {
		Token    string    `json:"token"`
		PlayerID uuid.UUID `json:"player_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("SignInPlayer: decode: %v", err)
	}
	return result.Token, result.PlayerID
}

// SubmitSession submits a completed session with a valid seed for its id.
func (env *TestEnv) SubmitSession(token, sessionID string, score, durationMs int64, startedAt time.Time) *http.Response {
	env.t.Helper()
	return env.POST("/sessions", map[string]interface{}{
		"session_id":     sessionID,
		"seed":           SeedFor(sessionID),
		"declared_score": score,
		"duration_ms":    durationMs,
		"started_at":     startedAt.Format(time.RFC3339),
		"telemetry":      map[string]interface{}{"input_count": int(durationMs / 100)},
	}, token)
}

// GrantPoints credits points directly, bypassing the API.
func (env *TestEnv) GrantPoints(playerID uuid.UUID, points int64) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx,
		"UPDATE players SET points = points + $1 WHERE id = $2", points, playerID)
	if err != nil {
		env.t.Fatalf("GrantPoints: %v", err)
	}
}

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// GETAuth performs a GET request with an auth token.
func (env *TestEnv) GETAuth(path, token string) *http.Response {
	env.t.Helper()
	return env.do("GET", path, nil, token)
}

// POST performs a POST request with optional auth token.
func (env *TestEnv) POST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.do("POST", path, body, token)
}

// PUT performs a PUT request with optional auth token.
func (env *TestEnv) PUT(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.do("PUT", path, body, token)
}

func (env *TestEnv) do(method, path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("%s %s: encode: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// UniqueSessionID returns a session id unique within the test run.
func UniqueSessionID() string {
	return fmt.Sprintf("sess-%s", uuid.New())
}
