//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/puzzlerush/platform/internal/infra"
	"github.com/puzzlerush/platform/test/integration/testutil"
)

func TestProtectedEndpointsRequireAuth(t *testing.T) {
	env := testutil.NewTestEnv(t)

	paths := []struct {
		method string
		path   string
	}{
		{"POST", "/sessions"},
		{"GET", "/sessions/sess-1"},
		{"GET", "/store/catalog"},
		{"POST", "/store/purchase"},
		{"GET", "/players/me"},
		{"GET", "/players/me/streak"},
		{"GET", "/players/me/inventory"},
		{"GET", "/players/me/fraud-attempts"},
		{"PUT", "/players/me/wallet"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			var resp *http.Response
			switch p.method {
			case "POST":
				resp = env.POST(p.path, map[string]string{}, "")
			case "PUT":
				resp = env.PUT(p.path, map[string]string{}, "")
			default:
				resp = env.GET(p.path)
			}
			testutil.AssertStatus(t, resp, http.StatusUnauthorized)
			resp.Body.Close()
		})
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.GETAuth("/players/me", "not-a-jwt")
	testutil.AssertStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestTamperedTokenRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.SignInPlayer(testutil.NewGoogleID())

	tampered := token[:len(token)-2] + "xx"
	resp := env.GETAuth("/players/me", tampered)
	testutil.AssertStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestSubmitRateLimit(t *testing.T) {
	env := testutil.NewTestEnvWith(t, func(cfg *infra.Config) {
		cfg.SubmitRateLimit = 2
	})
	token, _ := env.SignInPlayer(testutil.NewGoogleID())

	started := time.Now().Add(-time.Minute)
	env.SubmitSession(token, testutil.UniqueSessionID(), 100, 60_000, started).Body.Close()
	env.SubmitSession(token, testutil.UniqueSessionID(), 100, 60_000, started).Body.Close()

	resp := env.SubmitSession(token, testutil.UniqueSessionID(), 100, 60_000, started)
	testutil.AssertStatus(t, resp, http.StatusTooManyRequests)
	testutil.AssertErrorCode(t, resp, "RATE_LIMITED")
}

func TestRateLimitIsPerPlayer(t *testing.T) {
	env := testutil.NewTestEnvWith(t, func(cfg *infra.Config) {
		cfg.SubmitRateLimit = 1
	})
	tokenA, _ := env.SignInPlayer(testutil.NewGoogleID())
	tokenB, _ := env.SignInPlayer(testutil.NewGoogleID())

	started := time.Now().Add(-time.Minute)
	env.SubmitSession(tokenA, testutil.UniqueSessionID(), 100, 60_000, started).Body.Close()

	resp := env.SubmitSession(tokenB, testutil.UniqueSessionID(), 100, 60_000, started)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestLinkWallet(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.SignInPlayer(testutil.NewGoogleID())

	resp := env.PUT("/players/me/wallet", map[string]string{
		"wallet_address": "0x52908400098527886E0F7030069857D2E4169EE7",
	}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var player struct {
		WalletAddress string `json:"wallet_address"`
	}
	testutil.DecodeJSON(t, resp, &player)
	if player.WalletAddress == "" {
		t.Error("expected linked wallet address")
	}

	bad := env.PUT("/players/me/wallet", map[string]string{"wallet_address": "nope"}, token)
	testutil.AssertStatus(t, bad, http.StatusBadRequest)
	bad.Body.Close()
}

func TestFraudHistoryEndpoint(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.SignInPlayer(testutil.NewGoogleID())

	// One implausible session leaves one audit record.
	env.SubmitSession(token, testutil.UniqueSessionID(), 1_000_000, 60_000, time.Now().Add(-time.Minute)).Body.Close()

	resp := env.GETAuth("/players/me/fraud-attempts", token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var result struct {
		Attempts []struct {
			Reason string `json:"reason"`
		} `json:"attempts"`
	}
	testutil.DecodeJSON(t, resp, &result)

	if len(result.Attempts) != 1 || result.Attempts[0].Reason != "score_rate_exceeded" {
		t.Errorf("expected one score_rate_exceeded attempt, got %+v", result.Attempts)
	}
}
