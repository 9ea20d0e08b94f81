//go:build integration

package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/puzzlerush/platform/internal/app"
	"github.com/puzzlerush/platform/internal/auth"
	"github.com/puzzlerush/platform/internal/infra"
)

const (
	TestJWTSecret = "integration-test-secret"
	TestDBHost    = "localhost"
	TestDBPort    = 5435
	TestDBUser    = "puzzlerush"
	TestDBPass    = "puzzlerush"
	TestDBName    = "puzzlerush_test"
)

// TestEnv holds all resources for an integration test.
type TestEnv struct {
	Server *httptest.Server
	Pool   *pgxpool.Pool
	JWTMgr *auth.JWTManager
	SSV    *SSVSigner
	t      *testing.T
}

var (
	sharedPool *pgxpool.Pool
	poolOnce   sync.Once
	poolErr    error
)

func testDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, TestDBName)
}

func bootstrapDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, "puzzlerush")
}

func ensureTestDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to the main database to create the test database
	bPool, err := pgxpool.New(ctx, bootstrapDSN())
	if err != nil {
		return fmt.Errorf("connect bootstrap db: %w", err)
	}
	defer bPool.Close()

	var exists bool
	err = bPool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", TestDBName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check db exists: %w", err)
	}

	if !exists {
		_, err = bPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", TestDBName))
		if err != nil {
			return fmt.Errorf("create test db: %w", err)
		}
	}

	return nil
}

func runMigrations(pool *pgxpool.Pool) error {
	dsn := testDSN()

	// Find the project root by looking for go.mod
	projectRoot := findProjectRoot()

	migratePath := fmt.Sprintf("file://%s/db/migrations", projectRoot)

	m, err := newMigrate(migratePath, dsn)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err.Error() != "no change" {
		return fmt.Errorf("migrate up: %w", err)
	}

	return nil
}

func findProjectRoot() string {
	// Walk up from current working directory looking for go.mod
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(dir + "/go.mod"); err == nil {
			return dir
		}
		parent := dir[:max(0, len(dir)-1)]
		for parent != "" && parent[len(parent)-1] != '/' {
			parent = parent[:len(parent)-1]
		}
		if parent == "" || parent == "/" {
			break
		}
		dir = parent[:len(parent)-1]
	}
	// Fallback: assume we're inside the project
	return "."
}

func getSharedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	poolOnce.Do(func() {
		if err := ensureTestDB(); err != nil {
			poolErr = err
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		poolCfg, err := pgxpool.ParseConfig(testDSN())
		if err != nil {
			poolErr = fmt.Errorf("parse pool config: %w", err)
			return
		}
		poolCfg.MaxConns = 10
		poolCfg.MinConns = 1

		sharedPool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			poolErr = fmt.Errorf("create pool: %w", err)
			return
		}

		if err := runMigrations(sharedPool); err != nil {
			poolErr = fmt.Errorf("run migrations: %w", err)
			sharedPool.Close()
			sharedPool = nil
			return
		}
	})

	if poolErr != nil {
		t.Fatalf("failed to initialize test pool: %v", poolErr)
	}
	return sharedPool
}

// baseConfig returns the settlement tuning used across the suite. Individual
// tests override fields through NewTestEnvWith before the app is wired.
func baseConfig(signer *SSVSigner) *infra.Config {
	return &infra.Config{
		JWTSecret:              TestJWTSecret,
		JWTPlayerExpiry:        "24h",
		SubmitRateLimit:        100,
		SubmitRateWindow:       time.Minute,
		StreakGraceWindow:      24 * time.Hour,
		MaxScorePerSecond:      150,
		MinSessionDuration:     10 * time.Second,
		MaxInputsPerSecond:     25,
		PointsPerScore:         1,
		HistoryScoreMultiplier: 10,
		HistoryMinSessions:     5,
		LockTimeout:            3 * time.Second,
		PendingSessionMaxAge:   24 * time.Hour,
		SSVFreshnessWindow:     10 * time.Minute,
		SSVKeysJSON:            signer.KeySetJSON(),
		CORSAllowedOrigins:     "*",
	}
}

// NewTestEnv creates a test environment with an httptest.Server backed by the
// real router and test DB.
func NewTestEnv(t *testing.T) *TestEnv {
	return NewTestEnvWith(t, nil)
}

// NewTestEnvWith creates a test environment after applying modify to the base
// configuration.
func NewTestEnvWith(t *testing.T, modify func(cfg *infra.Config)) *TestEnv {
	t.Helper()

	pool := getSharedPool(t)
	signer := NewSSVSigner(t)

	cfg := baseConfig(signer)
	if modify != nil {
		modify(cfg)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	application, err := app.New(cfg, pool, logger)
	if err != nil {
		t.Fatalf("wire app: %v", err)
	}

	server := httptest.NewServer(application.Router)

	playerExpiry, _ := time.ParseDuration(cfg.JWTPlayerExpiry)
	env := &TestEnv{
		Server: server,
		Pool:   pool,
		JWTMgr: auth.NewJWTManager(cfg.JWTSecret, playerExpiry),
		SSV:    signer,
		t:      t,
	}

	t.Cleanup(func() {
		server.Close()
		env.CleanAll()
	})

	// Clean before test to ensure isolation
	env.CleanAll()

	return env
}
