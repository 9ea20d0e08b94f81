package infra

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"puzzlerush"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"puzzlerush"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"puzzlerush"`

	// JWT
	JWTSecret       string `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTPlayerExpiry string `env:"JWT_PLAYER_EXPIRY" envDefault:"24h"`

	// Server
	APIPort         int           `env:"API_PORT" envDefault:"3200"`
	SubmitRateLimit int           `env:"SUBMIT_RATE_LIMIT" envDefault:"30"`
	SubmitRateWindow time.Duration `env:"SUBMIT_RATE_WINDOW" envDefault:"1m"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`

	// Settlement tuning. Thresholds are configuration, not code, so they can
	// be changed without redeploying the decision logic.
	StreakGraceWindow    time.Duration `env:"STREAK_GRACE_WINDOW" envDefault:"24h"`
	MaxScorePerSecond    int64         `env:"FRAUD_MAX_SCORE_PER_SECOND" envDefault:"150"`
	MinSessionDuration   time.Duration `env:"FRAUD_MIN_SESSION_DURATION" envDefault:"10s"`
	MaxInputsPerSecond   float64       `env:"FRAUD_MAX_INPUTS_PER_SECOND" envDefault:"25"`
	PointsPerScore       int64         `env:"REWARD_POINTS_PER_SCORE" envDefault:"1"`
	MacroSignatures      string        `env:"FRAUD_MACRO_SIGNATURES"` // comma-separated telemetry digests
	HistoryScoreMultiplier int64       `env:"FRAUD_HISTORY_SCORE_MULTIPLIER" envDefault:"10"`
	HistoryMinSessions   int           `env:"FRAUD_HISTORY_MIN_SESSIONS" envDefault:"5"`
	LockTimeout          time.Duration `env:"SETTLEMENT_LOCK_TIMEOUT" envDefault:"3s"`
	PendingSessionMaxAge time.Duration `env:"PENDING_SESSION_MAX_AGE" envDefault:"24h"`

	// Ad reward verification (server-side verification callbacks)
	SSVFreshnessWindow time.Duration `env:"SSV_FRESHNESS_WINDOW" envDefault:"10m"`
	SSVKeysJSON        string        `env:"SSV_KEYS_JSON"`

	// Chain submission
	ChainRPCURL          string `env:"CHAIN_RPC_URL" envDefault:"http://localhost:8545"`
	ChainID              int64  `env:"CHAIN_ID" envDefault:"11155111"`
	TournamentContract   string `env:"TOURNAMENT_CONTRACT"`
	SubmitterPrivateKey  string `env:"SUBMITTER_PRIVATE_KEY"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for insecure configuration that must not run in production.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass (local dev only).
func (c *Config) Validate() error {
	if c.AllowInsecureDefaults {
		return nil
	}
	if c.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.JWTSecret))
	}
	return nil
}

// MacroSignatureList splits the configured macro digests.
func (c *Config) MacroSignatureList() []string {
	if c.MacroSignatures == "" {
		return nil
	}
	parts := strings.Split(c.MacroSignatures, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
