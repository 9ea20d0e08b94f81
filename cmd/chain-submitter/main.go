package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/puzzlerush/platform/internal/chain"
	"github.com/puzzlerush/platform/internal/domain"
	"github.com/puzzlerush/platform/internal/guard"
	"github.com/puzzlerush/platform/internal/infra"
)

const consumerGroup = "chain-submitter"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("chain submitter failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.KafkaEnabled {
		return fmt.Errorf("KAFKA_ENABLED must be true for the chain submitter")
	}
	if cfg.SubmitterPrivateKey == "" {
		return fmt.Errorf("SUBMITTER_PRIVATE_KEY is required")
	}
	if cfg.TournamentContract == "" {
		return fmt.Errorf("TOURNAMENT_CONTRACT is required")
	}

	breaker := guard.NewCircuitBreaker(5, 30*time.Second)
	submitter, err := chain.NewSubmitter(ctx, cfg.ChainRPCURL, cfg.TournamentContract, cfg.SubmitterPrivateKey, cfg.ChainID, breaker, logger)
	if err != nil {
		return fmt.Errorf("create submitter: %w", err)
	}
	defer submitter.Close()

	topic := "puzzlerush." + string(domain.EventSettlementAccepted)
	kafkaConsumer := infra.NewKafkaConsumer(cfg.KafkaBrokers, topic, consumerGroup, cfg.KafkaEnabled, logger)
	defer kafkaConsumer.Close()

	logger.Info("chain submitter starting", "topic", topic, "contract", cfg.TournamentContract)
	return chain.NewConsumer(kafkaConsumer, submitter, logger).Run(ctx)
}
