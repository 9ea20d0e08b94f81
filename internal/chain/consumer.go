package chain

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/puzzlerush/platform/internal/domain"
	"github.com/puzzlerush/platform/internal/infra"
)

// Consumer drains settlement-accepted events off the bus and forwards each
// score to the chain submitter. Submission failures are logged and skipped
// rather than retried forever: the settlement itself is already durable, and
// a stuck tournament submission must not block the partition.
type Consumer struct {
	consumer  *infra.KafkaConsumer
	submitter *Submitter
	logger    *slog.Logger
}

// NewConsumer creates a settlement-event consumer for the submitter.
func NewConsumer(consumer *infra.KafkaConsumer, submitter *Submitter, logger *slog.Logger) *Consumer {
	return &Consumer{consumer: consumer, submitter: submitter, logger: logger}
}

// Run consumes until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		var envelope struct {
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			c.logger.Error("skip malformed event envelope", "offset", msg.Offset, "error", err)
			continue
		}
		var settlement domain.RewardSettlement
		if err := json.Unmarshal(envelope.Payload, &settlement); err != nil {
			c.logger.Error("skip malformed settlement event", "offset", msg.Offset, "error", err)
			continue
		}

		if _, err := c.submitter.SubmitScore(ctx, &settlement); err != nil {
			c.logger.Error("chain submission failed",
				"session_id", settlement.SessionID,
				"tournament_id", settlement.TournamentID,
				"error", err,
			)
		}
	}
}
