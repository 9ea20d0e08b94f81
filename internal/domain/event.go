package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventPlayerCreated       EventType = "core.player.created"
	EventSettlementAccepted  EventType = "core.settlement.accepted"
	EventSettlementRejected  EventType = "core.settlement.rejected"
	EventFraudRecorded       EventType = "core.fraud.recorded"
	EventPurchaseCompleted   EventType = "core.store.purchase.completed"
	EventAdRewardCredited    EventType = "core.reward.ad.credited"
	EventSessionExpired      EventType = "core.session.expired"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregatePlayer     AggregateType = "player"
	AggregateSession    AggregateType = "session"
	AggregateSettlement AggregateType = "settlement"
)

// OutboxDraft is the payload written to the event_outbox table, within the same
// transaction as the mutation it describes.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	PartitionKey  string          `json:"partition_key"`
	Headers       json.RawMessage `json:"headers"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
