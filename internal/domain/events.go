package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NewSettlementAcceptedEvent carries the chain-submission payload for an
// accepted session. Partitioned by player so per-player ordering survives Kafka.
func NewSettlementAcceptedEvent(s *RewardSettlement) OutboxDraft {
	payload, _ := json.Marshal(s)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateSettlement,
		AggregateID:   s.SessionID,
		EventType:     EventSettlementAccepted,
		PartitionKey:  s.PlayerID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewSettlementRejectedEvent records a rejected session settlement.
func NewSettlementRejectedEvent(sessionID string, playerID uuid.UUID, reason FraudReason) OutboxDraft {
	payload, _ := json.Marshal(map[string]string{
		"session_id": sessionID,
		"player_id":  playerID.String(),
		"reason":     string(reason),
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateSettlement,
		AggregateID:   sessionID,
		EventType:     EventSettlementRejected,
		PartitionKey:  playerID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewFraudRecordedEvent mirrors a fraud_attempts insert onto the bus.
func NewFraudRecordedEvent(attempt *FraudAttempt) OutboxDraft {
	payload, _ := json.Marshal(attempt)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregatePlayer,
		AggregateID:   attempt.PlayerID.String(),
		EventType:     EventFraudRecorded,
		PartitionKey:  attempt.PlayerID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewPlayerCreatedEvent creates a player lifecycle event.
func NewPlayerCreatedEvent(playerID uuid.UUID, googleID, nickname string) OutboxDraft {
	payload, _ := json.Marshal(map[string]string{
		"player_id": playerID.String(),
		"google_id": googleID,
		"nickname":  nickname,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregatePlayer,
		AggregateID:   playerID.String(),
		EventType:     EventPlayerCreated,
		PartitionKey:  playerID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewPurchaseCompletedEvent records a store purchase applied by the ledger.
func NewPurchaseCompletedEvent(playerID uuid.UUID, delta ResourceDelta) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"player_id": playerID.String(),
		"applied":   delta,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregatePlayer,
		AggregateID:   playerID.String(),
		EventType:     EventPurchaseCompleted,
		PartitionKey:  playerID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewAdRewardCreditedEvent records a verified SSV credit.
func NewAdRewardCreditedEvent(credit *AdRewardCredit) OutboxDraft {
	payload, _ := json.Marshal(credit)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregatePlayer,
		AggregateID:   credit.PlayerID.String(),
		EventType:     EventAdRewardCredited,
		PartitionKey:  credit.PlayerID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewSessionExpiredEvent records a stale pending session swept by the scheduler.
func NewSessionExpiredEvent(sessionID string, playerID uuid.UUID) OutboxDraft {
	payload, _ := json.Marshal(map[string]string{
		"session_id": sessionID,
		"player_id":  playerID.String(),
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateSession,
		AggregateID:   sessionID,
		EventType:     EventSessionExpired,
		PartitionKey:  playerID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}
