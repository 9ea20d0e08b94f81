package domain

import "github.com/google/uuid"

// SSVPayload is an ad-network server-side-verification callback. The signature
// covers the raw query string up to (not including) the signature parameter.
type SSVPayload struct {
	TransactionID string `json:"transaction_id"`
	UserID        string `json:"user_id"`
	CustomData    string `json:"custom_data,omitempty"`
	Timestamp     int64  `json:"timestamp"` // unix millis
	KeyID         string `json:"key_id"`
	Signature     string `json:"signature"` // base64url, ASN.1 DER ECDSA
	RewardAmount  int64  `json:"reward_amount,omitempty"`
	RewardItem    string `json:"reward_item,omitempty"`
}

// AdRewardCredit records a verified SSV credit. The transaction id is unique,
// so a replayed callback returns the original credit instead of paying twice.
type AdRewardCredit struct {
	ID            uuid.UUID `json:"id"`
	PlayerID      uuid.UUID `json:"player_id"`
	TransactionID string    `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	KeyID         string    `json:"key_id"`
}
