package adreward

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/puzzlerush/platform/internal/domain"
)

// signatureParam and keyIDParam are the two query parameters excluded from the
// signed content of an SSV callback.
const (
	signatureParam = "signature"
	keyIDParam     = "key_id"
)

// Verifier validates ad-network server-side-verification callbacks: ECDSA
// over SHA-256 of the callback's query string, against a registry of trusted
// public keys, plus a freshness window on the embedded timestamp.
type Verifier struct {
	keys      map[string]*ecdsa.PublicKey
	freshness time.Duration
	now       func() time.Time
}

// keyEntry mirrors one entry of the ad network's published key set.
type keyEntry struct {
	KeyID  int64  `json:"keyId"`
	Pem    string `json:"pem"`
	Base64 string `json:"base64"`
}

type keySet struct {
	Keys []keyEntry `json:"keys"`
}

// NewVerifier builds a verifier from the network's JSON key set. freshness
// bounds how old a callback timestamp may be; zero disables the check.
func NewVerifier(keysJSON []byte, freshness time.Duration) (*Verifier, error) {
	var set keySet
	if err := json.Unmarshal(keysJSON, &set); err != nil {
		return nil, fmt.Errorf("parse verification key set: %w", err)
	}
	if len(set.Keys) == 0 {
		return nil, fmt.Errorf("verification key set is empty")
	}

	keys := make(map[string]*ecdsa.PublicKey, len(set.Keys))
	for _, entry := range set.Keys {
		pub, err := parseKey(entry)
		if err != nil {
			return nil, fmt.Errorf("parse key %d: %w", entry.KeyID, err)
		}
		keys[fmt.Sprintf("%d", entry.KeyID)] = pub
	}
	return &Verifier{keys: keys, freshness: freshness, now: time.Now}, nil
}

func parseKey(entry keyEntry) (*ecdsa.PublicKey, error) {
	var der []byte
	switch {
	case entry.Pem != "":
		block, _ := pem.Decode([]byte(entry.Pem))
		if block == nil {
			return nil, fmt.Errorf("invalid PEM block")
		}
		der = block.Bytes
	case entry.Base64 != "":
		decoded, err := base64.StdEncoding.DecodeString(entry.Base64)
		if err != nil {
			return nil, fmt.Errorf("decode base64 key: %w", err)
		}
		der = decoded
	default:
		return nil, fmt.Errorf("key has neither pem nor base64 material")
	}

	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	pub, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("key is %T, want ECDSA", parsed)
	}
	return pub, nil
}

// Verify authenticates a raw SSV callback query string and returns the parsed
// payload. The signed content is the query string up to the key_id and
// signature parameters, which the network always appends last.
func (v *Verifier) Verify(rawQuery string) (*domain.SSVPayload, error) {
	payload, err := parsePayload(rawQuery)
	if err != nil {
		return nil, err
	}

	pub, ok := v.keys[payload.KeyID]
	if !ok {
		return nil, domain.ErrUnknownKey(payload.KeyID)
	}

	if v.freshness > 0 {
		issued := time.UnixMilli(payload.Timestamp)
		age := v.now().Sub(issued)
		if age > v.freshness || age < -v.freshness {
			return nil, domain.ErrInvalidSignature("callback timestamp outside freshness window")
		}
	}

	content, err := signedContent(rawQuery)
	if err != nil {
		return nil, err
	}
	sig, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(payload.Signature, "="))
	if err != nil {
		return nil, domain.ErrInvalidSignature("signature is not valid base64url")
	}

	digest := sha256.Sum256([]byte(content))
	if !ecdsa.VerifyASN1(pub, digest[:], sig) {
		return nil, domain.ErrInvalidSignature("signature does not match content")
	}
	return payload, nil
}

// signedContent strips the trailing key_id and signature parameters from the
// raw query. The signature covers the exact byte sequence the network sent,
// so the query must not be re-encoded.
func signedContent(rawQuery string) (string, error) {
	idx := strings.Index(rawQuery, signatureParam+"=")
	if idx <= 0 || rawQuery[idx-1] != '&' {
		return "", domain.ErrInvalidSignature("callback has no signature parameter")
	}
	return rawQuery[:idx-1], nil
}

// parsePayload decodes the callback parameters into an SSVPayload.
func parsePayload(rawQuery string) (*domain.SSVPayload, error) {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, domain.ErrValidation("malformed callback query")
	}

	payload := &domain.SSVPayload{
		TransactionID: values.Get("transaction_id"),
		UserID:        values.Get("user_id"),
		CustomData:    values.Get("custom_data"),
		KeyID:         values.Get(keyIDParam),
		Signature:     values.Get(signatureParam),
		RewardItem:    values.Get("reward_item"),
	}
	if payload.TransactionID == "" {
		return nil, domain.ErrValidation("transaction_id is required")
	}
	if payload.UserID == "" {
		return nil, domain.ErrValidation("user_id is required")
	}
	if payload.KeyID == "" || payload.Signature == "" {
		return nil, domain.ErrInvalidSignature("callback is missing key_id or signature")
	}

	if ts := values.Get("timestamp"); ts != "" {
		if _, err := fmt.Sscan(ts, &payload.Timestamp); err != nil {
			return nil, domain.ErrValidation("timestamp must be unix milliseconds")
		}
	}
	if amount := values.Get("reward_amount"); amount != "" {
		if _, err := fmt.Sscan(amount, &payload.RewardAmount); err != nil {
			return nil, domain.ErrValidation("reward_amount must be an integer")
		}
	}
	return payload, nil
}
