//go:build integration

package testutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

// SSVSigner signs ad-network verification callbacks the way the real network
// does: ECDSA over SHA-256 of the query string, with signature and key_id
// appended last.
type SSVSigner struct {
	key   *ecdsa.PrivateKey
	KeyID int64
}

// NewSSVSigner generates a fresh P-256 signing key.
func NewSSVSigner(t *testing.T) *SSVSigner {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate ssv key: %v", err)
	}
	return &SSVSigner{key: key, KeyID: 1}
}

// KeySetJSON renders the signer's public key as the network's key set document.
func (s *SSVSigner) KeySetJSON() string {
	der, err := x509.MarshalPKIXPublicKey(&s.key.PublicKey)
	if err != nil {
		panic(fmt.Sprintf("marshal ssv public key: %v", err))
	}
	return fmt.Sprintf(`{"keys":[{"keyId":%d,"base64":%q}]}`,
		s.KeyID, base64.StdEncoding.EncodeToString(der))
}

// SignCallback builds a complete signed callback query string.
func (s *SSVSigner) SignCallback(transactionID string, playerID uuid.UUID, amount int64, issuedAt time.Time) string {
	content := fmt.Sprintf("transaction_id=%s&user_id=%s&reward_amount=%d&timestamp=%d",
		transactionID, playerID, amount, issuedAt.UnixMilli())
	return fmt.Sprintf("%s&signature=%s&key_id=%d", content, s.sign(content), s.KeyID)
}

func (s *SSVSigner) sign(content string) string {
	digest := sha256.Sum256([]byte(content))
	sig, err := ecdsa.SignASN1(rand.Reader, s.key, digest[:])
	if err != nil {
		panic(fmt.Sprintf("sign ssv callback: %v", err))
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(sig)
}
