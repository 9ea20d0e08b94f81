package adreward

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSigner generates a P-256 key pair and produces signed callback queries
// the way the ad network does.
type testSigner struct {
	key   *ecdsa.PrivateKey
	keyID int64
}

func newTestSigner(t *testing.T, keyID int64) *testSigner {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return &testSigner{key: key, keyID: keyID}
}

func (s *testSigner) keySetJSON(t *testing.T) []byte {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(&s.key.PublicKey)
	require.NoError(t, err)
	set := keySet{Keys: []keyEntry{{
		KeyID:  s.keyID,
		Base64: base64.StdEncoding.EncodeToString(der),
	}}}
	raw, err := json.Marshal(set)
	require.NoError(t, err)
	return raw
}

// sign produces the full callback query: content, then signature, then key_id.
func (s *testSigner) sign(t *testing.T, content string) string {
	t.Helper()
	digest := sha256.Sum256([]byte(content))
	sig, err := ecdsa.SignASN1(rand.Reader, s.key, digest[:])
	require.NoError(t, err)
	encoded := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(sig)
	return fmt.Sprintf("%s&signature=%s&key_id=%d", content, encoded, s.keyID)
}

func callbackContent(transactionID string, ts time.Time) string {
	return fmt.Sprintf(
		"transaction_id=%s&user_id=2e5e0a06-02e8-4d8c-9e0b-1a3c5a0a9f10&reward_amount=50&reward_item=points&timestamp=%d",
		transactionID, ts.UnixMilli(),
	)
}

func newTestVerifier(t *testing.T, signer *testSigner, freshness time.Duration, now time.Time) *Verifier {
	t.Helper()
	v, err := NewVerifier(signer.keySetJSON(t), freshness)
	require.NoError(t, err)
	v.now = func() time.Time { return now }
	return v
}

func TestVerify_ValidCallback(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := newTestSigner(t, 3335741209)
	v := newTestVerifier(t, signer, 10*time.Minute, now)

	query := signer.sign(t, callbackContent("txn-1", now.Add(-time.Minute)))
	payload, err := v.Verify(query)

	require.NoError(t, err)
	assert.Equal(t, "txn-1", payload.TransactionID)
	assert.Equal(t, "2e5e0a06-02e8-4d8c-9e0b-1a3c5a0a9f10", payload.UserID)
	assert.Equal(t, int64(50), payload.RewardAmount)
	assert.Equal(t, "3335741209", payload.KeyID)
}

func TestVerify_ExpiredTimestampRejectedDespiteValidSignature(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := newTestSigner(t, 1)
	v := newTestVerifier(t, signer, 10*time.Minute, now)

	// Correctly signed but 30 minutes old.
	query := signer.sign(t, callbackContent("txn-2", now.Add(-30*time.Minute)))
	_, err := v.Verify(query)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_SIGNATURE")
	assert.Contains(t, err.Error(), "freshness")
}

func TestVerify_FutureTimestampRejected(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := newTestSigner(t, 1)
	v := newTestVerifier(t, signer, 10*time.Minute, now)

	query := signer.sign(t, callbackContent("txn-3", now.Add(30*time.Minute)))
	_, err := v.Verify(query)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_SIGNATURE")
}

func TestVerify_UnknownKeyID(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := newTestSigner(t, 1)
	other := newTestSigner(t, 2)
	v := newTestVerifier(t, signer, 10*time.Minute, now)

	query := other.sign(t, callbackContent("txn-4", now))
	_, err := v.Verify(query)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNKNOWN_KEY")
}

func TestVerify_TamperedContentRejected(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := newTestSigner(t, 1)
	v := newTestVerifier(t, signer, 10*time.Minute, now)

	// Bump the reward amount after signing.
	query := signer.sign(t, callbackContent("txn-5", now))
	tampered := replaceOnce(query, "reward_amount=50", "reward_amount=5000")

	_, err := v.Verify(tampered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match content")
}

func TestVerify_GarbageSignature(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := newTestSigner(t, 1)
	v := newTestVerifier(t, signer, 10*time.Minute, now)

	query := callbackContent("txn-6", now) + "&signature=!!notbase64!!&key_id=1"
	_, err := v.Verify(query)
	require.Error(t, err)
}

func TestVerify_MissingSignatureParam(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := newTestSigner(t, 1)
	v := newTestVerifier(t, signer, 10*time.Minute, now)

	_, err := v.Verify(callbackContent("txn-7", now))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_SIGNATURE")
}

func TestVerify_MissingRequiredFields(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := newTestSigner(t, 1)
	v := newTestVerifier(t, signer, 10*time.Minute, now)

	query := signer.sign(t, fmt.Sprintf("user_id=abc&timestamp=%d", now.UnixMilli()))
	_, err := v.Verify(query)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction_id")
}

func TestVerify_ZeroFreshnessDisablesCheck(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := newTestSigner(t, 1)
	v := newTestVerifier(t, signer, 0, now)

	query := signer.sign(t, callbackContent("txn-8", now.Add(-48*time.Hour)))
	_, err := v.Verify(query)
	require.NoError(t, err)
}

func TestNewVerifier_EmptyKeySet(t *testing.T) {
	_, err := NewVerifier([]byte(`{"keys":[]}`), time.Minute)
	require.Error(t, err)
}

func TestNewVerifier_PEMKey(t *testing.T) {
	signer := newTestSigner(t, 7)
	der, err := x509.MarshalPKIXPublicKey(&signer.key.PublicKey)
	require.NoError(t, err)

	pemKey := fmt.Sprintf("-----BEGIN PUBLIC KEY-----\n%s\n-----END PUBLIC KEY-----\n",
		base64.StdEncoding.EncodeToString(der))
	raw, err := json.Marshal(keySet{Keys: []keyEntry{{KeyID: 7, Pem: pemKey}}})
	require.NoError(t, err)

	v, err := NewVerifier(raw, time.Minute)
	require.NoError(t, err)
	assert.Contains(t, v.keys, "7")
}

func replaceOnce(s, old, new string) string {
	for i := 0; i+len(old) <= len(s); i++ {
		if s[i:i+len(old)] == old {
			return s[:i] + new + s[i+len(old):]
		}
	}
	return s
}
