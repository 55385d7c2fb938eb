package signing_test

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbryio/comment-server/internal/model"
	"github.com/lbryio/comment-server/internal/signing"
	"github.com/lbryio/comment-server/internal/signing/signingtest"
)

func TestDigest_ReversesClaimID(t *testing.T) {
	got, err := signing.Digest("1600000000", "0102", "hi")
	require.NoError(t, err)

	want := sha256.Sum256(append(append([]byte("1600000000"), 0x02, 0x01), "hi"...))
	assert.Equal(t, want[:], got)

	_, err = signing.Digest("1", "zz", "hi")
	assert.Error(t, err)
}

func TestVerify_Secp256k1(t *testing.T) {
	ch := signingtest.NewChannel(t, "@alice", 0xab)
	claim := ch.Claim(t)
	sig := ch.Sign(t, "1600000000", "hello world")

	res := signing.Verify(claim, sig, "1600000000", "hello world")
	assert.True(t, res.Authorized)
	assert.Equal(t, signing.ReasonNone, res.Reason)

	tests := []struct {
		name      string
		signature string
		signingTS string
		payload   string
		want      signing.Reason
	}{
		{"other payload", sig, "1600000000", "hello there", signing.ReasonVerificationFailed},
		{"other signing ts", sig, "1600000001", "hello world", signing.ReasonVerificationFailed},
		{"not hex", strings.Repeat("zz", 64), "1600000000", "hello world", signing.ReasonBadSignatureEncoding},
		{"short", sig[:126], "1600000000", "hello world", signing.ReasonBadSignatureEncoding},
		{"zero r", strings.Repeat("0", 64) + sig[64:], "1600000000", "hello world", signing.ReasonBadSignatureEncoding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := signing.Verify(claim, tt.signature, tt.signingTS, tt.payload)
			assert.False(t, res.Authorized)
			assert.Equal(t, tt.want, res.Reason)
		})
	}
}

func TestVerify_WrongChannel(t *testing.T) {
	alice := signingtest.NewChannel(t, "@alice", 0x01)
	bob := signingtest.NewChannel(t, "@bob", 0x02)

	sig := alice.Sign(t, "1", "payload")
	res := signing.Verify(bob.Claim(t), sig, "1", "payload")
	assert.False(t, res.Authorized)
	assert.Equal(t, signing.ReasonVerificationFailed, res.Reason)
}

func TestVerify_P256(t *testing.T) {
	claim, sign := signingtest.P256Claim(t, strings.Repeat("cd", 20))
	sig := sign("42", "payload")

	assert.True(t, signing.Verify(claim, sig, "42", "payload").Authorized)
	assert.False(t, signing.Verify(claim, sig, "42", "other").Authorized)
}

func TestVerify_RawSEC1Key(t *testing.T) {
	ch := signingtest.NewChannel(t, "@raw", 0x03)
	claim := ch.Claim(t)

	// the last 65 bytes of the SPKI are the uncompressed point
	der, err := hex.DecodeString(claim.Value.PublicKey)
	require.NoError(t, err)
	claim.Value.PublicKey = hex.EncodeToString(der[len(der)-65:])

	sig := ch.Sign(t, "7", "body")
	assert.True(t, signing.Verify(claim, sig, "7", "body").Authorized)
}

func TestVerify_Denials(t *testing.T) {
	sig := strings.Repeat("11", 64)

	res := signing.Verify(nil, sig, "1", "x")
	assert.Equal(t, signing.ReasonNoSuchClaim, res.Reason)

	bad := &model.Claim{ClaimID: strings.Repeat("a", 40), Value: model.ClaimValue{PublicKey: "not-hex"}}
	res = signing.Verify(bad, sig, "1", "x")
	assert.Equal(t, signing.ReasonBadPublicKey, res.Reason)

	bad.Value.PublicKey = "3000"
	res = signing.Verify(bad, sig, "1", "x")
	assert.Equal(t, signing.ReasonBadPublicKey, res.Reason)

	empty := &model.Claim{ClaimID: strings.Repeat("a", 40)}
	assert.False(t, signing.Verify(empty, sig, "1", "x").Authorized)
}
