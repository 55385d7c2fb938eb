// Package signingtest creates channel keys and signatures for tests.
package signingtest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/lbryio/comment-server/internal/model"
	"github.com/lbryio/comment-server/internal/signing"
)

// Channel is a secp256k1 channel claim with its private key.
type Channel struct {
	ClaimID string
	Name    string
	key     *secp256k1.PrivateKey
}

// NewChannel generates a channel with a fresh key. The claim id is derived
// from seed so tests can tell channels apart.
func NewChannel(t testing.TB, name string, seed byte) *Channel {
	t.Helper()
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return &Channel{
		ClaimID: strings.Repeat(hex.EncodeToString([]byte{seed}), model.ClaimIDLength/2),
		Name:    name,
		key:     key,
	}
}

// PublicKeyHex returns the hex DER SubjectPublicKeyInfo of the channel key.
func (c *Channel) PublicKeyHex(t testing.TB) string {
	t.Helper()
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(signing.OIDPublicKeyECDSA)
			b.AddASN1ObjectIdentifier(signing.OIDSecp256k1)
		})
		b.AddASN1BitString(c.key.PubKey().SerializeUncompressed())
	})
	der, err := b.Bytes()
	if err != nil {
		t.Fatalf("encode public key: %v", err)
	}
	return hex.EncodeToString(der)
}

// Claim returns the resolver's view of the channel.
func (c *Channel) Claim(t testing.TB) *model.Claim {
	return &model.Claim{
		ClaimID: c.ClaimID,
		Name:    c.Name,
		Value:   model.ClaimValue{PublicKey: c.PublicKeyHex(t)},
	}
}

// Sign returns the 128 hex r||s signature of payload.
func (c *Channel) Sign(t testing.TB, signingTS, payload string) string {
	t.Helper()
	digest, err := signing.Digest(signingTS, c.ClaimID, payload)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	sig := secpecdsa.Sign(c.key, digest)
	r, s := sig.R(), sig.S()
	rb, sb := r.Bytes(), s.Bytes()
	return hex.EncodeToString(rb[:]) + hex.EncodeToString(sb[:])
}

// P256Claim returns a P-256 channel claim and a signer for it.
func P256Claim(t testing.TB, claimID string) (*model.Claim, func(signingTS, payload string) string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}

	claim := &model.Claim{ClaimID: claimID, Name: "@p256", Value: model.ClaimValue{PublicKey: hex.EncodeToString(der)}}
	sign := func(signingTS, payload string) string {
		digest, err := signing.Digest(signingTS, claimID, payload)
		if err != nil {
			t.Fatalf("digest: %v", err)
		}
		r, s, err := ecdsa.Sign(rand.Reader, key, digest)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		out := make([]byte, 64)
		r.FillBytes(out[:32])
		s.FillBytes(out[32:])
		return hex.EncodeToString(out)
	}
	return claim, sign
}
