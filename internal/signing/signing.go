// Package signing checks that a mutation was signed by the key of a channel
// claim.
package signing

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/lbryio/comment-server/internal/model"
)

// Reason explains a failed verification. It is logged, never returned to
// callers.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonNoSuchClaim          Reason = "no_such_claim"
	ReasonBadSignatureEncoding Reason = "bad_signature_encoding"
	ReasonBadPublicKey         Reason = "bad_public_key"
	ReasonVerificationFailed   Reason = "verification_failed"
)

// Result of Verify.
type Result struct {
	Authorized bool
	Reason     Reason
}

func denied(r Reason) Result { return Result{Reason: r} }

// Curve OIDs accepted in a SubjectPublicKeyInfo.
var (
	OIDPublicKeyECDSA = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	OIDSecp256k1      = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
	OIDP256           = asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
)

// Digest returns SHA-256(signingTS || reversed claim id bytes || payload).
func Digest(signingTS, claimID, payload string) ([]byte, error) {
	raw, err := hex.DecodeString(claimID)
	if err != nil {
		return nil, fmt.Errorf("decode claim id: %w", err)
	}
	slices.Reverse(raw)

	h := sha256.New()
	h.Write([]byte(signingTS))
	h.Write(raw)
	h.Write([]byte(payload))
	return h.Sum(nil), nil
}

// Verify checks signature over payload against the public key of claim.
// A nil claim is reported as ReasonNoSuchClaim.
func Verify(claim *model.Claim, signature, signingTS, payload string) Result {
	if claim == nil {
		return denied(ReasonNoSuchClaim)
	}

	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != 64 {
		return denied(ReasonBadSignatureEncoding)
	}

	digest, err := Digest(signingTS, claim.ClaimID, payload)
	if err != nil {
		return denied(ReasonBadPublicKey)
	}

	key, err := parsePublicKey(claim.Value.PublicKey)
	if err != nil {
		return denied(ReasonBadPublicKey)
	}

	ok, err := key.verify(digest, sig[:32], sig[32:])
	if err != nil {
		return denied(ReasonBadSignatureEncoding)
	}
	if !ok {
		return denied(ReasonVerificationFailed)
	}
	return Result{Authorized: true}
}

type publicKey interface {
	verify(digest, r, s []byte) (bool, error)
}

type secp256k1Key struct {
	pub *secp256k1.PublicKey
}

func (k secp256k1Key) verify(digest, r, s []byte) (bool, error) {
	var rs, ss secp256k1.ModNScalar
	if overflow := rs.SetByteSlice(r); overflow || rs.IsZero() {
		return false, errors.New("r out of range")
	}
	if overflow := ss.SetByteSlice(s); overflow || ss.IsZero() {
		return false, errors.New("s out of range")
	}
	return secpecdsa.NewSignature(&rs, &ss).Verify(digest, k.pub), nil
}

type p256Key struct {
	pub *ecdsa.PublicKey
}

func (k p256Key) verify(digest, r, s []byte) (bool, error) {
	der, err := encodeDER(r, s)
	if err != nil {
		return false, err
	}
	return ecdsa.VerifyASN1(k.pub, digest, der), nil
}

// encodeDER packs r and s into an ASN.1 ECDSA-Sig-Value.
func encodeDER(r, s []byte) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(new(big.Int).SetBytes(r))
		b.AddASN1BigInt(new(big.Int).SetBytes(s))
	})
	return b.Bytes()
}

// parsePublicKey accepts a hex DER SubjectPublicKeyInfo on secp256k1 or
// P-256, or a raw SEC1 secp256k1 point.
func parsePublicKey(hexKey string) (publicKey, error) {
	der, err := hex.DecodeString(hexKey)
	if err != nil || len(der) == 0 {
		return nil, errors.New("public key is not hex")
	}

	curve, point, err := parseSPKI(der)
	if err != nil {
		pub, err := secp256k1.ParsePubKey(der)
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		return secp256k1Key{pub: pub}, nil
	}

	switch {
	case curve.Equal(OIDSecp256k1):
		pub, err := secp256k1.ParsePubKey(point)
		if err != nil {
			return nil, fmt.Errorf("parse secp256k1 key: %w", err)
		}
		return secp256k1Key{pub: pub}, nil
	case curve.Equal(OIDP256):
		pub, err := x509.ParsePKIXPublicKey(der)
		if err != nil {
			return nil, fmt.Errorf("parse p256 key: %w", err)
		}
		ecPub, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return nil, errors.New("not an ecdsa key")
		}
		return p256Key{pub: ecPub}, nil
	}
	return nil, fmt.Errorf("unsupported curve %s", curve)
}

func parseSPKI(der []byte) (asn1.ObjectIdentifier, []byte, error) {
	input := cryptobyte.String(der)
	var spki, algo cryptobyte.String
	var algOID, curveOID asn1.ObjectIdentifier
	var point asn1.BitString

	if !input.ReadASN1(&spki, cbasn1.SEQUENCE) || !input.Empty() ||
		!spki.ReadASN1(&algo, cbasn1.SEQUENCE) ||
		!algo.ReadASN1ObjectIdentifier(&algOID) ||
		!algo.ReadASN1ObjectIdentifier(&curveOID) ||
		!spki.ReadASN1BitString(&point) {
		return nil, nil, errors.New("malformed subject public key info")
	}
	if !algOID.Equal(OIDPublicKeyECDSA) {
		return nil, nil, fmt.Errorf("unsupported key algorithm %s", algOID)
	}
	return curveOID, point.RightAlign(), nil
}
