package model

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

var (
	claimIDPattern   = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)
	commentIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
	signaturePattern = regexp.MustCompile(`^[0-9a-fA-F]{128}$`)

	// '@' followed by 1-255 code points, none of them a control character
	// (tab and CR excepted), any of "#$%&/:=?@", or U+FFFE/U+FFFF.
	channelNamePattern = regexp.MustCompile(
		`^@[^\x00-\x08\x0a-\x0c\x0e-\x1f\x23-\x26\x2f\x3a\x3d\x3f-\x40\x{FFFE}-\x{FFFF}]{1,255}$`)
)

// IsValidBody reports whether a comment body has 1-2000 code points.
func IsValidBody(body string) bool {
	if body == "" || !utf8.ValidString(body) {
		return false
	}
	return utf8.RuneCountInString(body) <= MaxCommentLength
}

// IsValidClaimID reports whether id is 40 hex characters. Channel ids share the format.
func IsValidClaimID(id string) bool {
	return claimIDPattern.MatchString(id)
}

// IsValidCommentID reports whether id is 64 hex characters.
func IsValidCommentID(id string) bool {
	return commentIDPattern.MatchString(id)
}

// IsValidSignature reports whether sig is 128 hex characters (a raw r||s pair).
func IsValidSignature(sig string) bool {
	return signaturePattern.MatchString(sig)
}

// IsValidChannelName reports whether name matches the channel handle pattern.
func IsValidChannelName(name string) bool {
	return utf8.ValidString(name) && channelNamePattern.MatchString(name)
}

// IsValidSigningTS reports whether ts is a non-empty alphanumeric token.
func IsValidSigningTS(ts string) bool {
	if ts == "" {
		return false
	}
	for _, r := range ts {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ValidateCredentials checks each field of a complete credential bundle.
func ValidateCredentials(c Credentials) error {
	switch {
	case !IsValidClaimID(c.ChannelID):
		return ErrChannelIDInvalid
	case !IsValidChannelName(c.ChannelName):
		return ErrChannelNameInvalid
	case !IsValidSignature(c.Signature):
		return ErrSignatureInvalid
	case !IsValidSigningTS(c.SigningTS):
		return ErrSigningTSInvalid
	}
	return nil
}

// ValidateSignedTarget checks the signature fields that accompany edit,
// abandon and hide requests.
func ValidateSignedTarget(commentID, signature, signingTS string) error {
	switch {
	case !IsValidCommentID(commentID):
		return ErrCommentIDInvalid
	case !IsValidSignature(signature):
		return ErrSignatureInvalid
	case !IsValidSigningTS(signingTS):
		return ErrSigningTSInvalid
	}
	return nil
}
