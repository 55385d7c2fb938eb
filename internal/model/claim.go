package model

// Claim is the subset of a resolved ledger claim the server needs.
type Claim struct {
	ClaimID        string     `json:"claim_id"`
	Name           string     `json:"name"`
	Value          ClaimValue `json:"value"`
	SigningChannel *Claim     `json:"signing_channel,omitempty"`
}

// ClaimValue carries the channel public key, hex-encoded DER.
type ClaimValue struct {
	PublicKey string `json:"public_key,omitempty"`
}
