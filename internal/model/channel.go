package model

// Channel is a named identity backed by a claim.
type Channel struct {
	ClaimID string `db:"claim_id" json:"channel_id"`
	Name    string `db:"name" json:"channel_name"`
}

// ChannelRef is the result of get_channel_from_comment_id. Both fields are
// empty for anonymous comments.
type ChannelRef struct {
	ChannelID   *string `db:"channel_id" json:"channel_id,omitempty"`
	ChannelName *string `db:"channel_name" json:"channel_name,omitempty"`
}
