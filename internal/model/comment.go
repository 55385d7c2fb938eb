package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Comment is a row of the COMMENTS_ON_CLAIMS read view. Nil pointer fields
// are omitted from JSON output.
type Comment struct {
	CommentID   string  `db:"comment_id" json:"comment_id"`
	ClaimID     string  `db:"claim_id" json:"claim_id"`
	Body        string  `db:"comment" json:"comment"`
	ParentID    *string `db:"parent_id" json:"parent_id,omitempty"`
	ChannelID   *string `db:"channel_id" json:"channel_id,omitempty"`
	ChannelName *string `db:"channel_name" json:"channel_name,omitempty"`
	ChannelURL  *string `db:"channel_url" json:"channel_url,omitempty"`
	Signature   *string `db:"signature" json:"signature,omitempty"`
	SigningTS   *string `db:"signing_ts" json:"signing_ts,omitempty"`
	Timestamp   int64   `db:"timestamp" json:"timestamp"`
	IsHidden    bool    `db:"is_hidden" json:"is_hidden"`
	Seq         int64   `db:"seq" json:"-"`
}

// IsAnonymous reports whether the comment was posted without a channel.
func (c *Comment) IsAnonymous() bool {
	return c.ChannelID == nil || *c.ChannelID == ""
}

// Credentials is the all-or-nothing bundle that attributes a mutation to a channel.
type Credentials struct {
	ChannelID   string
	ChannelName string
	Signature   string
	SigningTS   string
}

// CreateCommentRequest holds the params of create_comment.
type CreateCommentRequest struct {
	Body        string  `json:"comment"`
	ClaimID     string  `json:"claim_id"`
	ParentID    *string `json:"parent_id,omitempty"`
	ChannelID   *string `json:"channel_id,omitempty"`
	ChannelName *string `json:"channel_name,omitempty"`
	Signature   *string `json:"signature,omitempty"`
	SigningTS   *string `json:"signing_ts,omitempty"`
}

// HasCredentials reports whether any credential field was supplied.
func (r *CreateCommentRequest) HasCredentials() bool {
	return r.ChannelID != nil || r.ChannelName != nil || r.Signature != nil || r.SigningTS != nil
}

// Credentials returns the bundle if all four fields are present.
func (r *CreateCommentRequest) Credentials() (Credentials, bool) {
	if r.ChannelID == nil || r.ChannelName == nil || r.Signature == nil || r.SigningTS == nil {
		return Credentials{}, false
	}
	return Credentials{
		ChannelID:   *r.ChannelID,
		ChannelName: *r.ChannelName,
		Signature:   *r.Signature,
		SigningTS:   *r.SigningTS,
	}, true
}

// EditCommentRequest holds the params of edit_comment.
type EditCommentRequest struct {
	CommentID string `json:"comment_id"`
	Body      string `json:"comment"`
	Signature string `json:"signature"`
	SigningTS string `json:"signing_ts"`
}

// AbandonCommentRequest holds the params of abandon_comment and delete_comment.
type AbandonCommentRequest struct {
	CommentID string `json:"comment_id"`
	Signature string `json:"signature"`
	SigningTS string `json:"signing_ts"`
}

// HidePiece is one signed target of hide_comments.
type HidePiece struct {
	CommentID string `json:"comment_id"`
	Signature string `json:"signature"`
	SigningTS string `json:"signing_ts"`
}

// HideCommentsRequest holds the params of hide_comments.
type HideCommentsRequest struct {
	Pieces []HidePiece `json:"pieces"`
}

// NewComment is what the mutation pipeline hands to the writer for insertion.
type NewComment struct {
	CommentID   string
	ClaimID     string
	Body        string
	ParentID    *string
	ChannelID   *string
	ChannelName *string
	Signature   *string
	SigningTS   *string
	Timestamp   int64
}

// Comment constraints
const (
	MaxCommentLength     = 2000
	MaxChannelNameLength = 255

	ClaimIDLength   = 40
	CommentIDLength = 64
	SignatureLength = 128
)

// Result of abandon_comment.
type AbandonResult struct {
	Abandoned bool `json:"abandoned"`
}

// Result of hide_comments.
type HideResult struct {
	Hidden  []string `json:"hidden"`
	Visible []string `json:"visible"`
}

// CommentIDFor derives the id of a new comment: hex SHA-256 of
// "claim_id:body:timestamp".
func CommentIDFor(claimID, body string, timestamp int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d", claimID, body, timestamp)))
	return hex.EncodeToString(sum[:])
}
