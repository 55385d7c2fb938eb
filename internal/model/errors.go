package model

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the service layer wraps exactly
// one of these; anything else is treated as internal.
var (
	ErrInvalidParams = errors.New("invalid params")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("not found")
)

// Comment errors
var (
	ErrBodyInvalid        = fmt.Errorf("%w: comment must be between 1 and %d characters", ErrInvalidParams, MaxCommentLength)
	ErrClaimIDInvalid     = fmt.Errorf("%w: claim_id must be %d hex characters", ErrInvalidParams, ClaimIDLength)
	ErrCommentIDInvalid   = fmt.Errorf("%w: comment_id must be %d hex characters", ErrInvalidParams, CommentIDLength)
	ErrParentIDInvalid    = fmt.Errorf("%w: parent_id must be %d hex characters", ErrInvalidParams, CommentIDLength)
	ErrCredentialsPartial = fmt.Errorf("%w: channel_id, channel_name, signature and signing_ts must be given together", ErrInvalidParams)
	ErrChannelIDInvalid   = fmt.Errorf("%w: channel_id must be %d hex characters", ErrInvalidParams, ClaimIDLength)
	ErrChannelNameInvalid = fmt.Errorf("%w: invalid channel_name", ErrInvalidParams)
	ErrSignatureInvalid   = fmt.Errorf("%w: signature must be %d hex characters", ErrInvalidParams, SignatureLength)
	ErrSigningTSInvalid   = fmt.Errorf("%w: signing_ts must be alphanumeric", ErrInvalidParams)
	ErrNoCommentIDs       = fmt.Errorf("%w: at least one comment_id is required", ErrInvalidParams)
	ErrPageInvalid        = fmt.Errorf("%w: page and page_size must be positive", ErrInvalidParams)
	ErrDuplicateComment   = fmt.Errorf("%w: comment or signature already exists", ErrInvalidParams)
	ErrParentMismatch     = fmt.Errorf("%w: parent comment belongs to a different claim", ErrInvalidParams)

	ErrCommentNotFound = fmt.Errorf("%w: comment", ErrNotFound)
	ErrParentNotFound  = fmt.Errorf("%w: parent comment", ErrNotFound)

	ErrSignatureNotValidated = fmt.Errorf("%w: signature could not be validated", ErrUnauthorized)
)
