package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/lbryio/comment-server/internal/model"
)

// CommentRepository reads from the read-only pool. Methods taking a *sqlx.Tx
// run inside a writer job and are the only way the store is mutated.
type CommentRepository interface {
	List(ctx context.Context, q Query) ([]model.Comment, int, error)
	ListIDs(ctx context.Context, q Query) ([]model.CommentIDEntry, int, error)
	GetByID(ctx context.Context, commentID string) (*model.Comment, error)
	GetByIDs(ctx context.Context, commentIDs []string) ([]model.Comment, error)
	HasHiddenComments(ctx context.Context, claimID string) (bool, error)
	ClaimIDsForComments(ctx context.Context, commentIDs []string) (map[string]string, error)
	GetChannelByCommentID(ctx context.Context, commentID string) (*model.ChannelRef, error)

	UpsertChannel(ctx context.Context, tx *sqlx.Tx, channel model.Channel) error
	Insert(ctx context.Context, tx *sqlx.Tx, c model.NewComment) (*model.Comment, error)
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, commentID string) (*model.Comment, error)
	UpdateBody(ctx context.Context, tx *sqlx.Tx, commentID, body, signature, signingTS string) (*model.Comment, error)
	DeleteTree(ctx context.Context, tx *sqlx.Tx, commentID string) ([]model.Comment, error)
	SetHidden(ctx context.Context, tx *sqlx.Tx, commentIDs []string, hidden bool) ([]string, error)
}
