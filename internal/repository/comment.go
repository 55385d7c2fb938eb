package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/lbryio/comment-server/internal/model"
)

const commentColumns = `seq, comment_id, comment, claim_id, timestamp, channel_name, channel_id,
	channel_url, signature, signing_ts, parent_id, is_hidden`

const orderNewestFirst = ` ORDER BY timestamp DESC, seq DESC`

type commentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository wraps the read-only pool.
func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// List returns one page of comments matching q, newest first, and the total
// number of matches. Both reads share a snapshot.
func (r *commentRepository) List(ctx context.Context, q Query) ([]model.Comment, int, error) {
	where, args, err := q.compile()
	if err != nil {
		return nil, 0, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.GetContext(ctx, &total, `SELECT COUNT(*) FROM COMMENTS_ON_CLAIMS`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	query, args := paginate(`SELECT `+commentColumns+` FROM COMMENTS_ON_CLAIMS`+where+orderNewestFirst, args, q)
	comments := []model.Comment{}
	if err := tx.SelectContext(ctx, &comments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	return comments, total, nil
}

// ListIDs is List restricted to comment and parent ids.
func (r *commentRepository) ListIDs(ctx context.Context, q Query) ([]model.CommentIDEntry, int, error) {
	where, args, err := q.compile()
	if err != nil {
		return nil, 0, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.GetContext(ctx, &total, `SELECT COUNT(*) FROM COMMENTS_ON_CLAIMS`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count comment ids: %w", err)
	}

	query, args := paginate(`SELECT comment_id, parent_id FROM COMMENTS_ON_CLAIMS`+where+orderNewestFirst, args, q)
	entries := []model.CommentIDEntry{}
	if err := tx.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list comment ids: %w", err)
	}
	return entries, total, nil
}

func paginate(query string, args []any, q Query) (string, []any) {
	if q.PageSize <= 0 {
		return query, args
	}
	return query + ` LIMIT ? OFFSET ?`, append(args, q.PageSize, model.Offset(q.Page, q.PageSize))
}

func (r *commentRepository) GetByID(ctx context.Context, commentID string) (*model.Comment, error) {
	var c model.Comment
	err := r.db.GetContext(ctx, &c, `SELECT `+commentColumns+` FROM COMMENTS_ON_CLAIMS WHERE comment_id = ?`, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

// GetByIDs returns the comments that exist among commentIDs, newest first.
func (r *commentRepository) GetByIDs(ctx context.Context, commentIDs []string) ([]model.Comment, error) {
	comments := []model.Comment{}
	if len(commentIDs) == 0 {
		return comments, nil
	}

	q := Query{}.Where(In(FieldCommentID, commentIDs...))
	where, args, err := q.compile()
	if err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &comments, `SELECT `+commentColumns+` FROM COMMENTS_ON_CLAIMS`+where+orderNewestFirst, args...); err != nil {
		return nil, fmt.Errorf("get comments: %w", err)
	}
	return comments, nil
}

func (r *commentRepository) HasHiddenComments(ctx context.Context, claimID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM COMMENT WHERE LbryClaimId = ? AND IsHidden = TRUE)`, claimID)
	if err != nil {
		return false, fmt.Errorf("check hidden comments: %w", err)
	}
	return exists, nil
}

// ClaimIDsForComments maps each existing comment id to the content claim it
// belongs to. Unknown ids are absent from the result.
func (r *commentRepository) ClaimIDsForComments(ctx context.Context, commentIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(commentIDs))
	if len(commentIDs) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`SELECT CommentId, LbryClaimId FROM COMMENT WHERE CommentId IN (?)`, commentIDs)
	if err != nil {
		return nil, fmt.Errorf("build claim id query: %w", err)
	}
	rows, err := r.db.QueryxContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("get claim ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var commentID, claimID string
		if err := rows.Scan(&commentID, &claimID); err != nil {
			return nil, fmt.Errorf("scan claim id: %w", err)
		}
		out[commentID] = claimID
	}
	return out, rows.Err()
}

func (r *commentRepository) GetChannelByCommentID(ctx context.Context, commentID string) (*model.ChannelRef, error) {
	var ref model.ChannelRef
	err := r.db.GetContext(ctx, &ref,
		`SELECT channel_id, channel_name FROM COMMENTS_ON_CLAIMS WHERE comment_id = ?`, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	return &ref, nil
}

// UpsertChannel records a channel the first time it is seen. An existing
// name is kept.
func (r *commentRepository) UpsertChannel(ctx context.Context, tx *sqlx.Tx, channel model.Channel) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO CHANNEL (ClaimId, Name) VALUES (?, ?) ON CONFLICT (ClaimId) DO NOTHING`,
		channel.ClaimID, channel.Name)
	if err != nil {
		return fmt.Errorf("upsert channel: %w", err)
	}
	return nil
}

// Insert stores a new comment and reads it back through the view.
func (r *commentRepository) Insert(ctx context.Context, tx *sqlx.Tx, c model.NewComment) (*model.Comment, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO COMMENT (CommentId, LbryClaimId, ChannelId, Body, ParentId, Signature, Timestamp, SigningTs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CommentID, c.ClaimID, c.ChannelID, c.Body, c.ParentID, c.Signature, c.Timestamp, c.SigningTS)
	if err != nil {
		return nil, classify("insert comment", err)
	}
	return r.GetForUpdate(ctx, tx, c.CommentID)
}

// GetForUpdate reads a comment inside the writer's transaction.
func (r *commentRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, commentID string) (*model.Comment, error) {
	var c model.Comment
	err := tx.GetContext(ctx, &c, `SELECT `+commentColumns+` FROM COMMENTS_ON_CLAIMS WHERE comment_id = ?`, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

// UpdateBody replaces the body and signature of a comment. The id and
// timestamp are left untouched.
func (r *commentRepository) UpdateBody(ctx context.Context, tx *sqlx.Tx, commentID, body, signature, signingTS string) (*model.Comment, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE COMMENT SET Body = ?, Signature = ?, SigningTs = ? WHERE CommentId = ?`,
		body, signature, signingTS, commentID)
	if err != nil {
		return nil, classify("update comment", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrCommentNotFound
	}
	return r.GetForUpdate(ctx, tx, commentID)
}

// DeleteTree removes a comment and every reply under it, returning the
// removed rows with the root first.
func (r *commentRepository) DeleteTree(ctx context.Context, tx *sqlx.Tx, commentID string) ([]model.Comment, error) {
	removed := []model.Comment{}
	err := tx.SelectContext(ctx, &removed, `
		WITH RECURSIVE tree(id, depth) AS (
			SELECT ?, 0
			UNION ALL
			SELECT C.CommentId, tree.depth + 1 FROM COMMENT AS C JOIN tree ON C.ParentId = tree.id
		)
		SELECT `+commentColumns+` FROM COMMENTS_ON_CLAIMS
		JOIN tree ON tree.id = comment_id
		ORDER BY tree.depth, seq`, commentID)
	if err != nil {
		return nil, fmt.Errorf("collect comment tree: %w", err)
	}
	if len(removed) == 0 {
		return nil, model.ErrCommentNotFound
	}

	// deepest first, so no row still has children when it goes and the
	// cascade never recurses past SQLite's trigger depth
	for i := len(removed) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, `DELETE FROM COMMENT WHERE CommentId = ?`, removed[i].CommentID); err != nil {
			return nil, fmt.Errorf("delete comment %s: %w", removed[i].CommentID, err)
		}
	}
	return removed, nil
}

// SetHidden sets the hidden flag on the given comments and returns the ids
// whose flag actually changed. Missing ids and rows already in the target
// state are left out.
func (r *commentRepository) SetHidden(ctx context.Context, tx *sqlx.Tx, commentIDs []string, hidden bool) ([]string, error) {
	changed := []string{}
	if len(commentIDs) == 0 {
		return changed, nil
	}

	query, args, err := sqlx.In(`SELECT CommentId FROM COMMENT WHERE CommentId IN (?) AND IsHidden != ?`, commentIDs, hidden)
	if err != nil {
		return nil, fmt.Errorf("build hide query: %w", err)
	}
	if err := tx.SelectContext(ctx, &changed, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("read hide targets: %w", err)
	}
	if len(changed) == 0 {
		return changed, nil
	}

	query, args, err = sqlx.In(`UPDATE COMMENT SET IsHidden = ? WHERE CommentId IN (?)`, hidden, changed)
	if err != nil {
		return nil, fmt.Errorf("build hide query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("set hidden: %w", err)
	}
	return changed, nil
}

// classify maps constraint violations onto model errors.
func classify(action string, err error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return fmt.Errorf("%s: %w", action, err)
	}
	switch se.ExtendedCode {
	case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
		return model.ErrDuplicateComment
	case sqlite3.ErrConstraintForeignKey:
		return model.ErrParentNotFound
	}
	return fmt.Errorf("%s: %w", action, err)
}
