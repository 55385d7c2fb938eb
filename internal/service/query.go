package service

import (
	"context"

	"github.com/lbryio/comment-server/internal/model"
	"github.com/lbryio/comment-server/internal/repository"
)

// ListParams selects comments under a claim.
type ListParams struct {
	ClaimID    string
	ParentID   *string
	TopLevel   bool
	Visibility model.Visibility
	Page       int
	PageSize   int
}

func normalizePage(page, pageSize int) (int, int, error) {
	if page < 1 || pageSize < 1 {
		return 0, 0, model.ErrPageInvalid
	}
	if pageSize > model.MaxPageSize {
		pageSize = model.MaxPageSize
	}
	return page, pageSize, nil
}

func (p ListParams) query() repository.Query {
	q := repository.Query{Page: p.Page, PageSize: p.PageSize}.Where(repository.Eq(repository.FieldClaimID, p.ClaimID))
	switch {
	case p.ParentID != nil:
		q = q.Where(repository.Eq(repository.FieldParentID, *p.ParentID))
	case p.TopLevel:
		q = q.Where(repository.IsNull(repository.FieldParentID))
	}
	switch p.Visibility {
	case model.VisibilityHidden:
		q = q.Where(repository.Eq(repository.FieldIsHidden, true))
	case model.VisibilityVisible:
		q = q.Where(repository.Eq(repository.FieldIsHidden, false))
	}
	return q
}

func (s *CommentService) list(ctx context.Context, q repository.Query) (*model.CommentList, error) {
	items, total, err := s.commentRepo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &model.CommentList{
		Items:      items,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: model.TotalPages(total, q.PageSize),
		TotalItems: total,
	}, nil
}

// GetClaimComments lists comments under a claim, newest first.
func (s *CommentService) GetClaimComments(ctx context.Context, p ListParams) (*model.CommentList, error) {
	if !model.IsValidClaimID(p.ClaimID) {
		return nil, model.ErrClaimIDInvalid
	}
	if p.ParentID != nil && !model.IsValidCommentID(*p.ParentID) {
		return nil, model.ErrParentIDInvalid
	}
	var err error
	if p.Page, p.PageSize, err = normalizePage(p.Page, p.PageSize); err != nil {
		return nil, err
	}

	list, err := s.list(ctx, p.query())
	if err != nil {
		return nil, err
	}
	if list.HasHiddenComments, err = s.commentRepo.HasHiddenComments(ctx, p.ClaimID); err != nil {
		return nil, err
	}
	return list, nil
}

// GetClaimHiddenComments lists only hidden (hidden=true) or only visible
// comments under a claim.
func (s *CommentService) GetClaimHiddenComments(ctx context.Context, claimID string, hidden bool, page, pageSize int) (*model.CommentList, error) {
	visibility := model.VisibilityVisible
	if hidden {
		visibility = model.VisibilityHidden
	}
	return s.GetClaimComments(ctx, ListParams{
		ClaimID:    claimID,
		Visibility: visibility,
		Page:       page,
		PageSize:   pageSize,
	})
}

// GetCommentsByID returns the requested comments that exist as a single page.
func (s *CommentService) GetCommentsByID(ctx context.Context, commentIDs []string) (*model.CommentList, error) {
	if len(commentIDs) == 0 {
		return nil, model.ErrNoCommentIDs
	}
	if len(commentIDs) > model.MaxPageSize {
		return nil, model.ErrPageInvalid
	}
	return s.list(ctx, repository.Query{Page: 1, PageSize: len(commentIDs)}.
		Where(repository.In(repository.FieldCommentID, commentIDs...)))
}

// GetCommentIDs lists comment and parent ids under a claim. Without a parent
// only top-level comments are listed. flattened returns bare ids plus
// [comment_id, parent_id] pairs.
func (s *CommentService) GetCommentIDs(ctx context.Context, claimID string, parentID *string, page, pageSize int, flattened bool) (*model.CommentIDList, error) {
	if !model.IsValidClaimID(claimID) {
		return nil, model.ErrClaimIDInvalid
	}
	if parentID != nil && !model.IsValidCommentID(*parentID) {
		return nil, model.ErrParentIDInvalid
	}
	page, pageSize, err := normalizePage(page, pageSize)
	if err != nil {
		return nil, err
	}

	q := ListParams{ClaimID: claimID, ParentID: parentID, TopLevel: parentID == nil, Page: page, PageSize: pageSize}.query()
	entries, total, err := s.commentRepo.ListIDs(ctx, q)
	if err != nil {
		return nil, err
	}

	out := &model.CommentIDList{
		Items:      entries,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: model.TotalPages(total, pageSize),
		TotalItems: total,
	}
	if flattened {
		ids := make([]string, len(entries))
		replies := make([][2]*string, len(entries))
		for i := range entries {
			ids[i] = entries[i].CommentID
			replies[i] = [2]*string{&entries[i].CommentID, entries[i].ParentID}
		}
		out.Items = ids
		out.Replies = replies
	}
	return out, nil
}

// GetChannelFromCommentID returns the channel a comment was posted as.
func (s *CommentService) GetChannelFromCommentID(ctx context.Context, commentID string) (*model.ChannelRef, error) {
	if !model.IsValidCommentID(commentID) {
		return nil, model.ErrCommentIDInvalid
	}
	return s.commentRepo.GetChannelByCommentID(ctx, commentID)
}

// SearchComments lists comments matching keyword constraints such as
// {"claim_id": "abc", "timestamp": ">=1600000000", "channel_is_null": true}.
func (s *CommentService) SearchComments(ctx context.Context, constraints map[string]any, page, pageSize int) (*model.CommentList, error) {
	page, pageSize, err := normalizePage(page, pageSize)
	if err != nil {
		return nil, err
	}
	preds, err := repository.ParseConstraints(constraints)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, repository.Query{Predicates: preds, Page: page, PageSize: pageSize})
}
