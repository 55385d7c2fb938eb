package rpc

import (
	"context"

	"github.com/lbryio/comment-server/internal/model"
	"github.com/lbryio/comment-server/internal/service"
)

// CommentService is the service surface exposed over JSON-RPC.
type CommentService interface {
	CreateComment(ctx context.Context, req model.CreateCommentRequest) (*model.Comment, error)
	EditComment(ctx context.Context, req model.EditCommentRequest) (*model.Comment, error)
	AbandonComment(ctx context.Context, req model.AbandonCommentRequest) (*model.AbandonResult, error)
	HideComments(ctx context.Context, req model.HideCommentsRequest, hide bool) (*model.HideResult, error)
	GetClaimComments(ctx context.Context, p service.ListParams) (*model.CommentList, error)
	GetClaimHiddenComments(ctx context.Context, claimID string, hidden bool, page, pageSize int) (*model.CommentList, error)
	GetCommentsByID(ctx context.Context, commentIDs []string) (*model.CommentList, error)
	GetCommentIDs(ctx context.Context, claimID string, parentID *string, page, pageSize int, flattened bool) (*model.CommentIDList, error)
	GetChannelFromCommentID(ctx context.Context, commentID string) (*model.ChannelRef, error)
}

type method func(ctx context.Context, params map[string]any) (any, error)

type pageParams struct {
	Page     *int `json:"page"`
	PageSize *int `json:"page_size"`
}

func (p pageParams) values() (int, int) {
	page, pageSize := model.DefaultPage, model.DefaultPageSize
	if p.Page != nil {
		page = *p.Page
	}
	if p.PageSize != nil {
		pageSize = *p.PageSize
	}
	return page, pageSize
}

func (s *Server) methods() map[string]method {
	return map[string]method{
		"ping":                        s.ping,
		"get_claim_comments":          s.getClaimComments,
		"get_claim_hidden_comments":   s.getClaimHiddenComments,
		"get_comment_ids":             s.getCommentIDs,
		"get_comments_by_id":          s.getCommentsByID,
		"get_channel_from_comment_id": s.getChannelFromCommentID,
		"create_comment":              s.createComment,
		"edit_comment":                s.editComment,
		"abandon_comment":             s.abandonComment,
		"delete_comment":              s.abandonComment,
		"hide_comments":               s.hideComments,
	}
}

func (s *Server) ping(context.Context, map[string]any) (any, error) {
	return "pong", nil
}

func (s *Server) getClaimComments(ctx context.Context, params map[string]any) (any, error) {
	var p struct {
		ClaimID  string  `json:"claim_id"`
		ParentID *string `json:"parent_id"`
		TopLevel bool    `json:"top_level"`
		pageParams
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	page, pageSize := p.values()
	return s.comments.GetClaimComments(ctx, service.ListParams{
		ClaimID:  p.ClaimID,
		ParentID: p.ParentID,
		TopLevel: p.TopLevel,
		Page:     page,
		PageSize: pageSize,
	})
}

func (s *Server) getClaimHiddenComments(ctx context.Context, params map[string]any) (any, error) {
	var p struct {
		ClaimID string `json:"claim_id"`
		Hidden  *bool  `json:"hidden"`
		pageParams
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	hidden := p.Hidden == nil || *p.Hidden
	page, pageSize := p.values()
	return s.comments.GetClaimHiddenComments(ctx, p.ClaimID, hidden, page, pageSize)
}

func (s *Server) getCommentIDs(ctx context.Context, params map[string]any) (any, error) {
	var p struct {
		ClaimID   string  `json:"claim_id"`
		ParentID  *string `json:"parent_id"`
		Flattened bool    `json:"flattened"`
		pageParams
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	page, pageSize := p.values()
	return s.comments.GetCommentIDs(ctx, p.ClaimID, p.ParentID, page, pageSize, p.Flattened)
}

func (s *Server) getCommentsByID(ctx context.Context, params map[string]any) (any, error) {
	var p struct {
		CommentIDs []string `json:"comment_ids"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return s.comments.GetCommentsByID(ctx, p.CommentIDs)
}

func (s *Server) getChannelFromCommentID(ctx context.Context, params map[string]any) (any, error) {
	var p struct {
		CommentID string `json:"comment_id"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	return s.comments.GetChannelFromCommentID(ctx, p.CommentID)
}

func (s *Server) createComment(ctx context.Context, params map[string]any) (any, error) {
	var req model.CreateCommentRequest
	if err := decode(params, &req); err != nil {
		return nil, err
	}
	return s.comments.CreateComment(ctx, req)
}

func (s *Server) editComment(ctx context.Context, params map[string]any) (any, error) {
	var req model.EditCommentRequest
	if err := decode(params, &req); err != nil {
		return nil, err
	}
	return s.comments.EditComment(ctx, req)
}

func (s *Server) abandonComment(ctx context.Context, params map[string]any) (any, error) {
	var req model.AbandonCommentRequest
	if err := decode(params, &req); err != nil {
		return nil, err
	}
	return s.comments.AbandonComment(ctx, req)
}

func (s *Server) hideComments(ctx context.Context, params map[string]any) (any, error) {
	var p struct {
		model.HideCommentsRequest
		Hide *bool `json:"hide"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	hide := p.Hide == nil || *p.Hide
	return s.comments.HideComments(ctx, p.HideCommentsRequest, hide)
}
