package service

import (
	"context"
	"errors"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/lbryio/comment-server/internal/model"
	"github.com/lbryio/comment-server/internal/queue"
)

// CreateComment validates, authorizes and stores a new comment.
func (s *CommentService) CreateComment(ctx context.Context, req model.CreateCommentRequest) (*model.Comment, error) {
	if !model.IsValidBody(req.Body) {
		return nil, model.ErrBodyInvalid
	}
	if !model.IsValidClaimID(req.ClaimID) {
		return nil, model.ErrClaimIDInvalid
	}
	if req.ParentID != nil && !model.IsValidCommentID(*req.ParentID) {
		return nil, model.ErrParentIDInvalid
	}

	var creds *model.Credentials
	if req.HasCredentials() {
		c, ok := req.Credentials()
		if !ok {
			return nil, model.ErrCredentialsPartial
		}
		if err := model.ValidateCredentials(c); err != nil {
			return nil, err
		}
		if err := s.authorize(ctx, c.ChannelID, c.Signature, c.SigningTS, req.Body); err != nil {
			return nil, err
		}
		creds = &c
	}

	var created *model.Comment
	err := s.writer.Do(ctx, "create_comment", func(ctx context.Context, tx *sqlx.Tx) error {
		if req.ParentID != nil {
			parent, err := s.commentRepo.GetForUpdate(ctx, tx, *req.ParentID)
			if errors.Is(err, model.ErrCommentNotFound) {
				return model.ErrParentNotFound
			}
			if err != nil {
				return err
			}
			if parent.ClaimID != req.ClaimID {
				return model.ErrParentMismatch
			}
		}

		timestamp := s.now().Unix()
		nc := model.NewComment{
			CommentID: model.CommentIDFor(req.ClaimID, req.Body, timestamp),
			ClaimID:   req.ClaimID,
			Body:      req.Body,
			ParentID:  req.ParentID,
			Timestamp: timestamp,
		}
		if creds != nil {
			if err := s.commentRepo.UpsertChannel(ctx, tx, model.Channel{ClaimID: creds.ChannelID, Name: creds.ChannelName}); err != nil {
				return err
			}
			nc.ChannelID = &creds.ChannelID
			nc.ChannelName = &creds.ChannelName
			nc.Signature = &creds.Signature
			nc.SigningTS = &creds.SigningTS
		}

		var err error
		created, err = s.commentRepo.Insert(ctx, tx, nc)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[CommentService] Create OK: comment=%s claim=%s anonymous=%t", created.CommentID, created.ClaimID, created.IsAnonymous())
	s.notifier.Notify(ctx, queue.NewNotificationEvent(queue.ActionCreate, created))
	return created, nil
}

// EditComment replaces the body of an attributed comment. The comment id and
// timestamp do not change.
func (s *CommentService) EditComment(ctx context.Context, req model.EditCommentRequest) (*model.Comment, error) {
	if err := model.ValidateSignedTarget(req.CommentID, req.Signature, req.SigningTS); err != nil {
		return nil, err
	}
	if !model.IsValidBody(req.Body) {
		return nil, model.ErrBodyInvalid
	}

	current, err := s.commentRepo.GetByID(ctx, req.CommentID)
	if err != nil {
		return nil, err
	}
	if current.IsAnonymous() {
		return nil, model.ErrSignatureNotValidated
	}
	if err := s.authorize(ctx, *current.ChannelID, req.Signature, req.SigningTS, req.Body); err != nil {
		return nil, err
	}

	var edited *model.Comment
	err = s.writer.Do(ctx, "edit_comment", func(ctx context.Context, tx *sqlx.Tx) error {
		var err error
		edited, err = s.commentRepo.UpdateBody(ctx, tx, req.CommentID, req.Body, req.Signature, req.SigningTS)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[CommentService] Edit OK: comment=%s", edited.CommentID)
	s.notifier.Notify(ctx, queue.NewNotificationEvent(queue.ActionUpdate, edited))
	return edited, nil
}

// AbandonComment deletes a comment and its replies. A comment that does not
// exist yields Abandoned=false.
func (s *CommentService) AbandonComment(ctx context.Context, req model.AbandonCommentRequest) (*model.AbandonResult, error) {
	if err := model.ValidateSignedTarget(req.CommentID, req.Signature, req.SigningTS); err != nil {
		return nil, err
	}

	current, err := s.commentRepo.GetByID(ctx, req.CommentID)
	if errors.Is(err, model.ErrCommentNotFound) {
		return &model.AbandonResult{Abandoned: false}, nil
	}
	if err != nil {
		return nil, err
	}
	if current.IsAnonymous() {
		return nil, model.ErrSignatureNotValidated
	}
	if err := s.authorize(ctx, *current.ChannelID, req.Signature, req.SigningTS, req.CommentID); err != nil {
		return nil, err
	}

	var removed []model.Comment
	err = s.writer.Do(ctx, "abandon_comment", func(ctx context.Context, tx *sqlx.Tx) error {
		var err error
		removed, err = s.commentRepo.DeleteTree(ctx, tx, req.CommentID)
		return err
	})
	if errors.Is(err, model.ErrCommentNotFound) {
		return &model.AbandonResult{Abandoned: false}, nil
	}
	if err != nil {
		return nil, err
	}

	log.Printf("[CommentService] Abandon OK: comment=%s removed=%d", req.CommentID, len(removed))
	s.notifier.Notify(ctx, queue.NewNotificationEvents(queue.ActionDelete, removed)...)
	return &model.AbandonResult{Abandoned: true}, nil
}
