package service

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/lbryio/comment-server/internal/model"
	"github.com/lbryio/comment-server/internal/queue"
	"github.com/lbryio/comment-server/internal/signing"
)

// HideComments sets the hidden flag on every piece signed by the channel
// that owns the content claim the comment was posted under. Pieces that do
// not verify are left untouched. hide=false reveals instead.
func (s *CommentService) HideComments(ctx context.Context, req model.HideCommentsRequest, hide bool) (*model.HideResult, error) {
	if len(req.Pieces) == 0 {
		return nil, model.ErrNoCommentIDs
	}

	// later pieces for the same comment win
	byID := make(map[string]model.HidePiece, len(req.Pieces))
	requested := make([]string, 0, len(req.Pieces))
	for _, p := range req.Pieces {
		if _, seen := byID[p.CommentID]; !seen {
			requested = append(requested, p.CommentID)
		}
		byID[p.CommentID] = p
	}

	claimIDs, err := s.commentRepo.ClaimIDsForComments(ctx, requested)
	if err != nil {
		return nil, err
	}

	verified := s.verifyPieces(ctx, requested, byID, claimIDs)

	var changed []string
	if len(verified) > 0 {
		err = s.writer.Do(ctx, "hide_comments", func(ctx context.Context, tx *sqlx.Tx) error {
			var err error
			changed, err = s.commentRepo.SetHidden(ctx, tx, verified, hide)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	comments, err := s.commentRepo.GetByIDs(ctx, requested)
	if err != nil {
		return nil, err
	}

	hiddenByID := make(map[string]bool, len(comments))
	for _, c := range comments {
		hiddenByID[c.CommentID] = c.IsHidden
	}
	result := &model.HideResult{Hidden: []string{}, Visible: []string{}}
	for _, id := range requested {
		isHidden, exists := hiddenByID[id]
		switch {
		case !exists:
		case isHidden:
			result.Hidden = append(result.Hidden, id)
		default:
			result.Visible = append(result.Visible, id)
		}
	}

	log.Printf("[CommentService] Hide OK: hide=%t requested=%d verified=%d changed=%d",
		hide, len(requested), len(verified), len(changed))

	if len(changed) > 0 {
		action := queue.ActionHide
		if !hide {
			action = queue.ActionUpdate
		}
		isChanged := make(map[string]bool, len(changed))
		for _, id := range changed {
			isChanged[id] = true
		}
		var affected []model.Comment
		for _, c := range comments {
			if isChanged[c.CommentID] {
				affected = append(affected, c)
			}
		}
		s.notifier.Notify(ctx, queue.NewNotificationEvents(action, affected)...)
	}
	return result, nil
}

// verifyPieces returns the requested ids whose signature verifies against
// the signing channel of their content claim. Each content claim is
// resolved at most once, failures included.
func (s *CommentService) verifyPieces(ctx context.Context, requested []string, byID map[string]model.HidePiece, claimIDs map[string]string) []string {
	claims := make(map[string]*model.Claim)
	verified := make([]string, 0, len(requested))

	for _, id := range requested {
		claimID, ok := claimIDs[id]
		if !ok {
			continue
		}
		piece := byID[id]
		if err := model.ValidateSignedTarget(piece.CommentID, piece.Signature, piece.SigningTS); err != nil {
			continue
		}

		claim, memoized := claims[claimID]
		if !memoized {
			var err error
			claim, err = s.resolveClaim(ctx, claimID)
			if err != nil {
				log.Printf("[CommentService] Hide resolve FAILED: claim=%s err=%v", claimID, err)
			}
			claims[claimID] = claim
		}

		var channel *model.Claim
		if claim != nil {
			channel = claim.SigningChannel
		}
		res := signing.Verify(channel, piece.Signature, piece.SigningTS, piece.CommentID)
		if s.checkResult(res, claimID) != nil {
			continue
		}
		verified = append(verified, id)
	}
	return verified
}
