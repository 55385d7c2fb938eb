package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lbryio/comment-server/internal/lbrynet"
	"github.com/lbryio/comment-server/internal/model"
	"github.com/lbryio/comment-server/internal/notify"
	"github.com/lbryio/comment-server/internal/observability"
	"github.com/lbryio/comment-server/internal/repository"
	"github.com/lbryio/comment-server/internal/signing"
	"github.com/lbryio/comment-server/internal/writer"
)

// Writer runs mutation jobs one at a time.
type Writer interface {
	Do(ctx context.Context, name string, job writer.Job) error
}

type CommentService struct {
	commentRepo repository.CommentRepository
	writer      Writer
	resolver    lbrynet.Resolver
	notifier    notify.Notifier
	now         func() time.Time
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	w Writer,
	resolver lbrynet.Resolver,
	notifier notify.Notifier,
) *CommentService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &CommentService{
		commentRepo: commentRepo,
		writer:      w,
		resolver:    resolver,
		notifier:    notifier,
		now:         time.Now,
	}
}

// SetClock replaces the time source used for new comment timestamps.
func (s *CommentService) SetClock(now func() time.Time) {
	s.now = now
}

// resolveClaim returns (nil, nil) when the daemon has no such claim.
func (s *CommentService) resolveClaim(ctx context.Context, claimID string) (*model.Claim, error) {
	claim, err := s.resolver.ResolveClaim(ctx, claimID)
	if errors.Is(err, lbrynet.ErrClaimNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve claim %s: %w", claimID, err)
	}
	return claim, nil
}

// authorize checks that payload was signed by the key of channel claimID.
// Resolver transport failures are internal errors; every other failure is
// ErrSignatureNotValidated.
func (s *CommentService) authorize(ctx context.Context, channelID, signature, signingTS, payload string) error {
	claim, err := s.resolveClaim(ctx, channelID)
	if err != nil {
		return err
	}
	if claim != nil && claim.ClaimID != channelID {
		claim = nil
	}

	res := signing.Verify(claim, signature, signingTS, payload)
	return s.checkResult(res, channelID)
}

func (s *CommentService) checkResult(res signing.Result, channelID string) error {
	if res.Authorized {
		observability.SignatureChecks.WithLabelValues("authorized").Inc()
		return nil
	}
	observability.SignatureChecks.WithLabelValues(string(res.Reason)).Inc()
	log.Printf("[CommentService] Signature rejected: channel=%s reason=%s", channelID, res.Reason)
	return model.ErrSignatureNotValidated
}
