package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lbryio/comment-server/internal/notify"
	"github.com/lbryio/comment-server/internal/observability"
	"github.com/lbryio/comment-server/internal/queue"
)

// Handler delivers notification events taken off the stream.
type Handler struct {
	sender notify.Sender
}

// NewHandler creates a handler that delivers through sender.
func NewHandler(sender notify.Sender) *Handler {
	return &Handler{sender: sender}
}

// HandleEvent delivers one event. Events are never retried.
func (h *Handler) HandleEvent(ctx context.Context, event queue.NotificationEvent) error {
	start := time.Now()

	switch event.Action {
	case queue.ActionCreate, queue.ActionUpdate, queue.ActionHide, queue.ActionDelete:
	default:
		log.Printf("[Handler] Unknown action type: %s", event.Action)
		return nil
	}

	err := h.sender.Send(ctx, event)
	observability.Notifications.WithLabelValues(observability.Outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("deliver %s for %s: %w", event.Action, event.CommentID, err)
	}

	log.Printf("[Handler] Delivered: action=%s comment=%s duration=%v", event.Action, event.CommentID, time.Since(start))
	return nil
}
