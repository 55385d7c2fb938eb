// Package notify delivers comment notifications and error alerts to
// external HTTP endpoints.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lbryio/comment-server/internal/queue"
)

// DefaultTimeout bounds one webhook call.
const DefaultTimeout = 10 * time.Second

// Sender delivers a single event.
type Sender interface {
	Send(ctx context.Context, event queue.NotificationEvent) error
}

// Webhook sends events as GET requests with the event fields as query
// parameters.
type Webhook struct {
	url        string
	authToken  string
	httpClient *http.Client
}

func NewWebhook(endpoint, authToken string) *Webhook {
	return &Webhook{
		url:       endpoint,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Query returns the query parameters for event. Optional fields are only
// set when present.
func (w *Webhook) Query(event queue.NotificationEvent) url.Values {
	q := url.Values{}
	q.Set("action_type", event.Action)
	q.Set("comment_id", event.CommentID)
	q.Set("claim_id", event.ClaimID)
	if event.ChannelID != nil && *event.ChannelID != "" {
		q.Set("channel_id", *event.ChannelID)
	}
	if event.ParentID != nil && *event.ParentID != "" {
		q.Set("parent_id", *event.ParentID)
	}
	if event.Body != "" {
		q.Set("comment", event.Body)
	}
	if w.authToken != "" {
		q.Set("auth_token", w.authToken)
	}
	return q
}

func (w *Webhook) Send(ctx context.Context, event queue.NotificationEvent) error {
	endpoint, err := url.Parse(w.url)
	if err != nil {
		return fmt.Errorf("parse notification url: %w", err)
	}
	endpoint.RawQuery = w.Query(event).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
