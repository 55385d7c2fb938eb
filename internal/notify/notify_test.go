package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbryio/comment-server/internal/model"
	"github.com/lbryio/comment-server/internal/queue"
)

func testEvent(action string) queue.NotificationEvent {
	parent := "parent"
	return queue.NewNotificationEvent(action, &model.Comment{
		CommentID: "cid",
		ClaimID:   "claim",
		Body:      "hello & goodbye",
		ParentID:  &parent,
	})
}

func TestWebhook_SendsQueryParams(t *testing.T) {
	got := make(chan url.Values, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		got <- r.URL.Query()
	}))
	defer srv.Close()

	require.NoError(t, NewWebhook(srv.URL+"/notify", "secret").Send(context.Background(), testEvent(queue.ActionCreate)))

	q := <-got
	assert.Equal(t, "C", q.Get("action_type"))
	assert.Equal(t, "cid", q.Get("comment_id"))
	assert.Equal(t, "claim", q.Get("claim_id"))
	assert.Equal(t, "parent", q.Get("parent_id"))
	assert.Equal(t, "hello & goodbye", q.Get("comment"))
	assert.Equal(t, "secret", q.Get("auth_token"))
	_, hasChannel := q["channel_id"]
	assert.False(t, hasChannel)
}

func TestWebhook_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	assert.Error(t, NewWebhook(srv.URL, "").Send(context.Background(), testEvent(queue.ActionDelete)))
}

type recordingSender struct {
	mu     sync.Mutex
	events []queue.NotificationEvent
	err    error
}

func (s *recordingSender) Send(_ context.Context, e queue.NotificationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestDispatcher_DeliversAndDrops(t *testing.T) {
	sender := &recordingSender{err: errors.New("endpoint down")}
	d := NewDispatcher(sender)

	d.Notify(context.Background(), testEvent(queue.ActionCreate), testEvent(queue.ActionUpdate))
	d.Stop()
	assert.Equal(t, 2, sender.count(), "failed deliveries are not retried")

	d.Notify(context.Background(), testEvent(queue.ActionDelete))
	assert.Equal(t, 2, sender.count())
}

func TestDispatcher_IgnoresRequestCancellation(t *testing.T) {
	delivered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(delivered)
	}))
	defer srv.Close()

	d := NewDispatcher(NewWebhook(srv.URL, ""))
	defer d.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	d.Notify(ctx, testEvent(queue.ActionCreate))
	cancel()

	select {
	case <-delivered:
	case <-time.After(5 * time.Second):
		t.Fatal("notification was not delivered")
	}
}

func TestStreamNotifier_Publishes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	n := NewStreamNotifier(queue.NewNotificationStream(client))
	n.Notify(context.Background(), testEvent(queue.ActionHide), testEvent(queue.ActionHide))

	length, err := client.XLen(context.Background(), queue.StreamNotifications).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)
}

func TestSlack_PostsText(t *testing.T) {
	got := make(chan slackMessage, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg slackMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		got <- msg
	}))
	defer srv.Close()

	NewSlack(srv.URL).Alert("create_comment", errors.New("disk I/O error"), map[string]any{"claim_id": "abc"})

	select {
	case msg := <-got:
		assert.Contains(t, msg.Text, "disk I/O error")
		assert.Contains(t, msg.Text, "create_comment")
		assert.Contains(t, msg.Text, `"claim_id": "abc"`)
	case <-time.After(5 * time.Second):
		t.Fatal("alert was not posted")
	}
}
