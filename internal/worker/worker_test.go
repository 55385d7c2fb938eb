package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbryio/comment-server/internal/model"
	"github.com/lbryio/comment-server/internal/queue"
	"github.com/lbryio/comment-server/internal/worker"
)

// MockSender records delivered events and can be told to fail.
type MockSender struct {
	mu     sync.Mutex
	events []queue.NotificationEvent
	fail   bool
}

func (m *MockSender) Send(_ context.Context, e queue.NotificationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	if m.fail {
		return errors.New("endpoint down")
	}
	return nil
}

func (m *MockSender) Delivered() []queue.NotificationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]queue.NotificationEvent(nil), m.events...)
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func testConfig() worker.ManagerConfig {
	return worker.ManagerConfig{WorkerCount: 2, BatchSize: 5, BlockTimeout: 50 * time.Millisecond}
}

func TestHandler_SkipsUnknownAction(t *testing.T) {
	sender := &MockSender{}
	h := worker.NewHandler(sender)

	require.NoError(t, h.HandleEvent(context.Background(), queue.NotificationEvent{Action: "X"}))
	assert.Empty(t, sender.Delivered())

	sender.fail = true
	err := h.HandleEvent(context.Background(), queue.NotificationEvent{Action: queue.ActionCreate, CommentID: "c"})
	assert.Error(t, err)
}

func TestManager_DeliversPublishedEvents(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	sender := &MockSender{}

	stream := queue.NewNotificationStream(client)
	m := worker.NewManager(stream, worker.NewHandler(sender), testConfig())
	require.NoError(t, m.Start(ctx))

	for _, id := range []string{"a", "b", "c"} {
		_, err := stream.Publish(ctx, queue.NewNotificationEvent(queue.ActionCreate, &model.Comment{CommentID: id, ClaimID: "claim"}))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return len(sender.Delivered()) == 3 }, 5*time.Second, 20*time.Millisecond)
	m.Stop()

	pending, err := stream.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestManager_FailedDeliveryIsNotRetried(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	sender := &MockSender{fail: true}

	stream := queue.NewNotificationStream(client)
	m := worker.NewManager(stream, worker.NewHandler(sender), testConfig())
	require.NoError(t, m.Start(ctx))

	_, err := stream.Publish(ctx, queue.NewNotificationEvent(queue.ActionDelete, &model.Comment{CommentID: "a", ClaimID: "claim"}))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(sender.Delivered()) == 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	m.Stop()
	assert.Len(t, sender.Delivered(), 1)
}

func TestManager_DeliversEventsPublishedBeforeStart(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	sender := &MockSender{}
	stream := queue.NewNotificationStream(client)

	_, err := stream.Publish(ctx, queue.NewNotificationEvent(queue.ActionHide, &model.Comment{CommentID: "early", ClaimID: "claim"}))
	require.NoError(t, err)

	m := worker.NewManager(stream, worker.NewHandler(sender), testConfig())
	require.NoError(t, m.Start(ctx))
	defer m.Stop()

	require.Eventually(t, func() bool { return len(sender.Delivered()) == 1 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "early", sender.Delivered()[0].CommentID)
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := worker.NewManager(queue.NewNotificationStream(setupRedis(t)), worker.NewHandler(&MockSender{}), testConfig())
	m.Stop()
}
