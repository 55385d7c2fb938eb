package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbryio/comment-server/internal/model"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewNotificationEvent(t *testing.T) {
	channel := "chan"
	c := &model.Comment{CommentID: "cid", ClaimID: "claim", Body: "hi", ChannelID: &channel}

	e := NewNotificationEvent(ActionCreate, c)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "C", e.Action)
	assert.Equal(t, "cid", e.CommentID)
	assert.Equal(t, &channel, e.ChannelID)
	assert.Nil(t, e.ParentID)

	other := NewNotificationEvent(ActionCreate, c)
	assert.NotEqual(t, e.ID, other.ID)
}

func TestParseNotificationEvent_Invalid(t *testing.T) {
	_, err := ParseNotificationEvent(map[string]interface{}{})
	assert.Error(t, err)
	_, err = ParseNotificationEvent(map[string]interface{}{"data": "{"})
	assert.Error(t, err)
}

func TestPublishConsumeAck(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	stream := NewNotificationStream(client)

	require.NoError(t, stream.EnsureGroup(ctx))
	require.NoError(t, stream.EnsureGroup(ctx), "second call is a no-op")

	first := NewNotificationEvent(ActionDelete, &model.Comment{CommentID: "a", ClaimID: "claim"})
	second := NewNotificationEvent(ActionDelete, &model.Comment{CommentID: "b", ClaimID: "claim"})
	ids, err := stream.Publish(ctx, first, second)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	msgs, err := stream.Read(ctx, "w1", 10, 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, ids[0], msgs[0].ID)
	assert.Equal(t, first, msgs[0].Event)
	assert.Equal(t, second, msgs[1].Event)

	pending, err := stream.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)

	redelivered, err := stream.ReadPending(ctx, "w1", 10)
	require.NoError(t, err)
	assert.Len(t, redelivered, 2)

	require.NoError(t, stream.Ack(ctx, ids...))
	pending, err = stream.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	redelivered, err = stream.ReadPending(ctx, "w1", 10)
	require.NoError(t, err)
	assert.Empty(t, redelivered)
}

func TestPublishNothing(t *testing.T) {
	stream := NewNotificationStream(newTestClient(t))

	ids, err := stream.Publish(context.Background())
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestReadDropsUndecodableEntries(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	stream := NewStream(client, "stream:test", "group", 0)
	require.NoError(t, stream.EnsureGroup(ctx))

	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{Stream: "stream:test", Values: map[string]any{"data": "{"}}).Err())

	msgs, err := stream.Read(ctx, "w1", 10, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	pending, err := stream.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}
