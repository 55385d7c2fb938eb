package queue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultMaxLen caps the notification stream. Delivered entries are never
// read again, so old ones are trimmed on every publish.
const DefaultMaxLen = 100_000

// Publisher appends events to the notification stream.
type Publisher interface {
	// Publish appends events in order and returns their message IDs.
	Publish(ctx context.Context, events ...NotificationEvent) ([]string, error)
}

// Stream is one Redis stream read through one consumer group.
type Stream struct {
	client *redis.Client
	name   string
	group  string
	maxLen int64
}

// NewStream binds a stream name and consumer group. maxLen <= 0 disables
// trimming.
func NewStream(client *redis.Client, name, group string, maxLen int64) *Stream {
	return &Stream{client: client, name: name, group: group, maxLen: maxLen}
}

// NewNotificationStream returns the stream used for comment notifications.
func NewNotificationStream(client *redis.Client) *Stream {
	return NewStream(client, StreamNotifications, ConsumerGroupNotifications, DefaultMaxLen)
}

// Publish XADDs all events in a single pipeline. One abandon can produce a
// whole subtree of events.
func (s *Stream) Publish(ctx context.Context, events ...NotificationEvent) ([]string, error) {
	if len(events) == 0 {
		return nil, nil
	}
	startTime := time.Now()

	cmds := make([]*redis.StringCmd, len(events))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, event := range events {
			values, err := event.ToMap()
			if err != nil {
				return fmt.Errorf("serialize %s event for %s: %w", event.Action, event.CommentID, err)
			}
			args := &redis.XAddArgs{Stream: s.name, Values: values}
			if s.maxLen > 0 {
				args.MaxLen = s.maxLen
				args.Approx = true
			}
			cmds[i] = pipe.XAdd(ctx, args)
		}
		return nil
	})
	if err != nil {
		log.Printf("[Stream] Publish FAILED: stream=%s events=%d err=%v", s.name, len(events), err)
		return nil, fmt.Errorf("xadd to %s: %w", s.name, err)
	}

	ids := make([]string, len(cmds))
	for i, cmd := range cmds {
		ids[i] = cmd.Val()
	}

	log.Printf("[Stream] Publish OK: stream=%s events=%d duration=%v", s.name, len(events), time.Since(startTime))
	return ids, nil
}
