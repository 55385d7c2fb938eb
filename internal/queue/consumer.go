package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message is one stream entry decoded into an event.
type Message struct {
	ID    string
	Event NotificationEvent
}

// Consumer reads the notification stream on behalf of named group members.
type Consumer interface {
	// EnsureGroup creates the stream and group if missing.
	EnsureGroup(ctx context.Context) error

	// Read returns up to count new entries, blocking up to block.
	Read(ctx context.Context, consumer string, count int64, block time.Duration) ([]Message, error)

	// ReadPending returns entries delivered to consumer and never acknowledged.
	ReadPending(ctx context.Context, consumer string, count int64) ([]Message, error)

	Ack(ctx context.Context, messageIDs ...string) error

	// Pending counts unacknowledged entries across the group.
	Pending(ctx context.Context) (int64, error)
}

// EnsureGroup starts a new group at "0" so events published before the first
// worker ran are still delivered.
func (s *Stream) EnsureGroup(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.name, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		log.Printf("[Stream] EnsureGroup FAILED: stream=%s group=%s err=%v", s.name, s.group, err)
		return fmt.Errorf("create consumer group %s: %w", s.group, err)
	}

	log.Printf("[Stream] EnsureGroup OK: stream=%s group=%s", s.name, s.group)
	return nil
}

func (s *Stream) Read(ctx context.Context, consumer string, count int64, block time.Duration) ([]Message, error) {
	return s.read(ctx, consumer, ">", count, block)
}

func (s *Stream) ReadPending(ctx context.Context, consumer string, count int64) ([]Message, error) {
	return s.read(ctx, consumer, "0", count, -1)
}

// read runs XREADGROUP from start. A negative block sends no BLOCK option.
func (s *Stream) read(ctx context.Context, consumer, start string, count int64, block time.Duration) ([]Message, error) {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: consumer,
		Streams:  []string{s.name, start},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup %s from %s: %w", s.name, start, err)
	}

	var messages []Message
	for _, st := range streams {
		for _, msg := range st.Messages {
			event, err := ParseNotificationEvent(msg.Values)
			if err != nil {
				// undecodable entries are acked so they do not stay pending forever
				log.Printf("[Stream] Dropping entry: msgID=%s err=%v", msg.ID, err)
				_ = s.Ack(ctx, msg.ID)
				continue
			}
			messages = append(messages, Message{ID: msg.ID, Event: event})
		}
	}
	return messages, nil
}

func (s *Stream) Ack(ctx context.Context, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := s.client.XAck(ctx, s.name, s.group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("xack %s: %w", s.name, err)
	}
	return nil
}

func (s *Stream) Pending(ctx context.Context) (int64, error) {
	info, err := s.client.XPending(ctx, s.name, s.group).Result()
	if err != nil {
		return 0, fmt.Errorf("xpending %s: %w", s.name, err)
	}
	return info.Count, nil
}
