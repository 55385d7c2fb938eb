package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lbryio/comment-server/internal/model"
)

// Notification action types
const (
	ActionCreate = "C"
	ActionUpdate = "U"
	ActionHide   = "H"
	ActionDelete = "D"
)

// Stream names
const (
	StreamNotifications = "stream:notifications"
)

// Consumer group name for notification workers
const (
	ConsumerGroupNotifications = "notification_workers"
)

// NotificationEvent describes one committed change to one comment.
type NotificationEvent struct {
	ID        string  `json:"id"`
	Action    string  `json:"action_type"`
	Timestamp int64   `json:"timestamp"`
	CommentID string  `json:"comment_id"`
	ClaimID   string  `json:"claim_id"`
	ChannelID *string `json:"channel_id,omitempty"`
	ParentID  *string `json:"parent_id,omitempty"`
	Body      string  `json:"comment,omitempty"`
}

// NewNotificationEvent builds the event for action on c.
func NewNotificationEvent(action string, c *model.Comment) NotificationEvent {
	return NotificationEvent{
		ID:        uuid.NewString(),
		Action:    action,
		Timestamp: time.Now().Unix(),
		CommentID: c.CommentID,
		ClaimID:   c.ClaimID,
		ChannelID: c.ChannelID,
		ParentID:  c.ParentID,
		Body:      c.Body,
	}
}

// NewNotificationEvents builds one event per comment.
func NewNotificationEvents(action string, comments []model.Comment) []NotificationEvent {
	events := make([]NotificationEvent, 0, len(comments))
	for i := range comments {
		events = append(events, NewNotificationEvent(action, &comments[i]))
	}
	return events
}

// ToMap converts the event to XADD field-value pairs. The event itself is
// carried as JSON in "data".
func (e NotificationEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"action": e.Action,
		"data":   string(data),
	}, nil
}

// ParseNotificationEvent parses an event from Redis stream message values.
func ParseNotificationEvent(values map[string]interface{}) (NotificationEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return NotificationEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event NotificationEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return NotificationEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
