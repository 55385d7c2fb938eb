package notify

import (
	"context"
	"log"
	"sync"

	"github.com/lbryio/comment-server/internal/observability"
	"github.com/lbryio/comment-server/internal/queue"
)

// Notifier accepts events after a mutation commits. Notify never blocks on
// delivery and never reports delivery failures.
type Notifier interface {
	Notify(ctx context.Context, events ...queue.NotificationEvent)
}

// Nop drops every event. Used when no notification endpoint is configured.
type Nop struct{}

func (Nop) Notify(context.Context, ...queue.NotificationEvent) {}

// Dispatcher delivers each event on its own goroutine.
type Dispatcher struct {
	sender Sender

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func NewDispatcher(sender Sender) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{sender: sender, ctx: ctx, cancel: cancel}
}

// Notify starts delivery of events. The request context is not used, so
// deliveries outlive the request that caused them.
func (d *Dispatcher) Notify(_ context.Context, events ...queue.NotificationEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		log.Printf("[Notifier] Dropping %d events: dispatcher stopped", len(events))
		return
	}
	for _, event := range events {
		d.wg.Add(1)
		go d.deliver(event)
	}
}

func (d *Dispatcher) deliver(event queue.NotificationEvent) {
	defer d.wg.Done()
	err := d.sender.Send(d.ctx, event)
	observability.Notifications.WithLabelValues(observability.Outcome(err)).Inc()
	if err != nil {
		log.Printf("[Notifier] Send FAILED: action=%s comment=%s err=%v", event.Action, event.CommentID, err)
		return
	}
	log.Printf("[Notifier] Send OK: action=%s comment=%s", event.Action, event.CommentID)
}

// Stop cancels in-flight deliveries and waits for them to return.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	log.Printf("[Notifier] Stopped")
}

// StreamNotifier publishes events to a Redis stream for the notification
// workers.
type StreamNotifier struct {
	publisher queue.Publisher
}

func NewStreamNotifier(publisher queue.Publisher) *StreamNotifier {
	return &StreamNotifier{publisher: publisher}
}

func (n *StreamNotifier) Notify(ctx context.Context, events ...queue.NotificationEvent) {
	if len(events) == 0 {
		return
	}
	if _, err := n.publisher.Publish(context.WithoutCancel(ctx), events...); err != nil {
		observability.Notifications.WithLabelValues(observability.OutcomeError).Add(float64(len(events)))
		log.Printf("[Notifier] Enqueue FAILED: action=%s events=%d err=%v", events[0].Action, len(events), err)
	}
}
