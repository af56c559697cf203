// ABOUTME: In-memory fan-out broadcaster for real-time message delivery
// ABOUTME: Publishes persisted messages to subscribers of per-user channels

package conversation

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/quillchat/quill/internal/store"
)

const (
	// subscriberBufferSize is the channel buffer for each subscriber.
	subscriberBufferSize = 64

	// EventMessageSent names the delivery event so clients can tell it
	// apart from other event types on the same channel.
	EventMessageSent = "message.sent"
)

// ErrBroadcasterClosed is returned by Publish after Close.
var ErrBroadcasterClosed = errors.New("broadcaster closed")

// MessageEvent is the payload delivered to channel subscribers. The message
// carries resolved sender/recipient names so a client can render it without
// another lookup.
type MessageEvent struct {
	Event   string
	Message *store.Message
}

// Broadcaster provides in-memory pub/sub for message delivery. Subscribers
// register for a channel (one per user, see auth.ChannelName) and receive
// events as messages are persisted. Delivery is best-effort: subscribers
// with full buffers miss events, and a missed event is only recoverable
// through a history fetch.
type Broadcaster struct {
	mu          sync.RWMutex
	closed      bool
	subscribers map[string]map[string]chan *MessageEvent // channel -> subID -> ch
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]map[string]chan *MessageEvent),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber for events on the given channel.
// Returns a channel that receives events and a subscription ID for later
// unsubscription. The subscription is automatically cleaned up when ctx is
// cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context, channel string) (<-chan *MessageEvent, string) {
	subID := uuid.New().String()
	ch := make(chan *MessageEvent, subscriberBufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, subID
	}
	if _, ok := b.subscribers[channel]; !ok {
		b.subscribers[channel] = make(map[string]chan *MessageEvent)
	}
	b.subscribers[channel][subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added",
		"channel", channel,
		"sub_id", subID)

	// Auto-cleanup on context cancellation
	go func() {
		<-ctx.Done()
		b.Unsubscribe(channel, subID)
	}()

	return ch, subID
}

// Publish sends an event to all subscribers of the given channel.
// Non-blocking: events are dropped for subscribers whose channels are full,
// so the hand-off never stalls the publishing request.
func (b *Broadcaster) Publish(channel string, event *MessageEvent) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBroadcasterClosed
	}
	subs, ok := b.subscribers[channel]
	if !ok || len(subs) == 0 {
		b.mu.RUnlock()
		return nil
	}

	// Copy subscriber channels under read lock to avoid holding lock during sends
	targets := make([]chan *MessageEvent, 0, len(subs))
	for _, ch := range subs {
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- event:
			// Sent
		default:
			// Subscriber channel full — drop event for this subscriber
			b.logger.Debug("dropped event for slow subscriber",
				"channel", channel,
				"message_id", event.Message.ID)
		}
	}
	return nil
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(channel, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[channel]
	if !ok {
		return
	}

	ch, exists := subs[subID]
	if !exists {
		return
	}

	delete(subs, subID)
	close(ch)

	// Clean up empty channel entries
	if len(subs) == 0 {
		delete(b.subscribers, channel)
	}

	b.logger.Debug("subscriber removed",
		"channel", channel,
		"sub_id", subID)
}

// Close shuts down the broadcaster and closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for channel, subs := range b.subscribers {
		for subID, ch := range subs {
			close(ch)
			delete(subs, subID)
		}
		delete(b.subscribers, channel)
	}

	b.logger.Debug("broadcaster closed")
}
