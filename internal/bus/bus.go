package bus

import (
	"sync"
	"time"
)

// Well-known event channels. Publishers and subscribers agree on these
// names; ad-hoc channels are allowed but discouraged.
const (
	ChannelReadingInserted     = "reading.inserted"
	ChannelRelayStatusInserted = "relay_status.inserted"
	ChannelEventLogCreated     = "event_log.created"
	ChannelRelayConfigUpdated  = "relay_config.updated"
	ChannelRelayCommandCreated = "relay_command.created"
	ChannelInsightCreated      = "insight.created"
	ChannelMQTTStateChanged    = "mqtt.state_changed"
)

// subscriberBuffer is the per-subscriber channel capacity.
// Slow subscribers drop events once the buffer fills.
const subscriberBuffer = 64

// Event is a single change notification.
type Event struct {
	// Channel identifies what changed (see the Channel* constants).
	Channel string `json:"channel"`

	// Payload carries the changed entity, JSON-serialisable.
	Payload any `json:"payload"`

	// Timestamp is when the event was published.
	Timestamp time.Time `json:"timestamp"`
}

// Bus is an in-process publish/subscribe event bus.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]*subscriber
	nextID      int
	closed      bool

	// dropped counts events lost to full subscriber buffers.
	dropped   int64
	droppedMu sync.Mutex
}

type subscriber struct {
	channels map[string]bool // nil means all channels
	events   chan Event
}

// New creates an empty event bus.
func New() *Bus {
	return &Bus{
		subscribers: make(map[int]*subscriber),
	}
}

// Subscribe registers interest in the given channels and returns a
// receive channel plus a cancel function. Passing no channels
// subscribes to everything.
//
// The cancel function must be called when the subscriber is done;
// it closes the event channel.
func (b *Bus) Subscribe(channels ...string) (<-chan Event, func()) {
	var filter map[string]bool
	if len(channels) > 0 {
		filter = make(map[string]bool, len(channels))
		for _, ch := range channels {
			filter[ch] = true
		}
	}

	sub := &subscriber{
		channels: filter,
		events:   make(chan Event, subscriberBuffer),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(sub.events)
		return sub.events, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subscribers[id] = sub
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if s, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(s.events)
		}
		b.mu.Unlock()
	}

	return sub.events, cancel
}

// Publish delivers an event to all matching subscribers without blocking.
// Subscribers with full buffers miss the event.
func (b *Bus) Publish(channel string, payload any) {
	event := Event{
		Channel:   channel,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subscribers {
		if sub.channels != nil && !sub.channels[channel] {
			continue
		}
		select {
		case sub.events <- event:
		default:
			b.droppedMu.Lock()
			b.dropped++
			b.droppedMu.Unlock()
		}
	}
}

// Dropped returns the number of events lost to full subscriber buffers.
func (b *Bus) Dropped() int64 {
	b.droppedMu.Lock()
	defer b.droppedMu.Unlock()
	return b.dropped
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close shuts down the bus and closes all subscriber channels.
// Publish after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, sub := range b.subscribers {
		delete(b.subscribers, id)
		close(sub.events)
	}
}
