// Package bus provides the process-wide notification fan-out consumed by
// the dashboard and any embedded UI: fire-and-forget events with no payload
// contract beyond "reload".
package bus

import (
	"sync"
	"time"
)

// Topic names.
const (
	// TopicSettingsChanged fires after any write to the settings row.
	TopicSettingsChanged = "settings_changed"
	// TopicSyncComplete fires after every syncNow run, including partial
	// failures.
	TopicSyncComplete = "sync_complete"
)

// Event is a published notification.
type Event struct {
	Topic string
	At    time.Time
	Data  any
}

// Bus is an in-process publish/subscribe hub. Publishing never blocks:
// subscribers with full channels miss the event, which is acceptable
// because every event means "reload" and the next one carries the same
// instruction.
type Bus struct {
	mu   sync.Mutex
	subs map[int]subscription
	next int
}

type subscription struct {
	topic string
	ch    chan Event
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[int]subscription)}
}

// Subscribe registers interest in a topic. The empty topic matches all
// events. The returned cancel function removes the subscription and closes
// the channel.
func (b *Bus) Subscribe(topic string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, 16)
	b.subs[id] = subscription{topic: topic, ch: ch}

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

// Publish delivers an event to every matching subscriber without blocking.
func (b *Bus) Publish(topic string, data any) {
	evt := Event{Topic: topic, At: time.Now(), Data: data}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if sub.topic != "" && sub.topic != topic {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}
