package bus

import (
	"log/slog"
	"sync"
)

// Handler receives the payload published on a topic. Handlers do not own the
// payload and should treat it as read-only unless the topic documents
// otherwise.
type Handler func(payload any)

// Bus is a process-wide publish/subscribe router. Publish is a plain
// synchronous fan-out in subscription order with no queuing and no
// re-entrancy guard: a handler that publishes during its own invocation
// recurses synchronously, and the score-update chains in the simulation rely
// on that ordering. Subscription bookkeeping is guarded by a mutex, but the
// fan-out itself runs outside it so nested Subscribe/Publish calls from a
// handler never deadlock.
type Bus struct {
	mu     sync.Mutex
	nextID int
	topics map[string][]subscription
	logger *slog.Logger
}

type subscription struct {
	id      int
	handler Handler
}

// New creates an empty bus.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		topics: make(map[string][]subscription),
		logger: logger,
	}
}

// Subscribe registers a handler for a topic and returns an unsubscribe
// closure. Unsubscribing twice is a no-op.
func (b *Bus) Subscribe(topic string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.topics[topic] = append(b.topics[topic], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.topics[topic]
		for i, sub := range subs {
			if sub.id == id {
				b.topics[topic] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish invokes every handler currently registered for the topic, in
// subscription order, passing the same payload to each. Publishing on a topic
// with no subscribers is a no-op. The handler list is snapshotted before the
// fan-out, so handlers added or removed during delivery take effect on the
// next publish.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.Lock()
	subs := b.topics[topic]
	snapshot := make([]subscription, len(subs))
	copy(snapshot, subs)
	b.mu.Unlock()

	for _, sub := range snapshot {
		sub.handler(payload)
	}
}

// Reset atomically drops every subscription. Used during a full game reset so
// no stale handler keeps a reference to old-generation timers.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.topics = make(map[string][]subscription)
	b.logger.Debug("Event bus reset, all subscriptions cleared")
}

// SubscriberCount reports how many handlers are registered for a topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.topics[topic])
}
