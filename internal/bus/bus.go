// Package bus implements the in-process event bus: a queue (competing
// consumer) variant and a broadcast (per-subscriber) variant, both indexed
// by topic. Ported from the reference InMemoryEventBus / BroadcastEventBus
// pair in original_source/shijim/bus/event_bus.py, with Python's blocking
// queue + condition-variable consumption mirrored by list/slice queues
// guarded by a sync.Cond, and explicit subscription handles (a broadcast subscriber deregisters
// itself on Close rather than relying on Python generator finally-block
// cleanup).
package bus

import (
	"time"

	"github.com/Charliesj0129/shijim/internal/events"
)

// Topic is either a concrete event type tag (events.TypeTick,
// events.TypeBook) or the wildcard TopicAll.
type Topic string

const TopicAll Topic = "*"

// Bus is the interface both the queue bus and the broadcast bus satisfy.
type Bus interface {
	// Publish appends event to every queue matching its type, plus the
	// wildcard queue. It never blocks the publisher; backpressure is
	// handled by dropping the oldest queued event.
	Publish(ev events.Event)

	// PublishMany amortizes lock acquisition across a batch.
	PublishMany(evs []events.Event)

	// Subscribe returns a Subscription delivering events matching topic.
	// If timeout is non-zero, Recv yields a heartbeat (ok=false, zero
	// event) after timeout elapses with no event, so the caller can run
	// periodic housekeeping without blocking forever.
	Subscribe(topic Topic, timeout time.Duration) Subscription

	// Lag reports the current queue depth for topic (or all topics)
	Lag(topic Topic) int
}

// Subscription is a live handle into the bus. Recv blocks (up to timeout
// if one was supplied at Subscribe time) for the next event. Close
// deregisters the subscription; for the broadcast bus this also removes
// it from the topic's fan-out registry so the bus stops writing to it.
type Subscription interface {
	Recv() (ev events.Event, ok bool)
	Close()
}

// DropHook is invoked whenever a queue drops its oldest event to admit a
// new one under backpressure. Used to wire a drop-counter metric without
// every bus implementation importing a metrics package directly.
type DropHook func(topic Topic, label string)

// HighWaterHook is invoked the first time a queue crosses 80% of its
// capacity since it was last below that mark.
type HighWaterHook func(topic Topic, label string, depth, capacity int)
