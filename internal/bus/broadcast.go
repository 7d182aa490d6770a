package bus

import (
	"sync"
	"time"

	"github.com/Charliesj0129/shijim/internal/events"
	"go.uber.org/zap"
)

// BroadcastBus gives each subscriber its own bounded queue, so every
// published event is delivered to every subscriber of a matching topic
// independently. Ported from BroadcastEventBus.
//
// The original generator's finally-block self-deregistration becomes an
// explicit subscription handle here: Close() removes the handle from the
// registry directly, with no reliance on garbage collection or deferred
// cleanup.
type BroadcastBus struct {
	maxQueueSize int
	warnThresh   float64
	logger       *zap.Logger
	onDrop       DropHook
	onHighWater  HighWaterHook

	mu      sync.RWMutex
	byTopic map[Topic][]*broadcastSubscription
}

func NewBroadcastBus(maxQueueSize int, logger *zap.Logger) *BroadcastBus {
	return &BroadcastBus{
		maxQueueSize: maxQueueSize,
		warnThresh:   0.8,
		logger:       logger,
		byTopic:      make(map[Topic][]*broadcastSubscription),
	}
}

func (b *BroadcastBus) SetDropHook(h DropHook)           { b.onDrop = h }
func (b *BroadcastBus) SetHighWaterHook(h HighWaterHook) { b.onHighWater = h }

func (b *BroadcastBus) Publish(ev events.Event) {
	targets := b.targetsFor(ev)
	for _, s := range targets {
		s.deliver(ev, b)
	}
}

func (b *BroadcastBus) PublishMany(evs []events.Event) {
	for _, ev := range evs {
		b.Publish(ev)
	}
}

func (b *BroadcastBus) targetsFor(ev events.Event) []*broadcastSubscription {
	topic := Topic(ev.Base().Type)
	b.mu.RLock()
	defer b.mu.RUnlock()
	var targets []*broadcastSubscription
	targets = append(targets, b.byTopic[topic]...)
	if topic != TopicAll {
		targets = append(targets, b.byTopic[TopicAll]...)
	}
	return targets
}

// Subscribe allocates a dedicated bounded queue registered under topic.
// The queue lives for the lifetime of the returned Subscription.
func (b *BroadcastBus) Subscribe(topic Topic, timeout time.Duration) Subscription {
	if topic == "" {
		topic = TopicAll
	}
	s := &broadcastSubscription{
		bus:     b,
		topic:   topic,
		timeout: timeout,
		mu:      &sync.Mutex{},
		cond:    nil,
		items:   make([]events.Event, 0, 64),
	}
	s.cond = sync.NewCond(s.mu)

	b.mu.Lock()
	b.byTopic[topic] = append(b.byTopic[topic], s)
	b.mu.Unlock()
	return s
}

func (b *BroadcastBus) Lag(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	max := 0
	if topic != "" {
		for _, s := range b.byTopic[topic] {
			if d := s.depth(); d > max {
				max = d
			}
		}
		return max
	}
	for _, subs := range b.byTopic {
		for _, s := range subs {
			if d := s.depth(); d > max {
				max = d
			}
		}
	}
	return max
}

func (b *BroadcastBus) remove(s *broadcastSubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.byTopic[s.topic]
	for i, cand := range subs {
		if cand == s {
			b.byTopic[s.topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

type broadcastSubscription struct {
	bus     *BroadcastBus
	topic   Topic
	timeout time.Duration

	mu     *sync.Mutex
	cond   *sync.Cond
	items  []events.Event
	closed bool
	// highWater is true while the queue sits at or above the warning
	// mark, so the high-water warning and hook fire once per crossing.
	highWater bool
}

func (s *broadcastSubscription) deliver(ev events.Event, b *BroadcastBus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) >= b.maxQueueSize {
		s.items = s.items[1:]
		if b.logger != nil {
			b.logger.Warn("broadcast bus queue exceeded max_queue_size; dropping oldest event",
				zap.String("topic", string(s.topic)), zap.Int("max_queue_size", b.maxQueueSize))
		}
		if b.onDrop != nil {
			b.onDrop(s.topic, "broadcast_bus")
		}
	}
	s.items = append(s.items, ev)
	mark := float64(b.maxQueueSize) * b.warnThresh
	if float64(len(s.items)) < mark {
		s.highWater = false
	} else if !s.highWater {
		s.highWater = true
		if b.logger != nil {
			b.logger.Warn("broadcast bus queue high water mark",
				zap.String("topic", string(s.topic)), zap.Int("depth", len(s.items)))
		}
		if b.onHighWater != nil {
			b.onHighWater(s.topic, "broadcast_bus", len(s.items), b.maxQueueSize)
		}
	}
	s.cond.Broadcast()
}

func (s *broadcastSubscription) depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *broadcastSubscription) Recv() (events.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.items) == 0 {
		if s.closed {
			return nil, false
		}
		if s.timeout <= 0 {
			s.cond.Wait()
			continue
		}
		if !condWaitTimeout(s.cond, s.timeout) {
			return nil, false
		}
	}
	ev := s.items[0]
	s.items = s.items[1:]
	return ev, true
}

func (s *broadcastSubscription) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
	s.bus.remove(s)
}
