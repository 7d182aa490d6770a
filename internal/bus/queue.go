package bus

import (
	"container/list"
	"sync"
	"time"

	"github.com/Charliesj0129/shijim/internal/events"
	"go.uber.org/zap"
)

// QueueBus is the competing-consumer bus: all subscribers on a topic share
// one queue, so each published event is observed by exactly one
// subscriber. Ported from InMemoryEventBus.
type QueueBus struct {
	maxQueueSize int
	warnThresh   float64
	logger       *zap.Logger
	onDrop       DropHook
	onHighWater  HighWaterHook

	mu      sync.Mutex
	cond    *sync.Cond
	queues  map[Topic]*list.List
	highWater map[Topic]bool
}

// NewQueueBus constructs a queue bus with the given per-queue capacity.
func NewQueueBus(maxQueueSize int, logger *zap.Logger) *QueueBus {
	b := &QueueBus{
		maxQueueSize: maxQueueSize,
		warnThresh:   0.8,
		logger:       logger,
		queues:       make(map[Topic]*list.List),
		highWater:    make(map[Topic]bool),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *QueueBus) SetDropHook(h DropHook)           { b.onDrop = h }
func (b *QueueBus) SetHighWaterHook(h HighWaterHook) { b.onHighWater = h }

func (b *QueueBus) queueFor(topic Topic) *list.List {
	q, ok := b.queues[topic]
	if !ok {
		q = list.New()
		b.queues[topic] = q
	}
	return q
}

// Publish appends ev to its concrete-topic queue and the wildcard queue,
// dropping the oldest entry in either queue that is already at capacity.
func (b *QueueBus) Publish(ev events.Event) {
	b.mu.Lock()
	b.publishLocked(ev)
	b.cond.Broadcast()
	b.mu.Unlock()
}

// PublishMany amortizes lock acquisition across the batch.
func (b *QueueBus) PublishMany(evs []events.Event) {
	if len(evs) == 0 {
		return
	}
	b.mu.Lock()
	for _, ev := range evs {
		b.publishLocked(ev)
	}
	b.cond.Broadcast()
	b.mu.Unlock()
}

func (b *QueueBus) publishLocked(ev events.Event) {
	topic := Topic(ev.Base().Type)
	for _, t := range [2]Topic{topic, TopicAll} {
		q := b.queueFor(t)
		if q.Len() >= b.maxQueueSize {
			q.Remove(q.Front())
			if b.logger != nil {
				b.logger.Warn("queue bus backlog exceeded max_queue_size; dropping oldest event",
					zap.String("topic", string(t)), zap.Int("max_queue_size", b.maxQueueSize))
			}
			if b.onDrop != nil {
				b.onDrop(t, "queue_bus")
			}
		}
		q.PushBack(ev)
		if float64(q.Len()) >= float64(b.maxQueueSize)*b.warnThresh && !b.highWater[t] {
			b.highWater[t] = true
			if b.logger != nil {
				b.logger.Warn("queue bus high water mark",
					zap.String("topic", string(t)), zap.Int("depth", q.Len()), zap.Int("max_queue_size", b.maxQueueSize))
			}
			if b.onHighWater != nil {
				b.onHighWater(t, "queue_bus", q.Len(), b.maxQueueSize)
			}
		} else if float64(q.Len()) < float64(b.maxQueueSize)*b.warnThresh {
			b.highWater[t] = false
		}
	}
}

// Subscribe returns an ephemeral consumer of the shared per-topic queue.
func (b *QueueBus) Subscribe(topic Topic, timeout time.Duration) Subscription {
	if topic == "" {
		topic = TopicAll
	}
	return &queueSubscription{bus: b, topic: topic, timeout: timeout}
}

func (b *QueueBus) Lag(topic Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if topic != "" {
		if q, ok := b.queues[topic]; ok {
			return q.Len()
		}
		return 0
	}
	total := 0
	for _, q := range b.queues {
		total += q.Len()
	}
	return total
}

type queueSubscription struct {
	bus     *QueueBus
	topic   Topic
	timeout time.Duration
	closed  bool
}

// Recv pops the next event for this subscription's topic, blocking on the
// bus condition variable until one arrives or timeout elapses. A timeout
// elapsing with no event yields (zero-value, false) as the heartbeat
// sentinel.
func (s *queueSubscription) Recv() (events.Event, bool) {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	q := s.bus.queueFor(s.topic)
	for q.Len() == 0 {
		if s.timeout <= 0 {
			s.bus.cond.Wait()
			q = s.bus.queueFor(s.topic)
			continue
		}
		if !condWaitTimeout(s.bus.cond, s.timeout) {
			return nil, false
		}
		q = s.bus.queueFor(s.topic)
	}
	front := q.Front()
	q.Remove(front)
	return front.Value.(events.Event), true
}

func (s *queueSubscription) Close() { s.closed = true }
