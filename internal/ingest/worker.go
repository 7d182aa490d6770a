// Package ingest implements the batched ingestion worker, ported from
// original_source/shijim/recorder/ingestion.py's IngestionWorker.
package ingest

import (
	"sync"
	"time"

	"github.com/Charliesj0129/shijim/internal/bus"
	"github.com/Charliesj0129/shijim/internal/events"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

const (
	DefaultMaxBufferEvents = 1000
	DefaultFlushInterval   = time.Second
	DefaultMaxBatchEvents  = 512
	DefaultMaxBatchWait    = 10 * time.Millisecond
	DefaultPollTimeout     = 100 * time.Millisecond
)

// WriterBackend is the fan-out target interface both the raw writer and
// the columnar writer satisfy (directly, or via a small adapter).
type WriterBackend interface {
	WriteBatch(ticks []events.MDTickEvent, books []events.MDBookEvent) error
}

// Config holds the worker's flush-trigger tuning knobs, all defaulted
// to match the original.
type Config struct {
	MaxBufferEvents int
	FlushInterval   time.Duration
	MaxBatchEvents  int
	MaxBatchWait    time.Duration
	PollTimeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxBufferEvents: DefaultMaxBufferEvents,
		FlushInterval:   DefaultFlushInterval,
		MaxBatchEvents:  DefaultMaxBatchEvents,
		MaxBatchWait:    DefaultMaxBatchWait,
		PollTimeout:     DefaultPollTimeout,
	}
}

// FlushHook is invoked after every completed Flush dispatch with the
// trigger that caused it ("size", "interval", or "force") and how long
// the dispatch took, letting a caller wire a flush-latency histogram
// without this package importing a metrics library directly.
type FlushHook func(trigger string, d time.Duration)

// Worker subscribes to the bus's wildcard topic, buffers tick/book events,
// and fans flushed batches out to every registered writer in parallel.
type Worker struct {
	bus      bus.Bus
	writers  []WriterBackend
	cfg      Config
	logger   *zap.Logger
	pool     *ants.Pool
	onFlush  FlushHook

	mu         sync.Mutex
	tickBuf    []events.MDTickEvent
	bookBuf    []events.MDBookEvent
	lastFlush  time.Time
	stopRequested bool
}

// SetFlushHook installs h, called after every completed Flush dispatch.
func (w *Worker) SetFlushHook(h FlushHook) { w.onFlush = h }

// New constructs a worker with a bounded goroutine pool (a small
// thread pool suffices) sized to the number of writers, since each
// flush submits exactly one write_batch call per writer.
func New(b bus.Bus, writers []WriterBackend, cfg Config, logger *zap.Logger) (*Worker, error) {
	poolSize := len(writers)
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	return &Worker{
		bus:     b,
		writers: writers,
		cfg:     cfg,
		logger:  logger,
		pool:    pool,
	}, nil
}

// Run subscribes to the wildcard topic and loops until Stop is called.
// Matches the original's nested inner-batch/outer-flush loop.
func (w *Worker) Run() {
	w.mu.Lock()
	w.lastFlush = time.Now()
	w.mu.Unlock()

	sub := w.bus.Subscribe(bus.TopicAll, w.cfg.PollTimeout)
	defer sub.Close()

	for {
		w.mu.Lock()
		stop := w.stopRequested
		w.mu.Unlock()
		if stop {
			break
		}

		batchDeadline := time.Now().Add(w.cfg.MaxBatchWait)
		batchCount := 0
		for batchCount < w.cfg.MaxBatchEvents {
			ev, ok := sub.Recv()
			w.mu.Lock()
			stopNow := w.stopRequested
			w.mu.Unlock()
			if stopNow {
				break
			}
			if !ok {
				// Heartbeat: break the inner loop to re-check flush triggers.
				break
			}
			w.handleEvent(ev)
			batchCount++
			if w.shouldFlush() {
				w.Flush(false)
			}
			if time.Now().After(batchDeadline) {
				break
			}
		}
		if w.shouldFlush() {
			w.Flush(false)
		}
	}
	w.Flush(true)
}

// Stop requests the loop to exit after one final flush. Idempotent.
func (w *Worker) Stop() {
	w.mu.Lock()
	w.stopRequested = true
	w.mu.Unlock()
}

func (w *Worker) handleEvent(ev events.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch e := ev.(type) {
	case events.MDTickEvent:
		w.tickBuf = append(w.tickBuf, e)
	case events.MDBookEvent:
		w.bookBuf = append(w.bookBuf, e)
	default:
		if w.logger != nil {
			w.logger.Warn("ingestion worker: unhandled event type")
		}
	}
}

func (w *Worker) shouldFlush() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	total := len(w.tickBuf) + len(w.bookBuf)
	if total >= w.cfg.MaxBufferEvents {
		return true
	}
	return time.Since(w.lastFlush) >= w.cfg.FlushInterval
}

// Flush snapshots the buffers, clears them, and dispatches write_batch
// to every writer in parallel via the bounded pool.
func (w *Worker) Flush(force bool) {
	start := time.Now()
	w.mu.Lock()
	if len(w.tickBuf) == 0 && len(w.bookBuf) == 0 {
		w.lastFlush = time.Now()
		w.mu.Unlock()
		return
	}
	if !force && !w.shouldFlushUnlocked() {
		w.mu.Unlock()
		return
	}
	sizeTriggered := len(w.tickBuf)+len(w.bookBuf) >= w.cfg.MaxBufferEvents
	ticks := w.tickBuf
	books := w.bookBuf
	w.tickBuf = nil
	w.bookBuf = nil
	w.mu.Unlock()

	var wg sync.WaitGroup
	for _, writer := range w.writers {
		wr := writer
		wg.Add(1)
		err := w.pool.Submit(func() {
			defer wg.Done()
			if err := wr.WriteBatch(ticks, books); err != nil && w.logger != nil {
				// Ingestion worker logs-and-continues on writer failures:
				// writers own their own fallback.
				w.logger.Error("ingestion worker: writer flush failed", zap.Error(err))
			}
		})
		if err != nil {
			wg.Done()
			if w.logger != nil {
				w.logger.Error("ingestion worker: failed to submit writer task", zap.Error(err))
			}
		}
	}
	wg.Wait()

	w.mu.Lock()
	w.lastFlush = time.Now()
	w.mu.Unlock()

	if w.onFlush != nil {
		trigger := "interval"
		switch {
		case force:
			trigger = "force"
		case sizeTriggered:
			trigger = "size"
		}
		w.onFlush(trigger, time.Since(start))
	}
}

func (w *Worker) shouldFlushUnlocked() bool {
	total := len(w.tickBuf) + len(w.bookBuf)
	if total >= w.cfg.MaxBufferEvents {
		return true
	}
	return time.Since(w.lastFlush) >= w.cfg.FlushInterval
}

// Close releases the worker's goroutine pool.
func (w *Worker) Close() { w.pool.Release() }
