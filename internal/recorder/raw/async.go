package raw

import (
	"time"

	"github.com/Charliesj0129/shijim/internal/events"
	"go.uber.org/zap"
)

type batch struct {
	ticks []events.MDTickEvent
	books []events.MDBookEvent
}

// AsyncWriter offloads WriteBatch's disk I/O to a background goroutine
// fed by a bounded channel, so the producer path returns quickly. When
// the queue is full the entire batch is
// dropped and DropCount is incremented, rather than blocking the caller.
type AsyncWriter struct {
	inner     *Writer
	queue     chan batch
	logger    *zap.Logger
	dropCount int64
	done      chan struct{}
}

// NewAsync wraps inner with a bounded async queue of the given depth.
func NewAsync(inner *Writer, queueDepth int, logger *zap.Logger) *AsyncWriter {
	w := &AsyncWriter{
		inner:  inner,
		queue:  make(chan batch, queueDepth),
		logger: logger,
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *AsyncWriter) run() {
	for b := range w.queue {
		if err := w.inner.WriteBatch(b.ticks, b.books); err != nil && w.logger != nil {
			w.logger.Error("async raw writer batch failed", zap.Error(err))
		}
	}
	close(w.done)
}

// WriteBatch enqueues the batch without blocking on disk I/O. Returns
// false (and increments DropCount) if the queue is full.
func (w *AsyncWriter) WriteBatch(ticks []events.MDTickEvent, books []events.MDBookEvent) bool {
	select {
	case w.queue <- batch{ticks: ticks, books: books}:
		return true
	default:
		w.dropCount++
		if w.logger != nil {
			w.logger.Warn("async raw writer queue full; dropping batch",
				zap.String("writer", "raw"), zap.Int("tick_count", len(ticks)), zap.Int("book_count", len(books)))
		}
		return false
	}
}

// DropCount returns the number of batches dropped due to a full queue.
func (w *AsyncWriter) DropCount() int64 { return w.dropCount }

// Close stops accepting new batches, drains the queue, and closes the
// inner writer's file handles.
func (w *AsyncWriter) Close(drainTimeout time.Duration) error {
	close(w.queue)
	select {
	case <-w.done:
	case <-time.After(drainTimeout):
	}
	return w.inner.Close()
}
