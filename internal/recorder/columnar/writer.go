// Package columnar implements the fallback-capable analytical sink
// and its Healthy/RetryingBackoff/Fallback state machine.
//
// original_source/shijim/recorder/clickhouse_writer.py is an explicit
// stub ("Buffered ClickHouse writer stub") with no retry, backoff, or
// fallback logic, so this package is built directly from the textual
// contract rather than ported line-by-line.
package columnar

import (
	"fmt"
	"sync"
	"time"

	"github.com/Charliesj0129/shijim/internal/events"
	"go.uber.org/zap"
)

// State is the writer's health state machine.
type State int

const (
	Healthy State = iota
	RetryingBackoff
	Fallback
)

func (s State) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case RetryingBackoff:
		return "retrying_backoff"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Client is the transport-level dependency, reduced to "execute these
// rows, return an error on failure". HTTPClient (HTTP POST of a
// gzip-compressed JSONEachRow body) is the implementation in this package.
type Client interface {
	InsertTicks(rows []events.MDTickEvent) error
	InsertBooks(rows []events.MDBookEvent) error
}

// FallbackSink persists events that could not be inserted after
// exhausting retries.
type FallbackSink interface {
	WriteTicks(rows []events.MDTickEvent) error
	WriteBooks(rows []events.MDBookEvent) error
}

// RetryConfig configures the exponential backoff policy.
type RetryConfig struct {
	BaseDelay  time.Duration
	Multiplier float64
	MaxDelay   time.Duration
	MaxRetries int
}

// DefaultRetryConfig holds the package's default retry tuning.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		BaseDelay:  100 * time.Millisecond,
		Multiplier: 2,
		MaxDelay:   time.Second,
		MaxRetries: 3,
	}
}

// FailureSummary is one entry in the bounded failure history exposed for
// observability.
type FailureSummary struct {
	At      time.Time
	Err     string
	Ticks   int
	Books   int
}

const maxFailureHistory = 32

// Writer buffers events and flushes batched inserts to client, falling
// back to fallback on permanent failure.
type Writer struct {
	client   Client
	fallback FallbackSink
	retry    RetryConfig
	logger   *zap.Logger

	flushThreshold int
	flushInterval  time.Duration

	mu          sync.Mutex
	state       State
	tickBuffer  []events.MDTickEvent
	bookBuffer  []events.MDBookEvent
	lastFlush   time.Time
	failures    []FailureSummary
}

// New constructs a columnar writer.
func New(client Client, fallback FallbackSink, flushThreshold int, flushInterval time.Duration, retry RetryConfig, logger *zap.Logger) *Writer {
	return &Writer{
		client:         client,
		fallback:       fallback,
		retry:          retry,
		logger:         logger,
		flushThreshold: flushThreshold,
		flushInterval:  flushInterval,
		state:          Healthy,
		lastFlush:      time.Now(),
	}
}

// State returns the writer's current health state.
func (w *Writer) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Failures returns a copy of the bounded failure-summary history.
func (w *Writer) Failures() []FailureSummary {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]FailureSummary, len(w.failures))
	copy(out, w.failures)
	return out
}

// AppendTicks buffers rows and flushes if a threshold trigger fires.
func (w *Writer) AppendTicks(rows []events.MDTickEvent) {
	w.mu.Lock()
	w.tickBuffer = append(w.tickBuffer, rows...)
	shouldFlush := w.shouldFlushLocked()
	w.mu.Unlock()
	if shouldFlush {
		w.Flush(false)
	}
}

func (w *Writer) AppendBooks(rows []events.MDBookEvent) {
	w.mu.Lock()
	w.bookBuffer = append(w.bookBuffer, rows...)
	shouldFlush := w.shouldFlushLocked()
	w.mu.Unlock()
	if shouldFlush {
		w.Flush(false)
	}
}

func (w *Writer) shouldFlushLocked() bool {
	count := len(w.tickBuffer) + len(w.bookBuffer)
	return count >= w.flushThreshold || time.Since(w.lastFlush) >= w.flushInterval
}

// Flush attempts to insert the buffered rows. On success the buffer is
// cleared. On permanent failure (retries exhausted) the buffer is left
// intact so the next flush re-attempts, and the failed rows are
// persisted to the fallback sink without clearing the in-memory
// buffer. force=true is used by the ingestion worker's post-batch nudge.
func (w *Writer) Flush(force bool) error {
	w.mu.Lock()
	if len(w.tickBuffer) == 0 && len(w.bookBuffer) == 0 {
		w.mu.Unlock()
		return nil
	}
	if !force && !w.shouldFlushLocked() {
		w.mu.Unlock()
		return nil
	}
	ticks := w.tickBuffer
	books := w.bookBuffer
	w.mu.Unlock()

	err := w.insertWithRetry(ticks, books)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastFlush = time.Now()
	if err == nil {
		w.tickBuffer = nil
		w.bookBuffer = nil
		w.state = Healthy
		return nil
	}

	w.recordFailureLocked(err, len(ticks), len(books))
	w.state = Fallback
	if ferr := w.fallback.WriteTicks(ticks); ferr != nil && w.logger != nil {
		w.logger.Error("columnar writer: fallback write ticks failed", zap.Error(ferr))
	}
	if ferr := w.fallback.WriteBooks(books); ferr != nil && w.logger != nil {
		w.logger.Error("columnar writer: fallback write books failed", zap.Error(ferr))
	}
	// Buffer is deliberately left intact: tickBuffer/bookBuffer still
	// equal ticks/books since nothing reassigned them above.
	return err
}

func (w *Writer) insertWithRetry(ticks []events.MDTickEvent, books []events.MDBookEvent) error {
	delay := w.retry.BaseDelay
	var lastErr error
	for attempt := 0; attempt <= w.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			w.mu.Lock()
			w.state = RetryingBackoff
			w.mu.Unlock()
			time.Sleep(delay)
			delay = time.Duration(float64(delay) * w.retry.Multiplier)
			if delay > w.retry.MaxDelay {
				delay = w.retry.MaxDelay
			}
		}
		if err := w.doInsert(ticks, books); err != nil {
			lastErr = err
			if w.logger != nil {
				w.logger.Warn("columnar writer: insert attempt failed",
					zap.Int("attempt", attempt), zap.Error(err))
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("columnar writer: exhausted %d retries: %w", w.retry.MaxRetries, lastErr)
}

func (w *Writer) doInsert(ticks []events.MDTickEvent, books []events.MDBookEvent) error {
	if len(ticks) > 0 {
		if err := w.client.InsertTicks(ticks); err != nil {
			return err
		}
	}
	if len(books) > 0 {
		if err := w.client.InsertBooks(books); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) recordFailureLocked(err error, ticks, books int) {
	w.failures = append(w.failures, FailureSummary{
		At: time.Now(), Err: err.Error(), Ticks: ticks, Books: books,
	})
	if len(w.failures) > maxFailureHistory {
		w.failures = w.failures[len(w.failures)-maxFailureHistory:]
	}
}
