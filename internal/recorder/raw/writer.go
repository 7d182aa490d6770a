// Package raw implements the append-only, day/symbol-partitioned JSONL
// log writer, ported from
// original_source/shijim/recorder/raw_writer.py's RawWriter.
package raw

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Charliesj0129/shijim/internal/events"
	"go.uber.org/zap"
)

const (
	DefaultMaxFileSizeBytes = 512 * 1024 * 1024
	DefaultMaxEventsPerFile = 1_000_000
)

type partitionKey struct {
	tradingDay string
	symbol     string
}

type partitionState struct {
	file         *os.File
	path         string
	index        int
	bytesWritten int64
	eventCount   int64
}

// RotateHook is invoked each time a partition rolls over to a new file,
// letting a caller wire a rotation-count metric without this package
// importing a metrics library directly.
type RotateHook func(tradingDay, symbol string)

// Writer persists every event exactly as received into JSONL files
// partitioned by trading day (UTC) and symbol.
type Writer struct {
	root             string
	maxFileSizeBytes int64
	maxEventsPerFile int64
	logger           *zap.Logger
	onRotate         RotateHook

	mu    sync.Mutex
	state map[partitionKey]*partitionState
}

// New constructs a raw writer rooted at root.
func New(root string, maxFileSizeBytes, maxEventsPerFile int64, logger *zap.Logger) *Writer {
	if maxFileSizeBytes <= 0 {
		maxFileSizeBytes = DefaultMaxFileSizeBytes
	}
	if maxEventsPerFile <= 0 {
		maxEventsPerFile = DefaultMaxEventsPerFile
	}
	return &Writer{
		root:             root,
		maxFileSizeBytes: maxFileSizeBytes,
		maxEventsPerFile: maxEventsPerFile,
		logger:           logger,
		state:            make(map[partitionKey]*partitionState),
	}
}

// SetRotateHook installs h, called after every file rotation.
func (w *Writer) SetRotateHook(h RotateHook) { w.onRotate = h }

// WriteBatch serializes ticks and books to JSONL files grouped by trading
// day + symbol, flushing once per touched partition.
func (w *Writer) WriteBatch(ticks []events.MDTickEvent, books []events.MDBookEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	touched := make(map[partitionKey]struct{})
	for _, t := range ticks {
		if err := w.writeEventLocked(t.Base(), t); err != nil {
			return err
		}
		touched[partitionKey{tradingDay(t.Base().TsNs), t.Base().Symbol}] = struct{}{}
	}
	for _, b := range books {
		if err := w.writeEventLocked(b.Base(), b); err != nil {
			return err
		}
		touched[partitionKey{tradingDay(b.Base().TsNs), b.Base().Symbol}] = struct{}{}
	}
	for key := range touched {
		if st, ok := w.state[key]; ok {
			if err := st.file.Sync(); err != nil && w.logger != nil {
				w.logger.Warn("raw writer fsync failed", zap.String("path", st.path), zap.Error(err))
			}
		}
	}
	return nil
}

func (w *Writer) writeEventLocked(base events.BaseEvent, ev any) error {
	key := partitionKey{tradingDay: tradingDay(base.TsNs), symbol: base.Symbol}
	st, err := w.ensureFileLocked(key)
	if err != nil {
		return err
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("raw writer: marshal event for %s: %w", base.Symbol, err)
	}
	line = append(line, '\n')

	n, err := st.file.Write(line)
	if err != nil {
		return fmt.Errorf("raw writer: write to %s: %w", st.path, err)
	}
	st.bytesWritten += int64(n)
	st.eventCount++
	return nil
}

func (w *Writer) ensureFileLocked(key partitionKey) (*partitionState, error) {
	st, ok := w.state[key]
	if ok && (st.bytesWritten < w.maxFileSizeBytes && st.eventCount < w.maxEventsPerFile) {
		return st, nil
	}

	dir := filepath.Join(w.root, key.tradingDay, "symbol="+key.symbol)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("raw writer: mkdir %s: %w", dir, err)
	}

	index := 1
	if ok {
		index = st.index + 1
		st.file.Close()
		if w.onRotate != nil {
			w.onRotate(key.tradingDay, key.symbol)
		}
	} else {
		index = resumeIndex(dir)
	}

	path := filepath.Join(dir, fmt.Sprintf("md_events_%04d.jsonl", index))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("raw writer: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	next := &partitionState{file: f, path: path, index: index, bytesWritten: info.Size()}
	// Rotate forward again if the opened file is already at or over the
	// size limit.
	if next.bytesWritten >= w.maxFileSizeBytes {
		f.Close()
		next.index++
		path = filepath.Join(dir, fmt.Sprintf("md_events_%04d.jsonl", next.index))
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("raw writer: open %s: %w", path, err)
		}
		next = &partitionState{file: f, path: path, index: next.index}
	}

	w.state[key] = next
	return next, nil
}

// resumeIndex scans dir for the highest-indexed existing
// md_events_NNNN.jsonl file and returns its index, or 1 if none exist,
// so a restart resumes numbering instead of overwriting.
func resumeIndex(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 1
	}
	highest := 0
	for _, e := range entries {
		var idx int
		if _, err := fmt.Sscanf(e.Name(), "md_events_%04d.jsonl", &idx); err == nil && idx > highest {
			highest = idx
		}
	}
	if highest == 0 {
		return 1
	}
	return highest
}

func tradingDay(tsNs int64) string {
	return time.Unix(0, tsNs).UTC().Format("2006-01-02")
}

// Close flushes and closes every open partition file handle.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var firstErr error
	for _, st := range w.state {
		if err := st.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
