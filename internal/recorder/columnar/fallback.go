package columnar

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Charliesj0129/shijim/internal/events"
)

// JSONLFallback appends failed-batch events to
// <root>/{ticks|books}/<YYYY-MM-DD>.jsonl once retries are exhausted.
type JSONLFallback struct {
	root string
	mu   sync.Mutex
}

func NewJSONLFallback(root string) *JSONLFallback {
	return &JSONLFallback{root: root}
}

func (f *JSONLFallback) WriteTicks(rows []events.MDTickEvent) error {
	if len(rows) == 0 {
		return nil
	}
	return f.appendByDay("ticks", len(rows), func(enc *json.Encoder, i int) error {
		return enc.Encode(rows[i])
	}, func(i int) int64 { return rows[i].Base().TsNs })
}

func (f *JSONLFallback) WriteBooks(rows []events.MDBookEvent) error {
	if len(rows) == 0 {
		return nil
	}
	return f.appendByDay("books", len(rows), func(enc *json.Encoder, i int) error {
		return enc.Encode(rows[i])
	}, func(i int) int64 { return rows[i].Base().TsNs })
}

func (f *JSONLFallback) appendByDay(kind string, n int, encodeAt func(*json.Encoder, int) error, tsAt func(int) int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	byDay := make(map[string][]int)
	for i := 0; i < n; i++ {
		day := time.Unix(0, tsAt(i)).UTC().Format("2006-01-02")
		byDay[day] = append(byDay[day], i)
	}

	for day, indices := range byDay {
		dir := filepath.Join(f.root, kind)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("columnar fallback: mkdir %s: %w", dir, err)
		}
		path := filepath.Join(dir, day+".jsonl")
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("columnar fallback: open %s: %w", path, err)
		}
		enc := json.NewEncoder(file)
		for _, i := range indices {
			if err := encodeAt(enc, i); err != nil {
				file.Close()
				return fmt.Errorf("columnar fallback: encode row: %w", err)
			}
		}
		if err := file.Close(); err != nil {
			return err
		}
	}
	return nil
}
