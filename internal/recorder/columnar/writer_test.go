package columnar

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Charliesj0129/shijim/internal/events"
)

type flakyClient struct {
	failuresRemaining int
	tickInserts       [][]events.MDTickEvent
	bookInserts       [][]events.MDBookEvent
}

func (c *flakyClient) InsertTicks(rows []events.MDTickEvent) error {
	if c.failuresRemaining > 0 {
		c.failuresRemaining--
		return errors.New("simulated insert failure")
	}
	c.tickInserts = append(c.tickInserts, rows)
	return nil
}

func (c *flakyClient) InsertBooks(rows []events.MDBookEvent) error {
	if c.failuresRemaining > 0 {
		c.failuresRemaining--
		return errors.New("simulated insert failure")
	}
	c.bookInserts = append(c.bookInserts, rows)
	return nil
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
	}
	return n
}

// TestWriter_FallbackThenRecovery reproduces a fallback-then-recovery scenario: a
// columnar client fails its first insert call and succeeds afterwards.
// A batch of 2 ticks + 1 book should land in the fallback directory
// after the failed flush, then (after the client recovers) a
// force-flush should succeed without duplicating the fallback-written
// rows (the in-memory buffer, not the fallback file, is the source of
// truth for re-attempts).
func TestWriter_FallbackThenRecovery(t *testing.T) {
	root := t.TempDir()
	fallback := NewJSONLFallback(root)

	ts := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC).UnixNano()
	ticks := []events.MDTickEvent{
		{BaseEvent: events.BaseEvent{Type: events.TypeTick, TsNs: ts, Symbol: "2330"}},
		{BaseEvent: events.BaseEvent{Type: events.TypeTick, TsNs: ts, Symbol: "2330"}},
	}
	books := []events.MDBookEvent{
		{BaseEvent: events.BaseEvent{Type: events.TypeBook, TsNs: ts, Symbol: "2330"}},
	}

	retry := RetryConfig{BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: 5 * time.Millisecond, MaxRetries: 0}

	// First flush: client fails once (within MaxRetries=0, so the single
	// attempt fails and this flush goes straight to fallback).
	client := &flakyClient{failuresRemaining: 1}
	w := New(client, fallback, 1000, time.Hour, retry, nil)
	w.AppendTicks(ticks)
	w.AppendBooks(books)
	if err := w.Flush(true); err == nil {
		t.Fatalf("expected first flush to fail and fall back")
	}
	if w.State() != Fallback {
		t.Fatalf("expected Fallback state, got %s", w.State())
	}

	tickPath := filepath.Join(root, "ticks", "2026-07-30.jsonl")
	bookPath := filepath.Join(root, "books", "2026-07-30.jsonl")
	if got := countLines(t, tickPath); got != 2 {
		t.Fatalf("expected 2 tick lines in fallback, got %d", got)
	}
	if got := countLines(t, bookPath); got != 1 {
		t.Fatalf("expected 1 book line in fallback, got %d", got)
	}

	// Buffer must still hold the unflushed rows for the next attempt.
	if len(w.tickBuffer) != 2 || len(w.bookBuffer) != 1 {
		t.Fatalf("expected buffer retained after fallback, got ticks=%d books=%d", len(w.tickBuffer), len(w.bookBuffer))
	}

	// Client recovers; force flush should now succeed and clear the buffer.
	client.failuresRemaining = 0
	if err := w.Flush(true); err != nil {
		t.Fatalf("expected recovery flush to succeed: %v", err)
	}
	if w.State() != Healthy {
		t.Fatalf("expected Healthy state after recovery, got %s", w.State())
	}
	if len(client.tickInserts) != 1 || len(client.tickInserts[0]) != 2 {
		t.Fatalf("expected exactly one insert of 2 ticks, got %+v", client.tickInserts)
	}
	if len(client.bookInserts) != 1 || len(client.bookInserts[0]) != 1 {
		t.Fatalf("expected exactly one insert of 1 book, got %+v", client.bookInserts)
	}
}
