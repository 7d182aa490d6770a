// Package ringbuffer implements the single-producer/single-consumer
// shared-memory transport, ported from
// original_source/shijim/ipc/ring_buffer.py's RingBufferReader.
//
// The original's raw mmap + numpy structured-array view becomes a typed
// shared-memory region abstraction here, owning the mapping and handing
// out two handles (HeaderRef, SlotRef) with explicit acquire/release
// memory ordering, rather than letting callers poke at numpy dtype
// fields directly.
package ringbuffer

import (
	"errors"
	"fmt"
)

const (
	// HeaderSize is the reserved header region: one 8-byte write_cursor
	// plus padding to a 128-byte boundary.
	HeaderSize = 128
	// SlotPayloadSize is the usable payload bytes per slot (248), leaving
	// 8 bytes for seq_num in a 256-byte slot.
	SlotPayloadSize = 248
	// SlotSize is the full fixed slot size: seq_num (8 bytes) + payload.
	SlotSize = 8 + SlotPayloadSize
)

// ErrNoDataWritten is returned when the cursor is 0 (nothing ever
// published).
var ErrNoDataWritten = errors.New("ringbuffer: no data written yet (cursor is 0)")

// IntegrityError is raised when the slot's seq_num is behind the cursor
// used to address it: the producer has not finished the write yet, or the
// sequence was never set. The read should be retried.
type IntegrityError struct {
	Cursor  uint64
	SeqNum  uint64
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("ringbuffer: integrity check failed: expected seq=%d, found %d", e.Cursor, e.SeqNum)
}

// StaleReferenceError is raised when the slot's seq_num is ahead of the
// cursor by a multiple of the ring capacity: the producer has lapped the
// consumer and the requested data is gone. The consumer must resync to
// the current cursor.
type StaleReferenceError struct {
	Cursor uint64
	SeqNum uint64
}

func (e *StaleReferenceError) Error() string {
	return fmt.Sprintf("ringbuffer: overrun detected: expected seq=%d, found %d", e.Cursor, e.SeqNum)
}

// HeaderRef is an acquire-semantics view onto the shared write_cursor.
// Load always re-reads the underlying memory; callers must not cache the
// result across a read without re-Loading.
type HeaderRef struct {
	region *Region
}

// Load performs an acquire read of write_cursor. write_cursor is the
// count of total writes (1-based); 0 means "no data ever written".
func (h HeaderRef) Load() uint64 {
	return h.region.loadCursor()
}

// SlotRef is a handle onto one fixed-size slot.
type SlotRef struct {
	region *Region
	index  int
}

// SeqNum reads the slot's seq_num field.
func (s SlotRef) SeqNum() uint64 {
	return s.region.loadSlotSeq(s.index)
}

// Payload returns a copy of the slot's payload bytes.
func (s SlotRef) Payload() []byte {
	return s.region.loadSlotPayload(s.index)
}

// SlotIndex computes the physical slot index for a given cursor: slot
// i (0-indexed) holds sequence i+1, i+1+capacity, ....
func SlotIndex(cursor uint64, capacity int) int {
	return int((cursor - 1) % uint64(capacity))
}

// Reader is the consumer side of the ring buffer: it never suspends,
// spin-reading the header instead.
type Reader struct {
	region   *Region
	capacity int
}

// NewReader wraps an already-attached Region.
func NewReader(region *Region) *Reader {
	return &Reader{region: region, capacity: region.Capacity()}
}

// Header returns the acquire-semantics handle onto write_cursor.
func (r *Reader) Header() HeaderRef { return HeaderRef{region: r.region} }

// ReadAt reads the slot addressed by cursor and validates its seq_num.
func (r *Reader) ReadAt(cursor uint64) ([]byte, error) {
	if cursor == 0 {
		return nil, ErrNoDataWritten
	}
	idx := SlotIndex(cursor, r.capacity)
	slot := SlotRef{region: r.region, index: idx}
	seq := slot.SeqNum()

	switch {
	case seq == cursor:
		return slot.Payload(), nil
	case seq > cursor && (seq-cursor)%uint64(r.capacity) == 0:
		return nil, &StaleReferenceError{Cursor: cursor, SeqNum: seq}
	default:
		return nil, &IntegrityError{Cursor: cursor, SeqNum: seq}
	}
}

// Latest reads the most recently published slot.
func (r *Reader) Latest() ([]byte, error) {
	cursor := r.Header().Load()
	if cursor == 0 {
		return nil, ErrNoDataWritten
	}
	return r.ReadAt(cursor)
}

// Writer is the producer side: exactly one writer per ring, matching
// the exactly-one-producer-and-one-consumer resource policy.
type Writer struct {
	region   *Region
	capacity int
	cursor   uint64
}

// NewWriter wraps an already-attached Region for exclusive write use.
func NewWriter(region *Region) *Writer {
	return &Writer{region: region, capacity: region.Capacity()}
}

// Publish writes payload into the next slot, sets its seq_num, then
// publishes by incrementing write_cursor with release semantics. payload
// longer than SlotPayloadSize is an upstream bug (the caller is
// responsible for truncation policy, e.g. via sbe.TruncateToSlot); Publish
// rejects it rather than silently truncating the wire, since truncation
// at this layer would corrupt seq_num alignment.
func (w *Writer) Publish(payload []byte) error {
	if len(payload) > SlotPayloadSize {
		return fmt.Errorf("ringbuffer: payload %d bytes exceeds slot capacity %d", len(payload), SlotPayloadSize)
	}
	w.cursor++
	idx := SlotIndex(w.cursor, w.capacity)
	w.region.storeSlot(idx, w.cursor, payload)
	w.region.storeCursorRelease(w.cursor)
	return nil
}
