package ringbuffer

import (
	"fmt"
	"os"
	"sync/atomic"
	"syscall"
)

// Region owns a memory-mapped shared-memory segment sized for HeaderSize
// plus capacity slots of SlotSize bytes. It is the sole place that touches
// raw bytes; Reader/Writer/HeaderRef/SlotRef all go through it so their
// acquire/release ordering is centralized in one file.
//
// No third-party shared-memory or mmap library appears anywhere in the
// example pack; the standard library's syscall.Mmap already exposes raw
// POSIX mmap directly, so Region is built on it rather than reaching for
// an unused ecosystem dependency.
type Region struct {
	data     []byte
	file     *os.File
	capacity int
}

// Create creates (or truncates) the backing file at path and maps
// HeaderSize+capacity*SlotSize bytes from it, zero-initialized.
func Create(path string, capacity int) (*Region, error) {
	size := int64(HeaderSize + capacity*SlotSize)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ringbuffer: open %s: %w", path, err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("ringbuffer: truncate %s: %w", path, err)
	}
	return mapFile(f, int(size), capacity)
}

// Attach opens an existing backing file as a consumer would: the file
// must already exist and be sized correctly.
func Attach(path string, capacity int) (*Region, error) {
	size := int64(HeaderSize + capacity*SlotSize)
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ringbuffer: attach %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() < size {
		f.Close()
		return nil, fmt.Errorf("ringbuffer: %s is %d bytes, want at least %d", path, info.Size(), size)
	}
	return mapFile(f, int(size), capacity)
}

func mapFile(f *os.File, size, capacity int) (*Region, error) {
	data, err := syscall.Mmap(int(f.Fd()), 0, size, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ringbuffer: mmap: %w", err)
	}
	return &Region{data: data, file: f, capacity: capacity}, nil
}

// Capacity returns the number of slots. Capacity MUST be a power of two;
// construction call sites are responsible for enforcing that (see
// config validation), since Region itself only needs
// the modulo arithmetic to be correct, not fast.
func (r *Region) Capacity() int { return r.capacity }

// Close unmaps the region and closes the backing file descriptor.
func (r *Region) Close() error {
	if err := syscall.Munmap(r.data); err != nil {
		return fmt.Errorf("ringbuffer: munmap: %w", err)
	}
	return r.file.Close()
}

func (r *Region) loadCursor() uint64 {
	return atomic.LoadUint64((*uint64)(ptrAt(r.data, 0)))
}

func (r *Region) storeCursorRelease(cursor uint64) {
	atomic.StoreUint64((*uint64)(ptrAt(r.data, 0)), cursor)
}

func (r *Region) slotOffset(index int) int {
	return HeaderSize + index*SlotSize
}

func (r *Region) loadSlotSeq(index int) uint64 {
	off := r.slotOffset(index)
	return atomic.LoadUint64((*uint64)(ptrAt(r.data, off)))
}

func (r *Region) loadSlotPayload(index int) []byte {
	off := r.slotOffset(index) + 8
	out := make([]byte, SlotPayloadSize)
	copy(out, r.data[off:off+SlotPayloadSize])
	return out
}

func (r *Region) storeSlot(index int, seq uint64, payload []byte) {
	off := r.slotOffset(index)
	copy(r.data[off+8:off+8+SlotPayloadSize], payload)
	for i := len(payload); i < SlotPayloadSize; i++ {
		r.data[off+8+i] = 0
	}
	// seq_num is stored last with a release store so a consumer that
	// observes the new seq_num is guaranteed to observe the payload
	// bytes written above it.
	atomic.StoreUint64((*uint64)(ptrAt(r.data, off)), seq)
}
