package ringbuffer

import "unsafe"

// ptrAt returns a pointer to the uint64 at byte offset off within buf.
// buf must be at least off+8 bytes and 8-byte aligned at off for the
// atomic ops in region.go to behave correctly, which holds here because
// HeaderSize and SlotSize are both multiples of 8.
func ptrAt(buf []byte, off int) unsafe.Pointer {
	return unsafe.Pointer(&buf[off])
}
