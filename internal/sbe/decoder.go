// Package sbe implements the lazy, sequential wire decoder for the
// SBE-style payload format, ported from
// original_source/shijim/sbe/decoder.py's SBEDecoder.
package sbe

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	HeaderSize      = 8
	GroupHeaderSize = 4
	decimal64Size   = 9

	// int64Null is the mantissa sentinel signaling a null Decimal64,
	// matching the reference decoder's INT64_NULL (= INT64_MAX).
	int64Null = math.MaxInt64
)

// ErrBufferUnderflow is returned whenever a read would run past the end
// of the buffer.
type ErrBufferUnderflow struct {
	Need, Have int
}

func (e *ErrBufferUnderflow) Error() string {
	return fmt.Sprintf("sbe: need %d bytes, only %d left", e.Need, e.Have)
}

// Header is the standard 8-byte SBE frame header.
type Header struct {
	BlockLength uint16
	TemplateID  uint16
	SchemaID    uint16
	Version     uint16
}

// IsHeartbeat reports whether this header marks a heartbeat frame,
// which must be discarded before slot publication.
func (h Header) IsHeartbeat() bool { return h.TemplateID == 0 }

// Decimal64 is the composite {mantissa int64, exponent int8} fixed-point
// type. A mantissa of int64Null represents SQL-style NULL.
type Decimal64 struct {
	Mantissa int64
	Exponent int8
	Null     bool
}

// ToDecimal converts a non-null Decimal64 to an arbitrary-precision
// decimal.Decimal.
func (d Decimal64) ToDecimal() decimal.Decimal {
	return decimal.New(d.Mantissa, int32(d.Exponent))
}

// Decoder wraps a byte slice and an offset. Each read advances offset and
// bounds-checks; a short read fails with ErrBufferUnderflow rather than
// panicking.
type Decoder struct {
	buf    []byte
	offset int
}

// New wraps buf for sequential decoding starting at offset 0.
func New(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Offset returns the current read position.
func (d *Decoder) Offset() int { return d.offset }

func (d *Decoder) checkBounds(size int) error {
	if d.offset+size > len(d.buf) {
		return &ErrBufferUnderflow{Need: size, Have: len(d.buf) - d.offset}
	}
	return nil
}

// DecodeHeader reads the 8-byte frame header and advances the offset.
func (d *Decoder) DecodeHeader() (Header, error) {
	if err := d.checkBounds(HeaderSize); err != nil {
		return Header{}, err
	}
	h := Header{
		BlockLength: binary.LittleEndian.Uint16(d.buf[d.offset:]),
		TemplateID:  binary.LittleEndian.Uint16(d.buf[d.offset+2:]),
		SchemaID:    binary.LittleEndian.Uint16(d.buf[d.offset+4:]),
		Version:     binary.LittleEndian.Uint16(d.buf[d.offset+6:]),
	}
	d.offset += HeaderSize
	return h, nil
}

// Skip advances the offset by n bytes without reading them.
func (d *Decoder) Skip(n int) error {
	if err := d.checkBounds(n); err != nil {
		return err
	}
	d.offset += n
	return nil
}

// ReadU8 reads an unsigned byte.
func (d *Decoder) ReadU8() (uint8, error) {
	if err := d.checkBounds(1); err != nil {
		return 0, err
	}
	v := d.buf[d.offset]
	d.offset++
	return v, nil
}

// ReadU16 reads a little-endian u16.
func (d *Decoder) ReadU16() (uint16, error) {
	if err := d.checkBounds(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(d.buf[d.offset:])
	d.offset += 2
	return v, nil
}

// ReadI64 reads a little-endian signed 64-bit integer.
func (d *Decoder) ReadI64() (int64, error) {
	if err := d.checkBounds(8); err != nil {
		return 0, err
	}
	v := int64(binary.LittleEndian.Uint64(d.buf[d.offset:]))
	d.offset += 8
	return v, nil
}

// ReadDecimal64 reads the {mantissa i64, exponent i8} composite.
func (d *Decoder) ReadDecimal64() (Decimal64, error) {
	if err := d.checkBounds(decimal64Size); err != nil {
		return Decimal64{}, err
	}
	mantissa := int64(binary.LittleEndian.Uint64(d.buf[d.offset:]))
	exponent := int8(d.buf[d.offset+8])
	d.offset += decimal64Size

	if mantissa == int64Null {
		return Decimal64{Null: true}, nil
	}
	return Decimal64{Mantissa: mantissa, Exponent: exponent}, nil
}

// Group iterates the entries of a repeating group whose 4-byte header
// (block size and entry count) Decoder.Groups has read; call Next for
// each entry. This only supports fixed-size entries (no nested groups or variable
// length data), matching the reference decoder's documented limitation.
type Group struct {
	decoder   *Decoder
	blockSize int
	remaining int
}

// Groups reads the 4-byte group header and returns a Group iterator.
func (d *Decoder) Groups() (*Group, error) {
	if err := d.checkBounds(GroupHeaderSize); err != nil {
		return nil, err
	}
	blockSize := int(binary.LittleEndian.Uint16(d.buf[d.offset:]))
	numInGroup := int(binary.LittleEndian.Uint16(d.buf[d.offset+2:]))
	d.offset += GroupHeaderSize

	total := blockSize * numInGroup
	if err := d.checkBounds(total); err != nil {
		return nil, err
	}
	return &Group{decoder: d, blockSize: blockSize, remaining: numInGroup}, nil
}

// Len reports how many entries remain unread.
func (g *Group) Len() int { return g.remaining }

// Next returns a sub-decoder restricted to the next entry's block and
// advances the parent decoder past it. Returns nil once exhausted.
func (g *Group) Next() *Decoder {
	if g.remaining == 0 {
		return nil
	}
	start := g.decoder.offset
	end := start + g.blockSize
	entry := New(g.decoder.buf[start:end])
	g.decoder.offset = end
	g.remaining--
	return entry
}

// TruncateToSlot truncates buf to maxLen if it is longer, since jumbo
// frames are an upstream concern: a decoder must
// truncate rather than reject an oversized payload.
func TruncateToSlot(buf []byte, maxLen int) []byte {
	if len(buf) > maxLen {
		return buf[:maxLen]
	}
	return buf
}
