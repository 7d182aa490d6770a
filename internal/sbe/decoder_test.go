package sbe

import (
	"encoding/binary"
	"testing"
)

func encodeHeader(buf []byte, blockLen, templateID, schemaID, version uint16) {
	binary.LittleEndian.PutUint16(buf[0:], blockLen)
	binary.LittleEndian.PutUint16(buf[2:], templateID)
	binary.LittleEndian.PutUint16(buf[4:], schemaID)
	binary.LittleEndian.PutUint16(buf[6:], version)
}

// TestDecodeHeader_RoundTrips verifies the 8-byte little-endian header
// decode matches the wire format's field order and byte order.
func TestDecodeHeader_RoundTrips(t *testing.T) {
	buf := make([]byte, HeaderSize)
	encodeHeader(buf, 40, 2, 1, 0)

	d := New(buf)
	h, err := d.DecodeHeader()
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if h.BlockLength != 40 || h.TemplateID != 2 || h.SchemaID != 1 || h.Version != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
	if d.Offset() != HeaderSize {
		t.Fatalf("expected offset %d, got %d", HeaderSize, d.Offset())
	}
}

// TestDecodeHeader_Heartbeat verifies template_id==0 is flagged as a
// heartbeat frame. Ingestor drops such frames after reading them from a
// slot, without publishing them to the bus; ringbuffer.Writer.Publish does
// not filter them, so a heartbeat still occupies a slot.
func TestDecodeHeader_Heartbeat(t *testing.T) {
	buf := make([]byte, HeaderSize)
	encodeHeader(buf, 0, 0, 0, 0)

	h, err := New(buf).DecodeHeader()
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if !h.IsHeartbeat() {
		t.Fatalf("expected heartbeat frame")
	}
}

// TestReadDecimal64_NullSentinel verifies that a mantissa of INT64_MAX
// decodes to the null sentinel rather than a numeric value.
func TestReadDecimal64_NullSentinel(t *testing.T) {
	buf := make([]byte, decimal64Size)
	binary.LittleEndian.PutUint64(buf, uint64(int64Null))
	buf[8] = 0

	got, err := New(buf).ReadDecimal64()
	if err != nil {
		t.Fatalf("ReadDecimal64: %v", err)
	}
	if !got.Null {
		t.Fatalf("expected null decimal64, got %+v", got)
	}
}

// TestReadDecimal64_Value verifies a non-null mantissa/exponent pair
// converts to the expected decimal value (e.g. 12345 * 10^-2 = 123.45).
func TestReadDecimal64_Value(t *testing.T) {
	buf := make([]byte, decimal64Size)
	binary.LittleEndian.PutUint64(buf, uint64(12345))
	buf[8] = byte(int8(-2))

	got, err := New(buf).ReadDecimal64()
	if err != nil {
		t.Fatalf("ReadDecimal64: %v", err)
	}
	if got.Null {
		t.Fatalf("expected non-null decimal64")
	}
	want := "123.45"
	if got.ToDecimal().String() != want {
		t.Fatalf("expected %s, got %s", want, got.ToDecimal().String())
	}
}

// TestGroups_IteratesFixedEntries verifies repeating-group decoding:
// block_size/num_in_group header followed by that many fixed-size entries.
func TestGroups_IteratesFixedEntries(t *testing.T) {
	entrySize := 4
	numEntries := 3
	buf := make([]byte, GroupHeaderSize+entrySize*numEntries)
	binary.LittleEndian.PutUint16(buf[0:], uint16(entrySize))
	binary.LittleEndian.PutUint16(buf[2:], uint16(numEntries))
	for i := 0; i < numEntries; i++ {
		binary.LittleEndian.PutUint16(buf[GroupHeaderSize+i*entrySize:], uint16(i+1))
	}

	d := New(buf)
	g, err := d.Groups()
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if g.Len() != numEntries {
		t.Fatalf("expected %d entries, got %d", numEntries, g.Len())
	}

	for i := 0; i < numEntries; i++ {
		entry := g.Next()
		if entry == nil {
			t.Fatalf("expected entry %d, got nil", i)
		}
		v, err := entry.ReadU16()
		if err != nil {
			t.Fatalf("ReadU16: %v", err)
		}
		if v != uint16(i+1) {
			t.Fatalf("entry %d: expected %d, got %d", i, i+1, v)
		}
	}
	if g.Next() != nil {
		t.Fatalf("expected nil after group exhausted")
	}
}

// TestBufferUnderflow_FailsFast verifies a short buffer fails instead of
// reading past the end.
func TestBufferUnderflow_FailsFast(t *testing.T) {
	d := New(make([]byte, 3))
	if _, err := d.DecodeHeader(); err == nil {
		t.Fatalf("expected buffer underflow error")
	}
}

// TestTruncateToSlot_Truncates verifies jumbo frames are truncated,
// not rejected.
func TestTruncateToSlot_Truncates(t *testing.T) {
	buf := make([]byte, 300)
	got := TruncateToSlot(buf, 248)
	if len(got) != 248 {
		t.Fatalf("expected truncation to 248 bytes, got %d", len(got))
	}
}
