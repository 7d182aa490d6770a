package sbe

import "strings"

const (
	// TemplateIDTick and TemplateIDBook identify the two fixed-layout
	// messages this ring-buffer fast path carries. TemplateID 0 is
	// reserved for heartbeats (see Header.IsHeartbeat).
	TemplateIDTick uint16 = 1
	TemplateIDBook uint16 = 2

	symbolFieldLen   = 12
	exchangeFieldLen = 4
)

// ReadFixedString reads n bytes and trims trailing NUL padding, the
// fixed-width string convention this wire format uses for Symbol and
// Exchange fields (avoiding a length-prefixed string, which would cost a
// variable-length field the slot's fixed 248-byte budget can't spare).
func (d *Decoder) ReadFixedString(n int) (string, error) {
	if err := d.checkBounds(n); err != nil {
		return "", err
	}
	raw := d.buf[d.offset : d.offset+n]
	d.offset += n
	return strings.TrimRight(string(raw), "\x00"), nil
}

// Tick is the decoded fixed-layout body of a TemplateIDTick frame.
type Tick struct {
	Symbol      string
	Exchange    string
	TsNs        int64
	Price       Decimal64
	Size        int64
	TickType    uint8
	TotalVolume int64
	TotalAmount Decimal64
}

// DecodeTick reads a Tick body from dec, which must already be positioned
// just past the frame header.
func DecodeTick(dec *Decoder) (Tick, error) {
	var t Tick
	var err error
	if t.Symbol, err = dec.ReadFixedString(symbolFieldLen); err != nil {
		return Tick{}, err
	}
	if t.Exchange, err = dec.ReadFixedString(exchangeFieldLen); err != nil {
		return Tick{}, err
	}
	if t.TsNs, err = dec.ReadI64(); err != nil {
		return Tick{}, err
	}
	if t.Price, err = dec.ReadDecimal64(); err != nil {
		return Tick{}, err
	}
	if t.Size, err = dec.ReadI64(); err != nil {
		return Tick{}, err
	}
	if t.TickType, err = dec.ReadU8(); err != nil {
		return Tick{}, err
	}
	if t.TotalVolume, err = dec.ReadI64(); err != nil {
		return Tick{}, err
	}
	if t.TotalAmount, err = dec.ReadDecimal64(); err != nil {
		return Tick{}, err
	}
	return t, nil
}

// BookLevel is one decoded price/volume pair from a repeating group.
type BookLevel struct {
	Price  Decimal64
	Volume int64
}

// Book is the decoded fixed-layout-plus-groups body of a TemplateIDBook
// frame: a fixed header followed by a bid-levels group then an ask-levels
// group, matching Decoder.Groups' fixed-entry-size limitation.
type Book struct {
	Symbol          string
	Exchange        string
	TsNs            int64
	UnderlyingPrice Decimal64
	Bids            []BookLevel
	Asks            []BookLevel
}

// DecodeBook reads a Book body from dec, which must already be positioned
// just past the frame header.
func DecodeBook(dec *Decoder) (Book, error) {
	var b Book
	var err error
	if b.Symbol, err = dec.ReadFixedString(symbolFieldLen); err != nil {
		return Book{}, err
	}
	if b.Exchange, err = dec.ReadFixedString(exchangeFieldLen); err != nil {
		return Book{}, err
	}
	if b.TsNs, err = dec.ReadI64(); err != nil {
		return Book{}, err
	}
	if b.UnderlyingPrice, err = dec.ReadDecimal64(); err != nil {
		return Book{}, err
	}
	if b.Bids, err = decodeLevels(dec); err != nil {
		return Book{}, err
	}
	if b.Asks, err = decodeLevels(dec); err != nil {
		return Book{}, err
	}
	return b, nil
}

func decodeLevels(dec *Decoder) ([]BookLevel, error) {
	group, err := dec.Groups()
	if err != nil {
		return nil, err
	}
	levels := make([]BookLevel, 0, group.Len())
	for entry := group.Next(); entry != nil; entry = group.Next() {
		price, err := entry.ReadDecimal64()
		if err != nil {
			return nil, err
		}
		volume, err := entry.ReadI64()
		if err != nil {
			return nil, err
		}
		levels = append(levels, BookLevel{Price: price, Volume: volume})
	}
	return levels, nil
}
