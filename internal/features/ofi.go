// Package features implements the stateful per-symbol OFI, VPIN, and
// Hawkes intensity calculators.
package features

import (
	"github.com/Charliesj0129/shijim/internal/events"
	"github.com/shopspring/decimal"
)

// OFISignal is an Order Flow Imbalance reading for one symbol at one
// book-update timestamp.
type OFISignal struct {
	TsNs   int64
	Symbol string
	OFI    float64
}

type bookLevel struct {
	price  decimal.Decimal
	volume int64
	ok     bool
}

type topOfBook struct {
	bid bookLevel
	ask bookLevel
}

// OFICalculator computes Order Flow Imbalance from consecutive top-of-book
// snapshots, ported from the Python fallback path of
// original_source/shijim/features/ofi.py's OFICalculator (the Rust-backed
// fast path it prefers has no Go equivalent to port).
type OFICalculator struct {
	prev map[string]topOfBook
}

func NewOFICalculator() *OFICalculator {
	return &OFICalculator{prev: make(map[string]topOfBook)}
}

// Calculate returns the OFI signal for event relative to the previous book
// snapshot for the same symbol, or nil on the first event for a symbol
// (which only seeds state).
func (c *OFICalculator) Calculate(event events.MDBookEvent) *OFISignal {
	symbol := event.Symbol
	cur := topOfBookOf(event)
	prev, seen := c.prev[symbol]
	c.prev[symbol] = cur

	if !seen {
		return nil
	}

	if !cur.bid.ok || !cur.ask.ok || !prev.bid.ok || !prev.ask.ok {
		return &OFISignal{TsNs: event.TsNs, Symbol: symbol, OFI: 0}
	}

	var bidContrib, askContrib float64
	switch cur.bid.price.Cmp(prev.bid.price) {
	case 1, 0:
		bidContrib += float64(cur.bid.volume)
	}
	switch cur.bid.price.Cmp(prev.bid.price) {
	case -1, 0:
		bidContrib -= float64(prev.bid.volume)
	}

	switch cur.ask.price.Cmp(prev.ask.price) {
	case -1, 0:
		askContrib -= float64(cur.ask.volume)
	}
	switch cur.ask.price.Cmp(prev.ask.price) {
	case 1, 0:
		askContrib += float64(prev.ask.volume)
	}

	return &OFISignal{TsNs: event.TsNs, Symbol: symbol, OFI: bidContrib + askContrib}
}

func topOfBookOf(event events.MDBookEvent) topOfBook {
	var tob topOfBook
	if len(event.BidPrices) > 0 && len(event.BidVolumes) > 0 {
		tob.bid = bookLevel{price: event.BidPrices[0], volume: event.BidVolumes[0], ok: true}
	}
	if len(event.AskPrices) > 0 && len(event.AskVolumes) > 0 {
		tob.ask = bookLevel{price: event.AskPrices[0], volume: event.AskVolumes[0], ok: true}
	}
	return tob
}
