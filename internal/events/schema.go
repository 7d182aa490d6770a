// Package events defines the broker-neutral normalized market data
// envelopes that travel across the event bus.
package events

import "github.com/shopspring/decimal"

// AssetType discriminates the two asset classes this pipeline handles.
type AssetType string

const (
	AssetFutures AssetType = "futures"
	AssetStock   AssetType = "stock"
)

// Side is the aggressor side of a tick, when known.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
	SideNone Side = "none"
)

// Type tags the concrete event kind carried in BaseEvent.Type, used as the
// bus topic for routing.
type Type string

const (
	TypeTick Type = "MD_TICK"
	TypeBook Type = "MD_BOOK"
)

// BaseEvent is the envelope shared by every event on the bus.
type BaseEvent struct {
	Type     Type
	TsNs     int64
	Symbol   string
	Asset    AssetType
	Exchange string
	Extras   Extras
}

// MDTickEvent is a normalized trade tick or top-of-book snapshot.
type MDTickEvent struct {
	BaseEvent
	Price       decimal.NullDecimal
	Size        *int64
	Side        Side
	TotalVolume *int64
	TotalAmount decimal.NullDecimal
	// PriceChg and PctChg are carried forward from the broker payload's
	// previous-close comparison when available; not all feeds supply them.
	PriceChg decimal.NullDecimal
	PctChg   decimal.NullDecimal
}

// MDBookEvent is a normalized top-of-book snapshot, up to five levels per
// side by convention. Index 0 is always the best price.
type MDBookEvent struct {
	BaseEvent
	BidPrices      []decimal.Decimal
	BidVolumes     []int64
	AskPrices      []decimal.Decimal
	AskVolumes     []int64
	BidTotalVol    *int64
	AskTotalVol    *int64
	UnderlyingPx   decimal.NullDecimal
}

// Event is the interface both normalized event kinds satisfy, letting the
// bus and writers operate on either without a type switch at every call
// site. Base returns the shared envelope.
type Event interface {
	Base() BaseEvent
}

func (e MDTickEvent) Base() BaseEvent { return e.BaseEvent }
func (e MDBookEvent) Base() BaseEvent { return e.BaseEvent }
