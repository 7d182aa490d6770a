package normalize

import (
	"github.com/Charliesj0129/shijim/internal/events"
	"github.com/shopspring/decimal"
)

// Tick converts a TickPayload into a normalized MDTickEvent. Ported from
// the reference normalizer's normalize_tick, with the getattr-fallback
// chains replaced by the payload's typed accessors.
func Tick(p TickPayload, asset events.AssetType) events.MDTickEvent {
	ev := events.MDTickEvent{
		BaseEvent: events.BaseEvent{
			Type:     events.TypeTick,
			TsNs:     p.TsNs(),
			Symbol:   p.Code(),
			Asset:    asset,
			Exchange: p.Exchange(),
			Extras:   events.Extras{},
		},
		Side: sideFromTickType(p.TickType()),
	}

	if price, ok := p.Price(); ok {
		ev.Price = decimal.NewNullDecimal(price)
	}
	if size, ok := p.Size(); ok {
		ev.Size = &size
	}
	if tv, ok := p.TotalVolume(); ok {
		ev.TotalVolume = &tv
	}
	if ta, ok := p.TotalAmount(); ok {
		ev.TotalAmount = decimal.NewNullDecimal(ta)
	}
	if pc, ok := p.PriceChg(); ok {
		ev.PriceChg = decimal.NewNullDecimal(pc)
	}
	if pct, ok := p.PctChg(); ok {
		ev.PctChg = decimal.NewNullDecimal(pct)
	}
	return ev
}

// Book converts a BookPayload into a normalized MDBookEvent. The broker's
// level ordering (index 0 = best) is preserved verbatim; this function
// performs no sorting.
func Book(p BookPayload, asset events.AssetType) events.MDBookEvent {
	ev := events.MDBookEvent{
		BaseEvent: events.BaseEvent{
			Type:     events.TypeBook,
			TsNs:     p.TsNs(),
			Symbol:   p.Code(),
			Asset:    asset,
			Exchange: p.Exchange(),
			Extras:   events.Extras{},
		},
		BidPrices:  p.BidPrices(),
		BidVolumes: p.BidVolumes(),
		AskPrices:  p.AskPrices(),
		AskVolumes: p.AskVolumes(),
	}
	if bv, ok := p.BidTotalVol(); ok {
		ev.BidTotalVol = &bv
	}
	if av, ok := p.AskTotalVol(); ok {
		ev.AskTotalVol = &av
	}
	if up, ok := p.UnderlyingPrice(); ok {
		ev.UnderlyingPx = decimal.NewNullDecimal(up)
	}
	return ev
}

func sideFromTickType(tt int) events.Side {
	switch tt {
	case 1:
		return events.SideBuy
	case 2:
		return events.SideSell
	default:
		return events.SideNone
	}
}
