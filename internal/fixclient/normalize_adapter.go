package fixclient

import (
	"strconv"

	"github.com/Charliesj0129/shijim/internal/constants"
	"github.com/Charliesj0129/shijim/internal/events"
	"github.com/Charliesj0129/shijim/internal/normalize"

	"github.com/shopspring/decimal"
)

// normalizeAndPublish converts one market-data message's parsed entries
// into normalized bus events: one MDTickEvent per Trade entry, plus a
// single MDBookEvent aggregating the message's Bid/Offer entries (if
// any). This is HOT PATH [4], the boundary into the normalizer; the
// TradeStore.AddTrades call in handleMarketDataMessage remains only as a
// secondary cache.
func (a *FixApp) normalizeAndPublish(trades []Trade, symbol string, isSnapshot bool) {
	if a.Publish == nil || len(trades) == 0 {
		return
	}

	asset := classifyAsset(symbol)
	var out []events.Event

	bids := make(map[int]bookLevel)
	asks := make(map[int]bookLevel)
	var maxBidPos, maxAskPos int

	for _, tr := range trades {
		switch tr.EntryType {
		case constants.MdEntryTypeTrade:
			out = append(out, normalize.Tick(fixTickPayload{trade: tr}, asset))
		case constants.MdEntryTypeBid, constants.MdEntryTypeOffer:
			pos, _ := strconv.Atoi(tr.Position)
			if pos <= 0 {
				pos = 1
			}
			price, _ := parseDecimal(tr.Price)
			size, _ := parseInt(tr.Size)
			lvl := bookLevel{price: price, size: size}
			if tr.EntryType == constants.MdEntryTypeBid {
				bids[pos] = lvl
				if pos > maxBidPos {
					maxBidPos = pos
				}
			} else {
				asks[pos] = lvl
				if pos > maxAskPos {
					maxAskPos = pos
				}
			}
		}
		// Open/Close/High/Low/Volume entries have no normalized event
		// shape yet and are dropped here.
	}

	if maxBidPos > 0 || maxAskPos > 0 {
		out = append(out, normalize.Book(fixBookPayload{
			symbol:     symbol,
			tsNs:       trades[0].Timestamp.UnixNano(),
			bidPrices:  levelPrices(bids, maxBidPos),
			bidVolumes: levelVolumes(bids, maxBidPos),
			askPrices:  levelPrices(asks, maxAskPos),
			askVolumes: levelVolumes(asks, maxAskPos),
		}, asset))
	}

	if len(out) > 0 {
		a.Publish(out)
	}
}

// classifyAsset treats an all-digit code as a stock and anything else
// (e.g. "TXFF4") as a futures contract, the same convention
// gateway.ContractFilter uses to decide which codes need exchange
// metadata.
func classifyAsset(symbol string) events.AssetType {
	if symbol == "" {
		return events.AssetFutures
	}
	for _, r := range symbol {
		if r < '0' || r > '9' {
			return events.AssetFutures
		}
	}
	return events.AssetStock
}

type bookLevel struct {
	price decimal.Decimal
	size  int64
}

// levelPrices/levelVolumes materialize a 1-indexed position map into a
// dense, 0-indexed slice (index 0 = best); a position with no entry
// holds a zero value rather than shrinking the slice, since a gap
// means the broker skipped a level rather than that no levels exist
// beyond it.
func levelPrices(levels map[int]bookLevel, max int) []decimal.Decimal {
	if max == 0 {
		return nil
	}
	out := make([]decimal.Decimal, max)
	for pos, lvl := range levels {
		out[pos-1] = lvl.price
	}
	return out
}

func levelVolumes(levels map[int]bookLevel, max int) []int64 {
	if max == 0 {
		return nil
	}
	out := make([]int64, max)
	for pos, lvl := range levels {
		out[pos-1] = lvl.size
	}
	return out
}

// fixTickPayload adapts one MdEntryTypeTrade entry to normalize.TickPayload.
type fixTickPayload struct {
	trade Trade
}

func (p fixTickPayload) Code() string     { return p.trade.Symbol }
func (p fixTickPayload) Exchange() string { return "" }
func (p fixTickPayload) TsNs() int64      { return p.trade.Timestamp.UnixNano() }

func (p fixTickPayload) Price() (decimal.Decimal, bool) { return parseDecimal(p.trade.Price) }
func (p fixTickPayload) Size() (int64, bool)            { return parseInt(p.trade.Size) }

func (p fixTickPayload) TickType() int {
	switch p.trade.Aggressor {
	case "Buy":
		return 1
	case "Sell":
		return 2
	default:
		return 0
	}
}

func (p fixTickPayload) TotalVolume() (int64, bool)           { return 0, false }
func (p fixTickPayload) TotalAmount() (decimal.Decimal, bool) { return decimal.Decimal{}, false }
func (p fixTickPayload) PriceChg() (decimal.Decimal, bool)    { return decimal.Decimal{}, false }
func (p fixTickPayload) PctChg() (decimal.Decimal, bool)      { return decimal.Decimal{}, false }

// fixBookPayload adapts one message's aggregated Bid/Offer entries to
// normalize.BookPayload.
type fixBookPayload struct {
	symbol     string
	tsNs       int64
	bidPrices  []decimal.Decimal
	bidVolumes []int64
	askPrices  []decimal.Decimal
	askVolumes []int64
}

func (p fixBookPayload) Code() string                  { return p.symbol }
func (p fixBookPayload) Exchange() string              { return "" }
func (p fixBookPayload) TsNs() int64                   { return p.tsNs }
func (p fixBookPayload) BidPrices() []decimal.Decimal  { return p.bidPrices }
func (p fixBookPayload) BidVolumes() []int64           { return p.bidVolumes }
func (p fixBookPayload) AskPrices() []decimal.Decimal  { return p.askPrices }
func (p fixBookPayload) AskVolumes() []int64           { return p.askVolumes }
func (p fixBookPayload) BidTotalVol() (int64, bool)    { return 0, false }
func (p fixBookPayload) AskTotalVol() (int64, bool)    { return 0, false }
func (p fixBookPayload) UnderlyingPrice() (decimal.Decimal, bool) {
	return decimal.Decimal{}, false
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func parseInt(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
