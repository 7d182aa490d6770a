// Package normalize converts broker-native payloads into the normalized
// event schema in internal/events.
//
// The source pipeline probed broker tick/book objects with dynamic
// attribute lookups (Python getattr chains trying several field-name
// aliases). That pattern has no safe equivalent in Go, so each payload
// shape implements TickPayload or BookPayload directly: the normalizer
// never reflects over broker structs.
package normalize

import "github.com/shopspring/decimal"

// TickPayload is the typed accessor surface for a broker trade-tick
// callback. One concrete type implements this per broker/feed shape
// (FIX market-data entry, Shioaji-style callback struct, SBE-decoded
// frame, ...).
type TickPayload interface {
	Code() string
	Exchange() string
	TsNs() int64
	Price() (decimal.Decimal, bool)
	Size() (int64, bool)
	TickType() int // 1=buy, 2=sell, other=none
	TotalVolume() (int64, bool)
	TotalAmount() (decimal.Decimal, bool)
	PriceChg() (decimal.Decimal, bool)
	PctChg() (decimal.Decimal, bool)
}

// BookPayload is the typed accessor surface for a broker top-of-book
// callback.
type BookPayload interface {
	Code() string
	Exchange() string
	TsNs() int64
	BidPrices() []decimal.Decimal
	BidVolumes() []int64
	AskPrices() []decimal.Decimal
	AskVolumes() []int64
	BidTotalVol() (int64, bool)
	AskTotalVol() (int64, bool)
	UnderlyingPrice() (decimal.Decimal, bool)
}
