package sbe

import (
	"context"
	"time"

	"github.com/Charliesj0129/shijim/internal/events"
	"github.com/Charliesj0129/shijim/internal/normalize"
	"github.com/Charliesj0129/shijim/internal/ringbuffer"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ingestor is the ring-buffer fast path's consumer side: it spin-polls a
// ringbuffer.Reader, decodes each slot as an SBE frame, normalizes it, and
// publishes the result onto the event bus. This is the UDP/shared-memory
// sibling of fixclient.FixApp.normalizeAndPublish; the same normalize.Tick/
// Book functions sit downstream of both ingress paths.
type Ingestor struct {
	reader  *ringbuffer.Reader
	logger  *zap.Logger
	publish func([]events.Event)
	poll    time.Duration

	lastCursor uint64
}

// NewIngestor wraps reader for SBE decoding. publish is typically an
// internal/bus Bus's PublishMany. poll controls how often the reader spins
// when idle; the reference ring buffer has no blocking wait primitive, so
// this is the only knob against busy-waiting the CPU.
func NewIngestor(reader *ringbuffer.Reader, publish func([]events.Event), poll time.Duration, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{reader: reader, publish: publish, poll: poll, logger: logger}
}

// Run polls until ctx is canceled. It never returns an error for a normal
// shutdown; ctx.Err() is the caller's signal.
func (g *Ingestor) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			g.drain()
		}
	}
}

// drain consumes every slot published since the last call, resyncing to
// the current cursor (and logging the gap) if the producer has lapped the
// consumer.
func (g *Ingestor) drain() {
	latest := g.reader.Header().Load()
	if latest == 0 || latest <= g.lastCursor {
		return
	}

	for cursor := g.lastCursor + 1; cursor <= latest; cursor++ {
		payload, err := g.reader.ReadAt(cursor)
		if err != nil {
			if stale, ok := err.(*ringbuffer.StaleReferenceError); ok {
				g.logger.Warn("ring buffer overrun, resyncing", zap.Uint64("cursor", cursor), zap.Uint64("latest", stale.SeqNum))
				g.lastCursor = latest
				return
			}
			g.logger.Warn("ring buffer integrity error", zap.Uint64("cursor", cursor), zap.Error(err))
			continue
		}
		g.decodeAndPublish(payload)
	}
	g.lastCursor = latest
}

func (g *Ingestor) decodeAndPublish(payload []byte) {
	dec := New(payload)
	header, err := dec.DecodeHeader()
	if err != nil {
		g.logger.Warn("sbe header decode failed", zap.Error(err))
		return
	}
	if header.IsHeartbeat() {
		return
	}

	var ev events.Event
	switch header.TemplateID {
	case TemplateIDTick:
		tick, err := DecodeTick(dec)
		if err != nil {
			g.logger.Warn("sbe tick decode failed", zap.Error(err))
			return
		}
		ev = normalize.Tick(tickPayload{tick}, classifyAsset(tick.Symbol))
	case TemplateIDBook:
		book, err := DecodeBook(dec)
		if err != nil {
			g.logger.Warn("sbe book decode failed", zap.Error(err))
			return
		}
		ev = normalize.Book(bookPayload{book}, classifyAsset(book.Symbol))
	default:
		g.logger.Debug("sbe frame with unknown template", zap.Uint16("template_id", header.TemplateID))
		return
	}

	if g.publish != nil {
		g.publish([]events.Event{ev})
	}
}

// classifyAsset mirrors fixclient.classifyAsset's all-digit-code
// convention; duplicated rather than imported since fixclient's version is
// unexported and this path has no FIX dependency of its own.
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

// tickPayload adapts a decoded Tick to normalize.TickPayload.
type tickPayload struct{ t Tick }

func (p tickPayload) Code() string     { return p.t.Symbol }
func (p tickPayload) Exchange() string { return p.t.Exchange }
func (p tickPayload) TsNs() int64      { return p.t.TsNs }

func (p tickPayload) Price() (decimal.Decimal, bool) { return decimalOf(p.t.Price) }
func (p tickPayload) Size() (int64, bool)            { return p.t.Size, true }
func (p tickPayload) TickType() int                  { return int(p.t.TickType) }
func (p tickPayload) TotalVolume() (int64, bool)     { return p.t.TotalVolume, true }
func (p tickPayload) TotalAmount() (decimal.Decimal, bool) {
	return decimalOf(p.t.TotalAmount)
}
func (p tickPayload) PriceChg() (decimal.Decimal, bool) { return decimal.Decimal{}, false }
func (p tickPayload) PctChg() (decimal.Decimal, bool)   { return decimal.Decimal{}, false }

// bookPayload adapts a decoded Book to normalize.BookPayload.
type bookPayload struct{ b Book }

func (p bookPayload) Code() string     { return p.b.Symbol }
func (p bookPayload) Exchange() string { return p.b.Exchange }
func (p bookPayload) TsNs() int64      { return p.b.TsNs }

func (p bookPayload) BidPrices() []decimal.Decimal  { return levelPrices(p.b.Bids) }
func (p bookPayload) BidVolumes() []int64           { return levelVolumes(p.b.Bids) }
func (p bookPayload) AskPrices() []decimal.Decimal  { return levelPrices(p.b.Asks) }
func (p bookPayload) AskVolumes() []int64           { return levelVolumes(p.b.Asks) }
func (p bookPayload) BidTotalVol() (int64, bool)    { return 0, false }
func (p bookPayload) AskTotalVol() (int64, bool)    { return 0, false }
func (p bookPayload) UnderlyingPrice() (decimal.Decimal, bool) {
	return decimalOf(p.b.UnderlyingPrice)
}

func decimalOf(d Decimal64) (decimal.Decimal, bool) {
	if d.Null {
		return decimal.Decimal{}, false
	}
	return d.ToDecimal(), true
}

func levelPrices(levels []BookLevel) []decimal.Decimal {
	if len(levels) == 0 {
		return nil
	}
	out := make([]decimal.Decimal, len(levels))
	for i, lvl := range levels {
		out[i] = lvl.Price.ToDecimal()
	}
	return out
}

func levelVolumes(levels []BookLevel) []int64 {
	if len(levels) == 0 {
		return nil
	}
	out := make([]int64, len(levels))
	for i, lvl := range levels {
		out[i] = lvl.Volume
	}
	return out
}
