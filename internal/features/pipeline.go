package features

import (
	"context"
	"time"

	"github.com/Charliesj0129/shijim/internal/bus"
	"github.com/Charliesj0129/shijim/internal/events"

	"go.uber.org/zap"
)

// PriceObserver receives the price of every trade the pipeline sees,
// whatever its symbol (the price carries no symbol); the
// composition root wires this to risk.Gate.UpdateMarketPrice so the
// fat-finger guard's reference price tracks the live feed instead of the
// zero value it is constructed with.
type PriceObserver func(price float64)

// Pipeline subscribes to the event bus and drives the OFI, VPIN, and
// Hawkes calculators from live MD_TICK/MD_BOOK traffic — the feature
// stage named alongside writers/strategy/risk as a bus consumer.
type Pipeline struct {
	ofi    *OFICalculator
	vpin   *VPINCalculator
	hawkes *HawkesEstimator
	logger *zap.Logger

	onPrice PriceObserver
}

// NewPipeline constructs a feature pipeline. onPrice may be nil.
func NewPipeline(vpinCfg VPINConfig, hawkesCfg HawkesConfig, onPrice PriceObserver, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		ofi:     NewOFICalculator(),
		vpin:    NewVPINCalculator(vpinCfg),
		hawkes:  NewHawkesEstimator(hawkesCfg),
		logger:  logger,
		onPrice: onPrice,
	}
}

// Run subscribes to every event on b and feeds the calculators until ctx
// is canceled. recvTimeout bounds how long each Recv call blocks so the
// loop can observe ctx cancellation promptly.
func (p *Pipeline) Run(ctx context.Context, b bus.Bus, recvTimeout time.Duration) {
	sub := b.Subscribe(bus.TopicAll, recvTimeout)
	defer sub.Close()

	for {
		if ctx.Err() != nil {
			return
		}
		ev, ok := sub.Recv()
		if !ok {
			continue
		}
		p.handle(ev)
	}
}

func (p *Pipeline) handle(ev events.Event) {
	switch e := ev.(type) {
	case events.MDTickEvent:
		p.handleTick(e)
	case events.MDBookEvent:
		p.handleBook(e)
	}
}

func (p *Pipeline) handleTick(e events.MDTickEvent) {
	if e.Price.Valid && p.onPrice != nil {
		price, _ := e.Price.Decimal.Float64()
		p.onPrice(price)
	}

	if e.Size == nil {
		return
	}
	signed := float64(*e.Size)
	if e.Side == events.SideSell {
		signed = -signed
	}
	if signal := p.vpin.AddTrade(e.TsNs, e.Symbol, signed); signal != nil {
		p.logger.Debug("vpin signal",
			zap.String("symbol", signal.Symbol),
			zap.Float64("vpin", signal.VPIN))
	}

	if signal, err := p.hawkes.OnEvent(e.TsNs, e.Symbol); err != nil {
		p.logger.Debug("hawkes: non-monotonic event skipped", zap.Error(err))
	} else if signal != nil {
		p.logger.Debug("hawkes signal",
			zap.String("symbol", signal.Symbol),
			zap.Float64("intensity", signal.Intensity))
	}
}

func (p *Pipeline) handleBook(e events.MDBookEvent) {
	if signal := p.ofi.Calculate(e); signal != nil {
		p.logger.Debug("ofi signal",
			zap.String("symbol", signal.Symbol),
			zap.Float64("ofi", signal.OFI))
	}
}
