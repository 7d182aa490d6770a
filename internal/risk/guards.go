// Package risk implements the synchronous pre-trade guard chain,
// ported from original_source/shijim/risk/{guards,manager}.py.
package risk

import (
	"math"
	"sync"

	"github.com/Charliesj0129/shijim/internal/events"
	"github.com/Charliesj0129/shijim/internal/strategy"
)

// Result is a single guard's verdict.
type Result struct {
	Passed bool
	Reason string
}

func pass() Result   { return Result{Passed: true} }
func reject(reason string) Result { return Result{Passed: false, Reason: reason} }

// Config tunes every guard in the chain.
type Config struct {
	MaxOrderQty      float64
	MaxPosition      float64
	PriceDeviation   float64
	MaxOrdersPerSec  float64
}

// KillSwitch rejects every non-CANCEL order while active, ported from
// guards.py's KillSwitch.
type KillSwitch struct {
	mu     sync.Mutex
	active bool
}

func (k *KillSwitch) Activate()   { k.mu.Lock(); k.active = true; k.mu.Unlock() }
func (k *KillSwitch) Deactivate() { k.mu.Lock(); k.active = false; k.mu.Unlock() }

func (k *KillSwitch) Check(order strategy.OrderRequest) Result {
	k.mu.Lock()
	active := k.active
	k.mu.Unlock()
	if !active {
		return pass()
	}
	if order.Action == strategy.ActionCancel {
		return pass()
	}
	return reject("KillSwitch")
}

// FatFingerGuard rejects orders priced too far from a reference price, or
// oversized, ported from guards.py's FatFingerGuard. The price check is
// skipped for an order without a price or while no reference price is set;
// the quantity check always applies.
type FatFingerGuard struct {
	cfg      Config
	mu       sync.Mutex
	refPrice float64
}

func NewFatFingerGuard(cfg Config, refPrice float64) *FatFingerGuard {
	return &FatFingerGuard{cfg: cfg, refPrice: refPrice}
}

func (f *FatFingerGuard) SetReferencePrice(price float64) {
	f.mu.Lock()
	f.refPrice = price
	f.mu.Unlock()
}

func (f *FatFingerGuard) Check(order strategy.OrderRequest) Result {
	if order.Action == strategy.ActionCancel {
		return pass()
	}
	if order.Price != nil {
		f.mu.Lock()
		ref := f.refPrice
		f.mu.Unlock()

		if ref != 0 && math.Abs(*order.Price-ref)/ref > f.cfg.PriceDeviation {
			return reject("PriceDeviation")
		}
	}
	if order.Quantity > f.cfg.MaxOrderQty {
		return reject("MaxOrderQty")
	}
	return pass()
}

// PositionGuard rejects orders that would push the projected position
// outside [-max_position, +max_position], ported from guards.py's
// PositionGuard.
type PositionGuard struct {
	cfg      Config
	mu       sync.Mutex
	position float64
}

func NewPositionGuard(cfg Config, position float64) *PositionGuard {
	return &PositionGuard{cfg: cfg, position: position}
}

func (p *PositionGuard) UpdatePosition(filledQty float64, side events.Side) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if side == events.SideSell {
		p.position -= filledQty
	} else {
		p.position += filledQty
	}
}

func (p *PositionGuard) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *PositionGuard) Check(order strategy.OrderRequest) Result {
	if order.Action == strategy.ActionCancel {
		return pass()
	}

	qty := order.Quantity
	if order.Side == events.SideSell {
		qty = -qty
	}

	p.mu.Lock()
	next := p.position + qty
	p.mu.Unlock()

	if math.Abs(next) > p.cfg.MaxPosition {
		return reject("PositionLimit")
	}
	return pass()
}
