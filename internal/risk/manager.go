package risk

import (
	"github.com/Charliesj0129/shijim/internal/events"
	"github.com/Charliesj0129/shijim/internal/strategy"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RejectionEvent is a structured record published to the rejection
// queue when a guard rejects an order.
type RejectionEvent struct {
	Reason string
	Order  strategy.OrderRequest
}

// Gateway is the inner order-sending interface the gate wraps — normally
// the execution adapter.
type Gateway interface {
	Send(orders []strategy.OrderRequest) error
}

// Gate is the synchronous pre-trade guard chain in front of the execution
// adapter, evaluated in order: KillSwitch → FatFinger → Position →
// RateLimiter, ported from
// original_source/shijim/risk/manager.py's RiskAwareGateway. The original's
// hand-rolled token-bucket (guards.py's RateLimiter, a monotonic-clock
// refill loop) is replaced with golang.org/x/time/rate, whose Allow()
// gives the same non-blocking single-token check without reimplementing
// the refill arithmetic.
type Gate struct {
	inner       Gateway
	cfg         Config
	logger      *zap.Logger
	rejections  chan RejectionEvent

	killSwitch *KillSwitch
	fatFinger  *FatFingerGuard
	position   *PositionGuard
	limiter    *rate.Limiter
}

// NewGate constructs a gate with a token bucket sized to
// max_orders_per_sec for both capacity and refill rate, matching the
// original's "Rate = max_orders_per_sec, Burst = max_orders_per_sec"
// comment.
func NewGate(inner Gateway, cfg Config, marketPrice float64, rejectionQueueSize int, logger *zap.Logger) *Gate {
	burst := int(cfg.MaxOrdersPerSec)
	if burst < 1 {
		burst = 1
	}
	return &Gate{
		inner:      inner,
		cfg:        cfg,
		logger:     logger,
		rejections: make(chan RejectionEvent, rejectionQueueSize),
		killSwitch: &KillSwitch{},
		fatFinger:  NewFatFingerGuard(cfg, marketPrice),
		position:   NewPositionGuard(cfg, 0),
		limiter:    rate.NewLimiter(rate.Limit(cfg.MaxOrdersPerSec), burst),
	}
}

func (g *Gate) UpdateMarketPrice(price float64) { g.fatFinger.SetReferencePrice(price) }

func (g *Gate) UpdatePosition(filledQty float64, side events.Side) {
	g.position.UpdatePosition(filledQty, side)
}

func (g *Gate) ActivateKillSwitch()   { g.killSwitch.Activate() }
func (g *Gate) DeactivateKillSwitch() { g.killSwitch.Deactivate() }

// Rejections returns the channel structured rejection events are
// published to.
func (g *Gate) Rejections() <-chan RejectionEvent { return g.rejections }

// Send evaluates every order against the guard chain, forwards survivors
// to the inner gateway, and publishes a RejectionEvent (best-effort,
// non-blocking) for every rejected order.
func (g *Gate) Send(orders []strategy.OrderRequest) error {
	valid := make([]strategy.OrderRequest, 0, len(orders))
	for _, order := range orders {
		result := g.check(order)
		if result.Passed {
			valid = append(valid, order)
			continue
		}
		if g.logger != nil {
			g.logger.Warn("risk: order rejected",
				zap.String("internal_id", order.InternalID),
				zap.String("symbol", order.Symbol),
				zap.String("reason", result.Reason))
		}
		select {
		case g.rejections <- RejectionEvent{Reason: result.Reason, Order: order}:
		default:
		}
	}
	if len(valid) == 0 {
		return nil
	}
	return g.inner.Send(valid)
}

func (g *Gate) check(order strategy.OrderRequest) Result {
	for _, guard := range []interface {
		Check(strategy.OrderRequest) Result
	}{g.killSwitch, g.fatFinger, g.position} {
		if res := guard.Check(order); !res.Passed {
			return res
		}
	}
	if !g.limiter.Allow() {
		return reject("RateLimit")
	}
	return pass()
}
