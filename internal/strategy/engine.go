// Package strategy implements the Smart Chasing per-order state machine
// and the additive micro-alpha OFI strategy, ported from
// original_source/shijim/strategy/{engine,micro_alpha}.py.
package strategy

import "github.com/Charliesj0129/shijim/internal/events"

// OrderState is the Smart Chasing per-order state machine's state.
type OrderState string

const (
	OrderIdle    OrderState = "IDLE"
	OrderWorking OrderState = "WORKING"
	OrderChasing OrderState = "CHASING"
	OrderFilled  OrderState = "FILLED"
)

// OrderAction is the action carried by an emitted OrderRequest.
type OrderAction string

const (
	ActionCancel        OrderAction = "CANCEL"
	ActionCancelReplace OrderAction = "CANCEL_REPLACE"
)

// OrderRequest is the strategy → execution order intent.
type OrderRequest struct {
	Action         OrderAction
	Price          *float64
	Quantity       float64
	Reason         string
	Symbol         string
	Side           events.Side
	InternalID     string
	BrokerOrderID  string
}

// Config holds the Smart Chasing tuning knobs.
type Config struct {
	ChaseThreshold float64
	MaxChaseRound  int
}

// TopOfBook is the minimal per-tick market input the engine needs.
type TopOfBook struct {
	BidPrice float64
	BidSize  float64
	AskPrice float64
	AskSize  float64
}

// Engine is a per-order Smart Chasing state machine, ported 1:1 from
// original_source/shijim/strategy/engine.py's SmartChasingEngine.
type Engine struct {
	cfg        Config
	symbol     string
	side       events.Side
	internalID string
	orderPrice float64
	orderQty   float64

	state      OrderState
	chaseCount int
}

// NewEngine constructs an engine seeded WORKING at orderPrice/orderQty.
// internalID identifies the one working order this engine manages for
// its entire lifecycle — every OrderRequest it emits carries it, so the
// execution adapter can tell a replace of an existing order apart from
// a brand-new placement.
func NewEngine(cfg Config, symbol string, side events.Side, orderPrice, orderQty float64, internalID string) *Engine {
	return &Engine{
		cfg:        cfg,
		symbol:     symbol,
		side:       side,
		internalID: internalID,
		orderPrice: orderPrice,
		orderQty:   orderQty,
		state:      OrderWorking,
	}
}

func (e *Engine) State() OrderState { return e.state }
func (e *Engine) ChaseCount() int   { return e.chaseCount }
func (e *Engine) OrderPrice() float64 { return e.orderPrice }

// OnTick evaluates the Smart Chasing decision rules in order and
// returns zero or one OrderRequest.
func (e *Engine) OnTick(bbo TopOfBook, ofi float64) *OrderRequest {
	if e.state == OrderChasing || e.state == OrderIdle {
		return nil
	}

	marketBid := bbo.BidPrice
	priceDiff := marketBid - e.orderPrice

	if e.chaseCount >= e.cfg.MaxChaseRound && priceDiff > 0 {
		e.state = OrderIdle
		return &OrderRequest{
			Action:     ActionCancel,
			Quantity:   e.orderQty,
			Reason:     "MaxChaseReached",
			Symbol:     e.symbol,
			Side:       e.side,
			InternalID: e.internalID,
		}
	}

	if priceDiff <= 0 {
		return nil
	}

	shouldChase := priceDiff > e.cfg.ChaseThreshold
	alphaPush := priceDiff >= e.cfg.ChaseThreshold && ofi > 0

	if !shouldChase && !alphaPush {
		return nil
	}

	if ofi < 0 && shouldChase {
		return nil
	}

	reason := "PriceDrift"
	if alphaPush && ofi > 0 {
		reason = "AlphaDriven"
	}

	e.orderPrice = marketBid
	e.chaseCount++
	e.state = OrderChasing

	price := marketBid
	return &OrderRequest{
		Action:     ActionCancelReplace,
		Price:      &price,
		Quantity:   e.orderQty,
		Reason:     reason,
		Symbol:     e.symbol,
		Side:       e.side,
		InternalID: e.internalID,
	}
}
