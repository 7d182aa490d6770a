// Package execution implements the non-blocking broker order bridge,
// ported from original_source/shijim/execution/order_manager.py's
// NonBlockingOrderManager. Unlike the original, which resolves a
// broker_id back to its internal_id with an O(n) scan over every
// tracked order ("inefficient, but simple for now" per its own
// comment), Manager keeps a reverse broker-id index from the start so
// OnExecutionReport is O(1).
package execution

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Charliesj0129/shijim/internal/builder"
	"github.com/Charliesj0129/shijim/internal/constants"
	"github.com/Charliesj0129/shijim/internal/events"
	"github.com/Charliesj0129/shijim/internal/fixclient"
	"github.com/Charliesj0129/shijim/internal/strategy"

	"github.com/quickfixgo/quickfix"
	"go.uber.org/zap"
)

// Status is an order's lifecycle state.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusSubmitted  Status = "SUBMITTED"
	StatusPartial    Status = "PARTIAL"
	StatusFilled     Status = "FILLED"
	StatusCancelled  Status = "CANCELLED"
	StatusRejected   Status = "REJECTED"
)

// Order is the adapter's view of one order's lifecycle.
type Order struct {
	InternalID    string
	BrokerOrderID string
	Symbol        string
	Side          string
	Status        Status
	FilledQty     float64
	AvgPrice      float64
	LastError     string
	SubmittedAt   time.Time
}

// MessageSender abstracts the FIX session a built message is sent
// through, so Manager can be tested without a live quickfix session.
type MessageSender interface {
	Send(msg *quickfix.Message) error
}

// quickfixSender sends through the package-level quickfix.Send, which
// queues the message on the session and returns without waiting for a
// reply — the non-blocking behavior the original's timeout=0 API call
// provided.
type quickfixSender struct{}

func (quickfixSender) Send(msg *quickfix.Message) error { return quickfix.Send(msg) }

// Manager is the non-blocking broker order bridge: it never waits for
// an ExecutionReport before returning from Send, and resolves broker
// callbacks back to the originating internal order via a bidirectional
// map kept in sync under one mutex.
type Manager struct {
	mu               sync.RWMutex
	orders           map[string]*Order // internal_id -> Order
	brokerToInternal map[string]string // broker_order_id -> internal_id

	sender       MessageSender
	senderCompId string
	targetCompId string
	account      string
	seq          uint64
	logger       *zap.Logger
}

func NewManager(senderCompId, targetCompId, account string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		orders:           make(map[string]*Order),
		brokerToInternal: make(map[string]string),
		sender:           quickfixSender{},
		senderCompId:     senderCompId,
		targetCompId:     targetCompId,
		account:          account,
		logger:           logger,
	}
}

// nextClOrdID generates a fresh ClOrdID for a cancel or cancel/replace
// request against an already-placed order. A new order is sent with its
// InternalID as its ClOrdID, so the broker's OrderID is the only
// additional identifier the adapter needs to learn.
func (m *Manager) nextClOrdID(symbol string) string {
	m.seq++
	return fmt.Sprintf("%s-%d-%d", symbol, time.Now().UnixNano(), m.seq)
}

// GetOrder returns a copy of the tracked order state, or nil if unknown.
func (m *Manager) GetOrder(internalID string) *Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[internalID]
	if !ok {
		return nil
	}
	cp := *o
	return &cp
}

// Send implements risk.Gateway: it routes each strategy-emitted
// OrderRequest to either a new-order placement (when its InternalID
// names no tracked order yet), a cancel/replace of a tracked working
// order, or a cancel, using req.InternalID to look up or create the
// tracked Order. It never blocks on a broker reply, and one order's
// failure doesn't stop the rest of the batch — errors are logged and
// the first one is returned to the caller after all orders are sent.
func (m *Manager) Send(orders []strategy.OrderRequest) error {
	var firstErr error
	for _, req := range orders {
		var err error
		switch req.Action {
		case strategy.ActionCancel:
			err = m.sendCancel(req.InternalID, req)
		case strategy.ActionCancelReplace:
			err = m.sendPlaceOrReplace(req.InternalID, req)
		default:
			err = fmt.Errorf("execution: unknown order action %q", req.Action)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Manager) sendPlaceOrReplace(internalID string, req strategy.OrderRequest) error {
	m.mu.Lock()
	order, exists := m.orders[internalID]
	m.mu.Unlock()

	if !exists {
		return m.placeNew(internalID, req)
	}
	return m.replace(order, req)
}

func (m *Manager) placeNew(internalID string, req strategy.OrderRequest) error {
	price := ""
	if req.Price != nil {
		price = strconv.FormatFloat(*req.Price, 'f', -1, 64)
	}

	msg := builder.BuildNewOrderSingle(builder.NewOrderParams{
		Account:        m.account,
		ClOrdID:        internalID,
		Symbol:         req.Symbol,
		Side:           sideCode(req.Side),
		OrdType:        constants.OrdTypeLimit,
		TargetStrategy: constants.TargetStrategyLimit,
		TimeInForce:    constants.TimeInForceDay,
		OrderQty:       strconv.FormatFloat(req.Quantity, 'f', -1, 64),
		Price:          price,
	}, m.senderCompId, m.targetCompId)

	order := &Order{
		InternalID:  internalID,
		Symbol:      req.Symbol,
		Side:        sideCode(req.Side),
		Status:      StatusPending,
		SubmittedAt: time.Now(),
	}

	m.mu.Lock()
	m.orders[internalID] = order
	m.mu.Unlock()

	if err := m.sender.Send(msg); err != nil {
		m.mu.Lock()
		order.Status = StatusRejected
		order.LastError = err.Error()
		m.mu.Unlock()
		m.logger.Error("execution: new order send failed", zap.String("internal_id", internalID), zap.Error(err))
		return err
	}

	m.mu.Lock()
	order.Status = StatusSubmitted
	m.mu.Unlock()
	return nil
}

func (m *Manager) replace(order *Order, req strategy.OrderRequest) error {
	m.mu.RLock()
	brokerID := order.BrokerOrderID
	m.mu.RUnlock()

	if brokerID == "" {
		m.logger.Warn("execution: replace dropped, broker order id not yet known",
			zap.String("internal_id", order.InternalID))
		return nil
	}

	price := ""
	if req.Price != nil {
		price = strconv.FormatFloat(*req.Price, 'f', -1, 64)
	}

	newClOrdID := m.nextClOrdID(req.Symbol)
	msg := builder.BuildOrderCancelReplaceRequest(builder.ReplaceOrderParams{
		Account:     m.account,
		ClOrdID:     newClOrdID,
		OrigClOrdID: order.InternalID,
		OrderID:     brokerID,
		Symbol:      req.Symbol,
		Side:        sideCode(req.Side),
		OrdType:     constants.OrdTypeLimit,
		OrderQty:    strconv.FormatFloat(req.Quantity, 'f', -1, 64),
		Price:       price,
	}, m.senderCompId, m.targetCompId)

	if err := m.sender.Send(msg); err != nil {
		m.logger.Error("execution: replace send failed", zap.String("internal_id", order.InternalID), zap.Error(err))
		return err
	}
	return nil
}

// sendCancel drops the request if the order's broker id isn't known
// yet, matching the original's explicit "cannot cancel" log-and-drop
// rather than sending a cancel with no order to reference.
func (m *Manager) sendCancel(internalID string, req strategy.OrderRequest) error {
	m.mu.RLock()
	order, exists := m.orders[internalID]
	m.mu.RUnlock()

	if !exists || order.BrokerOrderID == "" {
		m.logger.Warn("execution: cancel dropped, no known broker order id",
			zap.String("internal_id", internalID))
		return nil
	}

	msg := builder.BuildOrderCancelRequest(builder.CancelOrderParams{
		Account:     m.account,
		ClOrdID:     m.nextClOrdID(req.Symbol),
		OrigClOrdID: internalID,
		OrderID:     order.BrokerOrderID,
		Symbol:      req.Symbol,
		Side:        sideCode(req.Side),
	}, m.senderCompId, m.targetCompId)

	if err := m.sender.Send(msg); err != nil {
		m.logger.Error("execution: cancel send failed", zap.String("internal_id", internalID), zap.Error(err))
		return err
	}
	return nil
}

// OnExecutionReport updates order state from an incoming Execution
// Report, maintaining the bidirectional internal_id<->broker_order_id
// map so the next callback resolves in O(1) instead of scanning every
// tracked order.
func (m *Manager) OnExecutionReport(er *fixclient.ExecutionReport) {
	m.mu.Lock()
	defer m.mu.Unlock()

	internalID := er.ClOrdID
	order, exists := m.orders[internalID]
	if !exists {
		order = &Order{InternalID: internalID, Symbol: er.Symbol, Side: er.Side, SubmittedAt: time.Now()}
		m.orders[internalID] = order
	}

	if er.OrderID != "" && order.BrokerOrderID != er.OrderID {
		if order.BrokerOrderID != "" {
			delete(m.brokerToInternal, order.BrokerOrderID)
		}
		order.BrokerOrderID = er.OrderID
		m.brokerToInternal[er.OrderID] = internalID
	}

	if cumQty, err := strconv.ParseFloat(er.CumQty, 64); err == nil {
		order.FilledQty = cumQty
	}
	if avgPx, err := strconv.ParseFloat(er.AvgPx, 64); err == nil {
		order.AvgPrice = avgPx
	}
	if er.Text != "" {
		order.LastError = er.Text
	}

	order.Status = statusFromExecType(er.ExecType, order.Status)
}

// OrderByBrokerID resolves a broker order id back to its tracked order
// in O(1), the direct fix for the original's linear scan.
func (m *Manager) OrderByBrokerID(brokerOrderID string) *Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	internalID, ok := m.brokerToInternal[brokerOrderID]
	if !ok {
		return nil
	}
	o, ok := m.orders[internalID]
	if !ok {
		return nil
	}
	cp := *o
	return &cp
}

func statusFromExecType(execType string, fallback Status) Status {
	switch execType {
	case constants.ExecTypeNew, constants.ExecTypePendingNew:
		return StatusSubmitted
	case constants.ExecTypePartialFill:
		return StatusPartial
	case constants.ExecTypeFilled:
		return StatusFilled
	case constants.ExecTypeCanceled:
		return StatusCancelled
	case constants.ExecTypeRejected:
		return StatusRejected
	default:
		return fallback
	}
}

func sideCode(side events.Side) string {
	if side == events.SideSell {
		return constants.SideSell
	}
	return constants.SideBuy
}
