package strategy

import (
	"fmt"
	"time"

	"github.com/Charliesj0129/shijim/internal/events"
	"github.com/Charliesj0129/shijim/internal/features"
	"go.uber.org/zap"
)

// MicroAlphaConfig tunes the micro-alpha OFI strategy, ported from
// original_source/shijim/strategy/micro_alpha.py's MicroAlphaConfig.
type MicroAlphaConfig struct {
	Symbol               string
	OFIThreshold         float64
	MaxPosition          int
	OrderQty             int
	AccumulatorInterval  float64
}

// MicroAlphaStrategy accumulates OFI over a rolling window and emits a
// market-order signal (modeled here as a sign on OrderRequest, since the
// original only logs a mock fill) once the threshold is crossed, subject
// to a position cap. Ported from
// original_source/shijim/strategy/micro_alpha.py's MicroAlphaStrategy.
type MicroAlphaStrategy struct {
	cfg         MicroAlphaConfig
	accumulator *features.OFIAccumulator
	logger      *zap.Logger

	active   bool
	position int
	orderSeq uint64
	signals  []features.OFISignal
}

// nextInternalID generates a fresh internal order id for each new
// micro-alpha entry — unlike the Smart Chasing engine, which manages one
// working order for its whole life, every micro-alpha signal places an
// independent new order.
func (s *MicroAlphaStrategy) nextInternalID() string {
	s.orderSeq++
	return fmt.Sprintf("microalpha-%s-%d-%d", s.cfg.Symbol, time.Now().UnixNano(), s.orderSeq)
}

func NewMicroAlphaStrategy(cfg MicroAlphaConfig, logger *zap.Logger) *MicroAlphaStrategy {
	return &MicroAlphaStrategy{
		cfg:         cfg,
		accumulator: features.NewOFIAccumulator(cfg.AccumulatorInterval),
		logger:      logger,
	}
}

func (s *MicroAlphaStrategy) Start() { s.active = true }
func (s *MicroAlphaStrategy) Stop()  { s.active = false }

func (s *MicroAlphaStrategy) Position() int { return s.position }

// OnEvent dispatches book events for the configured symbol to OnBook and
// ignores everything else while inactive.
func (s *MicroAlphaStrategy) OnEvent(ev events.Event) *OrderRequest {
	if !s.active {
		return nil
	}
	book, ok := ev.(events.MDBookEvent)
	if !ok || book.Symbol != s.cfg.Symbol {
		return nil
	}
	return s.OnBook(book)
}

func (s *MicroAlphaStrategy) OnBook(book events.MDBookEvent) *OrderRequest {
	signal := s.accumulator.Process(book)
	if signal == nil {
		return nil
	}
	return s.onSignal(*signal)
}

func (s *MicroAlphaStrategy) onSignal(signal features.OFISignal) *OrderRequest {
	s.signals = append(s.signals, signal)
	if s.logger != nil {
		s.logger.Info("micro-alpha OFI signal", zap.String("symbol", signal.Symbol), zap.Float64("ofi", signal.OFI))
	}

	switch {
	case signal.OFI > s.cfg.OFIThreshold:
		return s.executeBuy()
	case signal.OFI < -s.cfg.OFIThreshold:
		return s.executeSell()
	default:
		return nil
	}
}

func (s *MicroAlphaStrategy) executeBuy() *OrderRequest {
	if s.position+s.cfg.OrderQty > s.cfg.MaxPosition {
		if s.logger != nil {
			s.logger.Debug("micro-alpha buy signal ignored: max position reached", zap.Int("position", s.position))
		}
		return nil
	}
	s.position += s.cfg.OrderQty
	return &OrderRequest{
		Action:     ActionCancelReplace,
		Quantity:   float64(s.cfg.OrderQty),
		Reason:     "MicroAlphaBuy",
		Symbol:     s.cfg.Symbol,
		Side:       events.SideBuy,
		InternalID: s.nextInternalID(),
	}
}

func (s *MicroAlphaStrategy) executeSell() *OrderRequest {
	if s.position-s.cfg.OrderQty < -s.cfg.MaxPosition {
		if s.logger != nil {
			s.logger.Debug("micro-alpha sell signal ignored: max position reached", zap.Int("position", s.position))
		}
		return nil
	}
	s.position -= s.cfg.OrderQty
	return &OrderRequest{
		Action:     ActionCancelReplace,
		Quantity:   float64(s.cfg.OrderQty),
		Reason:     "MicroAlphaSell",
		Symbol:     s.cfg.Symbol,
		Side:       events.SideSell,
		InternalID: s.nextInternalID(),
	}
}
