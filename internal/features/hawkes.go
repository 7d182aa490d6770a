package features

import (
	"fmt"
	"math"
)

// HawkesConfig holds the self-exciting intensity parameters (baseline
// rate mu, jump size alpha, decay rate beta). Built directly from the
// textual Hawkes contract, since original_source/shijim/
// features/hawkes.py only wraps an unavailable Rust extension with no
// pure-Python fallback to port.
type HawkesConfig struct {
	Mu    float64
	Alpha float64
	Beta  float64
}

// HawkesSignal is an intensity reading at one event timestamp.
type HawkesSignal struct {
	TsNs      int64
	Symbol    string
	Intensity float64
}

// MonotonicTimeError is returned when an event's timestamp is earlier
// than the last observed timestamp for its symbol; an equal timestamp is
// accepted.
type MonotonicTimeError struct {
	Symbol string
	TsNs   int64
	LastTs int64
}

func (e *MonotonicTimeError) Error() string {
	return fmt.Sprintf("hawkes: non-monotonic time for %s: ts=%d last=%d", e.Symbol, e.TsNs, e.LastTs)
}

type hawkesState struct {
	lastTs        int64
	postJumpLambda float64
	seeded        bool
}

// HawkesEstimator tracks a self-exciting intensity process per symbol:
// intensity at time t given the last event at t_last
// with post-jump intensity lambda_last is
// mu + (lambda_last - mu) * exp(-beta*(t - t_last)); on each event the
// post-jump intensity becomes (pre-jump) + alpha.
type HawkesEstimator struct {
	cfg   HawkesConfig
	state map[string]*hawkesState
}

func NewHawkesEstimator(cfg HawkesConfig) *HawkesEstimator {
	return &HawkesEstimator{cfg: cfg, state: make(map[string]*hawkesState)}
}

// OnEvent advances the process to tsNs for symbol and returns the
// post-jump intensity. The first event per symbol seeds state at
// mu + alpha without requiring a prior timestamp.
func (h *HawkesEstimator) OnEvent(tsNs int64, symbol string) (*HawkesSignal, error) {
	st, ok := h.state[symbol]
	if !ok {
		st = &hawkesState{}
		h.state[symbol] = st
	}

	if st.seeded && tsNs < st.lastTs {
		return nil, &MonotonicTimeError{Symbol: symbol, TsNs: tsNs, LastTs: st.lastTs}
	}

	var preJump float64
	if !st.seeded {
		preJump = h.cfg.Mu
	} else {
		dtSeconds := float64(tsNs-st.lastTs) / 1e9
		preJump = h.cfg.Mu + (st.postJumpLambda-h.cfg.Mu)*math.Exp(-h.cfg.Beta*dtSeconds)
	}

	postJump := preJump + h.cfg.Alpha
	st.postJumpLambda = postJump
	st.lastTs = tsNs
	st.seeded = true

	return &HawkesSignal{TsNs: tsNs, Symbol: symbol, Intensity: postJump}, nil
}

// IntensityAt returns the decayed intensity at tsNs without recording a
// new event, for symbols that have seen at least one prior event.
func (h *HawkesEstimator) IntensityAt(tsNs int64, symbol string) (float64, bool) {
	st, ok := h.state[symbol]
	if !ok || !st.seeded {
		return 0, false
	}
	dtSeconds := float64(tsNs-st.lastTs) / 1e9
	return h.cfg.Mu + (st.postJumpLambda-h.cfg.Mu)*math.Exp(-h.cfg.Beta*dtSeconds), true
}
