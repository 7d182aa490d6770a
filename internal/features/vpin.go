package features

// VPINConfig configures the volume-bucket sliding window. Built
// directly from the textual VPIN contract, since
// original_source/shijim/features/vpin.py only wraps an unavailable
// Rust extension
// (shijim_indicators) with no pure-Python fallback to port.
type VPINConfig struct {
	BucketVolume float64
	WindowSize   int
}

// VPINSignal is a VPIN reading emitted once the sliding window fills.
type VPINSignal struct {
	TsNs   int64
	Symbol string
	VPIN   float64
}

type vpinBucket struct {
	imbalance float64
	total     float64
}

type symbolVPINState struct {
	buyVol  float64
	sellVol float64
	window  []vpinBucket
}

// VPINCalculator accumulates signed trade volume into fixed-volume
// buckets per symbol and computes VPIN over a sliding window of filled
// buckets.
type VPINCalculator struct {
	cfg   VPINConfig
	state map[string]*symbolVPINState
}

func NewVPINCalculator(cfg VPINConfig) *VPINCalculator {
	return &VPINCalculator{cfg: cfg, state: make(map[string]*symbolVPINState)}
}

// AddTrade folds a signed trade volume (positive = buy-initiated,
// negative = sell-initiated) into the symbol's current bucket, rolling it
// into the sliding window and emitting a signal once the window is full.
func (c *VPINCalculator) AddTrade(tsNs int64, symbol string, signedVolume float64) *VPINSignal {
	st, ok := c.state[symbol]
	if !ok {
		st = &symbolVPINState{}
		c.state[symbol] = st
	}

	if signedVolume >= 0 {
		st.buyVol += signedVolume
	} else {
		st.sellVol += -signedVolume
	}

	total := st.buyVol + st.sellVol
	if total < c.cfg.BucketVolume {
		return nil
	}

	for total >= c.cfg.BucketVolume && c.cfg.BucketVolume > 0 {
		bucket := vpinBucket{
			imbalance: absFloat(st.buyVol - st.sellVol),
			total:     c.cfg.BucketVolume,
		}
		st.window = append(st.window, bucket)
		if len(st.window) > c.cfg.WindowSize {
			st.window = st.window[len(st.window)-c.cfg.WindowSize:]
		}

		// Carry the excess beyond this bucket's capacity into the next
		// bucket, proportionally split between buy/sell.
		excess := total - c.cfg.BucketVolume
		if excess > 0 && total > 0 {
			ratioBuy := st.buyVol / total
			st.buyVol = excess * ratioBuy
			st.sellVol = excess * (1 - ratioBuy)
		} else {
			st.buyVol, st.sellVol = 0, 0
		}
		total = st.buyVol + st.sellVol
	}

	if len(st.window) < c.cfg.WindowSize {
		return nil
	}

	var sumImbalance, sumVolume float64
	for _, b := range st.window {
		sumImbalance += b.imbalance
		sumVolume += b.total
	}
	if sumVolume == 0 {
		return nil
	}

	return &VPINSignal{TsNs: tsNs, Symbol: symbol, VPIN: sumImbalance / sumVolume}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
