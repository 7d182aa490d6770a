package features

import "github.com/Charliesj0129/shijim/internal/events"

// OFIAccumulator sums per-event OFI values per symbol and emits once an
// interval has elapsed, ported from
// original_source/shijim/features/ofi.py's OFIAccumulator.
type OFIAccumulator struct {
	intervalNs int64
	calc       *OFICalculator
	acc        map[string]float64
	lastEmit   map[string]int64
}

func NewOFIAccumulator(intervalSeconds float64) *OFIAccumulator {
	return &OFIAccumulator{
		intervalNs: int64(intervalSeconds * 1e9),
		calc:       NewOFICalculator(),
		acc:        make(map[string]float64),
		lastEmit:   make(map[string]int64),
	}
}

// Process folds event into the running accumulator and returns a signal
// once intervalNs has elapsed since the last emission for this symbol.
func (a *OFIAccumulator) Process(event events.MDBookEvent) *OFISignal {
	symbol := event.Symbol
	if _, ok := a.lastEmit[symbol]; !ok {
		a.lastEmit[symbol] = event.TsNs
	}

	ofi := a.calc.Calculate(event)
	if ofi == nil {
		return nil
	}

	a.acc[symbol] += ofi.OFI
	last := a.lastEmit[symbol]

	if event.TsNs-last >= a.intervalNs {
		result := &OFISignal{TsNs: event.TsNs, Symbol: symbol, OFI: a.acc[symbol]}
		a.acc[symbol] = 0
		a.lastEmit[symbol] = event.TsNs
		return result
	}
	return nil
}
