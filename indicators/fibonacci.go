package indicators

import (
	"math"
)

// FibRatios are the retracement ratios measured down from the swing high.
var FibRatios = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1.0}

const FibLookback = 50

type FibLevel struct {
	Ratio float64
	Price float64
}

// Fibonacci returns retracement levels between the highest high and lowest
// low of the last lookback bars, ordered from the high down.
func Fibonacci(highs, lows []float64, lookback int) ([]FibLevel, error) {
	if err := checkPeriod(lookback); err != nil {
		return nil, err
	}
	if err := need(highs, 2); err != nil {
		return nil, err
	}
	if len(lows) != len(highs) {
		return nil, ErrNotEnoughData
	}
	if lookback > len(highs) {
		lookback = len(highs)
	}
	hi := math.Inf(-1)
	lo := math.Inf(1)
	for i := len(highs) - lookback; i < len(highs); i++ {
		hi = math.Max(hi, highs[i])
		lo = math.Min(lo, lows[i])
	}

	diff := hi - lo
	levels := make([]FibLevel, len(FibRatios))
	for i, r := range FibRatios {
		levels[i] = FibLevel{Ratio: r, Price: hi - diff*r}
	}
	return levels, nil
}

// Nearest returns the closest level at or below price (support) and the
// closest level strictly above it (resistance). ok is false when price is
// outside the range on that side.
func Nearest(levels []FibLevel, price float64) (support FibLevel, supportOK bool, resistance FibLevel, resistanceOK bool) {
	for _, l := range levels {
		if l.Price <= price {
			if !supportOK || l.Price > support.Price {
				support, supportOK = l, true
			}
			continue
		}
		if !resistanceOK || l.Price < resistance.Price {
			resistance, resistanceOK = l, true
		}
	}
	return
}
