package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
)

// TrendWindow is the number of SMA20 values the slope is fitted over.
const TrendWindow = 20

// TrendStrength fits a least-squares line through the last window values of
// SMA(period), divides the slope by the latest SMA and multiplies by 100, and
// clamps the result to [-1, 1]. It needs period+window-1 closes.
func TrendStrength(closes []float64, period, window int) (float64, error) {
	if err := checkPeriod(window); err != nil {
		return 0, err
	}
	sma, err := SMASeries(closes, period)
	if err != nil {
		return 0, err
	}
	if err := need(sma, window); err != nil {
		return 0, err
	}
	if window < 2 {
		return 0, nil
	}
	tail := sma[len(sma)-window:]
	slope := talib.LinearRegSlope(tail, window)[window-1]
	last := tail[window-1]
	if last == 0 {
		return 0, nil
	}
	return clamp(slope/last*100, -1, 1), nil
}

// Regime labels the moving-average ordering.
type Regime string

const (
	Bullish Regime = "BULLISH"
	Bearish Regime = "BEARISH"
	Neutral Regime = "NEUTRAL"
)

// ClassifyRegime reports BULLISH when price > sma20 > sma50, BEARISH when
// price < sma20 < sma50 and NEUTRAL otherwise.
func ClassifyRegime(price, sma20, sma50 float64) Regime {
	switch {
	case price > sma20 && sma20 > sma50:
		return Bullish
	case price < sma20 && sma20 < sma50:
		return Bearish
	}
	return Neutral
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
