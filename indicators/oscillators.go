package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
)

const (
	RSIPeriod   = 14
	MACDFast    = 12
	MACDSlow    = 26
	MACDSignal  = 9
	flatEpsilon = 1e-12
)

// RSI returns the Wilder-smoothed relative strength index of the last bar.
// It needs period+1 closes. A series with no movement at all reports 50.
func RSI(closes []float64, period int) (float64, error) {
	if err := checkPeriod(period); err != nil {
		return 0, err
	}
	if err := need(closes, period+1); err != nil {
		return 0, err
	}
	if isFlat(closes) {
		return 50, nil
	}
	if period < 2 {
		// talib refuses period 1
		d := closes[len(closes)-1] - closes[len(closes)-2]
		switch {
		case d > 0:
			return 100, nil
		case d < 0:
			return 0, nil
		}
		return 50, nil
	}
	out := talib.Rsi(closes, period)
	return out[len(out)-1], nil
}

func isFlat(closes []float64) bool {
	for i := 1; i < len(closes); i++ {
		if math.Abs(closes[i]-closes[0]) > flatEpsilon {
			return false
		}
	}
	return true
}

// MACDResult holds the latest MACD values and the previous bar's values
// when they exist.
type MACDResult struct {
	Line       float64
	Signal     float64
	Histogram  float64
	PrevLine   float64
	PrevSignal float64
	HasPrev    bool
}

// MACD computes EMA(fast) - EMA(slow) and its EMA(signal). It needs
// slow+signal-1 closes for one value and one more for HasPrev.
func MACD(closes []float64, fast, slow, signal int) (MACDResult, error) {
	for _, p := range []int{fast, slow, signal} {
		if err := checkPeriod(p); err != nil {
			return MACDResult{}, err
		}
	}
	if err := need(closes, slow+signal-1); err != nil {
		return MACDResult{}, err
	}

	fastEMA := talib.Ema(closes, fast)
	slowEMA := talib.Ema(closes, slow)
	line := make([]float64, 0, len(closes)-slow+1)
	for i := slow - 1; i < len(closes); i++ {
		line = append(line, fastEMA[i]-slowEMA[i])
	}
	sig := talib.Ema(line, signal)[signal-1:]
	line = line[signal-1:]

	n := len(line) - 1
	res := MACDResult{
		Line:      line[n],
		Signal:    sig[n],
		Histogram: line[n] - sig[n],
	}
	if n > 0 {
		res.PrevLine = line[n-1]
		res.PrevSignal = sig[n-1]
		res.HasPrev = true
	}
	return res, nil
}
