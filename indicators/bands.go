package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
)

const (
	BollingerPeriod = 20
	BollingerDev    = 2.0
	VolatilityBars  = 20
)

type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Width is (upper - lower) / middle, a unitless measure of band spread.
func (b Bands) Width() float64 {
	if b.Middle == 0 {
		return 0
	}
	return (b.Upper - b.Lower) / b.Middle
}

// Bollinger computes SMA(period) plus and minus dev population standard
// deviations.
func Bollinger(closes []float64, period int, dev float64) (Bands, error) {
	if err := checkPeriod(period); err != nil {
		return Bands{}, err
	}
	if err := need(closes, period); err != nil {
		return Bands{}, err
	}
	upper, middle, lower := talib.BBands(closes, period, dev, dev, talib.SMA)
	n := len(closes) - 1
	return Bands{Upper: upper[n], Middle: middle[n], Lower: lower[n]}, nil
}

// Volatility is the standard deviation of the last bars log returns scaled
// by sqrt(bars). It needs bars+1 closes.
func Volatility(closes []float64, bars int) (float64, error) {
	if err := checkPeriod(bars); err != nil {
		return 0, err
	}
	if err := need(closes, bars+1); err != nil {
		return 0, err
	}
	window := closes[len(closes)-bars-1:]
	returns := make([]float64, 0, bars)
	for i := 1; i < len(window); i++ {
		if window[i-1] <= 0 || window[i] <= 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, math.Log(window[i]/window[i-1]))
	}
	if bars == 1 {
		return 0, nil
	}
	sd := talib.StdDev(returns, bars, 1)
	return sd[len(sd)-1] * math.Sqrt(float64(bars)), nil
}
