package indicators

import (
	"errors"
	"fmt"

	"github.com/markcheno/go-talib"
)

// ErrNotEnoughData is wrapped by every calculation that lacks history.
var ErrNotEnoughData = errors.New("not enough data")

func need(closes []float64, n int) error {
	if len(closes) < n {
		return fmt.Errorf("%w: need %d, got %d", ErrNotEnoughData, n, len(closes))
	}
	return nil
}

func checkPeriod(period int) error {
	if period <= 0 {
		return fmt.Errorf("period must be positive, got %d", period)
	}
	return nil
}

// SMA calculates the Simple Moving Average of the last period closes.
func SMA(closes []float64, period int) (float64, error) {
	s, err := SMASeries(closes, period)
	if err != nil {
		return 0, err
	}
	return s[len(s)-1], nil
}

// SMASeries returns the SMA for every bar from period-1 onward, so the
// result has len(closes)-period+1 entries.
func SMASeries(closes []float64, period int) ([]float64, error) {
	if err := checkPeriod(period); err != nil {
		return nil, err
	}
	if err := need(closes, period); err != nil {
		return nil, err
	}
	return talib.Sma(closes, period)[period-1:], nil
}

// EMA calculates the Exponential Moving Average, seeded with the SMA of the
// first period closes.
func EMA(closes []float64, period int) (float64, error) {
	s, err := EMASeries(closes, period)
	if err != nil {
		return 0, err
	}
	return s[len(s)-1], nil
}

// EMASeries is the EMA counterpart of SMASeries.
func EMASeries(closes []float64, period int) ([]float64, error) {
	if err := checkPeriod(period); err != nil {
		return nil, err
	}
	if err := need(closes, period); err != nil {
		return nil, err
	}
	return talib.Ema(closes, period)[period-1:], nil
}
