package market

import (
	"errors"
	"time"
)

// ErrDataUnavailable is returned when bars cannot be fetched or there is not
// enough history to evaluate anything.
var ErrDataUnavailable = errors.New("market data unavailable")

// Candle represents OHLC (Open, High, Low, Close) candlestick data
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Closes returns the close prices of candles in chronological order.
// The result is a fresh slice; candles is never modified.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Highs returns the high prices of candles.
func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows returns the low prices of candles.
func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

// Last returns the most recent candle, or false when there are none.
func Last(candles []Candle) (Candle, bool) {
	if len(candles) == 0 {
		return Candle{}, false
	}
	return candles[len(candles)-1], true
}

// Tail returns at most the n most recent candles.
func Tail(candles []Candle, n int) []Candle {
	if n <= 0 || n >= len(candles) {
		return candles
	}
	return candles[len(candles)-n:]
}
