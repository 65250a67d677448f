// Package risk sizes new positions from risk tolerance, leverage, signal
// confidence and recent volatility.
package risk

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	MinFraction = 0.05
	MaxFraction = 0.30

	// VolatilityPenalty scales the fraction down when bands are wide.
	VolatilityPenalty = 0.7

	// DefaultVolatilityThreshold is a Bollinger band width of ten percent
	// of the middle band.
	DefaultVolatilityThreshold = 0.10
)

type Inputs struct {
	Balance       decimal.Decimal
	RiskTolerance float64 // 0..1
	Leverage      int
	Confidence    int // 0..100

	// BandWidth is (upper - lower) / middle. Zero means unknown.
	BandWidth           float64
	VolatilityThreshold float64
}

type Result struct {
	Fraction float64
	Margin   decimal.Decimal

	// Volatile reports that the band width penalty was applied.
	Volatile bool
}

// Calculate returns the share of balance to commit as margin. The result is
// always within [MinFraction, MaxFraction].
func Calculate(in Inputs) Result {
	risk := clamp(in.RiskTolerance, 0, 1)
	f := MinFraction + (MaxFraction-MinFraction)*risk

	f *= float64(clampInt(in.Confidence, 0, 100)) / 100

	lev := max(in.Leverage, 1)
	f /= 1 + math.Log10(float64(lev))

	threshold := in.VolatilityThreshold
	if threshold <= 0 {
		threshold = DefaultVolatilityThreshold
	}
	volatile := in.BandWidth > threshold
	if volatile {
		f *= VolatilityPenalty
	}

	f = clamp(f, MinFraction, MaxFraction)
	return Result{
		Fraction: f,
		Margin:   in.Balance.Mul(decimal.NewFromFloat(f)),
		Volatile: volatile,
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
