// Package indicators derives technical readings from a chronological series
// of candles. Every reading carries a Ready flag; an indicator without enough
// history is reported as not ready instead of being computed on a partial
// window.
package indicators

import (
	"fmt"
	"time"

	"github.com/rustyeddy/papertrader/market"
)

// MinCandles is the least history Compute accepts.
const MinCandles = 2

// Reading is a single indicator value.
type Reading struct {
	Value float64
	Ready bool
}

func ready(v float64) Reading { return Reading{Value: v, Ready: true} }

// Cross is the direction one line crossed another between the last two bars.
type Cross int

const (
	NoCross Cross = iota
	CrossUp
	CrossDown
)

func (c Cross) String() string {
	switch c {
	case CrossUp:
		return "up"
	case CrossDown:
		return "down"
	}
	return "none"
}

type CrossSignal struct {
	Dir   Cross
	Ready bool
}

// Snapshot is the full indicator state for the most recent bar.
type Snapshot struct {
	Time  time.Time
	Close float64
	Bars  int

	SMA10 Reading
	SMA20 Reading
	SMA50 Reading
	RSI   Reading

	MACD       Reading
	MACDSignal Reading
	MACDCross  CrossSignal

	// SMA10 against SMA20
	MACross CrossSignal

	BollingerUpper  Reading
	BollingerMiddle Reading
	BollingerLower  Reading
	BandWidth       Reading

	TrendStrength Reading
	Volatility    Reading
	Regime        Regime

	FibLevels     []FibLevel
	FibSupport    Reading
	FibResistance Reading
}

type Options struct {
	FibLookback int
}

func DefaultOptions() Options {
	return Options{FibLookback: FibLookback}
}

// Compute evaluates every indicator over candles. candles is not modified.
// Fewer than MinCandles bars is market.ErrDataUnavailable.
func Compute(candles []market.Candle, opts Options) (Snapshot, error) {
	if len(candles) < MinCandles {
		return Snapshot{}, fmt.Errorf("%w: need at least %d candles, got %d",
			market.ErrDataUnavailable, MinCandles, len(candles))
	}
	if opts.FibLookback <= 0 {
		opts.FibLookback = FibLookback
	}

	closes := market.Closes(candles)
	last := candles[len(candles)-1]
	snap := Snapshot{
		Time:   last.Time,
		Close:  last.Close,
		Bars:   len(candles),
		Regime: Neutral,
	}

	if v, err := SMA(closes, 10); err == nil {
		snap.SMA10 = ready(v)
	}
	if v, err := SMA(closes, 20); err == nil {
		snap.SMA20 = ready(v)
	}
	if v, err := SMA(closes, 50); err == nil {
		snap.SMA50 = ready(v)
	}
	snap.MACross = maCross(closes, 10, 20)

	if v, err := RSI(closes, RSIPeriod); err == nil {
		snap.RSI = ready(v)
	}

	if m, err := MACD(closes, MACDFast, MACDSlow, MACDSignal); err == nil {
		snap.MACD = ready(m.Line)
		snap.MACDSignal = ready(m.Signal)
		if m.HasPrev {
			snap.MACDCross = CrossSignal{
				Dir:   crossDir(m.PrevLine-m.PrevSignal, m.Line-m.Signal),
				Ready: true,
			}
		}
	}

	if b, err := Bollinger(closes, BollingerPeriod, BollingerDev); err == nil {
		snap.BollingerUpper = ready(b.Upper)
		snap.BollingerMiddle = ready(b.Middle)
		snap.BollingerLower = ready(b.Lower)
		snap.BandWidth = ready(b.Width())
	}

	if v, err := TrendStrength(closes, 20, TrendWindow); err == nil {
		snap.TrendStrength = ready(v)
	}
	if v, err := Volatility(closes, VolatilityBars); err == nil {
		snap.Volatility = ready(v)
	}
	if snap.SMA20.Ready && snap.SMA50.Ready {
		snap.Regime = ClassifyRegime(snap.Close, snap.SMA20.Value, snap.SMA50.Value)
	}

	if levels, err := Fibonacci(market.Highs(candles), market.Lows(candles), opts.FibLookback); err == nil {
		snap.FibLevels = levels
		sup, supOK, res, resOK := Nearest(levels, snap.Close)
		if supOK {
			snap.FibSupport = ready(sup.Price)
		}
		if resOK {
			snap.FibResistance = ready(res.Price)
		}
	}

	return snap, nil
}

// maCross needs the fast and slow averages on both of the last two bars.
func maCross(closes []float64, fast, slow int) CrossSignal {
	if len(closes) < slow+1 {
		return CrossSignal{}
	}
	f, _ := SMASeries(closes, fast)
	s, _ := SMASeries(closes, slow)
	fn, sn := len(f)-1, len(s)-1
	return CrossSignal{
		Dir:   crossDir(f[fn-1]-s[sn-1], f[fn]-s[sn]),
		Ready: true,
	}
}

// crossDir compares the spread between two lines on consecutive bars.
func crossDir(prev, cur float64) Cross {
	switch {
	case prev <= 0 && cur > 0:
		return CrossUp
	case prev >= 0 && cur < 0:
		return CrossDown
	}
	return NoCross
}
