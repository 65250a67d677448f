package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/indicators"
	"github.com/rustyeddy/papertrader/sim"
)

var t0 = time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)

func on(v float64) indicators.Reading { return indicators.Reading{Value: v, Ready: true} }

func cross(c indicators.Cross) indicators.CrossSignal {
	return indicators.CrossSignal{Dir: c, Ready: true}
}

// bullishSnapshot has n bullish votes, n in [0,4].
func bullishSnapshot(n int) indicators.Snapshot {
	s := indicators.Snapshot{Time: t0, Close: 100, Bars: 60, SMA50: on(95), Regime: indicators.Bullish}
	if n > 0 {
		s.MACross = cross(indicators.CrossUp)
	}
	if n > 1 {
		s.RSI = on(25)
	}
	if n > 2 {
		s.MACDCross = cross(indicators.CrossUp)
	}
	if n > 3 {
		s.TrendStrength = on(0.9)
	}
	return s
}

func bearishSnapshot() indicators.Snapshot {
	return indicators.Snapshot{
		Time: t0, Close: 100, Bars: 60,
		MACross:   cross(indicators.CrossDown),
		RSI:       on(80),
		MACDCross: cross(indicators.CrossDown),
	}
}

func account() sim.AccountState {
	return sim.NewAccount("EUR_USD", decimal.NewFromInt(10000))
}

func withPosition(side sim.Side) sim.AccountState {
	a := account()
	a.Position = &sim.Position{
		ID: "p1", Symbol: "EUR_USD", Side: side,
		EntryPrice: decimal.NewFromInt(100), Quantity: decimal.NewFromInt(10),
		Leverage: 1, Margin: decimal.NewFromInt(1000), OpenedAt: t0.Add(-time.Hour),
	}
	return a
}

func cfg() Config {
	return Config{RiskTolerance: 0.5, MinConfidence: 50, Cooldown: 5 * time.Minute}
}

func TestConfidence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 50, Confidence(2, 0))
	assert.Equal(t, 60, Confidence(3, 0))
	assert.Equal(t, 50, Confidence(3, 1))
	assert.Equal(t, 0, Confidence(2, 9))
	assert.Equal(t, 100, Confidence(20, 0))

	for opp := 0; opp < 5; opp++ {
		for n := 0; n < 10; n++ {
			assert.GreaterOrEqual(t, Confidence(n+1, opp), Confidence(n, opp))
		}
	}
}

func TestDecideBuy(t *testing.T) {
	t.Parallel()

	d := Decide(Input{Snapshot: bullishSnapshot(3), Account: account(), Now: t0}, cfg())
	assert.Equal(t, sim.Buy, d.Action)
	assert.Equal(t, 3, d.Bullish)
	assert.Equal(t, 0, d.Bearish)
	assert.Equal(t, 60, d.Confidence)
	assert.False(t, d.Closing)
	assert.Contains(t, d.Reasons, "SMA10 crossed above SMA20")
	assert.Contains(t, d.Reasons, "trend regime BULLISH")
}

func TestDecideNeedsTwoVotes(t *testing.T) {
	t.Parallel()

	for n := 0; n < MinVotes; n++ {
		d := Decide(Input{Snapshot: bullishSnapshot(n), Account: account(), Now: t0}, cfg())
		assert.Equal(t, sim.Hold, d.Action, "votes=%d", n)
		require.NotEmpty(t, d.Reasons)
		assert.Contains(t, d.Reasons[0], "no consensus")
	}
}

func TestDecideTieHolds(t *testing.T) {
	t.Parallel()

	s := bullishSnapshot(2)
	s.MACDCross = cross(indicators.CrossDown)
	s.TrendStrength = on(-0.9)

	d := Decide(Input{Snapshot: s, Account: account(), Now: t0}, cfg())
	assert.Equal(t, sim.Hold, d.Action)
	assert.Equal(t, 2, d.Bullish)
	assert.Equal(t, 2, d.Bearish)
}

func TestDecideCooldown(t *testing.T) {
	t.Parallel()

	a := account()
	a.LastDecisionAt = t0.Add(-2 * time.Minute)

	d := Decide(Input{Snapshot: bullishSnapshot(4), Account: a, Now: t0}, cfg())
	assert.Equal(t, sim.Hold, d.Action)
	assert.Equal(t, []string{"cooldown: 180s remaining"}, d.Reasons)
	assert.Empty(t, d.Votes)

	d = Decide(Input{Snapshot: bullishSnapshot(4), Account: a, Now: t0.Add(3 * time.Minute)}, cfg())
	assert.Equal(t, sim.Buy, d.Action)
}

func TestDecideMinConfidence(t *testing.T) {
	t.Parallel()

	c := cfg()
	c.MinConfidence = 70

	d := Decide(Input{Snapshot: bullishSnapshot(3), Account: account(), Now: t0}, c)
	assert.Equal(t, sim.Hold, d.Action)
	assert.Equal(t, 60, d.Confidence)
	require.NotEmpty(t, d.Reasons)
	assert.Equal(t, "BUY confidence 60 below minimum 70", d.Reasons[0])
}

func TestDecideSellWithoutPosition(t *testing.T) {
	t.Parallel()

	d := Decide(Input{Snapshot: bearishSnapshot(), Account: account(), Now: t0}, cfg())
	assert.Equal(t, sim.Hold, d.Action)
	assert.Equal(t, "SELL signal ignored: no position to sell", d.Reasons[0])

	c := cfg()
	c.AllowShort = true
	d = Decide(Input{Snapshot: bearishSnapshot(), Account: account(), Now: t0}, c)
	assert.Equal(t, sim.Sell, d.Action)
	assert.False(t, d.Closing)
}

func TestDecideAlreadyLong(t *testing.T) {
	t.Parallel()

	d := Decide(Input{Snapshot: bullishSnapshot(4), Account: withPosition(sim.Long), Now: t0}, cfg())
	assert.Equal(t, sim.Hold, d.Action)
	assert.Equal(t, "BUY signal ignored: LONG position already open", d.Reasons[0])
}

func TestDecideCloseLong(t *testing.T) {
	t.Parallel()

	d := Decide(Input{Snapshot: bearishSnapshot(), Account: withPosition(sim.Long), Now: t0}, cfg())
	assert.Equal(t, sim.Sell, d.Action)
	assert.True(t, d.Closing)
	assert.Equal(t, 60, d.Confidence)
	assert.False(t, d.TakeProfit)
}

func TestDecideTakeProfitBonus(t *testing.T) {
	t.Parallel()

	c := cfg()
	c.MinConfidence = 70

	in := Input{Snapshot: bearishSnapshot(), Account: withPosition(sim.Long), Now: t0}
	d := Decide(in, c)
	assert.Equal(t, sim.Hold, d.Action)

	in.TakeProfit = true
	d = Decide(in, c)
	assert.Equal(t, sim.Sell, d.Action)
	assert.Equal(t, 70, d.Confidence)
	assert.True(t, d.TakeProfit)
	assert.Equal(t, "take-profit target reached", d.Reasons[0])

	// the bonus is not a vote and never helps the opening side
	in = Input{Snapshot: bullishSnapshot(1), Account: withPosition(sim.Long), Now: t0, TakeProfit: true}
	d = Decide(in, c)
	assert.Equal(t, sim.Hold, d.Action)
	assert.False(t, d.TakeProfit)
}

func TestDecideShortHistory(t *testing.T) {
	t.Parallel()

	s := indicators.Snapshot{
		Time: t0, Close: 100, Bars: 30,
		MACross: cross(indicators.CrossUp),
		RSI:     on(20),
	}
	d := Decide(Input{Snapshot: s, Account: account(), Now: t0}, cfg())
	assert.Equal(t, sim.Buy, d.Action)
	assert.Contains(t, d.Reasons, "SMA50 unavailable")
}

func TestVotesSkipFlatBands(t *testing.T) {
	t.Parallel()

	s := indicators.Snapshot{
		Close:          100,
		BollingerUpper: on(100),
		BollingerLower: on(100),
	}
	assert.Empty(t, Votes(s))

	s.BollingerUpper = on(110)
	s.BollingerLower = on(90)
	s.Close = 89
	votes := Votes(s)
	require.Len(t, votes, 1)
	assert.Equal(t, "bollinger", votes[0].Indicator)
	assert.Equal(t, Bullish, votes[0].Signal)
}

func TestVotesIgnoreUnready(t *testing.T) {
	t.Parallel()

	s := indicators.Snapshot{
		RSI:           indicators.Reading{Value: 5},
		TrendStrength: indicators.Reading{Value: 1},
		MACDCross:     indicators.CrossSignal{Dir: indicators.CrossUp},
	}
	assert.Empty(t, Votes(s))
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	out := Describe(cfg())
	assert.Contains(t, out, "minimum confidence 50")
	assert.Contains(t, out, "long only")
}

func TestVotingStrategy(t *testing.T) {
	t.Parallel()

	var s Strategy = Voting{Config: cfg()}
	d := s.Decide(Input{Snapshot: bullishSnapshot(2), Account: account(), Now: t0})
	assert.Equal(t, sim.Buy, d.Action)
}
