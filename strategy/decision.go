// Package strategy turns an indicator snapshot into a BUY, SELL or HOLD
// decision by counting indicator votes.
package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/papertrader/indicators"
	"github.com/rustyeddy/papertrader/sim"
)

const (
	// MinVotes is the least number of agreeing votes behind a trade.
	MinVotes = 2

	BaseConfidence  = 50
	VoteWeight      = 10
	TakeProfitBonus = 10
)

type Config struct {
	RiskTolerance float64
	MinConfidence int
	Cooldown      time.Duration
	AllowShort    bool
}

// Input is everything a decision looks at.
type Input struct {
	Snapshot indicators.Snapshot
	Account  sim.AccountState
	Now      time.Time

	// TakeProfit is set when the open position has reached its profit
	// target. It adds weight to the closing side.
	TakeProfit bool
}

type Decision struct {
	Action     sim.Action
	Confidence int
	Reasons    []string
	Votes      []Vote
	Bullish    int
	Bearish    int

	// Closing is true when Action closes the open position.
	Closing    bool
	TakeProfit bool
	Time       time.Time
}

// Strategy turns one cycle's inputs into a decision.
type Strategy interface {
	Decide(in Input) Decision
}

// Voting is the indicator-voting strategy.
type Voting struct {
	Config Config
}

func (v Voting) Decide(in Input) Decision { return Decide(in, v.Config) }

// Confidence scores concordant votes against opposing ones. It is
// non-decreasing in concordant and clamped to [0, 100].
func Confidence(concordant, opposing int) int {
	c := BaseConfidence + VoteWeight*(concordant-MinVotes) - VoteWeight*opposing
	return clampInt(c, 0, 100)
}

// Decide applies the voting rules. It never returns BUY or SELL with fewer
// than MinVotes agreeing indicator votes.
func Decide(in Input, cfg Config) Decision {
	d := Decision{Action: sim.Hold, Time: in.Now}

	if last := in.Account.LastDecisionAt; cfg.Cooldown > 0 && !last.IsZero() {
		if elapsed := in.Now.Sub(last); elapsed < cfg.Cooldown {
			remaining := cfg.Cooldown - elapsed
			d.Reasons = []string{fmt.Sprintf("cooldown: %ds remaining", int(math.Ceil(remaining.Seconds())))}
			return d
		}
	}

	d.Votes = Votes(in.Snapshot)
	d.Bullish, d.Bearish = Tally(d.Votes)

	var (
		want          sim.Action
		agree, oppose int
	)
	switch {
	case d.Bullish >= MinVotes && d.Bullish > d.Bearish:
		want, agree, oppose = sim.Buy, d.Bullish, d.Bearish
	case d.Bearish >= MinVotes && d.Bearish > d.Bullish:
		want, agree, oppose = sim.Sell, d.Bearish, d.Bullish
	default:
		d.Confidence = Confidence(max(d.Bullish, d.Bearish), min(d.Bullish, d.Bearish))
		d.Reasons = append([]string{fmt.Sprintf("no consensus (%d bullish, %d bearish)", d.Bullish, d.Bearish)},
			d.voteReasons(in.Snapshot)...)
		return d
	}

	pos := in.Account.Position
	d.Closing = pos != nil && ((want == sim.Sell && pos.Side == sim.Long) || (want == sim.Buy && pos.Side == sim.Short))

	var lead []string
	bonus := 0
	if d.Closing && in.TakeProfit {
		bonus = TakeProfitBonus
		d.TakeProfit = true
		lead = append(lead, "take-profit target reached")
	}
	d.Confidence = clampInt(Confidence(agree, oppose)+bonus, 0, 100)

	switch {
	case pos != nil && !d.Closing:
		lead = append([]string{fmt.Sprintf("%s signal ignored: %s position already open", want, pos.Side)}, lead...)
	case pos == nil && want == sim.Sell && !cfg.AllowShort:
		lead = append([]string{"SELL signal ignored: no position to sell"}, lead...)
	case d.Confidence < cfg.MinConfidence:
		lead = append([]string{fmt.Sprintf("%s confidence %d below minimum %d", want, d.Confidence, cfg.MinConfidence)}, lead...)
	default:
		d.Action = want
	}
	d.Reasons = append(lead, d.voteReasons(in.Snapshot)...)
	return d
}

func (d Decision) voteReasons(s indicators.Snapshot) []string {
	out := make([]string, 0, len(d.Votes)+3)
	for _, v := range d.Votes {
		out = append(out, v.Reason)
	}
	return append(out, notes(s)...)
}

// notes lists readings that inform but never vote.
func notes(s indicators.Snapshot) []string {
	var out []string
	if s.SMA50.Ready {
		out = append(out, fmt.Sprintf("trend regime %s", s.Regime))
	} else {
		out = append(out, "SMA50 unavailable")
	}
	if s.FibSupport.Ready {
		out = append(out, fmt.Sprintf("fibonacci support %.4f", s.FibSupport.Value))
	}
	if s.FibResistance.Ready {
		out = append(out, fmt.Sprintf("fibonacci resistance %.4f", s.FibResistance.Value))
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
