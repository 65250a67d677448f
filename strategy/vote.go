package strategy

import (
	"fmt"

	"github.com/rustyeddy/papertrader/indicators"
)

// Signal is one indicator's opinion.
type Signal int

const (
	Neutral Signal = iota
	Bullish
	Bearish
)

func (s Signal) String() string {
	switch s {
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	}
	return "neutral"
}

type Vote struct {
	Indicator string
	Signal    Signal
	Reason    string
}

const (
	RSIOversold   = 30.0
	RSIOverbought = 70.0
	TrendVote     = 0.7
)

// Votes lets every ready indicator cast a vote. Indicators that are not
// ready are skipped; neutral readings produce no vote.
func Votes(s indicators.Snapshot) []Vote {
	var votes []Vote
	add := func(name string, sig Signal, format string, args ...any) {
		votes = append(votes, Vote{Indicator: name, Signal: sig, Reason: fmt.Sprintf(format, args...)})
	}

	if s.MACross.Ready {
		switch s.MACross.Dir {
		case indicators.CrossUp:
			add("sma", Bullish, "SMA10 crossed above SMA20")
		case indicators.CrossDown:
			add("sma", Bearish, "SMA10 crossed below SMA20")
		}
	}

	if s.RSI.Ready {
		switch {
		case s.RSI.Value < RSIOversold:
			add("rsi", Bullish, "RSI oversold (%.1f)", s.RSI.Value)
		case s.RSI.Value > RSIOverbought:
			add("rsi", Bearish, "RSI overbought (%.1f)", s.RSI.Value)
		}
	}

	if s.MACDCross.Ready {
		switch s.MACDCross.Dir {
		case indicators.CrossUp:
			add("macd", Bullish, "MACD crossed above signal")
		case indicators.CrossDown:
			add("macd", Bearish, "MACD crossed below signal")
		}
	}

	// flat bands carry no information
	if s.BollingerLower.Ready && s.BollingerUpper.Ready && s.BollingerUpper.Value > s.BollingerLower.Value {
		switch {
		case s.Close <= s.BollingerLower.Value:
			add("bollinger", Bullish, "price at lower Bollinger band (%.4f)", s.BollingerLower.Value)
		case s.Close >= s.BollingerUpper.Value:
			add("bollinger", Bearish, "price at upper Bollinger band (%.4f)", s.BollingerUpper.Value)
		}
	}

	if s.TrendStrength.Ready {
		switch {
		case s.TrendStrength.Value > TrendVote:
			add("trend", Bullish, "strong uptrend (%.2f)", s.TrendStrength.Value)
		case s.TrendStrength.Value < -TrendVote:
			add("trend", Bearish, "strong downtrend (%.2f)", s.TrendStrength.Value)
		}
	}

	return votes
}

// Tally counts bullish and bearish votes.
func Tally(votes []Vote) (bullish, bearish int) {
	for _, v := range votes {
		switch v.Signal {
		case Bullish:
			bullish++
		case Bearish:
			bearish++
		}
	}
	return bullish, bearish
}
