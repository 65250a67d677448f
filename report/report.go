// Package report aggregates closed trades over a time window.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrader/sim"
)

type Period string

const (
	Hour  Period = "hour"
	Day   Period = "day"
	Week  Period = "week"
	Month Period = "month"
	All   Period = "all"
)

// Periods in display order.
var Periods = []Period{Hour, Day, Week, Month, All}

func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Periods {
		if p == v {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q (want hour, day, week, month or all)", s)
}

func (p Period) Label() string {
	switch p {
	case Hour:
		return "Last hour"
	case Day:
		return "Last day"
	case Week:
		return "Last week"
	case Month:
		return "Last 30 days"
	}
	return "All time"
}

// Window selects trades closed in [From, To). A zero bound is open.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && !t.Before(w.To) {
		return false
	}
	return true
}

// WindowFor returns the trailing window for p ending just after now. A month
// is thirty days.
func WindowFor(p Period, now time.Time) Window {
	to := now.Add(time.Nanosecond)
	switch p {
	case Hour:
		return Window{From: now.Add(-time.Hour), To: to}
	case Day:
		return Window{From: now.AddDate(0, 0, -1), To: to}
	case Week:
		return Window{From: now.AddDate(0, 0, -7), To: to}
	case Month:
		return Window{From: now.AddDate(0, 0, -30), To: to}
	}
	return Window{}
}

type Stats struct {
	Trades int
	Wins   int
	Losses int

	// GrossPL is before commissions; NetPL after.
	GrossPL     decimal.Decimal
	Commissions decimal.Decimal
	NetPL       decimal.Decimal

	// WinRate is a percentage of closed trades.
	WinRate float64

	Liquidations int
	Leveraged    int
	AvgLeverage  float64
}

// Compute aggregates the trades closed inside w.
func Compute(trades []sim.Trade, w Window) Stats {
	s := Stats{GrossPL: decimal.Zero, Commissions: decimal.Zero, NetPL: decimal.Zero}
	levSum := 0
	for _, t := range trades {
		if !w.Contains(t.ClosedAt) {
			continue
		}
		s.Trades++
		if t.Win() {
			s.Wins++
		} else {
			s.Losses++
		}
		s.NetPL = s.NetPL.Add(t.NetPL())
		s.Commissions = s.Commissions.Add(t.Commission)
		if t.CloseReason == sim.ReasonLiquidation {
			s.Liquidations++
		}
		if t.Leverage > 1 {
			s.Leveraged++
			levSum += t.Leverage
		}
	}
	s.GrossPL = s.NetPL.Add(s.Commissions)
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades) * 100
	}
	if s.Leveraged > 0 {
		s.AvgLeverage = float64(levSum) / float64(s.Leveraged)
	}
	return s
}

// Filter returns the trades closed inside w, oldest first.
func Filter(trades []sim.Trade, w Window) []sim.Trade {
	var out []sim.Trade
	for _, t := range trades {
		if w.Contains(t.ClosedAt) {
			out = append(out, t)
		}
	}
	return out
}

type Summary struct {
	Symbol         string
	InitialBalance decimal.Decimal
	Cash           decimal.Decimal
	Equity         decimal.Decimal
	Commissions    decimal.Decimal
	ReturnPct      float64
	Position       *sim.Position
}

func Summarize(s sim.AccountState) Summary {
	out := Summary{
		Symbol:         s.Symbol,
		InitialBalance: s.InitialBalance,
		Cash:           s.Cash,
		Equity:         s.Equity,
		Commissions:    s.Commissions,
		Position:       s.Position,
	}
	if s.InitialBalance.IsPositive() {
		out.ReturnPct = s.Equity.Sub(s.InitialBalance).Div(s.InitialBalance).InexactFloat64() * 100
	}
	return out
}
