package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rustyeddy/papertrader/sim"
)

var rule = strings.Repeat("=", 60)

// WritePeriod prints the stats for one period.
func WritePeriod(w io.Writer, p Period, s Stats, now time.Time) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nPERFORMANCE: %s\n%s\n", rule, strings.ToUpper(p.Label()), rule)
	fmt.Fprintf(&b, "Generated: %s\n", now.Format("2006-01-02 15:04:05"))

	if s.Trades == 0 {
		b.WriteString("No trades closed in this period\n")
		b.WriteString(rule + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(&b, "Trades:        %d (%d wins, %d losses)\n", s.Trades, s.Wins, s.Losses)
	if s.Leveraged > 0 {
		fmt.Fprintf(&b, "Leveraged:     %d (avg %.1fx)\n", s.Leveraged, s.AvgLeverage)
	}
	if s.Liquidations > 0 {
		fmt.Fprintf(&b, "Liquidations:  %d\n", s.Liquidations)
	}
	fmt.Fprintf(&b, "Gross P&L:     %s\n", signed(s.GrossPL.StringFixed(2)))
	fmt.Fprintf(&b, "Commissions:   %s\n", s.Commissions.StringFixed(2))
	fmt.Fprintf(&b, "Net P&L:       %s\n", signed(s.NetPL.StringFixed(2)))
	fmt.Fprintf(&b, "Win rate:      %.2f%%\n", s.WinRate)
	b.WriteString(rule + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteComparison prints one row per period.
func WriteComparison(w io.Writer, trades []sim.Trade, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Period\tTrades\tGross P&L\tCommissions\tNet P&L\tWin rate\t")
	for _, p := range Periods {
		s := Compute(trades, WindowFor(p, now))
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%.1f%%\t\n",
			p.Label(), s.Trades, s.GrossPL.StringFixed(2), s.Commissions.StringFixed(2),
			s.NetPL.StringFixed(2), s.WinRate)
	}
	return tw.Flush()
}

// WriteSummary prints balances and the open position.
func WriteSummary(w io.Writer, s Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Account %s\n", s.Symbol)
	fmt.Fprintf(&b, "  Initial:      %s\n", s.InitialBalance.StringFixed(2))
	fmt.Fprintf(&b, "  Cash:         %s\n", s.Cash.StringFixed(2))
	fmt.Fprintf(&b, "  Equity:       %s\n", s.Equity.StringFixed(2))
	fmt.Fprintf(&b, "  Return:       %+.2f%%\n", s.ReturnPct)
	fmt.Fprintf(&b, "  Commissions:  %s\n", s.Commissions.StringFixed(2))
	if p := s.Position; p != nil {
		fmt.Fprintf(&b, "  Position:     %s %s @ %s, %dx, margin %s\n",
			p.Side, p.Quantity.StringFixed(6), p.EntryPrice.String(), p.Leverage, p.Margin.StringFixed(2))
	} else {
		b.WriteString("  Position:     flat\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func signed(s string) string {
	if strings.HasPrefix(s, "-") {
		return s
	}
	return "+" + s
}
