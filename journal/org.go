package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/papertrader/sim"
)

// FormatTradeOrg renders a trade as an Org-mode block. Structured facts go
// in a PROPERTIES drawer; Thesis/Execution/Review are left for notes.
func FormatTradeOrg(t sim.Trade) string {
	heading := fmt.Sprintf("** Trade: %s %s (%s)", t.Symbol, t.Side, shortID(t.ID))
	open := t.OpenedAt.UTC().Format(time.RFC3339)
	close := t.ClosedAt.UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", t.ID)
	fmt.Fprintf(&b, ":ID: %s\n", t.ID)
	fmt.Fprintf(&b, ":SYMBOL: %s\n", t.Symbol)
	fmt.Fprintf(&b, ":SIDE: %s\n", t.Side)
	fmt.Fprintf(&b, ":QUANTITY: %s\n", t.Quantity.StringFixed(6))
	fmt.Fprintf(&b, ":LEVERAGE: %dx\n", t.Leverage)
	fmt.Fprintf(&b, ":MARGIN: %s\n", t.Margin.StringFixed(2))
	fmt.Fprintf(&b, ":ENTRY_PRICE: %s\n", t.EntryPrice.StringFixed(5))
	fmt.Fprintf(&b, ":EXIT_PRICE: %s\n", t.ExitPrice.StringFixed(5))
	fmt.Fprintf(&b, ":OPEN_TIME: %s\n", open)
	fmt.Fprintf(&b, ":CLOSE_TIME: %s\n", close)
	fmt.Fprintf(&b, ":COMMISSION: %s\n", t.Commission.StringFixed(2))
	fmt.Fprintf(&b, ":REALIZED_PL: %s\n", t.RealizedPL.StringFixed(2))
	fmt.Fprintf(&b, ":REASON: %s\n", t.CloseReason)
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Execution\n- \n\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []sim.Trade) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
