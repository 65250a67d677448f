package strategy

import (
	"fmt"
	"strings"
)

// Describe renders the voting rules and the active thresholds for the
// strategy command.
func Describe(cfg Config) string {
	var b strings.Builder
	b.WriteString("Rule-voting strategy\n\n")
	b.WriteString("Votes (one per indicator, skipped while warming up):\n")
	b.WriteString("  sma        SMA10 crossing SMA20 (21 bars)\n")
	fmt.Fprintf(&b, "  rsi        RSI14 below %.0f bullish, above %.0f bearish (15 bars)\n", RSIOversold, RSIOverbought)
	b.WriteString("  macd       MACD(12,26,9) crossing its signal (35 bars)\n")
	b.WriteString("  bollinger  close at or beyond the 20 bar 2 sigma bands (20 bars)\n")
	fmt.Fprintf(&b, "  trend      SMA20 slope strength beyond +/-%.1f (39 bars)\n", TrendVote)
	b.WriteString("\nRules:\n")
	fmt.Fprintf(&b, "  BUY/SELL need %d or more agreeing votes and a majority\n", MinVotes)
	fmt.Fprintf(&b, "  confidence = %d + %d per extra vote - %d per opposing vote\n", BaseConfidence, VoteWeight, VoteWeight)
	fmt.Fprintf(&b, "  take-profit candidates add %d to the closing side\n", TakeProfitBonus)
	fmt.Fprintf(&b, "  minimum confidence %d\n", cfg.MinConfidence)
	fmt.Fprintf(&b, "  cooldown %s between discretionary trades\n", cfg.Cooldown)
	fmt.Fprintf(&b, "  risk tolerance %.2f\n", cfg.RiskTolerance)
	if cfg.AllowShort {
		b.WriteString("  SELL without a position opens a SHORT\n")
	} else {
		b.WriteString("  long only: SELL only closes an open LONG\n")
	}
	return b.String()
}
