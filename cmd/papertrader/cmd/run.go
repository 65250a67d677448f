package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/runner"
	"github.com/rustyeddy/papertrader/sim"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one decision cycle or keep cycling on an interval",
	Long: `Run decision cycles against the configured market data source.

Modes:
  single      - run one cycle, print the decision and exit
  continuous  - run a cycle every interval until interrupted; an
                interrupted cycle always finishes and saves first

Examples:
  papertrader run -c papertrader.yaml
  papertrader run -c papertrader.yaml --mode continuous --leverage 5`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var runMode string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runMode, "mode", "m", "single", "single or continuous")
}

func runRun(cmd *cobra.Command, args []string) error {
	if runMode != "single" && runMode != "continuous" {
		return fmt.Errorf("unknown mode %q (want single or continuous)", runMode)
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runMode == "continuous" {
		fmt.Printf("Trading %s every %s (leverage %dx), Ctrl-C to stop\n",
			a.cfg.Symbol, a.cfg.Interval, a.cfg.Leverage)
		return a.runner.Run(ctx, a.cfg.Interval.Std())
	}

	res, err := a.runner.RunOnce(ctx)
	if errors.Is(err, market.ErrDataUnavailable) {
		fmt.Printf("Cycle skipped: %v\n", err)
		return nil
	}
	if err != nil {
		return err
	}
	return printCycle(os.Stdout, res, a.runner.Options().Params.MaintenanceFraction)
}

// printCycle renders one cycle's decision and its effect on the account.
// maintenance is only used to show the liquidation price.
func printCycle(w io.Writer, res runner.Result, maintenance decimal.Decimal) error {
	var b strings.Builder
	d := res.Decision

	fmt.Fprintf(&b, "%s  %s @ %s\n", res.Time.Format("2006-01-02 15:04:05"), res.State.Symbol, res.Price.String())
	for _, t := range res.Trades() {
		fmt.Fprintf(&b, "Closed %s (%s): P&L %s\n", t.Side, t.CloseReason, signed(t.RealizedPL.StringFixed(2)))
	}

	fmt.Fprintf(&b, "Decision: %s (confidence %d, %d bullish / %d bearish)\n", d.Action, d.Confidence, d.Bullish, d.Bearish)
	for _, r := range d.Reasons {
		fmt.Fprintf(&b, "  - %s\n", r)
	}
	if s := res.Sizing; s != nil && res.Executed() {
		note := ""
		if s.Volatile {
			note = ", volatility penalty"
		}
		fmt.Fprintf(&b, "Sizing: %.1f%% of cash, margin %s%s\n", s.Fraction*100, s.Margin.StringFixed(2), note)
	}

	st := res.State
	fmt.Fprintf(&b, "Cash %s  Equity %s", st.Cash.StringFixed(2), st.Equity.StringFixed(2))
	if p := st.Position; p != nil {
		fmt.Fprintf(&b, "  Position %s %s @ %s (%dx, liq %s)",
			p.Side, p.Quantity.StringFixed(6), p.EntryPrice.String(), p.Leverage,
			sim.LiquidationPrice(p.Side, p.EntryPrice, p.Leverage, maintenance).StringFixed(4))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func signed(s string) string {
	if strings.HasPrefix(s, "-") {
		return s
	}
	return "+" + s
}

// describeTrade is the one-line form used by reset and close.
func describeTrade(t *sim.Trade) string {
	if t == nil {
		return "no open position"
	}
	return fmt.Sprintf("closed %s %s @ %s (%s), P&L %s",
		t.Side, t.Quantity.StringFixed(6), t.ExitPrice.String(), t.CloseReason, signed(t.RealizedPL.StringFixed(2)))
}
