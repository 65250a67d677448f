package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/risk"
	"github.com/rustyeddy/papertrader/runner"
	"github.com/rustyeddy/papertrader/strategy"
)

var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Describe the voting strategy and the effective thresholds",
	Long: `Print the indicator votes, the decision rules and the thresholds in
effect after the leverage policy has been applied.

Example:
  papertrader strategy --leverage 50`,
	Args: cobra.NoArgs,
	RunE: runStrategy,
}

func init() {
	rootCmd.AddCommand(strategyCmd)
}

func runStrategy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := runner.OptionsFrom(cfg)

	fmt.Print(strategy.Describe(opts.Strategy))
	fmt.Printf("\nSizing (leverage %dx):\n", opts.Leverage)
	fmt.Printf("  fraction of cash in [%.0f%%, %.0f%%], scaled by risk and confidence\n",
		risk.MinFraction*100, risk.MaxFraction*100)
	fmt.Printf("  divided by 1 + log10(leverage), x%.1f when band width exceeds %.2f\n",
		risk.VolatilityPenalty, opts.VolatilityThreshold)
	if opts.Strategy.RiskTolerance != cfg.RiskTolerance || opts.Strategy.MinConfidence != cfg.MinConfidence {
		fmt.Printf("  leverage policy: risk %.2f -> %.2f, min confidence %d -> %d\n",
			cfg.RiskTolerance, opts.Strategy.RiskTolerance, cfg.MinConfidence, opts.Strategy.MinConfidence)
	}
	fmt.Printf("\nExits: liquidation at %.0f%% of margin lost, stop-loss %.1f%%, take-profit %.1f%%\n",
		cfg.Risk.MaintenanceFraction*100, cfg.Risk.StopLossPct, cfg.Risk.TakeProfitPct)
	return nil
}
