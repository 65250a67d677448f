package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/report"
	"github.com/rustyeddy/papertrader/sim"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the account to its initial balance",
	Long: `Close any open position at the latest price (journaled as MANUAL_RESET)
and start over with the configured initial balance and an empty history.

Example:
  papertrader reset -c papertrader.yaml --balance 25000`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Close the open position at the latest price",
	Args:  cobra.NoArgs,
	RunE:  runClose,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show balances and the open position marked to the latest price",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(statusCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	st, closed, err := a.runner.Reset(cmd.Context())
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if closed != nil {
		fmt.Printf("Position %s\n", describeTrade(closed))
	}
	fmt.Printf("✓ Account %s reset to %s\n", st.Symbol, st.Cash.StringFixed(2))
	return nil
}

func runClose(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	st, closed, err := a.runner.Close(cmd.Context())
	if errors.Is(err, sim.ErrNoPosition) {
		fmt.Printf("Account %s has no open position\n", a.cfg.Symbol)
		return nil
	}
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}
	fmt.Printf("Position %s\n", describeTrade(closed))
	return report.WriteSummary(os.Stdout, report.Summarize(st))
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.runner.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	return report.WriteSummary(os.Stdout, report.Summarize(st))
}
