package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/report"
	"github.com/rustyeddy/papertrader/sim"
	"github.com/rustyeddy/papertrader/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize closed trades over a period",
	Long: `Print trade count, gross and net P&L, commissions and win rate for the
account's closed trades.

Examples:
  papertrader report --period day
  papertrader report --compare
  papertrader report --period week --export week.csv`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

var (
	reportPeriod  string
	reportCompare bool
	reportExport  string
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportPeriod, "period", "p", "all", "hour, day, week, month or all")
	reportCmd.Flags().BoolVar(&reportCompare, "compare", false, "show every period side by side")
	reportCmd.Flags().StringVar(&reportExport, "export", "", "also write the period's trades to this CSV file")
}

func runReport(cmd *cobra.Command, args []string) error {
	period, err := report.ParsePeriod(reportPeriod)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store.Type, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	state, err := st.Load(cmd.Context(), cfg.Symbol)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Printf("No account for %s yet\n", cfg.Symbol)
		return nil
	}
	if err != nil {
		return err
	}

	now := time.Now()
	trades := state.Trades()

	if err := report.WriteSummary(os.Stdout, report.Summarize(state)); err != nil {
		return err
	}
	fmt.Println()

	if reportCompare {
		if err := report.WriteComparison(os.Stdout, trades, now); err != nil {
			return err
		}
	} else {
		w := report.WindowFor(period, now)
		if err := report.WritePeriod(os.Stdout, period, report.Compute(trades, w), now); err != nil {
			return err
		}
	}

	if reportExport != "" {
		return exportTrades(reportExport, report.Filter(trades, report.WindowFor(period, now)))
	}
	return nil
}

func exportTrades(path string, trades []sim.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := journal.WriteTradesCSV(f, trades); err != nil {
		f.Close()
		return fmt.Errorf("export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Printf("\nExported %d trades to %s\n", len(trades), path)
	return nil
}
