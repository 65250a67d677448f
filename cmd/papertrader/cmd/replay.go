package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/report"
	"github.com/rustyeddy/papertrader/runner"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay recorded candles through the strategy",
	Long: `Run one decision cycle per candle from a CSV file, using each candle's
time as the clock. The replay starts from a fresh account; pass --save to
keep the final account in the configured store.

CSV rows are time,open,high,low,close[,volume].

Example:
  papertrader replay -c papertrader.yaml --csv data/BTC-USD.csv --window 200 --close-end`,
	Args: cobra.NoArgs,
	RunE: runReplay,
}

var (
	replayCSV      string
	replayWindow   int
	replayCloseEnd bool
	replaySave     bool
)

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVar(&replayCSV, "csv", "", "candle CSV to replay (defaults to data.csv_path)")
	replayCmd.Flags().IntVarP(&replayWindow, "window", "w", 0, "candles visible to each cycle (defaults to data.count)")
	replayCmd.Flags().BoolVar(&replayCloseEnd, "close-end", true, "close any open position at the last candle")
	replayCmd.Flags().BoolVar(&replaySave, "save", false, "save the final account to the store")
}

func runReplay(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	path := replayCSV
	if path == "" {
		path = a.cfg.Data.CSVPath
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open candles: %w", err)
	}
	candles, err := market.ReadCandlesCSV(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	fmt.Printf("Replaying %d candles of %s from %s (leverage %dx)\n\n", len(candles), a.cfg.Symbol, path, a.cfg.Leverage)

	res, err := a.runner.Replay(cmd.Context(), candles, runner.ReplayOptions{
		Window:   replayWindow,
		CloseEnd: replayCloseEnd,
		Save:     replaySave,
	})
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	fmt.Printf("Cycles: %d (skipped %d)\n\n", res.Cycles, res.Skipped)
	if err := report.WriteSummary(os.Stdout, report.Summarize(res.Final)); err != nil {
		return err
	}
	fmt.Println()
	return report.WritePeriod(os.Stdout, report.All, report.Compute(res.Trades, report.Window{}), time.Now())
}
