package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query trade journal data",
	Long: `Query and display trade journal records from a SQLite journal.

Subcommands:
  trade   - Get details of a specific trade by ID
  today   - List trades closed today
  day     - List trades closed on a specific day
  equity  - List equity snapshots taken on a specific day

Examples:
  papertrader journal trade <trade-id>
  papertrader journal today
  papertrader journal day 2024-01-15`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List trades closed today",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalEquityCmd = &cobra.Command{
	Use:   "equity <YYYY-MM-DD>",
	Short: "List equity snapshots taken on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalEquity,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalEquityCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./papertrader.sqlite", "path to SQLite journal DB")
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetTrade(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Println(journal.FormatTradeOrg(rec))
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	return listTradesOn(cmd, time.Now().In(time.Local).Format("2006-01-02"))
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	return listTradesOn(cmd, args[0])
}

func listTradesOn(cmd *cobra.Command, day string) error {
	start, end, err := dayBounds(time.Local, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListTradesClosedBetween(cmd.Context(), start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Println(journal.FormatTradesOrg(recs))
	return nil
}

func runJournalEquity(cmd *cobra.Command, args []string) error {
	start, end, err := dayBounds(time.Local, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	snaps, err := j.ListEquityBetween(cmd.Context(), start, end)
	if err != nil {
		return fmt.Errorf("query equity: %w", err)
	}
	if len(snaps) == 0 {
		fmt.Println("No equity snapshots")
		return nil
	}
	for _, s := range snaps {
		fmt.Printf("%s  %-10s price %-12s cash %-12s equity %-12s upl %s\n",
			s.Time.In(time.Local).Format("15:04:05"), s.Symbol, s.Price.String(),
			s.Cash.StringFixed(2), s.Equity.StringFixed(2), s.UnrealizedPL.StringFixed(2))
	}
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}
