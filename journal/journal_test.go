package journal

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/sim"
)

var (
	openT  = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	closeT = time.Date(2024, 1, 2, 4, 5, 6, 0, time.UTC)
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleTrade(id string, closed time.Time, pl string) sim.Trade {
	return sim.Trade{
		ID: id, Symbol: "EUR_USD", Side: sim.Long,
		EntryPrice: d("100"), ExitPrice: d("105"), Quantity: d("100"),
		Leverage: 1, Margin: d("10000"), Commission: d("10.5"), RealizedPL: d(pl),
		OpenedAt: openT, ClosedAt: closed, CloseReason: sim.ReasonSignal,
	}
}

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('trades','equity')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["equity"])
}

func TestSQLiteGetTrade(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j, _ := newTestSQLite(t)

	want := sampleTrade("T1", closeT, "489.5")
	require.NoError(t, j.RecordTrade(want))
	// recording twice is harmless
	require.NoError(t, j.RecordTrade(want))

	got, err := j.GetTrade(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Side, got.Side)
	assert.Equal(t, want.CloseReason, got.CloseReason)
	assert.True(t, want.RealizedPL.Equal(got.RealizedPL))
	assert.True(t, want.Quantity.Equal(got.Quantity))
	assert.True(t, want.ClosedAt.Equal(got.ClosedAt))

	_, err = j.GetTrade(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteListTradesClosedBetween(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j, _ := newTestSQLite(t)

	require.NoError(t, j.RecordTrade(sampleTrade("early", closeT.Add(-time.Hour), "1")))
	require.NoError(t, j.RecordTrade(sampleTrade("in", closeT, "2")))
	require.NoError(t, j.RecordTrade(sampleTrade("in-frac", closeT.Add(500*time.Millisecond), "3")))
	require.NoError(t, j.RecordTrade(sampleTrade("edge", closeT.Add(time.Hour), "4")))

	got, err := j.ListTradesClosedBetween(ctx, closeT, closeT.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "in", got[0].ID)
	assert.Equal(t, "in-frac", got[1].ID)
}

func TestSQLiteEquity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j, _ := newTestSQLite(t)

	snap := EquitySnapshot{
		Time: closeT, Symbol: "EUR_USD",
		Cash: d("9000"), Equity: d("10050"), MarginUsed: d("1000"),
		UnrealizedPL: d("50"), Price: d("1.0855"), Side: sim.Long,
	}
	require.NoError(t, j.RecordEquity(snap))
	require.NoError(t, j.RecordEquity(EquitySnapshot{Time: closeT.Add(2 * time.Hour), Symbol: "EUR_USD"}))

	got, err := j.ListEquityBetween(ctx, openT, closeT.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Time.Equal(closeT))
	assert.True(t, got[0].Equity.Equal(snap.Equity))
	assert.True(t, got[0].Price.Equal(snap.Price))
	assert.Equal(t, sim.Long, got[0].Side)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)
	require.NoError(t, j.RecordTrade(sampleTrade("T1", closeT, "489.5")))
	require.NoError(t, j.RecordEquity(EquitySnapshot{Time: closeT, Symbol: "EUR_USD", Cash: d("10489.5"), Equity: d("10489.5")}))
	require.NoError(t, j.Close())

	// reopening appends without a second header
	j, err = NewCSV(tradesPath, equityPath)
	require.NoError(t, err)
	require.NoError(t, j.RecordTrade(sampleTrade("T2", closeT, "-3")))
	require.NoError(t, j.Close())

	trades := readCSV(t, tradesPath)
	require.Len(t, trades, 3)
	assert.Equal(t, TradeHeader, trades[0])
	assert.Equal(t, "T1", trades[1][0])
	assert.Equal(t, "489.50", trades[1][9])
	assert.Equal(t, "SIGNAL", trades[1][12])
	assert.Equal(t, "T2", trades[2][0])

	equity := readCSV(t, equityPath)
	require.Len(t, equity, 2)
	assert.Equal(t, EquityHeader, equity[0])
	assert.Equal(t, "10489.50", equity[1][2])
}

func TestWriteTradesCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, []sim.Trade{sampleTrade("T1", closeT, "1")}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-02T04:05:06Z", rows[1][11])
}

type failing struct{ Nop }

func (failing) RecordTrade(sim.Trade) error { return errors.New("disk full") }

func TestMultiCollectsErrors(t *testing.T) {
	t.Parallel()

	m := Multi{Nop{}, failing{}, failing{}}
	err := m.RecordTrade(sampleTrade("T1", closeT, "1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, m.RecordEquity(EquitySnapshot{}))
	assert.NoError(t, m.Close())
}

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	tr := sampleTrade("01HNZ8ABCDEFGHJKMNPQRSTVWX", closeT, "489.5")
	tr.Leverage = 10
	result := FormatTradeOrg(tr)

	assert.Contains(t, result, "** Trade: EUR_USD LONG (01HNZ8AB)")
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":TRADE_ID: 01HNZ8ABCDEFGHJKMNPQRSTVWX")
	assert.Contains(t, result, ":LEVERAGE: 10x")
	assert.Contains(t, result, ":ENTRY_PRICE: 100.00000")
	assert.Contains(t, result, ":OPEN_TIME: 2024-01-02T03:04:05Z")
	assert.Contains(t, result, ":REALIZED_PL: 489.50")
	assert.Contains(t, result, ":REASON: SIGNAL")
	assert.Contains(t, result, ":END:")
	assert.Contains(t, result, "*** Thesis")
	assert.Contains(t, result, "*** Review")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FormatTradesOrg(nil))

	out := FormatTradesOrg([]sim.Trade{sampleTrade("a", closeT, "1"), sampleTrade("b", closeT, "-1")})
	assert.Contains(t, out, "(a)")
	assert.Contains(t, out, "(b)")
	assert.Contains(t, out, ":REALIZED_PL: -1.00")
}
