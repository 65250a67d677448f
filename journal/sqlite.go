package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/papertrader/sim"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// RecordTrade is idempotent on the trade id.
func (j *SQLite) RecordTrade(t sim.Trade) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO trades
		(trade_id, symbol, side, quantity, leverage, entry_price, exit_price, margin,
		 commission, realized_pl, open_time, close_time, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Symbol, string(t.Side), t.Quantity.String(), t.Leverage,
		t.EntryPrice.String(), t.ExitPrice.String(), t.Margin.String(),
		t.Commission.String(), t.RealizedPL.String(),
		formatTime(t.OpenedAt), formatTime(t.ClosedAt), string(t.CloseReason),
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, symbol, cash, equity, margin_used, unrealized_pl, price, side)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(e.Time), e.Symbol, e.Cash.String(), e.Equity.String(),
		e.MarginUsed.String(), e.UnrealizedPL.String(), e.Price.String(), string(e.Side),
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
