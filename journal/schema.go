package journal

// Times are fixed-width UTC text so range queries compare correctly;
// money is decimal text.
const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity TEXT NOT NULL,
	leverage INTEGER NOT NULL,
	entry_price TEXT NOT NULL,
	exit_price TEXT NOT NULL,
	margin TEXT NOT NULL,
	commission TEXT NOT NULL,
	realized_pl TEXT NOT NULL,
	open_time TEXT NOT NULL,
	close_time TEXT NOT NULL,
	reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time);

CREATE TABLE IF NOT EXISTS equity (
	time TEXT NOT NULL,
	symbol TEXT NOT NULL,
	cash TEXT NOT NULL,
	equity TEXT NOT NULL,
	margin_used TEXT NOT NULL,
	unrealized_pl TEXT NOT NULL,
	price TEXT NOT NULL,
	side TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
