package store

// Decimals and times are TEXT so snapshots round-trip exactly.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	symbol TEXT PRIMARY KEY,
	initial_balance TEXT NOT NULL,
	cash TEXT NOT NULL,
	equity TEXT NOT NULL,
	commissions TEXT NOT NULL,
	last_decision_at TEXT NOT NULL,
	position TEXT
);

CREATE TABLE IF NOT EXISTS account_trades (
	symbol TEXT NOT NULL,
	seq INTEGER NOT NULL,
	trade_id TEXT NOT NULL,
	side TEXT NOT NULL,
	entry_price TEXT NOT NULL,
	exit_price TEXT NOT NULL,
	quantity TEXT NOT NULL,
	leverage INTEGER NOT NULL,
	margin TEXT NOT NULL,
	commission TEXT NOT NULL,
	realized_pl TEXT NOT NULL,
	opened_at TEXT NOT NULL,
	closed_at TEXT NOT NULL,
	close_reason TEXT NOT NULL,
	PRIMARY KEY (symbol, seq)
);
`
