package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/rustyeddy/papertrader/sim"
)

// SQLiteStore keeps snapshots in two tables and saves each one in a single
// transaction.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, persistErr("open", path, err)
	}
	if _, err := db.Exec(Schema); err != nil {
		return nil, multierr.Append(persistErr("schema", path, err), db.Close())
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, symbol string) (sim.AccountState, error) {
	var (
		st                                  sim.AccountState
		initial, cash, equity, comm, lastAt string
		position                            sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT symbol, initial_balance, cash, equity, commissions, last_decision_at, position
		FROM accounts WHERE symbol = ?`, symbol,
	).Scan(&st.Symbol, &initial, &cash, &equity, &comm, &lastAt, &position)
	if errors.Is(err, sql.ErrNoRows) {
		return sim.AccountState{}, ErrNotFound
	}
	if err != nil {
		return sim.AccountState{}, persistErr("load", symbol, err)
	}

	var perr error
	st.InitialBalance = parseDecimal(initial, &perr)
	st.Cash = parseDecimal(cash, &perr)
	st.Equity = parseDecimal(equity, &perr)
	st.Commissions = parseDecimal(comm, &perr)
	st.LastDecisionAt = parseTime(lastAt, &perr)
	if position.Valid && position.String != "" {
		var p sim.Position
		perr = multierr.Append(perr, json.Unmarshal([]byte(position.String), &p))
		st.Position = &p
	}
	if perr != nil {
		return sim.AccountState{}, persistErr("decode", symbol, perr)
	}

	st.History, err = s.loadTrades(ctx, symbol)
	if err != nil {
		return sim.AccountState{}, err
	}
	return st, nil
}

func (s *SQLiteStore) loadTrades(ctx context.Context, symbol string) ([]sim.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trade_id, side, entry_price, exit_price, quantity, leverage, margin,
		       commission, realized_pl, opened_at, closed_at, close_reason
		FROM account_trades WHERE symbol = ? ORDER BY seq`, symbol)
	if err != nil {
		return nil, persistErr("load trades", symbol, err)
	}
	defer rows.Close()

	out := []sim.Trade{}
	for rows.Next() {
		var (
			t                                                  sim.Trade
			entry, exit, qty, margin, comm, pl, opened, closed string
		)
		if err := rows.Scan(&t.ID, &t.Side, &entry, &exit, &qty, &t.Leverage, &margin,
			&comm, &pl, &opened, &closed, &t.CloseReason); err != nil {
			return nil, persistErr("load trades", symbol, err)
		}
		var perr error
		t.Symbol = symbol
		t.EntryPrice = parseDecimal(entry, &perr)
		t.ExitPrice = parseDecimal(exit, &perr)
		t.Quantity = parseDecimal(qty, &perr)
		t.Margin = parseDecimal(margin, &perr)
		t.Commission = parseDecimal(comm, &perr)
		t.RealizedPL = parseDecimal(pl, &perr)
		t.OpenedAt = parseTime(opened, &perr)
		t.ClosedAt = parseTime(closed, &perr)
		if perr != nil {
			return nil, persistErr("decode trade", symbol, perr)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("load trades", symbol, err)
	}
	return out, nil
}

// Save replaces the snapshot and its history atomically.
func (s *SQLiteStore) Save(ctx context.Context, st sim.AccountState) (err error) {
	var position any
	if st.Position != nil {
		b, err := json.Marshal(st.Position)
		if err != nil {
			return persistErr("encode", st.Symbol, err)
		}
		position = string(b)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("begin", st.Symbol, err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (symbol, initial_balance, cash, equity, commissions, last_decision_at, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			initial_balance = excluded.initial_balance,
			cash = excluded.cash,
			equity = excluded.equity,
			commissions = excluded.commissions,
			last_decision_at = excluded.last_decision_at,
			position = excluded.position`,
		st.Symbol, st.InitialBalance.String(), st.Cash.String(), st.Equity.String(),
		st.Commissions.String(), formatTime(st.LastDecisionAt), position,
	); err != nil {
		return persistErr("save", st.Symbol, err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM account_trades WHERE symbol = ?`, st.Symbol); err != nil {
		return persistErr("save trades", st.Symbol, err)
	}
	for i, t := range st.History {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO account_trades
			(symbol, seq, trade_id, side, entry_price, exit_price, quantity, leverage, margin,
			 commission, realized_pl, opened_at, closed_at, close_reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			st.Symbol, i, t.ID, string(t.Side), t.EntryPrice.String(), t.ExitPrice.String(),
			t.Quantity.String(), t.Leverage, t.Margin.String(), t.Commission.String(),
			t.RealizedPL.String(), formatTime(t.OpenedAt), formatTime(t.ClosedAt), string(t.CloseReason),
		); err != nil {
			return persistErr("save trades", st.Symbol, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return persistErr("commit", st.Symbol, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, symbol string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("begin", symbol, err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM account_trades WHERE symbol = ?`, symbol); err != nil {
		return persistErr("delete", symbol, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM accounts WHERE symbol = ?`, symbol); err != nil {
		return persistErr("delete", symbol, err)
	}
	if err = tx.Commit(); err != nil {
		return persistErr("commit", symbol, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string, errp *error) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		*errp = multierr.Append(*errp, fmt.Errorf("time %q: %w", v, err))
	}
	return t
}

func parseDecimal(v string, errp *error) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		*errp = multierr.Append(*errp, fmt.Errorf("decimal %q: %w", v, err))
	}
	return d
}
