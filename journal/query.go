package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrader/sim"
)

const tradeColumns = `trade_id, symbol, side, quantity, leverage, entry_price, exit_price, margin,
	commission, realized_pl, open_time, close_time, reason`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(row scanner) (sim.Trade, error) {
	var (
		t                                          sim.Trade
		qty, entry, exit, margin, comm, pl, op, cl string
	)
	if err := row.Scan(&t.ID, &t.Symbol, &t.Side, &qty, &t.Leverage, &entry, &exit, &margin,
		&comm, &pl, &op, &cl, &t.CloseReason); err != nil {
		return sim.Trade{}, err
	}

	var err error
	dec := func(s string) decimal.Decimal {
		d, derr := decimal.NewFromString(s)
		if derr != nil && err == nil {
			err = derr
		}
		return d
	}
	ts := func(s string) time.Time {
		v, terr := time.Parse(timeLayout, s)
		if terr != nil && err == nil {
			err = terr
		}
		return v
	}
	t.Quantity = dec(qty)
	t.EntryPrice = dec(entry)
	t.ExitPrice = dec(exit)
	t.Margin = dec(margin)
	t.Commission = dec(comm)
	t.RealizedPL = dec(pl)
	t.OpenedAt = ts(op)
	t.ClosedAt = ts(cl)
	if err != nil {
		return sim.Trade{}, fmt.Errorf("trade %s: %w", t.ID, err)
	}
	return t, nil
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(ctx context.Context, tradeID string) (sim.Trade, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)
	t, err := scanTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return sim.Trade{}, fmt.Errorf("%w: %q", ErrNotFound, tradeID)
	}
	return t, err
}

// ListTradesClosedBetween returns trades whose close time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(ctx context.Context, start, end time.Time) ([]sim.Trade, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, formatTime(start), formatTime(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquityBetween returns snapshots taken within [start, end).
func (j *SQLite) ListEquityBetween(ctx context.Context, start, end time.Time) ([]EquitySnapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT time, symbol, cash, equity, margin_used, unrealized_pl, price, side
		FROM equity
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, formatTime(start), formatTime(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var (
			e                                 EquitySnapshot
			ts, cash, eq, used, upl, px, side string
		)
		if err := rows.Scan(&ts, &e.Symbol, &cash, &eq, &used, &upl, &px, &side); err != nil {
			return nil, err
		}
		if e.Time, err = time.Parse(timeLayout, ts); err != nil {
			return nil, err
		}
		for _, f := range []struct {
			dst *decimal.Decimal
			src string
		}{{&e.Cash, cash}, {&e.Equity, eq}, {&e.MarginUsed, used}, {&e.UnrealizedPL, upl}, {&e.Price, px}} {
			if *f.dst, err = decimal.NewFromString(f.src); err != nil {
				return nil, err
			}
		}
		e.Side = sim.Side(side)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
