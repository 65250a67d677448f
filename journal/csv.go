package journal

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"go.uber.org/multierr"

	"github.com/rustyeddy/papertrader/sim"
)

var (
	TradeHeader  = []string{"trade_id", "symbol", "side", "quantity", "leverage", "entry_price", "exit_price", "margin", "commission", "realized_pl", "open_time", "close_time", "reason"}
	EquityHeader = []string{"time", "symbol", "cash", "equity", "margin_used", "unrealized_pl", "price", "side"}
)

// CSV appends to a trades file and an equity file. Headers are written
// only when a file is new, so repeated single-cycle runs share one log.
type CSV struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSV, error) {
	tf, tw, err := openCSV(tradesPath, TradeHeader)
	if err != nil {
		return nil, err
	}
	ef, ew, err := openCSV(equityPath, EquityHeader)
	if err != nil {
		return nil, multierr.Append(err, tf.Close())
	}
	return &CSV{trades: tw, equity: ew, tf: tf, ef: ef}, nil
}

func openCSV(path string, header []string) (*os.File, *csv.Writer, error) {
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	st, err := fh.Stat()
	if err != nil {
		return nil, nil, multierr.Append(err, fh.Close())
	}
	w := csv.NewWriter(fh)
	if st.Size() == 0 {
		if err := w.Write(header); err != nil {
			return nil, nil, multierr.Append(err, fh.Close())
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, nil, multierr.Append(err, fh.Close())
		}
	}
	return fh, w, nil
}

func (j *CSV) RecordTrade(t sim.Trade) error {
	if err := j.trades.Write(TradeRow(t)); err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSV) RecordEquity(e EquitySnapshot) error {
	err := j.equity.Write([]string{
		e.Time.UTC().Format(time.RFC3339),
		e.Symbol,
		e.Cash.StringFixed(2),
		e.Equity.StringFixed(2),
		e.MarginUsed.StringFixed(2),
		e.UnrealizedPL.StringFixed(2),
		e.Price.String(),
		string(e.Side),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSV) Close() error {
	j.trades.Flush()
	j.equity.Flush()
	return multierr.Combine(
		j.trades.Error(),
		j.equity.Error(),
		j.tf.Close(),
		j.ef.Close(),
	)
}

// TradeRow is the CSV rendering of one trade.
func TradeRow(t sim.Trade) []string {
	return []string{
		t.ID,
		t.Symbol,
		string(t.Side),
		t.Quantity.StringFixed(6),
		strconv.Itoa(t.Leverage),
		t.EntryPrice.String(),
		t.ExitPrice.String(),
		t.Margin.StringFixed(2),
		t.Commission.StringFixed(2),
		t.RealizedPL.StringFixed(2),
		t.OpenedAt.UTC().Format(time.RFC3339),
		t.ClosedAt.UTC().Format(time.RFC3339),
		string(t.CloseReason),
	}
}

// WriteTradesCSV exports trades with a header row.
func WriteTradesCSV(w io.Writer, trades []sim.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TradeHeader); err != nil {
		return err
	}
	for _, t := range trades {
		if err := cw.Write(TradeRow(t)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
