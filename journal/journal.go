// Package journal records closed trades and equity snapshots for later
// review. It is append-only; the account store remains the source of truth.
package journal

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/rustyeddy/papertrader/sim"
)

var ErrNotFound = errors.New("trade not found")

// EquitySnapshot is the account value after a cycle.
type EquitySnapshot struct {
	Time         time.Time
	Symbol       string
	Cash         decimal.Decimal
	Equity       decimal.Decimal
	MarginUsed   decimal.Decimal
	UnrealizedPL decimal.Decimal
	Price        decimal.Decimal

	// Side of the open position, empty when flat.
	Side sim.Side
}

type Journal interface {
	RecordTrade(sim.Trade) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTrade(sim.Trade) error       { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) Close() error                      { return nil }

// Multi fans records out to several journals and reports every failure.
type Multi []Journal

func (m Multi) RecordTrade(t sim.Trade) error {
	var err error
	for _, j := range m {
		err = multierr.Append(err, j.RecordTrade(t))
	}
	return err
}

func (m Multi) RecordEquity(e EquitySnapshot) error {
	var err error
	for _, j := range m {
		err = multierr.Append(err, j.RecordEquity(e))
	}
	return err
}

func (m Multi) Close() error {
	var err error
	for _, j := range m {
		err = multierr.Append(err, j.Close())
	}
	return err
}
