package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/sim"
)

// latestPrice returns the most recent close, or zero when data is
// unavailable.
func (r *Runner) latestPrice(ctx context.Context) (decimal.Decimal, error) {
	candles, err := r.provider.Candles(ctx, r.opts.Symbol, 1)
	if err != nil {
		return decimal.Zero, err
	}
	last, ok := market.Last(candles)
	if !ok || last.Close <= 0 {
		return decimal.Zero, fmt.Errorf("%w: no price for %s", market.ErrDataUnavailable, r.opts.Symbol)
	}
	return decimal.NewFromFloat(last.Close), nil
}

// Reset closes any open position at the latest price (at entry when no
// price is available) and replaces the account with a fresh one.
func (r *Runner) Reset(ctx context.Context) (sim.AccountState, *sim.Trade, error) {
	state, err := r.Load(ctx)
	if err != nil {
		return sim.AccountState{}, nil, err
	}

	price := decimal.Zero
	if state.HasPosition() {
		if price, err = r.latestPrice(ctx); err != nil {
			r.log.Warn("reset without price, closing at entry", zap.Error(err))
		}
	}

	now := r.now()
	next, t := r.engine.Reset(state, price, now)
	if err := r.store.Save(ctx, next); err != nil {
		return sim.AccountState{}, nil, err
	}

	if t != nil {
		if err := r.journal.RecordTrade(*t); err != nil {
			r.log.Warn("journal trade", zap.Error(err))
		}
	}
	r.recordEquity(next, price, now)
	r.log.Info("account reset", zap.String("balance", next.Cash.String()))
	return next, t, nil
}

// Close closes the open position at the latest price.
func (r *Runner) Close(ctx context.Context) (sim.AccountState, *sim.Trade, error) {
	state, err := r.Load(ctx)
	if err != nil {
		return sim.AccountState{}, nil, err
	}
	if !state.HasPosition() {
		return state, nil, sim.ErrNoPosition
	}
	price, err := r.latestPrice(ctx)
	if err != nil {
		return state, nil, err
	}

	now := r.now()
	next, t, err := r.engine.Close(state, price, now, sim.ReasonManualReset)
	if err != nil {
		return state, nil, err
	}
	if err := r.store.Save(ctx, next); err != nil {
		return state, nil, err
	}
	if err := r.journal.RecordTrade(*t); err != nil {
		r.log.Warn("journal trade", zap.Error(err))
	}
	r.recordEquity(next, price, now)
	return next, t, nil
}

// Status loads the account and marks it at the latest price when one is
// available. Nothing is saved.
func (r *Runner) Status(ctx context.Context) (sim.AccountState, error) {
	state, err := r.Load(ctx)
	if err != nil {
		return sim.AccountState{}, err
	}
	if !state.HasPosition() {
		return state, nil
	}
	price, err := r.latestPrice(ctx)
	if errors.Is(err, market.ErrDataUnavailable) {
		return state, nil
	}
	if err != nil {
		return state, err
	}
	return r.engine.Mark(state, price), nil
}
