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

// ReplayOptions controls how a replay behaves.
type ReplayOptions struct {
	// Window is the history each cycle sees; it defaults to Options.Count.
	Window int

	// If true, close any open position at the last close.
	CloseEnd bool

	// Save writes the final account to the store.
	Save bool
}

type ReplayResult struct {
	Cycles  int
	Skipped int
	Final   sim.AccountState
	Trades  []sim.Trade
}

// Replay runs one cycle per candle, oldest first, using each candle's time
// as the clock. It starts from a fresh account.
func (r *Runner) Replay(ctx context.Context, candles []market.Candle, opts ReplayOptions) (ReplayResult, error) {
	if len(candles) == 0 {
		return ReplayResult{}, fmt.Errorf("%w: empty replay", market.ErrDataUnavailable)
	}
	window := opts.Window
	if window <= 0 {
		window = r.opts.Count
	}

	series := make([]market.Candle, len(candles))
	copy(series, candles)
	market.SortCandles(series)

	state := r.fresh()
	var out ReplayResult
	for i := 1; i <= len(series); i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		hist := series[max(0, i-window):i]
		now := hist[len(hist)-1].Time

		res, err := r.step(state, hist, now)
		if errors.Is(err, market.ErrDataUnavailable) {
			out.Skipped++
			continue
		}
		if err != nil {
			return out, fmt.Errorf("replay at %s: %w", now, err)
		}
		out.Cycles++
		state = res.State
		r.record(res)
	}

	if opts.CloseEnd && state.HasPosition() {
		last := series[len(series)-1]
		next, t, err := r.engine.Close(state, decimal.NewFromFloat(last.Close), last.Time, sim.ReasonManualReset)
		if err == nil {
			state = next
			if jerr := r.journal.RecordTrade(*t); jerr != nil {
				r.log.Warn("journal trade", zap.Error(jerr))
			}
		}
	}

	if opts.Save {
		if err := r.store.Save(ctx, state); err != nil {
			return out, err
		}
	}

	out.Final = state
	out.Trades = state.Trades()
	return out, nil
}
