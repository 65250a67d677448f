// Package runner drives decision cycles: load the account, fetch candles,
// compute indicators, enforce risk exits, decide, size, apply, save.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rustyeddy/papertrader/indicators"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/logging"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/metrics"
	"github.com/rustyeddy/papertrader/risk"
	"github.com/rustyeddy/papertrader/sim"
	"github.com/rustyeddy/papertrader/store"
	"github.com/rustyeddy/papertrader/strategy"
)

// Options are the per-symbol trading settings.
type Options struct {
	Symbol         string
	InitialBalance decimal.Decimal
	Leverage       int

	// Count is how many candles a cycle fetches.
	Count int

	Strategy            strategy.Config
	VolatilityThreshold float64
	Indicators          indicators.Options
	Params              sim.Params
}

// Runner owns one account. Cycles never overlap.
type Runner struct {
	opts     Options
	provider market.Provider
	store    store.Store
	strategy strategy.Strategy
	engine   *sim.Engine
	journal  journal.Journal
	log      *zap.Logger
	metrics  *metrics.Recorder
	now      func() time.Time
}

type Option func(*Runner)

func WithLogger(l *zap.Logger) Option { return func(r *Runner) { r.log = logging.OrNop(l) } }

func WithJournal(j journal.Journal) Option { return func(r *Runner) { r.journal = j } }

func WithMetrics(m *metrics.Recorder) Option { return func(r *Runner) { r.metrics = m } }

// WithStrategy replaces the voting strategy built from Options.Strategy.
func WithStrategy(s strategy.Strategy) Option { return func(r *Runner) { r.strategy = s } }

// WithClock sets the time source for live cycles.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

func New(opts Options, p market.Provider, st store.Store, options ...Option) *Runner {
	if opts.Count <= 0 {
		opts.Count = 200
	}
	if opts.Leverage < sim.MinLeverage {
		opts.Leverage = sim.MinLeverage
	}
	r := &Runner{
		opts:     opts,
		provider: p,
		store:    st,
		strategy: strategy.Voting{Config: opts.Strategy},
		engine:   sim.NewEngine(opts.Params),
		journal:  journal.Nop{},
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, o := range options {
		o(r)
	}
	if r.journal == nil {
		r.journal = journal.Nop{}
	}
	r.log = r.log.With(zap.String("symbol", opts.Symbol))
	return r
}

func (r *Runner) Options() Options { return r.opts }

// Result describes one completed cycle.
type Result struct {
	Time     time.Time
	Price    decimal.Decimal
	Snapshot indicators.Snapshot
	Decision strategy.Decision

	// Sizing is set when the decision opened a position.
	Sizing *risk.Result

	// Forced is a liquidation or stop-loss exit taken before deciding.
	Forced *sim.Trade
	// Trade is a position closed by the decision itself.
	Trade *sim.Trade

	// Rejected holds a non-fatal order rejection such as
	// sim.ErrInsufficientMargin.
	Rejected error

	State sim.AccountState
}

// Trades lists the trades the cycle closed.
func (res Result) Trades() []sim.Trade {
	var out []sim.Trade
	for _, t := range []*sim.Trade{res.Forced, res.Trade} {
		if t != nil {
			out = append(out, *t)
		}
	}
	return out
}

// Executed reports whether the decision changed the account.
func (res Result) Executed() bool {
	return res.Decision.Action != sim.Hold && res.Rejected == nil
}

func (r *Runner) fresh() sim.AccountState {
	return sim.NewAccount(r.opts.Symbol, r.opts.InitialBalance)
}

// Load returns the persisted account, or a fresh one.
func (r *Runner) Load(ctx context.Context) (sim.AccountState, error) {
	s, created, err := store.LoadOrCreate(ctx, r.store, r.opts.Symbol, r.fresh())
	if err != nil {
		return sim.AccountState{}, err
	}
	if created {
		r.log.Info("new account", zap.String("balance", r.opts.InitialBalance.String()))
	}
	return s, nil
}

// RunOnce runs a single cycle. A data failure skips the cycle and leaves
// the stored account untouched; the error wraps market.ErrDataUnavailable.
func (r *Runner) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()
	res, err := r.cycle(ctx)
	took := time.Since(start)

	switch {
	case errors.Is(err, market.ErrDataUnavailable):
		r.metrics.Cycle(r.opts.Symbol, metrics.ResultSkipped, took)
		r.log.Warn("cycle skipped", zap.Error(err))
	case err != nil:
		r.metrics.Cycle(r.opts.Symbol, metrics.ResultError, took)
		r.log.Error("cycle failed", zap.Error(err))
	default:
		r.metrics.Cycle(r.opts.Symbol, metrics.ResultOK, took)
	}
	return res, err
}

func (r *Runner) cycle(ctx context.Context) (Result, error) {
	state, err := r.Load(ctx)
	if err != nil {
		return Result{}, err
	}

	candles, err := r.provider.Candles(ctx, r.opts.Symbol, r.opts.Count)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", r.opts.Symbol, err)
	}

	res, err := r.step(state, candles, r.now())
	if err != nil {
		return Result{}, err
	}

	if err := r.store.Save(ctx, res.State); err != nil {
		return Result{}, err
	}
	r.record(res)
	return res, nil
}

// step is one cycle over in-memory state. It performs no I/O.
func (r *Runner) step(state sim.AccountState, candles []market.Candle, now time.Time) (Result, error) {
	snap, err := indicators.Compute(candles, r.opts.Indicators)
	if err != nil {
		return Result{}, err
	}
	if snap.Close <= 0 {
		return Result{}, fmt.Errorf("%w: non-positive close %v", market.ErrDataUnavailable, snap.Close)
	}
	price := decimal.NewFromFloat(snap.Close)
	res := Result{Time: now, Price: price, Snapshot: snap}

	state, res.Forced = r.engine.Enforce(state, price, now)
	if res.Forced != nil {
		res.Decision = strategy.Decision{
			Action:  sim.Hold,
			Time:    now,
			Reasons: []string{fmt.Sprintf("forced %s exit, no decision this cycle", res.Forced.CloseReason)},
		}
		res.State = r.engine.Mark(state, price)
		return res, nil
	}

	takeProfit := false
	if a, ok := r.engine.Assess(state, price); ok {
		takeProfit = a.TakeProfit
	}

	d := r.strategy.Decide(strategy.Input{
		Snapshot:   snap,
		Account:    state,
		Now:        now,
		TakeProfit: takeProfit,
	})

	if d.Action != sim.Hold {
		order := sim.Order{Action: d.Action, Price: price, Time: now, Reason: sim.ReasonSignal}
		if d.Closing {
			if d.TakeProfit {
				order.Reason = sim.ReasonTakeProfit
			}
		} else {
			sz := r.size(state, snap, d.Confidence)
			res.Sizing = &sz
			order.Fraction = sz.Fraction
			order.Leverage = r.opts.Leverage
		}

		next, trade, err := r.engine.Apply(state, order)
		switch {
		case errors.Is(err, sim.ErrInsufficientMargin):
			res.Rejected = err
			d.Reasons = append([]string{fmt.Sprintf("%s rejected: %v", d.Action, err)}, d.Reasons...)
		case err != nil:
			return Result{}, err
		default:
			state, res.Trade = next, trade
		}
	}

	res.Decision = d
	res.State = r.engine.Mark(state, price)
	return res, nil
}

func (r *Runner) size(state sim.AccountState, snap indicators.Snapshot, confidence int) risk.Result {
	in := risk.Inputs{
		Balance:             state.Cash,
		RiskTolerance:       r.opts.Strategy.RiskTolerance,
		Leverage:            r.opts.Leverage,
		Confidence:          confidence,
		VolatilityThreshold: r.opts.VolatilityThreshold,
	}
	if snap.BandWidth.Ready {
		in.BandWidth = snap.BandWidth.Value
	}
	return risk.Calculate(in)
}

// record journals, logs and meters a completed cycle. Journal failures are
// logged; the account store is authoritative.
func (r *Runner) record(res Result) {
	d := res.Decision
	fields := []zap.Field{
		zap.String("action", string(d.Action)),
		zap.Int("confidence", d.Confidence),
		zap.Int("bullish", d.Bullish),
		zap.Int("bearish", d.Bearish),
		zap.String("price", res.Price.String()),
		zap.Strings("reasons", d.Reasons),
		zap.String("equity", res.State.Equity.StringFixed(2)),
	}
	if res.Sizing != nil {
		fields = append(fields, zap.Float64("fraction", res.Sizing.Fraction))
	}
	r.log.Info("decision", fields...)
	r.metrics.Decision(r.opts.Symbol, string(d.Action), d.Confidence)

	for _, t := range res.Trades() {
		r.log.Info("trade closed",
			zap.String("trade_id", t.ID),
			zap.String("side", string(t.Side)),
			zap.String("reason", string(t.CloseReason)),
			zap.String("entry", t.EntryPrice.String()),
			zap.String("exit", t.ExitPrice.String()),
			zap.String("realized_pl", t.RealizedPL.StringFixed(2)),
		)
		r.metrics.TradeClosed(r.opts.Symbol, string(t.CloseReason), t.Commission.InexactFloat64())
		if err := r.journal.RecordTrade(t); err != nil {
			r.log.Warn("journal trade", zap.Error(err))
		}
	}

	r.recordEquity(res.State, res.Price, res.Time)
}

func (r *Runner) recordEquity(s sim.AccountState, price decimal.Decimal, now time.Time) {
	snap := journal.EquitySnapshot{
		Time:         now,
		Symbol:       s.Symbol,
		Cash:         s.Cash,
		Equity:       s.Equity,
		MarginUsed:   s.MarginUsed(),
		UnrealizedPL: decimal.Zero,
		Price:        price,
	}
	if p := s.Position; p != nil {
		snap.Side = p.Side
		snap.UnrealizedPL = sim.UnrealizedPL(*p, price)
	}
	if err := r.journal.RecordEquity(snap); err != nil {
		r.log.Warn("journal equity", zap.Error(err))
	}
	r.metrics.Account(s.Symbol, s.Cash.InexactFloat64(), s.Equity.InexactFloat64(), s.HasPosition())
}
