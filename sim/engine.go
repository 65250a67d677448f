package sim

import (
	"fmt"
	"time"

	"github.com/rustyeddy/papertrader/pkg/id"
	"github.com/shopspring/decimal"
)

// Params are the account rules. Percentages are of committed margin.
type Params struct {
	CommissionRate      decimal.Decimal
	MaintenanceFraction decimal.Decimal
	StopLossPct         decimal.Decimal
	TakeProfitPct       decimal.Decimal
	AllowShort          bool
}

func DefaultParams() Params {
	return Params{
		CommissionRate:      decimal.RequireFromString("0.001"),
		MaintenanceFraction: decimal.RequireFromString("0.9"),
		StopLossPct:         decimal.NewFromInt(5),
		TakeProfitPct:       decimal.NewFromInt(10),
	}
}

// Order is an executable decision.
type Order struct {
	Action Action
	Price  decimal.Decimal
	Time   time.Time

	// Used when opening.
	Fraction float64
	Leverage int

	// Used when closing; defaults to SIGNAL.
	Reason CloseReason
}

// Engine applies orders and risk rules to account states. It holds no
// account state of its own and is safe for concurrent use.
type Engine struct {
	params Params
	newID  func() string
}

func NewEngine(p Params) *Engine {
	return &Engine{params: p, newID: id.New}
}

func (e *Engine) Params() Params { return e.params }

// Assessment describes the open position at a given price.
type Assessment struct {
	UnrealizedPL     decimal.Decimal
	PLPercent        decimal.Decimal
	LiquidationPrice decimal.Decimal
	Liquidate        bool
	StopLoss         bool
	TakeProfit       bool
}

// Assess evaluates the risk triggers without changing anything. ok is false
// when no position is open.
func (e *Engine) Assess(s AccountState, price decimal.Decimal) (a Assessment, ok bool) {
	if s.Position == nil {
		return Assessment{}, false
	}
	p := *s.Position
	return Assessment{
		UnrealizedPL:     UnrealizedPL(p, price),
		PLPercent:        PLPercent(p, price),
		LiquidationPrice: LiquidationPrice(p.Side, p.EntryPrice, p.Leverage, e.params.MaintenanceFraction),
		Liquidate:        hitLiquidation(p, price, e.params.MaintenanceFraction),
		StopLoss:         hitStopLoss(p, price, e.params.StopLossPct),
		TakeProfit:       hitTakeProfit(p, price, e.params.TakeProfitPct),
	}, true
}

// Enforce runs the forced exits, liquidation first and then stop-loss. It
// returns the closed trade, or nil when the position survives or none is
// open. Forced exits ignore cooldown and update LastDecisionAt.
func (e *Engine) Enforce(s AccountState, price decimal.Decimal, now time.Time) (AccountState, *Trade) {
	a, ok := e.Assess(s, price)
	if !ok {
		return s, nil
	}
	switch {
	case a.Liquidate:
		next, t := e.liquidate(s, price, now)
		return e.Mark(next, price), t
	case a.StopLoss:
		next, t := e.close(s, price, now, ReasonStopLoss)
		return e.Mark(next, price), t
	}
	return s, nil
}

// Apply executes an order. HOLD is a no-op. A rejected order (for example
// ErrInsufficientMargin) returns s unchanged together with the error.
func (e *Engine) Apply(s AccountState, o Order) (AccountState, *Trade, error) {
	if o.Action == Hold {
		return s, nil, nil
	}
	if !o.Price.IsPositive() {
		return s, nil, fmt.Errorf("%w: price %s", ErrInvalidOrder, o.Price)
	}

	var (
		next  AccountState
		trade *Trade
		err   error
	)
	switch o.Action {
	case Buy:
		next, trade, err = e.applySide(s, o, Long)
	case Sell:
		next, trade, err = e.applySide(s, o, Short)
	default:
		return s, nil, fmt.Errorf("%w: unknown action %q", ErrInvalidOrder, o.Action)
	}
	if err != nil {
		return s, nil, err
	}
	next.LastDecisionAt = o.Time.UTC()
	return e.Mark(next, o.Price), trade, nil
}

// applySide opens toward side, or closes an open position on the other side.
func (e *Engine) applySide(s AccountState, o Order, side Side) (AccountState, *Trade, error) {
	if p := s.Position; p != nil {
		if p.Side == side {
			return s, nil, fmt.Errorf("%w: %s %s", ErrPositionOpen, p.Side, p.Symbol)
		}
		reason := o.Reason
		if reason == "" {
			reason = ReasonSignal
		}
		next, t := e.close(s, o.Price, o.Time, reason)
		return next, t, nil
	}
	if side == Short && !e.params.AllowShort {
		return s, nil, fmt.Errorf("%w: short selling disabled", ErrNoPosition)
	}
	next, err := e.open(s, o, side)
	return next, nil, err
}

func (e *Engine) open(s AccountState, o Order, side Side) (AccountState, error) {
	if o.Leverage < MinLeverage || o.Leverage > MaxLeverage {
		return s, fmt.Errorf("%w: leverage %d outside %d..%d", ErrInvalidOrder, o.Leverage, MinLeverage, MaxLeverage)
	}
	if o.Fraction <= 0 || o.Fraction > 1 {
		return s, fmt.Errorf("%w: fraction %v outside (0, 1]", ErrInvalidOrder, o.Fraction)
	}

	lev := decimal.NewFromInt(int64(o.Leverage))
	margin := s.Cash.Mul(decimal.NewFromFloat(o.Fraction))
	if !margin.IsPositive() {
		return s, fmt.Errorf("%w: no cash available", ErrInsufficientMargin)
	}
	qty := margin.Mul(lev).Div(o.Price)
	fee := Commission(qty, o.Price, e.params.CommissionRate)
	if margin.Add(fee).GreaterThan(s.Cash) {
		return s, fmt.Errorf("%w: need %s (margin %s + commission %s), have %s",
			ErrInsufficientMargin, margin.Add(fee).StringFixed(2), margin.StringFixed(2),
			fee.StringFixed(2), s.Cash.StringFixed(2))
	}

	next := s.clone()
	next.Cash = s.Cash.Sub(margin).Sub(fee)
	next.Commissions = s.Commissions.Add(fee)
	next.Position = &Position{
		ID:              e.newID(),
		Symbol:          s.Symbol,
		Side:            side,
		EntryPrice:      o.Price,
		Quantity:        qty,
		Leverage:        o.Leverage,
		Margin:          margin,
		EntryCommission: fee,
		OpenedAt:        o.Time.UTC(),
	}
	return next, nil
}

// close settles the position at price: margin plus gross P&L minus the exit
// commission goes back to cash.
func (e *Engine) close(s AccountState, price decimal.Decimal, now time.Time, reason CloseReason) (AccountState, *Trade) {
	p := *s.Position
	gross := UnrealizedPL(p, price)
	fee := Commission(p.Quantity, price, e.params.CommissionRate)

	back := p.Margin.Add(gross).Sub(fee)
	if back.IsNegative() {
		// a gap through the liquidation price cannot lose more than the margin
		back = decimal.Zero
	}

	next := s.clone()
	next.Cash = s.Cash.Add(back)
	next.Commissions = s.Commissions.Add(fee)
	t := e.settle(&next, p, price, now, reason, p.EntryCommission.Add(fee), gross.Sub(p.EntryCommission).Sub(fee))
	return next, t
}

// liquidate forfeits the whole margin; no exit commission is charged.
func (e *Engine) liquidate(s AccountState, price decimal.Decimal, now time.Time) (AccountState, *Trade) {
	p := *s.Position
	next := s.clone()
	t := e.settle(&next, p, price, now, ReasonLiquidation, p.EntryCommission, p.Margin.Neg())
	return next, t
}

func (e *Engine) settle(next *AccountState, p Position, price decimal.Decimal, now time.Time,
	reason CloseReason, commission, realized decimal.Decimal) *Trade {
	t := Trade{
		ID:          p.ID,
		Symbol:      p.Symbol,
		Side:        p.Side,
		EntryPrice:  p.EntryPrice,
		ExitPrice:   price,
		Quantity:    p.Quantity,
		Leverage:    p.Leverage,
		Margin:      p.Margin,
		Commission:  commission,
		RealizedPL:  realized,
		OpenedAt:    p.OpenedAt,
		ClosedAt:    now.UTC(),
		CloseReason: reason,
	}
	next.Position = nil
	next.History = append(next.History, t)
	if reason != ReasonSignal && reason != ReasonTakeProfit {
		next.LastDecisionAt = now.UTC()
	}
	return &t
}

// Close force-closes the open position at price with reason, for manual
// closes from the command line.
func (e *Engine) Close(s AccountState, price decimal.Decimal, now time.Time, reason CloseReason) (AccountState, *Trade, error) {
	if s.Position == nil {
		return s, nil, ErrNoPosition
	}
	if !price.IsPositive() {
		return s, nil, fmt.Errorf("%w: price %s", ErrInvalidOrder, price)
	}
	next, t := e.close(s, price, now, reason)
	return e.Mark(next, price), t, nil
}

// Reset closes any open position with MANUAL_RESET and then returns a fresh
// account funded with the initial balance. The closing trade is returned so
// it can be journaled; it is not kept in the new history. A non-positive
// price closes at the entry price.
func (e *Engine) Reset(s AccountState, price decimal.Decimal, now time.Time) (AccountState, *Trade) {
	var t *Trade
	if s.Position != nil {
		if !price.IsPositive() {
			price = s.Position.EntryPrice
		}
		_, t = e.close(s, price, now, ReasonManualReset)
	}
	return NewAccount(s.Symbol, s.InitialBalance), t
}

// Mark recomputes equity at price.
func (e *Engine) Mark(s AccountState, price decimal.Decimal) AccountState {
	s.Equity = s.Cash
	if s.Position != nil {
		s.Equity = s.Cash.Add(s.Position.Margin).Add(UnrealizedPL(*s.Position, price))
	}
	return s
}
