// Package sim keeps the paper account: cash, committed margin, at most one
// open position and an append-only trade history. Operations are pure: each
// takes the current AccountState and returns the next one plus any trade
// that closed.
package sim

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientMargin = errors.New("insufficient margin")
	ErrNoPosition         = errors.New("no open position")
	ErrPositionOpen       = errors.New("position already open")
	ErrInvalidOrder       = errors.New("invalid order")
)

type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// Sign is +1 for LONG and -1 for SHORT.
func (s Side) Sign() decimal.Decimal {
	if s == Short {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
	Hold Action = "HOLD"
)

type CloseReason string

const (
	ReasonSignal      CloseReason = "SIGNAL"
	ReasonStopLoss    CloseReason = "STOP_LOSS"
	ReasonTakeProfit  CloseReason = "TAKE_PROFIT"
	ReasonLiquidation CloseReason = "LIQUIDATION"
	ReasonManualReset CloseReason = "MANUAL_RESET"
)

// Position is an open leveraged position. Margin x Leverage equals
// EntryPrice x Quantity up to division rounding.
type Position struct {
	ID              string          `json:"id"`
	Symbol          string          `json:"symbol"`
	Side            Side            `json:"side"`
	EntryPrice      decimal.Decimal `json:"entry_price"`
	Quantity        decimal.Decimal `json:"quantity"`
	Leverage        int             `json:"leverage"`
	Margin          decimal.Decimal `json:"margin"`
	EntryCommission decimal.Decimal `json:"entry_commission"`
	OpenedAt        time.Time       `json:"opened_at"`
}

// Trade is a closed position. It is never modified once recorded.
type Trade struct {
	ID          string          `json:"id"`
	Symbol      string          `json:"symbol"`
	Side        Side            `json:"side"`
	EntryPrice  decimal.Decimal `json:"entry_price"`
	ExitPrice   decimal.Decimal `json:"exit_price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Leverage    int             `json:"leverage"`
	Margin      decimal.Decimal `json:"margin"`
	Commission  decimal.Decimal `json:"commission"`
	RealizedPL  decimal.Decimal `json:"realized_pl"`
	OpenedAt    time.Time       `json:"opened_at"`
	ClosedAt    time.Time       `json:"closed_at"`
	CloseReason CloseReason     `json:"close_reason"`
}

// Win reports whether the trade made money after commissions.
func (t Trade) Win() bool { return t.NetPL().IsPositive() }

// NetPL is the trade's effect on the account after every commission. A
// liquidation's RealizedPL is the forfeited margin alone, so its entry
// commission is charged on top.
func (t Trade) NetPL() decimal.Decimal {
	if t.CloseReason == ReasonLiquidation {
		return t.RealizedPL.Sub(t.Commission)
	}
	return t.RealizedPL
}

// AccountState is the whole account for one symbol.
//
// Cash excludes the margin committed to an open position; Equity is cash
// plus that margin plus the position's unrealized P&L as of the last Mark.
type AccountState struct {
	Symbol         string          `json:"symbol"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Cash           decimal.Decimal `json:"cash"`
	Equity         decimal.Decimal `json:"equity"`
	Commissions    decimal.Decimal `json:"commissions"`
	LastDecisionAt time.Time       `json:"last_decision_at"`
	Position       *Position       `json:"position,omitempty"`
	History        []Trade         `json:"history"`
}

// NewAccount returns a flat account funded with initial.
func NewAccount(symbol string, initial decimal.Decimal) AccountState {
	return AccountState{
		Symbol:         symbol,
		InitialBalance: initial,
		Cash:           initial,
		Equity:         initial,
		Commissions:    decimal.Zero,
		History:        []Trade{},
	}
}

// Trades returns a copy of the trade history, oldest first.
func (s AccountState) Trades() []Trade {
	out := make([]Trade, len(s.History))
	copy(out, s.History)
	return out
}

// HasPosition reports whether a position is open.
func (s AccountState) HasPosition() bool { return s.Position != nil }

// MarginUsed is the margin held by the open position, or zero.
func (s AccountState) MarginUsed() decimal.Decimal {
	if s.Position == nil {
		return decimal.Zero
	}
	return s.Position.Margin
}

// clone copies the mutable parts so the caller's state is never aliased.
func (s AccountState) clone() AccountState {
	next := s
	next.History = s.Trades()
	if s.Position != nil {
		p := *s.Position
		next.Position = &p
	}
	return next
}
