package sim

import "github.com/shopspring/decimal"

const (
	MinLeverage = 1
	MaxLeverage = 100
)

// LiquidationPrice is the price at which maintenance of the margin is lost:
// entry x (1 - m/L) for LONG and entry x (1 + m/L) for SHORT.
func LiquidationPrice(side Side, entry decimal.Decimal, leverage int, maintenance decimal.Decimal) decimal.Decimal {
	if leverage < MinLeverage {
		leverage = MinLeverage
	}
	move := maintenance.Div(decimal.NewFromInt(int64(leverage)))
	if side == Short {
		return entry.Mul(decimal.NewFromInt(1).Add(move))
	}
	return entry.Mul(decimal.NewFromInt(1).Sub(move))
}

// Notional is the position's exposure at price.
func Notional(qty, price decimal.Decimal) decimal.Decimal {
	return qty.Mul(price)
}

// Commission is notional x rate.
func Commission(qty, price, rate decimal.Decimal) decimal.Decimal {
	return Notional(qty, price).Mul(rate)
}
