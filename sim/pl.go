package sim

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// UnrealizedPL is (price - entry) x qty, sign-adjusted for the side, before
// commissions.
func UnrealizedPL(p Position, price decimal.Decimal) decimal.Decimal {
	return price.Sub(p.EntryPrice).Mul(p.Quantity).Mul(p.Side.Sign())
}

// PLPercent is the unrealized P&L as a percentage of the committed margin,
// so it already includes the leverage.
func PLPercent(p Position, price decimal.Decimal) decimal.Decimal {
	if p.Margin.IsZero() {
		return decimal.Zero
	}
	return UnrealizedPL(p, price).Div(p.Margin).Mul(hundred)
}
