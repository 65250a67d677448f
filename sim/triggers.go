package sim

import "github.com/shopspring/decimal"

func hitLiquidation(p Position, price, maintenance decimal.Decimal) bool {
	liq := LiquidationPrice(p.Side, p.EntryPrice, p.Leverage, maintenance)
	if p.Side == Short {
		return price.GreaterThanOrEqual(liq)
	}
	return price.LessThanOrEqual(liq)
}

func hitStopLoss(p Position, price, stopPct decimal.Decimal) bool {
	if !stopPct.IsPositive() {
		return false
	}
	return PLPercent(p, price).LessThanOrEqual(stopPct.Neg())
}

func hitTakeProfit(p Position, price, targetPct decimal.Decimal) bool {
	if !targetPct.IsPositive() {
		return false
	}
	return PLPercent(p, price).GreaterThanOrEqual(targetPct)
}
