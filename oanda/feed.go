package oanda

import (
	"context"
	"fmt"

	"github.com/rustyeddy/papertrader/market"
)

// Feed adapts a Client to market.Provider. Symbols are OANDA instrument
// names such as "EUR_USD" or "BTC_USD".
type Feed struct {
	Client      *Client
	Granularity Granularity
	Price       PriceComponent
}

func NewFeed(c *Client, g Granularity) *Feed {
	return &Feed{Client: c, Granularity: g, Price: MidPrice}
}

func (f *Feed) Candles(ctx context.Context, symbol string, count int) ([]market.Candle, error) {
	if count <= 0 || count > MaxCount {
		count = MaxCount
	}
	candles, err := f.Client.GetCandles(ctx, CandlesRequest{
		Instrument:  symbol,
		Price:       f.Price,
		Granularity: f.Granularity,
		Count:       count,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: oanda %s: %v", market.ErrDataUnavailable, symbol, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: oanda returned no complete candles for %s", market.ErrDataUnavailable, symbol)
	}
	return candles, nil
}
