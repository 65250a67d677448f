package market

import (
	"context"
	"fmt"
	"sort"
)

// Provider supplies recent bars for a symbol, oldest first.
type Provider interface {
	Candles(ctx context.Context, symbol string, count int) ([]Candle, error)
}

// SliceProvider serves candles from memory. It is used for replays and tests.
type SliceProvider struct {
	Symbol string
	Data   []Candle
}

func (p *SliceProvider) Candles(ctx context.Context, symbol string, count int) ([]Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if p.Symbol != "" && symbol != p.Symbol {
		return nil, fmt.Errorf("%w: unknown symbol %q", ErrDataUnavailable, symbol)
	}
	if len(p.Data) == 0 {
		return nil, fmt.Errorf("%w: no candles for %s", ErrDataUnavailable, symbol)
	}
	tail := Tail(p.Data, count)
	out := make([]Candle, len(tail))
	copy(out, tail)
	return out, nil
}

// SortCandles orders candles by time, oldest first.
func SortCandles(candles []Candle) {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})
}
