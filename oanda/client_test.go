package oanda

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rustyeddy/papertrader/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return &Client{
		baseURL:    server.URL,
		token:      "test-token",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func serveJSON(t *testing.T, resp candlesResponse, check func(r *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.WriteHeader(http.StatusOK)
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}
}

var twoCandles = candlesResponse{
	Instrument:  "EUR_USD",
	Granularity: "M5",
	Candles: []apiCandle{
		{
			Complete: true,
			Volume:   100,
			Time:     "2024-01-01T10:00:00.000000000Z",
			Mid:      candleData{O: "1.0850", H: "1.0860", L: "1.0840", C: "1.0855"},
			Bid:      candleData{O: "1.0849", H: "1.0859", L: "1.0839", C: "1.0854"},
			Ask:      candleData{O: "1.0851", H: "1.0861", L: "1.0841", C: "1.0856"},
		},
		{
			Complete: false,
			Volume:   50,
			Time:     "2024-01-01T10:05:00.000000000Z",
			Mid:      candleData{O: "1.0855", H: "1.0860", L: "1.0850", C: "1.0858"},
		},
	},
}

func TestNewClient(t *testing.T) {
	assert.Equal(t, PracticeURL, NewClient("tok", true).baseURL)
	live := NewClient("tok", false)
	assert.Equal(t, LiveURL, live.baseURL)
	assert.Equal(t, "tok", live.token)
	assert.NotNil(t, live.httpClient)
}

func TestGetCandles(t *testing.T) {
	client := newTestClient(t, serveJSON(t, twoCandles, func(r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/v3/instruments/EUR_USD/candles", r.URL.Path)
		assert.Equal(t, "M", r.URL.Query().Get("price"))
		assert.Equal(t, "M5", r.URL.Query().Get("granularity"))
		assert.Equal(t, "100", r.URL.Query().Get("count"))
	}))

	candles, err := client.GetCandles(context.Background(), CandlesRequest{
		Instrument: "EUR_USD",
		Count:      100,
	})
	require.NoError(t, err)
	require.Len(t, candles, 1, "incomplete candle should be skipped")

	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), candles[0].Time)
	assert.Equal(t, 1.0850, candles[0].Open)
	assert.Equal(t, 1.0860, candles[0].High)
	assert.Equal(t, 1.0840, candles[0].Low)
	assert.Equal(t, 1.0855, candles[0].Close)
	assert.Equal(t, 100.0, candles[0].Volume)
}

func TestGetCandlesBidAsk(t *testing.T) {
	tests := []struct {
		price PriceComponent
		close float64
	}{
		{BidPrice, 1.0854},
		{AskPrice, 1.0856},
	}
	for _, tt := range tests {
		t.Run(string(tt.price), func(t *testing.T) {
			client := newTestClient(t, serveJSON(t, twoCandles, func(r *http.Request) {
				assert.Equal(t, string(tt.price), r.URL.Query().Get("price"))
			}))
			candles, err := client.GetCandles(context.Background(), CandlesRequest{
				Instrument: "EUR_USD",
				Price:      tt.price,
				Count:      10,
			})
			require.NoError(t, err)
			require.Len(t, candles, 1)
			assert.Equal(t, tt.close, candles[0].Close)
		})
	}
}

func TestGetCandlesTimeRange(t *testing.T) {
	client := newTestClient(t, serveJSON(t, candlesResponse{}, func(r *http.Request) {
		assert.Equal(t, "2024-01-01T00:00:00Z", r.URL.Query().Get("from"))
		assert.Equal(t, "2024-01-02T00:00:00Z", r.URL.Query().Get("to"))
		assert.Empty(t, r.URL.Query().Get("count"))
	}))

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	_, err := client.GetCandles(context.Background(), CandlesRequest{
		Instrument:  "EUR_USD",
		Granularity: H1,
		From:        &from,
		To:          &to,
	})
	require.NoError(t, err)
}

func TestGetCandlesErrors(t *testing.T) {
	t.Run("missing instrument", func(t *testing.T) {
		_, err := NewClient("tok", true).GetCandles(context.Background(), CandlesRequest{Count: 10})
		assert.ErrorContains(t, err, "instrument is required")
	})

	t.Run("count exceeds maximum", func(t *testing.T) {
		_, err := NewClient("tok", true).GetCandles(context.Background(), CandlesRequest{
			Instrument: "EUR_USD",
			Count:      6000,
		})
		assert.ErrorContains(t, err, "cannot exceed 5000")
	})

	t.Run("API error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"errorMessage": "Invalid access token"}`))
		})
		_, err := client.GetCandles(context.Background(), CandlesRequest{Instrument: "EUR_USD", Count: 10})
		assert.ErrorContains(t, err, "API error (status 401)")
	})

	t.Run("bad price", func(t *testing.T) {
		bad := candlesResponse{Candles: []apiCandle{{
			Complete: true,
			Time:     "2024-01-01T10:00:00Z",
			Mid:      candleData{O: "x", H: "1", L: "1", C: "1"},
		}}}
		client := newTestClient(t, serveJSON(t, bad, nil))
		_, err := client.GetCandles(context.Background(), CandlesRequest{Instrument: "EUR_USD", Count: 1})
		assert.ErrorContains(t, err, "parse price")
	})
}

func TestFeedCandles(t *testing.T) {
	client := newTestClient(t, serveJSON(t, twoCandles, func(r *http.Request) {
		assert.Equal(t, "H1", r.URL.Query().Get("granularity"))
		assert.Equal(t, "200", r.URL.Query().Get("count"))
	}))

	feed := NewFeed(client, H1)
	candles, err := feed.Candles(context.Background(), "EUR_USD", 200)
	require.NoError(t, err)
	require.Len(t, candles, 1)
}

func TestFeedWrapsDataUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := NewFeed(client, M5).Candles(context.Background(), "EUR_USD", 10)
	assert.ErrorIs(t, err, market.ErrDataUnavailable)

	empty := newTestClient(t, serveJSON(t, candlesResponse{}, nil))
	_, err = NewFeed(empty, M5).Candles(context.Background(), "EUR_USD", 10)
	assert.ErrorIs(t, err, market.ErrDataUnavailable)
}
