// Package oanda fetches instrument candles from the OANDA v20 REST API and
// exposes them as a market.Provider. Only the read-only candles endpoint is
// used; orders are simulated locally.
package oanda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rustyeddy/papertrader/market"
)

const (
	PracticeURL = "https://api-fxpractice.oanda.com"
	LiveURL     = "https://api-fxtrade.oanda.com"

	// MaxCount is the largest count the candles endpoint accepts.
	MaxCount = 5000
)

// Granularity is the candle time frame, e.g. "M5" or "H1".
type Granularity string

const (
	M1  Granularity = "M1"
	M5  Granularity = "M5"
	M15 Granularity = "M15"
	M30 Granularity = "M30"
	H1  Granularity = "H1"
	H4  Granularity = "H4"
	D   Granularity = "D"
)

// PriceComponent selects mid, bid or ask candles.
type PriceComponent string

const (
	MidPrice PriceComponent = "M"
	BidPrice PriceComponent = "B"
	AskPrice PriceComponent = "A"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(token string, practice bool) *Client {
	baseURL := LiveURL
	if practice {
		baseURL = PracticeURL
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CandlesRequest holds the query for the candles endpoint. Count and the
// From/To range are mutually exclusive.
type CandlesRequest struct {
	Instrument  string
	Price       PriceComponent // default MidPrice
	Granularity Granularity    // default M5
	Count       int
	From        *time.Time
	To          *time.Time
}

type candleData struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type apiCandle struct {
	Complete bool       `json:"complete"`
	Volume   int        `json:"volume"`
	Time     string     `json:"time"`
	Mid      candleData `json:"mid,omitempty"`
	Bid      candleData `json:"bid,omitempty"`
	Ask      candleData `json:"ask,omitempty"`
}

type candlesResponse struct {
	Instrument  string      `json:"instrument"`
	Granularity string      `json:"granularity"`
	Candles     []apiCandle `json:"candles"`
}

// GetCandles fetches completed candles, oldest first. Incomplete (still
// forming) candles are dropped.
func (c *Client) GetCandles(ctx context.Context, req CandlesRequest) ([]market.Candle, error) {
	if req.Instrument == "" {
		return nil, fmt.Errorf("instrument is required")
	}
	if req.Price == "" {
		req.Price = MidPrice
	}
	if req.Granularity == "" {
		req.Granularity = M5
	}

	params := url.Values{}
	params.Set("price", string(req.Price))
	params.Set("granularity", string(req.Granularity))
	if req.Count > 0 {
		if req.Count > MaxCount {
			return nil, fmt.Errorf("count cannot exceed %d", MaxCount)
		}
		params.Set("count", strconv.Itoa(req.Count))
	} else {
		if req.From != nil {
			params.Set("from", req.From.UTC().Format(time.RFC3339))
		}
		if req.To != nil {
			params.Set("to", req.To.UTC().Format(time.RFC3339))
		}
	}

	apiURL := fmt.Sprintf("%s/v3/instruments/%s/candles?%s", c.baseURL, url.PathEscape(req.Instrument), params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Accept-Datetime-Format", "RFC3339")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp candlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	candles := make([]market.Candle, 0, len(apiResp.Candles))
	for _, ac := range apiResp.Candles {
		if !ac.Complete {
			continue
		}
		cd, err := toCandle(ac, req.Price)
		if err != nil {
			return nil, err
		}
		candles = append(candles, cd)
	}
	return candles, nil
}

func toCandle(ac apiCandle, pc PriceComponent) (market.Candle, error) {
	t, err := time.Parse(time.RFC3339Nano, ac.Time)
	if err != nil {
		return market.Candle{}, fmt.Errorf("parse time %s: %w", ac.Time, err)
	}

	data := ac.Mid
	switch pc {
	case BidPrice:
		data = ac.Bid
	case AskPrice:
		data = ac.Ask
	}

	var ohlc [4]float64
	for i, s := range []string{data.O, data.H, data.L, data.C} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Candle{}, fmt.Errorf("parse price %q at %s: %w", s, ac.Time, err)
		}
		ohlc[i] = v
	}

	return market.Candle{
		Time:   t.UTC(),
		Open:   ohlc[0],
		High:   ohlc[1],
		Low:    ohlc[2],
		Close:  ohlc[3],
		Volume: float64(ac.Volume),
	}, nil
}
