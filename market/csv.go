package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVProvider reads canonical candle CSV rows:
//
//	time,open,high,low,close[,volume]
//
// where time is RFC3339, RFC3339Nano or unix seconds. A single header row
// ("time,...") is allowed and short rows are skipped. The file is re-read on
// every call so an external process may keep appending to it.
type CSVProvider struct {
	Path string
}

func NewCSVProvider(path string) *CSVProvider {
	return &CSVProvider{Path: path}
}

func (p *CSVProvider) Candles(ctx context.Context, symbol string, count int) ([]Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer f.Close()

	candles, err := ReadCandlesCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataUnavailable, p.Path, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: %s has no candles for %s", ErrDataUnavailable, p.Path, symbol)
	}
	return Tail(candles, count), nil
}

// ReadCandlesCSV parses every candle row from r and returns them oldest first.
func ReadCandlesCSV(r io.Reader) ([]Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var (
		out      []Candle
		sawFirst bool
		line     int
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 {
			continue
		}

		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		c, ok, err := parseCandleRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !ok {
			continue
		}
		out = append(out, c)
	}

	SortCandles(out)
	return out, nil
}

func parseCandleRow(row []string) (Candle, bool, error) {
	// Need at least: time,open,high,low,close
	if len(row) < 5 {
		return Candle{}, false, nil
	}

	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return Candle{}, false, nil
	}
	t, err := parseTime(ts)
	if err != nil {
		return Candle{}, false, err
	}

	var vals [5]float64
	n := 4
	if len(row) > 5 {
		n = 5
	}
	for i := 0; i < n; i++ {
		s := strings.TrimSpace(row[i+1])
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Candle{}, false, fmt.Errorf("bad value %q: %w", s, err)
		}
		vals[i] = v
	}

	c := Candle{
		Time:   t,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}
	if c.Close <= 0 {
		return Candle{}, false, fmt.Errorf("non-positive close %v", c.Close)
	}
	return c, true, nil
}

func parseTime(ts string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t.UTC(), nil
	}
	if secs, err := strconv.ParseInt(ts, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time %q", ts)
}

// WriteCandlesCSV writes candles with a header row in the format
// ReadCandlesCSV accepts.
func WriteCandlesCSV(w io.Writer, candles []Candle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, c := range candles {
		if err := cw.Write([]string{
			c.Time.UTC().Format(time.RFC3339),
			ff(c.Open),
			ff(c.High),
			ff(c.Low),
			ff(c.Close),
			ff(c.Volume),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ff(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
