package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/backtester/market"
)

var candleColumns = []string{"timestamp", "open", "high", "low", "close", "volume"}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ReadCandlesCSV reads timestamp,open,high,low,close,volume rows into
// candles of series s. A header row is optional; when present, columns are
// matched by name. Timestamps are epoch milliseconds or one of the common
// date-time layouts (UTC). Unparseable prices or volumes become NaN so the
// sanitizer can count them; an unparseable timestamp is an error.
func ReadCandlesCSV(r io.Reader, s market.Series) ([]market.Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	idx := map[string]int{}
	for i, name := range candleColumns {
		idx[name] = i
	}

	out := []market.Candle{}
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		if line == 1 && isHeader(rec) {
			idx, err = headerIndex(rec)
			if err != nil {
				return nil, err
			}
			continue
		}
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}

		ts, err := parseTimestamp(field(rec, idx["timestamp"]))
		if err != nil {
			return nil, fmt.Errorf("journal: line %d: %w", line, err)
		}

		out = append(out, market.Candle{
			Exchange:  s.Exchange,
			Symbol:    s.Symbol,
			Timeframe: s.Timeframe,
			Timestamp: ts,
			Open:      parseFloat(field(rec, idx["open"])),
			High:      parseFloat(field(rec, idx["high"])),
			Low:       parseFloat(field(rec, idx["low"])),
			Close:     parseFloat(field(rec, idx["close"])),
			Volume:    parseFloat(field(rec, idx["volume"])),
		})
	}
	return out, nil
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	_, err := parseTimestamp(rec[0])
	return err != nil
}

func headerIndex(rec []string) (map[string]int, error) {
	idx := map[string]int{}
	for i, name := range rec {
		n := strings.ToLower(strings.TrimSpace(name))
		switch n {
		case "time", "date", "datetime", "ts":
			n = "timestamp"
		case "o":
			n = "open"
		case "h":
			n = "high"
		case "l":
			n = "low"
		case "c":
			n = "close"
		case "v", "vol":
			n = "volume"
		}
		if _, dup := idx[n]; !dup {
			idx[n] = i
		}
	}
	for _, name := range candleColumns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("journal: csv header missing %q column", name)
		}
	}
	return idx, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseTimestamp(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("bad timestamp %q", s)
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
