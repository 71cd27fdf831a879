package market

import (
	"math"
	"strings"
	"time"
)

// Candle represents one OHLCV bar for an (exchange, symbol, timeframe) tuple.
// Timestamp is the bar open in unix milliseconds, UTC.
// A price or volume that is missing or could not be parsed is NaN.
type Candle struct {
	Exchange  string  `json:"exchange" yaml:"exchange"`
	Symbol    string  `json:"symbol" yaml:"symbol"`
	Timeframe string  `json:"timeframe" yaml:"timeframe"`
	Timestamp int64   `json:"timestamp" yaml:"timestamp"`
	Open      float64 `json:"open" yaml:"open"`
	High      float64 `json:"high" yaml:"high"`
	Low       float64 `json:"low" yaml:"low"`
	Close     float64 `json:"close" yaml:"close"`
	Volume    float64 `json:"volume" yaml:"volume"`
}

// Key is the uniqueness key of a candle.
type Key struct {
	Exchange  string
	Symbol    string
	Timeframe string
	Timestamp int64
}

// Series identifies the candle stream a candle belongs to.
type Series struct {
	Exchange  string `json:"exchange" yaml:"exchange"`
	Symbol    string `json:"symbol" yaml:"symbol"`
	Timeframe string `json:"timeframe" yaml:"timeframe"`
}

// Normalize trims surrounding whitespace from every field. Stored rows and
// queries use the normalized form.
func (s Series) Normalize() Series {
	return Series{
		Exchange:  strings.TrimSpace(s.Exchange),
		Symbol:    strings.TrimSpace(s.Symbol),
		Timeframe: strings.TrimSpace(s.Timeframe),
	}
}

func (c Candle) Key() Key {
	return Key{
		Exchange:  c.Exchange,
		Symbol:    c.Symbol,
		Timeframe: c.Timeframe,
		Timestamp: c.Timestamp,
	}
}

func (c Candle) Series() Series {
	return Series{Exchange: c.Exchange, Symbol: c.Symbol, Timeframe: c.Timeframe}
}

// Time returns the candle open time in UTC.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.Timestamp).UTC()
}

// HasNaN reports whether any numeric field is missing.
func (c Candle) HasNaN() bool {
	return math.IsNaN(c.Open) || math.IsNaN(c.High) || math.IsNaN(c.Low) ||
		math.IsNaN(c.Close) || math.IsNaN(c.Volume)
}

// Flat returns a zero-volume candle at ts with all prices set to price.
func (s Series) Flat(ts int64, price float64) Candle {
	return Candle{
		Exchange:  s.Exchange,
		Symbol:    s.Symbol,
		Timeframe: s.Timeframe,
		Timestamp: ts,
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		Volume:    0,
	}
}

// Closes returns the close prices of candles in order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// FormatMillis renders a unix millisecond timestamp as RFC3339 UTC.
func FormatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
