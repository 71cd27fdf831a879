package indicators

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
)

// EMA is an Exponential Moving Average over candle closes with
// alpha = 2/(n+1). It is seeded with the first close, so the value after k
// updates equals a recursive (non-adjusted) EMA over those k closes.
type EMA struct {
	n     int
	alpha float64

	seen  int
	value float64
	ready bool

	name string
}

var _ Indicator = (*EMA)(nil)

func NewEMA(period int) *EMA {
	if period <= 0 {
		panic("EMA period must be > 0")
	}
	return &EMA{
		n:     period,
		alpha: 2.0 / float64(period+1),
		name:  fmt.Sprintf("EMA(%d)", period),
	}
}

func (e *EMA) Name() string   { return e.name }
func (e *EMA) Warmup() int    { return e.n }
func (e *EMA) Ready() bool    { return e.ready }
func (e *EMA) Value() float64 { return e.value }

func (e *EMA) Reset() {
	e.seen = 0
	e.value = 0
	e.ready = false
}

func (e *EMA) Update(c market.Candle) {
	e.Add(c.Close)
}

// Add consumes the next raw value.
func (e *EMA) Add(x float64) {
	e.seen++
	if e.seen == 1 {
		e.value = x
	} else {
		e.value = e.alpha*x + (1.0-e.alpha)*e.value
	}

	if e.seen >= e.n {
		e.ready = true
	}
}

// EMASeries returns the EMA value after each element of xs.
func EMASeries(xs []float64, period int) []float64 {
	e := NewEMA(period)
	out := make([]float64, len(xs))
	for i, x := range xs {
		e.Add(x)
		out[i] = e.Value()
	}
	return out
}
