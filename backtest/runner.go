package backtest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/market"
)

// Decision is what a strategy wants done on the current bar.
type Decision struct {
	Signal  Signal
	Trigger string
}

// Strategy produces one Decision per candle. Update is called for every bar,
// including warm-up bars, so indicators can build state; decisions are only
// applied from bar index Warmup() on.
type Strategy interface {
	Name() string
	Reset()
	Warmup() int
	Update(c market.Candle) Decision
}

// Runner drives an Engine over a clean candle series.
type Runner struct {
	Config   Config
	Strategy Strategy
	Log      *zap.Logger
}

// Result is the outcome of one backtest run.
type Result struct {
	Strategy string        `json:"strategy"`
	Series   market.Series `json:"series"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Bars     int           `json:"bars"`

	Config Config    `json:"config"`
	Trades []Trade   `json:"trades"`
	Equity []float64 `json:"equity"`

	// Stats is only meaningful when HasStats is set.
	Stats    Stats `json:"stats"`
	HasStats bool  `json:"has_stats"`

	// Open is the position still held after the last bar. It is not closed
	// and does not contribute to the ledger.
	Open *Position `json:"open,omitempty"`
}

// FinalEquity is the last point of the equity curve.
func (r Result) FinalEquity() float64 {
	if len(r.Equity) == 0 {
		return r.Config.InitialCapital
	}
	return r.Equity[len(r.Equity)-1]
}

// Run executes the backtest loop:
//  1. strategy.Update(candle)
//  2. engine.OnSignal(bar) once the strategy is warm
//
// Fill price is the candle close.
func (r *Runner) Run(ctx context.Context, candles []market.Candle) (Result, error) {
	if r.Strategy == nil {
		return Result{}, fmt.Errorf("backtest: Strategy is required")
	}
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	r.Strategy.Reset()
	eng := NewEngine(r.Config)
	warm := r.Strategy.Warmup()

	res := Result{
		Strategy: r.Strategy.Name(),
		Config:   r.Config,
		Bars:     len(candles),
	}

	for i, c := range candles {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}

		d := r.Strategy.Update(c)
		if i < warm || d.Signal == None {
			continue
		}

		act, err := eng.OnSignal(Bar{
			Index:   i,
			Time:    c.Time(),
			Price:   c.Close,
			Signal:  d.Signal,
			Trigger: d.Trigger,
		})
		if err != nil {
			return Result{}, err
		}
		if act != Ignored {
			log.Debug("backtest: position change",
				zap.String("action", act.String()),
				zap.Int("bar", i),
				zap.Float64("price", c.Close),
				zap.String("trigger", d.Trigger),
			)
		}
	}

	if len(candles) > 0 {
		res.Series = candles[0].Series()
		res.Start = candles[0].Time()
		res.End = candles[len(candles)-1].Time()
	}

	res.Trades = eng.Trades()
	res.Equity = eng.Equity()
	res.Stats, res.HasStats = ComputeStats(res.Trades, res.Equity)
	if p, ok := eng.Position(); ok {
		res.Open = &p
	}

	log.Info("backtest: done",
		zap.String("strategy", res.Strategy),
		zap.String("symbol", res.Series.Symbol),
		zap.String("timeframe", res.Series.Timeframe),
		zap.Int("bars", res.Bars),
		zap.Int("trades", len(res.Trades)),
		zap.Float64("equity", res.FinalEquity()),
	)

	return res, nil
}
