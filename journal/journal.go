package journal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
)

var ErrRunNotFound = errors.New("journal: run not found")

// Run is one persisted backtest.
type Run struct {
	ID        string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Strategy  string    `json:"strategy"`
	market.Series

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Bars  int       `json:"bars"`

	InitialCapital float64 `json:"initial_capital"`
	FinalEquity    float64 `json:"final_equity"`
	TradeCount     int     `json:"trade_count"`

	// Params is the strategy and cost configuration as JSON.
	Params json.RawMessage `json:"params"`
	// Stats is nil when the run closed no trades.
	Stats *backtest.Stats `json:"stats"`

	ChartPath string `json:"chart_path,omitempty"`
	CSVPath   string `json:"csv_path,omitempty"`
}

// NewRun builds the journal row for a finished backtest. params is encoded
// as JSON.
func NewRun(id string, created time.Time, res backtest.Result, params any) (Run, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Run{}, err
	}
	r := Run{
		ID:             id,
		CreatedAt:      created.UTC(),
		Strategy:       res.Strategy,
		Series:         res.Series,
		Start:          res.Start,
		End:            res.End,
		Bars:           res.Bars,
		InitialCapital: res.Config.InitialCapital,
		FinalEquity:    res.FinalEquity(),
		TradeCount:     len(res.Trades),
		Params:         raw,
	}
	if res.HasStats {
		s := res.Stats
		r.Stats = &s
	}
	return r, nil
}

// NetPnL is the change in equity over the run.
func (r Run) NetPnL() float64 { return r.FinalEquity - r.InitialCapital }

// ReturnPct is NetPnL relative to the initial capital, in percent.
func (r Run) ReturnPct() float64 {
	if r.InitialCapital == 0 {
		return 0
	}
	return r.NetPnL() / r.InitialCapital * 100
}

// Journal persists backtest runs.
type Journal interface {
	RecordRun(ctx context.Context, run Run, trades []backtest.Trade) error
	Close() error
}

// CandleStore persists raw and clean candles.
type CandleStore interface {
	InsertCandles(ctx context.Context, candles []market.Candle) (int, error)
	LoadCandles(ctx context.Context, q Query) ([]market.Candle, error)
	ReplaceClean(ctx context.Context, s market.Series, candles []market.Candle) error
}

// Query selects one candle series. Start and End are inclusive epoch
// milliseconds; a zero End means no upper bound. A positive Limit keeps the
// most recent Limit candles.
type Query struct {
	market.Series
	Start int64
	End   int64
	Limit int
	Clean bool
}
