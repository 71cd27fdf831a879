// Package sanitize turns a raw candle stream into a gap-free, validated,
// time-ordered series and records what it changed.
//
// Stages always run in this order:
//
//  1. drop candles with missing numeric fields
//  2. drop candles violating the OHLCV invariants
//  3. drop duplicate keys (first seen wins) and sort by timestamp
//  4. fill missing slots with flat zero-volume candles
//
// Validation runs before gap detection so an invalid candle can never anchor
// a gap boundary.
package sanitize

import (
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/market"
)

// Result is the clean series plus its audit report.
// Candles is freshly allocated and must be treated as read-only.
type Result struct {
	Candles []market.Candle
	Report  Report
}

// Pipeline runs sanitization passes. The zero value is not usable; use New.
type Pipeline struct {
	log *zap.Logger
	now func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the clock used to stamp reports.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(log *zap.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pipeline{log: log, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run sanitizes raw with a fresh pipeline that does not log.
func Run(raw []market.Candle, timeframe string) (Result, error) {
	return New(nil).Run(raw, timeframe)
}

// Run sanitizes raw candles of a single series. raw is never modified.
//
// An unknown timeframe fails with a *market.ConfigurationError before any
// candle is inspected. Empty input is not an error: the result is empty and
// the report has Empty set.
func (p *Pipeline) Run(raw []market.Candle, timeframe string) (Result, error) {
	step, err := market.StepMillis(timeframe)
	if err != nil {
		return Result{}, err
	}

	rep := Report{
		Series:      market.Series{Timeframe: timeframe},
		GeneratedAt: p.now().UTC(),
		Original:    len(raw),
	}
	if len(raw) == 0 {
		rep.Empty = true
		p.log.Warn("sanitize: no data", zap.String("timeframe", timeframe))
		return Result{Candles: []market.Candle{}, Report: rep}, nil
	}
	rep.Exchange = raw[0].Exchange
	rep.Symbol = raw[0].Symbol

	candles, nanRemoved := dropNaN(raw)
	rep.NaNRemoved = nanRemoved

	candles, invalid := splitValid(candles)
	rep.Invalid = len(invalid)
	if len(invalid) > maxInvalidExamples {
		invalid = invalid[:maxInvalidExamples]
	}
	rep.InvalidExamples = invalid

	candles, rep.Duplicates = dedupSort(candles)

	candles, rep.Gaps = FillGaps(candles, step)
	for _, g := range rep.Gaps {
		if g.Unfilled {
			p.log.Warn("sanitize: gap too large to fill",
				zap.String("from", market.FormatMillis(g.Start)),
				zap.String("to", market.FormatMillis(g.End)),
				zap.Int("missing", g.Missing),
			)
		}
	}
	rep.Inserted = len(candles) - (rep.Original - rep.Removed())

	rep.Final = len(candles)
	if rep.Final > 0 {
		rep.Start = candles[0].Timestamp
		rep.End = candles[len(candles)-1].Timestamp
	}

	p.log.Info("sanitize: done",
		zap.String("exchange", rep.Exchange),
		zap.String("symbol", rep.Symbol),
		zap.String("timeframe", timeframe),
		zap.Int("original", rep.Original),
		zap.Int("nan_removed", rep.NaNRemoved),
		zap.Int("invalid", rep.Invalid),
		zap.Int("duplicates", rep.Duplicates),
		zap.Int("gaps", len(rep.Gaps)),
		zap.Int("inserted", rep.Inserted),
		zap.Int("final", rep.Final),
	)

	return Result{Candles: candles, Report: rep}, nil
}
