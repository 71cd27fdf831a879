// Package app wires the candle store, sanitizer, backtest runner and
// exporters into the operations the CLI and HTTP server expose.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/internal/chart"
	"github.com/rustyeddy/backtester/internal/id"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sanitize"
	"github.com/rustyeddy/backtester/strategies"
)

// ErrNoData is returned when a backtest selects no candles.
var ErrNoData = errors.New("app: no candles for the requested range")

// Store is the persistence the service needs.
type Store interface {
	journal.CandleStore
	journal.Journal
	GetRun(ctx context.Context, id string) (journal.Run, error)
	ListRuns(ctx context.Context, limit int) ([]journal.Run, error)
	ListTrades(ctx context.Context, runID string) ([]backtest.Trade, error)
}

// Outputs are the directories files are written to. Empty disables an output.
type Outputs struct {
	TradesDir string
	ReportDir string
	ChartDir  string
	OrgDir    string
}

type Service struct {
	store Store
	out   Outputs
	log   *zap.Logger
	ids   *id.Generator
	now   func() time.Time
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDs(g *id.Generator) Option { return func(s *Service) { s.ids = g } }

func New(store Store, out Outputs, opts ...Option) *Service {
	s := &Service{store: store, out: out, log: zap.NewNop(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.ids == nil {
		s.ids = id.NewGenerator(s.now)
	}
	return s
}

func (s *Service) Store() Store { return s.store }

// Import reads a candle CSV into the raw table. It returns the rows read and
// the rows that were new.
func (s *Service) Import(ctx context.Context, r io.Reader, series market.Series) (read, inserted int, err error) {
	series = series.Normalize()
	if _, err := market.Step(series.Timeframe); err != nil {
		return 0, 0, err
	}
	candles, err := journal.ReadCandlesCSV(r, series)
	if err != nil {
		return 0, 0, err
	}
	inserted, err = s.store.InsertCandles(ctx, candles)
	if err != nil {
		return 0, 0, err
	}
	s.log.Info("import: done",
		zap.String("exchange", series.Exchange),
		zap.String("symbol", series.Symbol),
		zap.String("timeframe", series.Timeframe),
		zap.Int("read", len(candles)),
		zap.Int("inserted", inserted),
	)
	return len(candles), inserted, nil
}

// SanitizeOutcome is the result of sanitizing one stored series.
type SanitizeOutcome struct {
	sanitize.Result
	ReportPath string
}

// Sanitize loads the raw series, cleans it, replaces the clean table copy and
// writes the text report when a report directory is configured. An empty raw
// series leaves the clean table untouched.
func (s *Service) Sanitize(ctx context.Context, series market.Series) (SanitizeOutcome, error) {
	series = series.Normalize()
	raw, err := s.store.LoadCandles(ctx, journal.Query{Series: series})
	if err != nil {
		return SanitizeOutcome{}, err
	}

	res, err := sanitize.New(s.log, sanitize.WithClock(s.now)).Run(raw, series.Timeframe)
	if err != nil {
		return SanitizeOutcome{}, err
	}
	if res.Report.Empty {
		res.Report.Series = series
	} else if err := s.store.ReplaceClean(ctx, series, res.Candles); err != nil {
		return SanitizeOutcome{}, fmt.Errorf("store clean series: %w", err)
	}

	out := SanitizeOutcome{Result: res}
	if s.out.ReportDir != "" {
		out.ReportPath, err = writeReport(s.out.ReportDir, res.Report)
		if err != nil {
			return out, fmt.Errorf("write report: %w", err)
		}
	}
	return out, nil
}

// ReportName is the file name of a sanitization report.
func ReportName(r sanitize.Report) string {
	if r.Empty {
		return "sanitize_report_EMPTY.txt"
	}
	return fmt.Sprintf("sanitize_report_%s_%s_%s_%s.txt",
		r.Exchange, FilePart(r.Symbol), r.Timeframe, r.GeneratedAt.UTC().Format("20060102_150405"))
}

func writeReport(dir string, r sanitize.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ReportName(r))
	fh, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := r.WriteTo(fh); err != nil {
		_ = fh.Close()
		return "", err
	}
	return path, fh.Close()
}

// FilePart makes a symbol safe for use in a file name.
func FilePart(symbol string) string {
	return strings.NewReplacer("/", "_", ":", "_", " ", "_").Replace(symbol)
}

// BacktestRequest selects the data and strategy of one run.
type BacktestRequest struct {
	Series   market.Series
	Start    int64
	End      int64
	UseClean bool

	Strategy string
	Params   strategies.Params
	Config   backtest.Config
}

// RunParams is what a run records about how it was configured.
type RunParams struct {
	Strategy string            `json:"strategy"`
	Params   strategies.Params `json:"params"`
	Config   backtest.Config   `json:"config"`
	Start    int64             `json:"start,omitempty"`
	End      int64             `json:"end,omitempty"`
	UseClean bool              `json:"use_clean"`
}

// BacktestOutcome is a finished and recorded run.
type BacktestOutcome struct {
	Run     journal.Run
	Result  backtest.Result
	OrgPath string
}

// RunBacktest loads candles, runs the strategy, writes the configured
// outputs and records the run.
func (s *Service) RunBacktest(ctx context.Context, req BacktestRequest) (BacktestOutcome, error) {
	req.Series = req.Series.Normalize()
	if _, err := market.Step(req.Series.Timeframe); err != nil {
		return BacktestOutcome{}, err
	}
	strat, err := strategies.ByName(req.Strategy, req.Params)
	if err != nil {
		return BacktestOutcome{}, err
	}

	candles, err := s.store.LoadCandles(ctx, journal.Query{
		Series: req.Series,
		Start:  req.Start,
		End:    req.End,
		Clean:  req.UseClean,
	})
	if err != nil {
		return BacktestOutcome{}, err
	}
	if len(candles) == 0 {
		return BacktestOutcome{}, fmt.Errorf("%w: %s %s %s", ErrNoData, req.Series.Exchange, req.Series.Symbol, req.Series.Timeframe)
	}

	runner := &backtest.Runner{Config: req.Config, Strategy: strat, Log: s.log}
	res, err := runner.Run(ctx, candles)
	if err != nil {
		return BacktestOutcome{}, err
	}

	now := s.now()
	run, err := journal.NewRun(s.ids.New(), now, res, RunParams{
		Strategy: strat.Name(),
		Params:   req.Params,
		Config:   req.Config,
		Start:    req.Start,
		End:      req.End,
		UseClean: req.UseClean,
	})
	if err != nil {
		return BacktestOutcome{}, err
	}

	// the run ID keeps runs started in the same second apart
	prefix := fmt.Sprintf("%s_%s_%s_%s", req.Series.Exchange, FilePart(req.Series.Symbol), req.Series.Timeframe, run.ID)
	if s.out.TradesDir != "" {
		run.CSVPath, err = journal.ExportTradesCSV(s.out.TradesDir, prefix, res.Trades, now)
		if err != nil {
			return BacktestOutcome{}, fmt.Errorf("export trades: %w", err)
		}
	}
	if s.out.ChartDir != "" {
		run.ChartPath, err = chart.WriteFile(s.out.ChartDir, prefix, chart.Input{
			Series:  req.Series,
			Candles: candles,
			Trades:  res.Trades,
			Equity:  res.Equity,
			Fast:    req.Params.Fast,
			Slow:    req.Params.Slow,
		}, now)
		if err != nil {
			return BacktestOutcome{}, fmt.Errorf("render chart: %w", err)
		}
	}

	if err := s.store.RecordRun(ctx, run, res.Trades); err != nil {
		return BacktestOutcome{}, err
	}

	out := BacktestOutcome{Run: run, Result: res}
	if s.out.OrgDir != "" {
		if err := os.MkdirAll(s.out.OrgDir, 0o755); err != nil {
			return out, err
		}
		out.OrgPath = filepath.Join(s.out.OrgDir, run.ID+".org")
		if err := journal.SaveRunOrg(out.OrgPath, run, res.Trades); err != nil {
			return out, fmt.Errorf("write org report: %w", err)
		}
	}

	s.log.Info("backtest: recorded",
		zap.String("run_id", run.ID),
		zap.String("csv", run.CSVPath),
		zap.String("chart", run.ChartPath),
	)
	return out, nil
}
