// Package chart renders backtest results as standalone HTML pages.
package chart

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

const (
	colorBull    = "#34d399"
	colorBear    = "#f87171"
	colorEmaFast = "#3b82f6"
	colorEmaSlow = "#f472b6"
	colorEquity  = "#fbbf24"

	widthPx  = 1400
	heightPx = 560
)

// Input is everything the trades chart needs.
type Input struct {
	Series  market.Series
	Candles []market.Candle
	Trades  []backtest.Trade
	Equity  []float64

	// EMA periods drawn over the candles; zero skips the line.
	Fast int
	Slow int

	// Start and End limit the candlestick window (epoch ms, inclusive).
	// Zero means unbounded.
	Start int64
	End   int64
}

// Render writes an HTML page with the candlestick chart (EMAs and trade
// markers) followed by the equity curve.
func Render(w io.Writer, in Input) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("%s %s %s", in.Series.Exchange, in.Series.Symbol, in.Series.Timeframe)

	if candles := window(in.Candles, in.Start, in.End); len(candles) > 0 {
		page.AddCharts(priceChart(in, candles))
	}
	if len(in.Equity) > 0 {
		page.AddCharts(equityChart(in.Series, in.Equity))
	}
	if len(page.Charts) == 0 {
		return fmt.Errorf("chart: nothing to render for %s", in.Series.Symbol)
	}
	return page.Render(w)
}

// WriteFile renders in to <dir>/<prefix>_chart_<YYYYmmdd_HHMMSS>.html and
// returns the path.
func WriteFile(dir, prefix string, in Input, now time.Time) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, in); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_chart_%s.html", prefix, now.UTC().Format("20060102_150405")))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func initOpts(height int) opts.Initialization {
	return opts.Initialization{
		Theme:  types.ThemeWesteros,
		Width:  fmt.Sprintf("%dpx", widthPx),
		Height: fmt.Sprintf("%dpx", height),
	}
}

func priceChart(in Input, candles []market.Candle) *charts.Kline {
	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(heightPx)),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s %s", in.Series.Symbol, in.Series.Timeframe),
			Subtitle: fmt.Sprintf("%s | %d trades", in.Series.Exchange, len(in.Trades)),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	kline.SetSeriesOptions(
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        colorBull,
			Color0:       colorBear,
			BorderColor:  colorBull,
			BorderColor0: colorBear,
		}),
	)

	x := xAxis(candles)
	data := make([]opts.KlineData, len(candles))
	for i, c := range candles {
		data[i] = opts.KlineData{Value: [4]float64{c.Open, c.Close, c.Low, c.High}}
	}
	kline.SetXAxis(x)
	kline.AddSeries("Price", data)

	if in.Fast > 0 || in.Slow > 0 {
		kline.Overlap(emaLines(in, candles, x))
	}
	if len(in.Trades) > 0 {
		kline.Overlap(markers(in.Trades, candles, x))
	}
	return kline
}

// emaLines computes the EMAs over the full series so the visible window
// starts warm.
func emaLines(in Input, visible []market.Candle, x []string) *charts.Line {
	closes := market.Closes(in.Candles)
	offset := 0
	if len(visible) > 0 {
		for offset < len(in.Candles) && in.Candles[offset].Timestamp < visible[0].Timestamp {
			offset++
		}
	}

	line := charts.NewLine()
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)
	line.SetXAxis(x)
	if in.Fast > 0 {
		ema := indicators.EMASeries(closes, in.Fast)
		line.AddSeries(fmt.Sprintf("EMA %d", in.Fast), lineData(ema[offset:offset+len(visible)]),
			charts.WithLineStyleOpts(opts.LineStyle{Color: colorEmaFast, Width: 2}))
	}
	if in.Slow > 0 {
		ema := indicators.EMASeries(closes, in.Slow)
		line.AddSeries(fmt.Sprintf("EMA %d", in.Slow), lineData(ema[offset:offset+len(visible)]),
			charts.WithLineStyleOpts(opts.LineStyle{Color: colorEmaSlow, Width: 2}))
	}
	return line
}

// markers draws entries and exits that fall inside the visible window.
func markers(trades []backtest.Trade, candles []market.Candle, x []string) *charts.Scatter {
	pos := make(map[int64]int, len(candles))
	for i, c := range candles {
		pos[c.Timestamp] = i
	}

	var entries, exits []opts.ScatterData
	for _, t := range trades {
		if i, ok := pos[t.EntryTime.UnixMilli()]; ok {
			entries = append(entries, opts.ScatterData{
				Value:      []interface{}{x[i], t.EntryPrice},
				Symbol:     "triangle",
				SymbolSize: 14,
			})
		}
		if i, ok := pos[t.ExitTime.UnixMilli()]; ok {
			exits = append(exits, opts.ScatterData{
				Value:        []interface{}{x[i], t.ExitPrice},
				Symbol:       "triangle",
				SymbolSize:   14,
				SymbolRotate: 180,
			})
		}
	}

	sc := charts.NewScatter()
	sc.SetXAxis(x)
	sc.AddSeries("Entry", entries, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBull}))
	sc.AddSeries("Exit", exits, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBear}))
	return sc
}

func equityChart(s market.Series, equity []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(heightPx / 2)),
		charts.WithTitleOpts(opts.Title{
			Title:    "Equity Curve",
			Subtitle: fmt.Sprintf("%s %s | max drawdown %.2f%%", s.Symbol, s.Timeframe, backtest.MaxDrawdownPct(equity)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "trade"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true), Name: "equity"}),
	)

	x := make([]string, len(equity))
	for i := range equity {
		x[i] = fmt.Sprint(i)
	}
	line.SetXAxis(x)
	line.AddSeries("Equity", lineData(equity),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorEquity, Width: 2}),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
	)
	return line
}

func window(candles []market.Candle, start, end int64) []market.Candle {
	if start <= 0 && end <= 0 {
		return candles
	}
	out := make([]market.Candle, 0, len(candles))
	for _, c := range candles {
		if start > 0 && c.Timestamp < start {
			continue
		}
		if end > 0 && c.Timestamp > end {
			continue
		}
		out = append(out, c)
	}
	return out
}

func xAxis(candles []market.Candle) []string {
	x := make([]string, len(candles))
	for i, c := range candles {
		x[i] = c.Time().Format("2006-01-02 15:04")
	}
	return x
}

func lineData(series []float64) []opts.LineData {
	out := make([]opts.LineData, len(series))
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = opts.LineData{Value: nil}
			continue
		}
		out[i] = opts.LineData{Value: round(v, 6)}
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
