package journal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/rustyeddy/backtester/backtest"
)

var runOrgFuncs = template.FuncMap{
	"stat": backtest.FormatStat,
	"ts":   func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"date": func(t time.Time) string { return t.UTC().Format("2006-01-02") },
	"orgTime": func(t time.Time) string {
		if t.IsZero() {
			t = time.Now()
		}
		return t.UTC().Format("2006-01-02 Mon 15:04")
	},
	"label": func(s backtest.Stats, l string) string {
		return backtest.FormatStat(s.Map()[l])
	},
	"labels": func() []string { return backtest.Labels },
	"tradeOrg": func(runID string, seq int, t backtest.Trade) string {
		return strings.TrimRight(FormatTradeOrg(runID, seq, t), "\n")
	},
}

var runOrg = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

type runOrgView struct {
	Run
	Trades []backtest.Trade
}

// WriteRunOrg renders a run and its trades as an Org-mode entry.
func WriteRunOrg(w io.Writer, run Run, trades []backtest.Trade) error {
	return runOrg.Execute(w, runOrgView{Run: run, Trades: trades})
}

// FormatRunOrg is WriteRunOrg into a string.
func FormatRunOrg(run Run, trades []backtest.Trade) (string, error) {
	var buf bytes.Buffer
	if err := WriteRunOrg(&buf, run, trades); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExportRunOrg loads a stored run and returns its Org entry.
func (j *SQLite) ExportRunOrg(ctx context.Context, runID string) (string, error) {
	run, err := j.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTrades(ctx, runID)
	if err != nil {
		return "", err
	}
	return FormatRunOrg(run, trades)
}

// SaveRunOrg writes the Org entry of a run to path.
func SaveRunOrg(path string, run Run, trades []backtest.Trade) error {
	s, err := FormatRunOrg(run, trades)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0o644)
}

// FormatTradeOrg renders one trade as an Org heading with a properties drawer.
func FormatTradeOrg(runID string, seq int, t backtest.Trade) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*** Trade %d: %s %s\n", seq+1, t.Side, t.Result)
	b.WriteString(":PROPERTIES:\n")
	if runID != "" {
		fmt.Fprintf(&b, ":RUN_ID: %s\n", runID)
	}
	fmt.Fprintf(&b, ":ENTRY_TIME: %s\n", t.EntryTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":EXIT_TIME: %s\n", t.ExitTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":ENTRY_PRICE: %.5f\n", t.EntryPrice)
	fmt.Fprintf(&b, ":EXIT_PRICE: %.5f\n", t.ExitPrice)
	fmt.Fprintf(&b, ":NET_PNL: %.2f\n", t.NetPnL)
	fmt.Fprintf(&b, ":PNL_PCT: %.2f\n", t.PnLPct)
	fmt.Fprintf(&b, ":ENTRY_TRIGGER: %s\n", t.EntryTrigger)
	fmt.Fprintf(&b, ":EXIT_TRIGGER: %s\n", t.ExitTrigger)
	fmt.Fprintf(&b, ":BARS: %d\n", t.BarsInTrade)
	b.WriteString(":END:\n")
	return b.String()
}

const RunOrgTemplate = `* BACKTEST: {{.Strategy}} {{.Symbol}} {{.Timeframe}}
:PROPERTIES:
:RUN_ID:      {{.ID}}
:STRATEGY:    {{.Strategy}}
:EXCHANGE:    {{.Exchange}}
:SYMBOL:      {{.Symbol}}
:TIMEFRAME:   {{.Timeframe}}
:START_DATE:  {{date .Start}}
:END_DATE:    {{date .End}}
:BARS:        {{.Bars}}
:START_BAL:   {{printf "%.2f" .InitialCapital}}
:END_BAL:     {{printf "%.2f" .FinalEquity}}
:NET_PL:      {{printf "%.2f" .NetPnL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:TRADES:      {{.TradeCount}}
:CREATED:     [{{orgTime .CreatedAt}}]
:END:

** Parameters
#+begin_src json
{{printf "%s" .Params}}
#+end_src

** Performance Summary
{{- if .Stats}}
| Metric | Value |
|--------+-------|
{{- $s := .Stats}}
{{- range labels}}
| {{.}} | {{label $s .}} |
{{- end}}
{{- else}}
No trades were closed.
{{- end}}
{{- if .ChartPath}}

** Charts
[[file:{{.ChartPath}}]]
{{- end}}
{{- if or .CSVPath .Trades}}

** Trades
{{- end}}
{{- if .CSVPath}}
[[file:{{.CSVPath}}]]
{{- end}}
{{- if .Trades}}
{{- $id := .ID}}
{{- range $i, $t := .Trades}}
{{tradeOrg $id $i $t}}
{{- end}}
{{- end}}
`
