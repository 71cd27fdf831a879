package backtest

import (
	"fmt"
	"io"
	"math"
	"time"
)

// PrintResult writes a plain text summary of a run.
func PrintResult(w io.Writer, r Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Exchange:      %s\n", r.Series.Exchange)
	fmt.Fprintf(w, "Symbol:        %s\n", r.Series.Symbol)
	fmt.Fprintf(w, "Timeframe:     %s\n", r.Series.Timeframe)
	fmt.Fprintf(w, "Bars:          %d\n", r.Bars)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	if r.Bars > 0 {
		fmt.Fprintf(w, "Start:         %s\n", r.Start.UTC().Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", r.End.UTC().Format(time.RFC3339))
	} else {
		fmt.Fprintln(w, "(no data)")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Costs")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Commission:    %.2f\n", r.Config.Commission)
	fmt.Fprintf(w, "Slippage:      %.2f\n", r.Config.Slippage)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %.2f\n", r.Config.InitialCapital)
	fmt.Fprintf(w, "End Balance:   %.2f\n", r.FinalEquity())

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	if !r.HasStats {
		fmt.Fprintln(w, "No trades.")
	} else {
		m := r.Stats.Map()
		for _, label := range Labels {
			fmt.Fprintf(w, "%-24s %s\n", label+":", FormatStat(m[label]))
		}
	}

	if r.Open != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Open position: %s @ %.4f since %s (%s)\n",
			r.Open.Side, r.Open.EntryPrice,
			r.Open.EntryTime.UTC().Format(time.RFC3339), r.Open.EntryTrigger)
	}
}

// FormatStat renders a statistic, spelling out NaN and infinities.
func FormatStat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "n/a"
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return fmt.Sprintf("%.4f", v)
}
