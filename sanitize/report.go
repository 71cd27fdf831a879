package sanitize

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/backtester/market"
)

const (
	maxInvalidExamples = 10
	maxGapDetails      = 30
)

// Report is the audit trail of one sanitization pass.
type Report struct {
	market.Series
	GeneratedAt time.Time `json:"generated_at"`

	// Empty is set when the input had no candles and no stage ran.
	Empty bool `json:"empty"`

	Original   int `json:"original"`
	NaNRemoved int `json:"nan_removed"`
	Invalid    int `json:"invalid"`
	Duplicates int `json:"duplicates"`
	Inserted   int `json:"inserted"`
	Final      int `json:"final"`

	// InvalidExamples holds at most the first 10 invalid candles.
	InvalidExamples []market.Candle `json:"invalid_examples,omitempty"`
	Gaps            []Gap           `json:"gaps,omitempty"`

	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Removed is the number of input candles dropped by all stages.
func (r Report) Removed() int {
	return r.NaNRemoved + r.Invalid + r.Duplicates
}

// Unfilled is the number of gaps too large to fill.
func (r Report) Unfilled() int {
	n := 0
	for _, g := range r.Gaps {
		if g.Unfilled {
			n++
		}
	}
	return n
}

// Changed reports whether the pass removed or inserted anything.
func (r Report) Changed() bool {
	return r.Removed() > 0 || r.Inserted > 0
}

// String renders the report as text.
func (r Report) String() string {
	var buf bytes.Buffer
	_, _ = r.WriteTo(&buf)
	return buf.String()
}

// WriteTo renders the human readable report.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	fmt.Fprintln(cw, "===========================================")
	fmt.Fprintln(cw, " OHLCV SANITIZATION REPORT")
	fmt.Fprintln(cw, "===========================================")
	fmt.Fprintf(cw, "Exchange  : %s\n", r.Exchange)
	fmt.Fprintf(cw, "Symbol    : %s\n", r.Symbol)
	fmt.Fprintf(cw, "Timeframe : %s\n", r.Timeframe)
	fmt.Fprintf(cw, "Generated at: %s\n", r.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintln(cw)
	fmt.Fprintf(cw, "Original rows loaded: %d\n", r.Original)

	if r.Empty {
		fmt.Fprintln(cw, "ERROR: No data found. Aborting.")
		return cw.n, cw.err
	}

	fmt.Fprintln(cw)
	fmt.Fprintln(cw, "Step 1 - Remove NaN rows")
	fmt.Fprintf(cw, "Removed rows with NaN: %d\n", r.NaNRemoved)

	fmt.Fprintln(cw)
	fmt.Fprintln(cw, "Step 2 - Validate OHLCV logic")
	fmt.Fprintf(cw, "Invalid candles removed: %d\n", r.Invalid)
	if len(r.InvalidExamples) > 0 {
		fmt.Fprintf(cw, "Examples of invalid candles (max %d):\n", maxInvalidExamples)
		for _, c := range r.InvalidExamples {
			fmt.Fprintf(cw, "  %s | O=%g H=%g L=%g C=%g V=%g\n",
				market.FormatMillis(c.Timestamp), c.Open, c.High, c.Low, c.Close, c.Volume)
		}
	}

	fmt.Fprintln(cw)
	fmt.Fprintln(cw, "Step 3 - Remove duplicates and sort")
	fmt.Fprintf(cw, "Duplicates removed: %d\n", r.Duplicates)
	fmt.Fprintln(cw, "Sorted ascending by timestamp.")

	fmt.Fprintln(cw)
	fmt.Fprintln(cw, "Step 4 - Detect and fill gaps")
	fmt.Fprintf(cw, "Gaps detected: %d\n", len(r.Gaps))
	fmt.Fprintf(cw, "Missing candles inserted: %d\n", r.Inserted)
	if n := r.Unfilled(); n > 0 {
		fmt.Fprintf(cw, "Gaps left unfilled (over %d slots): %d\n", MaxGapFill, n)
	}
	if len(r.Gaps) > 0 {
		fmt.Fprintln(cw)
		fmt.Fprintln(cw, "Gap details:")
		for i, g := range r.Gaps {
			if i == maxGapDetails {
				break
			}
			note := ""
			if g.Unfilled {
				note = " (too large, not filled)"
			}
			fmt.Fprintf(cw, "  Gap from %s -> %s | Missing candles: %d%s\n",
				market.FormatMillis(g.Start), market.FormatMillis(g.End), g.Missing, note)
		}
		if len(r.Gaps) > maxGapDetails {
			fmt.Fprintf(cw, "  ... (%d more gaps omitted)\n", len(r.Gaps)-maxGapDetails)
		}
	}

	fmt.Fprintln(cw)
	fmt.Fprintln(cw, "===========================================")
	fmt.Fprintln(cw, " FINAL SUMMARY")
	fmt.Fprintln(cw, "===========================================")
	fmt.Fprintf(cw, "Original candles : %d\n", r.Original)
	fmt.Fprintf(cw, "Final candles    : %d\n", r.Final)
	fmt.Fprintf(cw, "Removed NaNs     : %d\n", r.NaNRemoved)
	fmt.Fprintf(cw, "Removed invalid  : %d\n", r.Invalid)
	fmt.Fprintf(cw, "Removed dups     : %d\n", r.Duplicates)
	fmt.Fprintf(cw, "Inserted gaps    : %d\n", r.Inserted)

	if r.Final > 0 {
		fmt.Fprintln(cw)
		fmt.Fprintln(cw, "Dataset time range:")
		fmt.Fprintf(cw, "Start: %s\n", market.FormatMillis(r.Start))
		fmt.Fprintf(cw, "End  : %s\n", market.FormatMillis(r.End))
	}

	return cw.n, cw.err
}

// countingWriter keeps the first write error so WriteTo can report it once.
type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
