package backtest

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Stats summarizes a closed-trade ledger and its equity curve.
//
// ProfitFactor is +Inf when there are no losing trades. Expectancy is NaN when
// AvgLoss is zero. In JSON, NaN is encoded as null and infinities as the
// strings "+Inf" and "-Inf".
type Stats struct {
	TotalTrades    int
	Wins           int
	Losses         int
	TotalNetProfit float64
	ProfitFactor   float64
	AvgWin         float64
	AvgLoss        float64
	WinRate        float64
	LossRate       float64
	Expectancy     float64
	MaxDrawdownPct float64
	EquitySlope    float64
	TradePnLSlope  float64
}

// ComputeStats is a pure function of its inputs. ok is false when there are
// no trades; the returned Stats is then the zero value.
func ComputeStats(trades []Trade, equity []float64) (s Stats, ok bool) {
	if len(trades) == 0 {
		return Stats{}, false
	}

	pnl := make([]float64, len(trades))
	total := decimal.Zero
	grossWin, grossLoss := decimal.Zero, decimal.Zero
	for i, t := range trades {
		pnl[i] = t.NetPnL
		d := decimal.NewFromFloat(t.NetPnL)
		total = total.Add(d)
		switch {
		case t.NetPnL > 0:
			grossWin = grossWin.Add(d)
			s.Wins++
		case t.NetPnL < 0:
			grossLoss = grossLoss.Add(d)
			s.Losses++
		}
	}

	n := float64(len(trades))
	s.TotalTrades = len(trades)
	s.TotalNetProfit = total.InexactFloat64()

	if s.Losses == 0 {
		s.ProfitFactor = math.Inf(1)
	} else {
		s.ProfitFactor = grossWin.InexactFloat64() / math.Abs(grossLoss.InexactFloat64())
	}

	if s.Wins > 0 {
		s.AvgWin = grossWin.InexactFloat64() / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = grossLoss.InexactFloat64() / float64(s.Losses)
	}
	s.WinRate = float64(s.Wins) / n
	s.LossRate = float64(s.Losses) / n

	if s.AvgLoss == 0 {
		s.Expectancy = math.NaN()
	} else {
		s.Expectancy = (s.AvgWin*s.WinRate + s.AvgLoss*s.LossRate) / math.Abs(s.AvgLoss)
	}

	s.MaxDrawdownPct = MaxDrawdownPct(equity)
	s.EquitySlope = Slope(equity)
	s.TradePnLSlope = Slope(pnl)

	return s, true
}

// MaxDrawdownPct is the most negative (equity-peak)/peak over the curve, in
// percent. Points whose running peak is not positive are skipped. A curve
// that never falls below its peak yields 0.
func MaxDrawdownPct(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0]
	worst := 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (v - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst * 100
}

// Slope is the ordinary least squares slope of ys against their index.
// Fewer than two points yield 0.
func Slope(ys []float64) float64 {
	n := len(ys)
	if n < 2 {
		return 0
	}
	var sumX, sumY float64
	for i, y := range ys {
		sumX += float64(i)
		sumY += y
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var num, den float64
	for i, y := range ys {
		dx := float64(i) - meanX
		num += dx * (y - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// Map returns the statistics keyed by their report labels.
func (s Stats) Map() map[string]float64 {
	return map[string]float64{
		"Total trades":           float64(s.TotalTrades),
		"Total Net Profit":       s.TotalNetProfit,
		"Profit Factor":          s.ProfitFactor,
		"Avg Trade Net Profit":   s.AvgWin,
		"Avg Trade Net Loss":     s.AvgLoss,
		"Win Rate":               s.WinRate,
		"Loss Rate":              s.LossRate,
		"Tharp Expectancy":       s.Expectancy,
		"Max Drawdown (%)":       s.MaxDrawdownPct,
		"Equity Curve Slope":     s.EquitySlope,
		"Trade Net Profit Slope": s.TradePnLSlope,
	}
}

// Labels lists the keys of Map in display order.
var Labels = []string{
	"Total trades",
	"Total Net Profit",
	"Profit Factor",
	"Avg Trade Net Profit",
	"Avg Trade Net Loss",
	"Win Rate",
	"Loss Rate",
	"Tharp Expectancy",
	"Max Drawdown (%)",
	"Equity Curve Slope",
	"Trade Net Profit Slope",
}

type statsJSON struct {
	TotalTrades    int       `json:"total_trades"`
	Wins           int       `json:"wins"`
	Losses         int       `json:"losses"`
	TotalNetProfit jsonFloat `json:"total_net_profit"`
	ProfitFactor   jsonFloat `json:"profit_factor"`
	AvgWin         jsonFloat `json:"avg_win"`
	AvgLoss        jsonFloat `json:"avg_loss"`
	WinRate        jsonFloat `json:"win_rate"`
	LossRate       jsonFloat `json:"loss_rate"`
	Expectancy     jsonFloat `json:"expectancy"`
	MaxDrawdownPct jsonFloat `json:"max_drawdown_pct"`
	EquitySlope    jsonFloat `json:"equity_slope"`
	TradePnLSlope  jsonFloat `json:"trade_pnl_slope"`
}

func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(statsJSON{
		TotalTrades:    s.TotalTrades,
		Wins:           s.Wins,
		Losses:         s.Losses,
		TotalNetProfit: jsonFloat(s.TotalNetProfit),
		ProfitFactor:   jsonFloat(s.ProfitFactor),
		AvgWin:         jsonFloat(s.AvgWin),
		AvgLoss:        jsonFloat(s.AvgLoss),
		WinRate:        jsonFloat(s.WinRate),
		LossRate:       jsonFloat(s.LossRate),
		Expectancy:     jsonFloat(s.Expectancy),
		MaxDrawdownPct: jsonFloat(s.MaxDrawdownPct),
		EquitySlope:    jsonFloat(s.EquitySlope),
		TradePnLSlope:  jsonFloat(s.TradePnLSlope),
	})
}

func (s *Stats) UnmarshalJSON(b []byte) error {
	var v statsJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = Stats{
		TotalTrades:    v.TotalTrades,
		Wins:           v.Wins,
		Losses:         v.Losses,
		TotalNetProfit: float64(v.TotalNetProfit),
		ProfitFactor:   float64(v.ProfitFactor),
		AvgWin:         float64(v.AvgWin),
		AvgLoss:        float64(v.AvgLoss),
		WinRate:        float64(v.WinRate),
		LossRate:       float64(v.LossRate),
		Expectancy:     float64(v.Expectancy),
		MaxDrawdownPct: float64(v.MaxDrawdownPct),
		EquitySlope:    float64(v.EquitySlope),
		TradePnLSlope:  float64(v.TradePnLSlope),
	}
	return nil
}

// jsonFloat carries NaN and infinities through JSON.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte("null"), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(v)
}

func (f *jsonFloat) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "null":
		*f = jsonFloat(math.NaN())
		return nil
	case `"+Inf"`, `"Inf"`:
		*f = jsonFloat(math.Inf(1))
		return nil
	case `"-Inf"`:
		*f = jsonFloat(math.Inf(-1))
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("stats: bad number %s: %w", b, err)
	}
	*f = jsonFloat(v)
	return nil
}
