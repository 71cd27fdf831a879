package backtest

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Signal is the per-bar instruction produced by a strategy.
type Signal int

const (
	None Signal = iota
	Enter
	Exit
)

func (s Signal) String() string {
	switch s {
	case Enter:
		return "ENTER"
	case Exit:
		return "EXIT"
	default:
		return "NONE"
	}
}

// ParseSignal maps a signal label to a Signal. "LONG" is accepted as Enter.
// Anything unrecognized is None.
func ParseSignal(s string) Signal {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ENTER", "LONG":
		return Enter
	case "EXIT":
		return Exit
	default:
		return None
	}
}

// Side is the direction of a position. Only Long is traded.
type Side int8

const Long Side = +1

func (s Side) String() string {
	if s == Long {
		return "LONG"
	}
	return fmt.Sprintf("Side(%d)", int8(s))
}

// State of the position state machine.
type State int

const (
	Flat State = iota
	InPosition
)

func (s State) String() string {
	if s == InPosition {
		return "IN_POSITION"
	}
	return "FLAT"
}

// Action reports what OnSignal did with a bar.
type Action int

const (
	Ignored Action = iota
	Opened
	Closed
)

func (a Action) String() string {
	switch a {
	case Opened:
		return "OPENED"
	case Closed:
		return "CLOSED"
	default:
		return "IGNORED"
	}
}

// ErrBarOrder is returned when bars are not fed with strictly increasing
// indexes. The engine never reorders or buffers bars.
var ErrBarOrder = errors.New("backtest: bar index must be strictly increasing")

// Bar is one input to the state machine.
type Bar struct {
	Index   int
	Time    time.Time
	Price   float64
	Signal  Signal
	Trigger string
}

// Position is the single open position.
type Position struct {
	Side         Side      `json:"side"`
	EntryPrice   float64   `json:"entry_price"`
	EntryTime    time.Time `json:"entry_time"`
	EntryTrigger string    `json:"entry_trigger"`
	EntryIdx     int       `json:"entry_index"`
}

// Config holds the cost and capital settings of a run.
// Commission and Slippage are charged once per closed trade.
type Config struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	Commission     float64 `json:"commission_per_trade" yaml:"commission_per_trade"`
	Slippage       float64 `json:"slippage_per_trade" yaml:"slippage_per_trade"`
}

func DefaultConfig() Config {
	return Config{
		InitialCapital: 1000,
		Commission:     1.0,
		Slippage:       1.0,
	}
}

// Engine is the run state of one backtest: at most one open position, the
// trade ledger and the equity curve. An Engine belongs to exactly one run;
// concurrent runs each need their own.
type Engine struct {
	cfg    Config
	pos    Position
	open   bool
	ledger Ledger

	lastIdx int
	fed     bool
}

func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:    cfg,
		ledger: newLedger(cfg.InitialCapital),
	}
}

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) State() State {
	if e.open {
		return InPosition
	}
	return Flat
}

// Position returns the open position, if any.
func (e *Engine) Position() (Position, bool) {
	return e.pos, e.open
}

// Trades returns a copy of the ledger.
func (e *Engine) Trades() []Trade { return e.ledger.Trades() }

// Equity returns a copy of the equity curve.
func (e *Engine) Equity() []float64 { return e.ledger.Equity() }

// Capital is the last point of the equity curve.
func (e *Engine) Capital() float64 { return e.ledger.Capital() }

// OnSignal advances the state machine by one bar.
//
//	FLAT        --Enter--> IN_POSITION  (records entry)
//	IN_POSITION --Exit-->  FLAT         (appends one trade and one equity point)
//
// Every other combination is ignored and leaves the state untouched.
func (e *Engine) OnSignal(b Bar) (Action, error) {
	if e.fed && b.Index <= e.lastIdx {
		return Ignored, fmt.Errorf("%w: got %d after %d", ErrBarOrder, b.Index, e.lastIdx)
	}
	e.fed = true
	e.lastIdx = b.Index

	switch {
	case b.Signal == Enter && !e.open:
		e.openPosition(b)
		return Opened, nil
	case b.Signal == Exit && e.open:
		e.closePosition(b)
		return Closed, nil
	}
	return Ignored, nil
}

func (e *Engine) openPosition(b Bar) {
	e.pos = Position{
		Side:         Long,
		EntryPrice:   b.Price,
		EntryTime:    b.Time,
		EntryTrigger: b.Trigger,
		EntryIdx:     b.Index,
	}
	e.open = true
}

func (e *Engine) closePosition(b Bar) {
	p := e.pos
	e.pos = Position{}
	e.open = false

	net := netPnL(p.EntryPrice, b.Price, e.cfg.Commission, e.cfg.Slippage)

	pct := 0.0
	if p.EntryPrice != 0 {
		pct = net / p.EntryPrice * 100
	}

	result := Loss
	if net > 0 {
		result = Win
	}

	e.ledger.append(Trade{
		EntryTime:    p.EntryTime,
		ExitTime:     b.Time,
		Side:         p.Side,
		EntryPrice:   p.EntryPrice,
		ExitPrice:    b.Price,
		NetPnL:       net,
		PnLPct:       pct,
		Result:       result,
		EntryTrigger: p.EntryTrigger,
		ExitTrigger:  b.Trigger,
		BarsInTrade:  b.Index - p.EntryIdx,
	})
}
