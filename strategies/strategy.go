// Package strategies holds the signal functions the backtest runner drives.
package strategies

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/backtester/backtest"
)

var (
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrInvalidParams   = errors.New("invalid strategy parameters")
)

// Params are the tunables shared by the built-in strategies.
type Params struct {
	Fast int `json:"ema_fast" yaml:"ema_fast"`
	Slow int `json:"ema_slow" yaml:"ema_slow"`
}

// Factory builds a fresh strategy instance. Instances hold per-run state and
// must not be shared between concurrent runs.
type Factory func(p Params) (backtest.Strategy, error)

var registry = map[string]Factory{
	"noop": func(Params) (backtest.Strategy, error) { return Noop{}, nil },
	"ema_cross": func(p Params) (backtest.Strategy, error) {
		return NewEMACross(p.Fast, p.Slow)
	},
}

var aliases = map[string]string{
	"none":      "noop",
	"ema-cross": "ema_cross",
	"emacross":  "ema_cross",
}

// Register adds or replaces a named strategy.
func Register(name string, f Factory) {
	registry[normalize(name)] = f
}

// Names lists the registered strategies.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ByName builds the named strategy.
func ByName(name string, p Params) (backtest.Strategy, error) {
	f, ok := registry[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (supported: %s)", ErrUnknownStrategy, name, strings.Join(Names(), ", "))
	}
	return f(p)
}

func normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[n]; ok {
		return a
	}
	return n
}
