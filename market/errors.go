package market

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupportedTimeframe = errors.New("unsupported timeframe")

// ConfigurationError is returned when a run is configured with a value the
// system cannot work with. It is raised before any data is processed.
type ConfigurationError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration: %s %q", e.Field, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if errors.Is(e.Err, ErrUnsupportedTimeframe) {
		msg += " (supported: " + strings.Join(Timeframes(), ", ") + ")"
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
