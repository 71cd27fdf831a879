package market

import (
	"sort"
	"time"
)

// timeframeSteps maps each supported timeframe code to its bar spacing.
// Adding a timeframe is a code change.
var timeframeSteps = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}

// Step returns the spacing of a timeframe code.
// An unknown code yields a *ConfigurationError.
func Step(timeframe string) (time.Duration, error) {
	d, ok := timeframeSteps[timeframe]
	if !ok {
		return 0, &ConfigurationError{
			Field: "timeframe",
			Value: timeframe,
			Err:   ErrUnsupportedTimeframe,
		}
	}
	return d, nil
}

// StepMillis is Step expressed in milliseconds.
func StepMillis(timeframe string) (int64, error) {
	d, err := Step(timeframe)
	if err != nil {
		return 0, err
	}
	return d.Milliseconds(), nil
}

// Timeframes returns the supported codes, shortest first.
func Timeframes() []string {
	codes := make([]string, 0, len(timeframeSteps))
	for k := range timeframeSteps {
		codes = append(codes, k)
	}
	sort.Slice(codes, func(i, j int) bool {
		return timeframeSteps[codes[i]] < timeframeSteps[codes[j]]
	})
	return codes
}
