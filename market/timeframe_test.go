package market

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepMillis(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want int64
	}{
		{"1m", 60_000},
		{"3m", 180_000},
		{"5m", 300_000},
		{"15m", 900_000},
		{"30m", 1_800_000},
		{"1h", 3_600_000},
		{"2h", 7_200_000},
		{"4h", 14_400_000},
		{"1d", 86_400_000},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := StepMillis(tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStepUnknownTimeframe(t *testing.T) {
	t.Parallel()

	_, err := Step("7m")
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "timeframe", cfgErr.Field)
	assert.Equal(t, "7m", cfgErr.Value)
	assert.True(t, errors.Is(err, ErrUnsupportedTimeframe))
	assert.Contains(t, err.Error(), "supported: 1m, 3m, 5m")
}

func TestStepIsExact(t *testing.T) {
	t.Parallel()

	_, err := Step(" 15m")
	assert.ErrorIs(t, err, ErrUnsupportedTimeframe)

	s := Series{Exchange: " binance", Symbol: "BTC/USDT ", Timeframe: "\t15m\n"}.Normalize()
	assert.Equal(t, Series{Exchange: "binance", Symbol: "BTC/USDT", Timeframe: "15m"}, s)

	_, err = Step(s.Timeframe)
	assert.NoError(t, err)
}

func TestTimeframesOrdered(t *testing.T) {
	t.Parallel()

	codes := Timeframes()
	require.Len(t, codes, 9)
	assert.Equal(t, "1m", codes[0])
	assert.Equal(t, "1d", codes[len(codes)-1])
}

func TestCandleHelpers(t *testing.T) {
	t.Parallel()

	c := Candle{
		Exchange: "binance", Symbol: "BTC/USDT", Timeframe: "15m",
		Timestamp: 1_514_764_800_000,
		Open:      1, High: 2, Low: 0.5, Close: 1.5, Volume: 10,
	}
	assert.Equal(t, Key{"binance", "BTC/USDT", "15m", 1_514_764_800_000}, c.Key())
	assert.Equal(t, time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), c.Time())
	assert.Equal(t, "2018-01-01T00:00:00Z", FormatMillis(c.Timestamp))
	assert.False(t, c.HasNaN())

	c.Volume = math.NaN()
	assert.True(t, c.HasNaN())

	flat := c.Series().Flat(42, 7)
	assert.Equal(t, Candle{Exchange: "binance", Symbol: "BTC/USDT", Timeframe: "15m", Timestamp: 42, Open: 7, High: 7, Low: 7, Close: 7}, flat)
	assert.Equal(t, []float64{1.5}, Closes([]Candle{{Close: 1.5}}))
}
