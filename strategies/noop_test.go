package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
)

func TestNoop(t *testing.T) {
	t.Parallel()

	s, err := ByName("none", Params{})
	require.NoError(t, err)
	assert.Equal(t, "noop", s.Name())
	assert.Zero(t, s.Warmup())

	for i := 0; i < 5; i++ {
		d := s.Update(market.Candle{Timestamp: int64(i), Close: float64(i)})
		assert.Equal(t, backtest.None, d.Signal)
	}
}

func TestByNameErrors(t *testing.T) {
	t.Parallel()

	_, err := ByName("rsi", Params{})
	require.ErrorIs(t, err, ErrUnknownStrategy)
	assert.Contains(t, err.Error(), "ema_cross, noop")

	_, err = ByName("EMA-Cross", Params{Fast: 5, Slow: 5})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"ema_cross", "noop"}, Names())
}
