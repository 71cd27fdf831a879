package journal

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCandlesCSVWithHeader(t *testing.T) {
	t.Parallel()

	in := `Time,Open,High,Low,Close,Volume
2024-01-01T00:00:00Z,100,105,99,104,12.5
2024-01-01 01:00:00,104,106,103,bad,3
`
	got, err := ReadCandlesCSV(strings.NewReader(in), btc)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, btc, got[0].Series())
	assert.Equal(t, int64(1704067200000), got[0].Timestamp)
	assert.Equal(t, 104.0, got[0].Close)
	assert.Equal(t, 12.5, got[0].Volume)

	assert.Equal(t, int64(1704067200000+3_600_000), got[1].Timestamp)
	assert.True(t, math.IsNaN(got[1].Close), "malformed number becomes NaN")
	assert.True(t, got[1].HasNaN())
}

func TestReadCandlesCSVHeaderReordered(t *testing.T) {
	t.Parallel()

	in := "volume,close,low,high,open,timestamp\n7,2,1,3,1.5,60000\n"
	got, err := ReadCandlesCSV(strings.NewReader(in), btc)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(60000), got[0].Timestamp)
	assert.Equal(t, 1.5, got[0].Open)
	assert.Equal(t, 3.0, got[0].High)
	assert.Equal(t, 1.0, got[0].Low)
	assert.Equal(t, 2.0, got[0].Close)
	assert.Equal(t, 7.0, got[0].Volume)
}

func TestReadCandlesCSVNoHeader(t *testing.T) {
	t.Parallel()

	in := "0,1,2,0.5,1.5,10\n3600000,1.5,2,1,1\n"
	got, err := ReadCandlesCSV(strings.NewReader(in), btc)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(0), got[0].Timestamp)
	assert.True(t, math.IsNaN(got[1].Volume), "missing column becomes NaN")
}

func TestReadCandlesCSVErrors(t *testing.T) {
	t.Parallel()

	_, err := ReadCandlesCSV(strings.NewReader("timestamp,open,high,low,close\n"), btc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "volume")

	_, err = ReadCandlesCSV(strings.NewReader("0,1,1,1,1,1\nyesterday,1,1,1,1,1\n"), btc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
