package calculate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optionsengine/models"
)

// wideningCandles builds a series whose high-low spread grows each
// sample, so the true range and ATR strictly increase.
func wideningCandles(n int, close, startSpread, spreadStep float64) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		spread := startSpread + float64(i)*spreadStep
		candles[i] = models.Candle{
			Open:  close,
			High:  close + spread,
			Low:   close - spread,
			Close: close,
		}
	}
	return candles
}

func TestATRInsufficientData(t *testing.T) {
	tests := []struct {
		name    string
		candles []models.Candle
		period  int
	}{
		{"empty series", nil, 14},
		{"one candle", wideningCandles(1, 100, 1, 1), 14},
		{"exactly period candles", wideningCandles(14, 100, 1, 1), 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ATR(tt.candles, tt.period)
			// expanding is false whenever data is short, regardless of values
			assert.False(t, got.Valid)
			assert.False(t, got.Expanding)
			assert.Zero(t, got.Value)
		})
	}
}

func TestATRExpanding(t *testing.T) {
	got := ATR(wideningCandles(20, 100, 1, 0.5), 14)

	require.True(t, got.Valid)
	assert.True(t, got.Expanding)
	assert.Greater(t, got.Value, 0.0)
}

func TestATRContracting(t *testing.T) {
	candles := wideningCandles(20, 100, 1, 0.5)
	// Reverse so spreads shrink over time.
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}

	got := ATR(candles, 14)
	require.True(t, got.Valid)
	assert.False(t, got.Expanding)
}

func TestATRValue(t *testing.T) {
	// Constant spread, flat closes: every true range equals 2*spread.
	got := ATR(flatCandles(20, 100, 3), 14)

	require.True(t, got.Valid)
	assert.InDelta(t, 6.0, got.Value, 1e-9)
	assert.False(t, got.Expanding)
}

func TestATRSeries(t *testing.T) {
	series := ATRSeries(wideningCandles(20, 100, 1, 0.5), 14)

	require.Len(t, series, 20)
	assert.False(t, series[13].Valid) // prefix of 14 candles is short
	assert.True(t, series[14].Valid)
	assert.True(t, series[19].Expanding)
}
