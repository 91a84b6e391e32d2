package signal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optionsengine/config"
	"optionsengine/models"
)

func bullishInputs() Inputs {
	return Inputs{
		Price:   100,
		PriceOK: true,
		Indicators: &models.IndicatorSet{
			RSI:      60,
			SMAShort: 95,
			SMALong:  90,
			Momentum: 1.0,
		},
		Now: time.Date(2025, 1, 6, 10, 30, 0, 0, time.UTC),
	}
}

func bearishInputs() Inputs {
	return Inputs{
		Price:   100,
		PriceOK: true,
		Indicators: &models.IndicatorSet{
			RSI:      40,
			SMAShort: 105,
			SMALong:  110,
			Momentum: -1.0,
		},
		Now: time.Date(2025, 1, 6, 10, 30, 0, 0, time.UTC),
	}
}

func TestDecideBuyCall(t *testing.T) {
	engine := NewEngine(config.DefaultThresholds())

	// price above SMA20 and SMA50, RSI in band, momentum positive:
	// four bullish conditions, zero bearish.
	record := engine.Decide(bullishInputs())

	assert.Equal(t, models.SideBuyCall, record.Side)
	assert.Greater(t, record.Target, 100.0)
	assert.Less(t, record.StopLoss, 100.0)
	assert.Equal(t, "Above 100.00", record.Entry)
	assert.Equal(t, "Target 200.00", record.Exit)
	assert.Equal(t, "10:30", record.Time)
	assert.Equal(t, "₹100.00", record.Price)
	assert.NotEmpty(t, record.Expiry)
}

func TestDecideBuyPut(t *testing.T) {
	engine := NewEngine(config.DefaultThresholds())

	record := engine.Decide(bearishInputs())

	assert.Equal(t, models.SideBuyPut, record.Side)
	assert.Less(t, record.Target, 100.0)
	assert.Greater(t, record.StopLoss, 100.0)
	assert.Equal(t, "Below 100.00", record.Entry)
}

func TestDecideTieIsAvoid(t *testing.T) {
	engine := NewEngine(config.DefaultThresholds())

	// Bullish candidate gating passes, but SMA50, PCR and sentiment
	// all lean bearish: three conditions each way.
	in := Inputs{
		Price:   100,
		PriceOK: true,
		Indicators: &models.IndicatorSet{
			RSI:      60,
			SMAShort: 95,
			SMALong:  105,
			Momentum: 1.0,
		},
		PCR:          0.5,
		HasPCR:       true,
		Sentiment:    -3,
		HasSentiment: true,
	}

	record := engine.Decide(in)

	assert.Equal(t, models.SideAvoid, record.Side)
	assert.Empty(t, record.Entry)
	assert.Empty(t, record.Exit)
	assert.Zero(t, record.Target)
	assert.Zero(t, record.StopLoss)
}

func TestDecideNoCandidateIsAvoid(t *testing.T) {
	engine := NewEngine(config.DefaultThresholds())

	// RSI sits in neither band, so no candidate forms even though
	// price and momentum lean bullish.
	in := Inputs{
		Price:   100,
		PriceOK: true,
		Indicators: &models.IndicatorSet{
			RSI:      75,
			SMAShort: 95,
			SMALong:  90,
			Momentum: 1.0,
		},
	}

	record := engine.Decide(in)
	assert.Equal(t, models.SideAvoid, record.Side)
}

func TestDecideErrorOnMissingInputs(t *testing.T) {
	engine := NewEngine(config.DefaultThresholds())

	tests := []struct {
		name    string
		in      Inputs
		missing string
	}{
		{
			name:    "no price",
			in:      Inputs{Indicators: &models.IndicatorSet{RSI: 50}},
			missing: "price",
		},
		{
			name:    "no indicators",
			in:      Inputs{Price: 100, PriceOK: true},
			missing: "indicators",
		},
		{
			name:    "nothing at all",
			in:      Inputs{},
			missing: "price, indicators",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := engine.Decide(tt.in)

			assert.True(t, strings.HasPrefix(record.Side, models.SideError))
			assert.Contains(t, record.Side, tt.missing)
			assert.NotEmpty(t, record.Error)
			assert.Equal(t, "N/A", record.Price)
			assert.Empty(t, record.Entry)
		})
	}
}

func TestDecideVolatilityScalesMove(t *testing.T) {
	engine := NewEngine(config.DefaultThresholds())

	in := bullishInputs()
	in.VIX = 10
	in.HasVIX = true

	record := engine.Decide(in)

	// move = 100 * (1 + 10/100) = 110
	require.Equal(t, models.SideBuyCall, record.Side)
	assert.InDelta(t, 210, record.Target, 1e-9)
	assert.InDelta(t, 45, record.StopLoss, 1e-9)
}

func TestDecideHighVolatilityWarn(t *testing.T) {
	engine := NewEngine(config.DefaultThresholds())

	in := bullishInputs()
	in.VIX = 25.5
	in.HasVIX = true

	record := engine.Decide(in)

	// warn policy appends a qualifier instead of vetoing
	assert.True(t, strings.HasPrefix(record.Side, models.SideBuyCall))
	assert.Contains(t, record.Side, "High Volatility (VIX: 25.50)")
	assert.NotEmpty(t, record.Entry)
}

func TestDecideHighVolatilityVeto(t *testing.T) {
	th := config.DefaultThresholds()
	th.VolatilityPolicy = "veto"
	engine := NewEngine(th)

	in := bullishInputs()
	in.VIX = 25.5
	in.HasVIX = true

	record := engine.Decide(in)

	assert.Equal(t, models.SideAvoid, record.Side)
	assert.Empty(t, record.Entry)
	assert.Empty(t, record.Exit)
	assert.Zero(t, record.Target)
	assert.Nil(t, record.Strikes)
}

func TestDecideSuggestedStrikes(t *testing.T) {
	engine := NewEngine(config.DefaultThresholds())

	in := bullishInputs()
	in.Price = 22512
	in.Indicators.SMAShort = 22400
	in.Indicators.SMALong = 22300
	in.StrikeStep = 50

	record := engine.Decide(in)

	require.Equal(t, models.SideBuyCall, record.Side)
	assert.Equal(t, []float64{22500, 22550, 22600}, record.Strikes)
}

func TestDecideConfidenceBounds(t *testing.T) {
	engine := NewEngine(config.DefaultThresholds())

	in := bullishInputs()
	in.PCR = 1.5
	in.HasPCR = true
	in.Sentiment = 3
	in.HasSentiment = true

	record := engine.Decide(in)

	require.Equal(t, models.SideBuyCall, record.Side)
	assert.Greater(t, record.Confidence, 0)
	assert.LessOrEqual(t, record.Confidence, 100)
}

func TestDecideCarriesRawInputs(t *testing.T) {
	engine := NewEngine(config.DefaultThresholds())

	in := bullishInputs()
	in.PCR = 1.3
	in.HasPCR = true
	in.VIX = 14
	in.HasVIX = true
	in.Sentiment = -2
	in.HasSentiment = true

	record := engine.Decide(in)

	assert.Equal(t, 1.3, record.PCR)
	assert.Equal(t, 14.0, record.VIX)
	assert.Equal(t, -2, record.Sentiment)
	assert.NotNil(t, record.Indicators)
}
