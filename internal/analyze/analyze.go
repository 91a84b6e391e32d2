package analyze

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"optionsengine/config"
	"optionsengine/internal/calculate"
	"optionsengine/internal/signal"
	"optionsengine/models"
)

// CandleSource supplies chronological OHLCV history for a symbol.
type CandleSource interface {
	GetCandles(ctx context.Context, symbol, interval string, count int) ([]models.Candle, error)
}

// ChainSource supplies the option chain (spot price + PCR) for an
// index.
type ChainSource interface {
	GetOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error)
}

// VIXSource supplies a single volatility-index reading.
type VIXSource interface {
	GetVIX(ctx context.Context) (float64, error)
}

// SentimentSource supplies a bounded news sentiment score; it never
// fails, degrading to neutral instead.
type SentimentSource interface {
	GetSentiment(ctx context.Context) int
}

// Analyzer runs the fetch → indicators → decision pipeline for every
// configured instrument. Failures are isolated per instrument: the
// result always holds one record per instrument.
type Analyzer struct {
	cfg       *config.Config
	candles   CandleSource
	chains    ChainSource
	vix       VIXSource
	vixBackup VIXSource
	sentiment SentimentSource
	engine    *signal.Engine
	logger    zerolog.Logger
}

// New creates an Analyzer. vixBackup and sentiment may be nil.
func New(cfg *config.Config, candles CandleSource, chains ChainSource, vix, vixBackup VIXSource, sentiment SentimentSource) *Analyzer {
	return &Analyzer{
		cfg:       cfg,
		candles:   candles,
		chains:    chains,
		vix:       vix,
		vixBackup: vixBackup,
		sentiment: sentiment,
		engine:    signal.NewEngine(cfg.Thresholds),
		logger:    log.With().Str("component", "analyzer").Logger(),
	}
}

// Run analyzes all configured instruments and returns one record per
// instrument key. Instruments are independent, so they run
// concurrently; shared readings (VIX, sentiment) are fetched once.
func (a *Analyzer) Run(ctx context.Context) map[string]models.SignalRecord {
	vixValue, hasVIX := a.fetchVIX(ctx)

	sentimentScore := 0
	hasSentiment := false
	if a.sentiment != nil {
		sentimentScore = a.sentiment.GetSentiment(ctx)
		hasSentiment = true
	}

	results := make(map[string]models.SignalRecord, len(a.cfg.Instruments))

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, inst := range a.cfg.Instruments {
		wg.Add(1)

		go func(inst config.Instrument) {
			defer wg.Done()

			record := a.analyzeInstrument(ctx, inst, vixValue, hasVIX, sentimentScore, hasSentiment)

			mu.Lock()
			results[inst.Key] = record
			mu.Unlock()
		}(inst)
	}

	wg.Wait()
	return results
}

// analyzeInstrument produces the SignalRecord for one instrument. Any
// upstream failure ends in a well-formed ERROR record, never a panic
// or a missing entry.
func (a *Analyzer) analyzeInstrument(ctx context.Context, inst config.Instrument, vix float64, hasVIX bool, sentiment int, hasSentiment bool) models.SignalRecord {
	logger := a.logger.With().Str("instrument", inst.Key).Logger()

	in := signal.Inputs{
		VIX:          vix,
		HasVIX:       hasVIX,
		Sentiment:    sentiment,
		HasSentiment: hasSentiment,
		StrikeStep:   inst.StrikeStep,
		Now:          time.Now(),
	}

	chain, err := a.chains.GetOptionChain(ctx, inst.Symbol)
	if err != nil {
		logger.Error().Err(err).Msg("Option chain fetch failed")
	} else {
		in.Price = chain.SpotPrice
		in.PriceOK = true
		in.PCR = chain.PCR
		in.HasPCR = true
	}

	candles, err := a.candles.GetCandles(ctx, inst.DataSymbol, a.cfg.Interval, a.cfg.CandleCount)
	if err != nil {
		logger.Error().Err(err).Msg("Candle fetch failed")
	} else {
		in.Indicators = BuildIndicators(candles, a.cfg.Thresholds, in.Price, in.PriceOK)

		// Without an option chain the latest close still gives the
		// engine a price to work from.
		if !in.PriceOK && len(candles) > 0 {
			in.Price = candles[len(candles)-1].Close
			in.PriceOK = true
		}
	}

	return a.engine.Decide(in)
}

// BuildIndicators derives the IndicatorSet from a candle series. When
// an SMA window has too few samples the current price is substituted
// as the documented degenerate fallback.
func BuildIndicators(candles []models.Candle, th config.Thresholds, price float64, priceOK bool) *models.IndicatorSet {
	if len(candles) == 0 {
		return nil
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	current := closes[len(closes)-1]
	if !priceOK {
		price = current
	}

	ind := &models.IndicatorSet{
		RSI: calculate.RSI(closes, th.RSIPeriod),
	}

	ind.SMAShort, ind.SMAShortOK = calculate.SMA(closes, th.SMAShortWindow)
	if !ind.SMAShortOK {
		ind.SMAShort = price
	}
	ind.SMALong, ind.SMALongOK = calculate.SMA(closes, th.SMALongWindow)
	if !ind.SMALongOK {
		ind.SMALong = price
	}

	if support, resistance, _, ok := calculate.SupportResistance(candles, th.SRWindow); ok {
		ind.Support = support
		ind.Resistance = resistance
	}

	atr := calculate.ATR(candles, th.ATRPeriod)
	ind.ATRValid = atr.Valid
	if atr.Valid {
		ind.ATR = atr.Value
		ind.ATRRising = atr.Expanding
	}

	ind.Momentum, _ = calculate.Momentum(closes, th.MomentumLookback)
	ind.VolumeSpike = calculate.VolumeSpike(candles, th.SMAShortWindow)

	return ind
}

// fetchVIX tries the primary volatility source, then the backup.
// Unavailable volatility is assumed safe; the engine runs with a
// neutral multiplier.
func (a *Analyzer) fetchVIX(ctx context.Context) (float64, bool) {
	if a.vix != nil {
		v, err := a.vix.GetVIX(ctx)
		if err == nil {
			return v, true
		}
		a.logger.Warn().Err(err).Msg("Primary VIX source failed")
	}
	if a.vixBackup != nil {
		v, err := a.vixBackup.GetVIX(ctx)
		if err == nil {
			return v, true
		}
		a.logger.Warn().Err(err).Msg("Backup VIX source failed")
	}
	return 0, false
}
