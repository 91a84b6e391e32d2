package scanner

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"optionsengine/config"
	"optionsengine/internal/calculate"
	"optionsengine/models"
)

// Scanner walks one session's candles after the opening range and
// emits every qualifying breakout, subject to strength tiers, a
// cooldown between accepted trades, and a per-session trade cap.
type Scanner struct {
	thresholds config.Thresholds
	logger     zerolog.Logger
}

// NewScanner creates an opening-range breakout scanner.
func NewScanner(thresholds config.Thresholds) *Scanner {
	return &Scanner{
		thresholds: thresholds,
		logger:     log.With().Str("component", "orb_scanner").Logger(),
	}
}

// Scan produces the ordered trade list for one session. Zero trades is
// a valid terminal outcome (NO_SIGNALS), and an unformed opening range
// reports WAITING; neither is an error.
func (s *Scanner) Scan(candles []models.Candle, vix float64, hasVIX bool) models.ScanResult {
	th := s.thresholds

	// A fetch sized in bars can reach back into the previous session;
	// its afternoon candles must not be matched against today's range.
	candles = latestSession(candles)

	orb := calculate.OpeningRange(candles, th.ORBWindowStart, th.ORBWindowEnd, th.ORBMinSamples)
	result := models.ScanResult{
		Status: models.ScanWaiting,
		Range:  orb,
		Trades: []models.TradeEvent{},
	}
	if !orb.Formed {
		s.logger.Info().Msg("Opening range not formed yet")
		return result
	}

	rangeSize := orb.Size()
	atr := calculate.ATRSeries(candles, th.ATRPeriod)
	volatilityUnsafe := hasVIX && vix > th.VolatilityCeiling

	cooldownUntil := -1
	for i, c := range candles {
		if len(result.Trades) >= th.MaxTradesPerSession {
			break
		}

		clock := c.Timestamp.Format("15:04")
		if clock < th.ORBWindowEnd {
			// Still inside (or before) the opening window.
			continue
		}
		if i <= cooldownUntil || i == 0 {
			continue
		}

		var direction string
		var distance float64
		switch {
		case c.Close > orb.High:
			direction = models.DirectionCall
			distance = c.Close - orb.High
		case c.Close < orb.Low:
			direction = models.DirectionPut
			distance = orb.Low - c.Close
		default:
			continue
		}

		// Too weak a poke triggers nothing, not even the cooldown.
		var strength string
		switch {
		case distance > th.StrengthStrong*rangeSize:
			strength = models.StrengthStrong
		case distance > th.StrengthModerate*rangeSize:
			strength = models.StrengthModerate
		default:
			continue
		}

		if volatilityUnsafe {
			s.logger.Debug().Str("time", clock).Msg("Breakout rejected: volatility unsafe")
			continue
		}
		if !atr[i].Expanding {
			s.logger.Debug().Str("time", clock).Msg("Breakout rejected: ATR not expanding")
			continue
		}
		if clock >= th.LateSessionCutoff && strength != models.StrengthStrong {
			s.logger.Debug().Str("time", clock).Msg("Breakout rejected: late session, not strong")
			continue
		}

		// Entry is the last fully closed candle, never the one still
		// in progress.
		event := models.TradeEvent{
			Sequence:   len(result.Trades) + 1,
			EntryTime:  clock,
			EntryPrice: candles[i-1].Close,
			Direction:  direction,
			Strength:   strength,
		}
		switch direction {
		case models.DirectionCall:
			event.Target = orb.High + 1.5*rangeSize
			event.StopLoss = orb.High - 0.2*rangeSize
		case models.DirectionPut:
			event.Target = orb.Low - 1.5*rangeSize
			event.StopLoss = orb.Low + 0.2*rangeSize
		}

		result.Trades = append(result.Trades, event)
		cooldownUntil = i + th.CooldownSamples

		s.logger.Info().
			Int("sequence", event.Sequence).
			Str("direction", direction).
			Str("strength", strength).
			Float64("entry", event.EntryPrice).
			Msg("Breakout accepted")
	}

	if len(result.Trades) > 0 {
		result.Status = models.ScanComplete
	} else {
		result.Status = models.ScanNoSignals
	}
	return result
}

// latestSession trims a chronological series to the candles sharing
// the last candle's calendar date.
func latestSession(candles []models.Candle) []models.Candle {
	if len(candles) == 0 {
		return candles
	}

	day := candles[len(candles)-1].Timestamp.Format("2006-01-02")
	for i := len(candles) - 1; i >= 0; i-- {
		if candles[i].Timestamp.Format("2006-01-02") != day {
			return candles[i+1:]
		}
	}
	return candles
}
