package signal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"optionsengine/config"
	"optionsengine/models"
)

// state is the engine's decision state. It is recomputed on every
// invocation, never persisted.
type state int

const (
	noSignal state = iota
	bullishCandidate
	bearishCandidate
	confirmedCall
	confirmedPut
	decisionError
)

// Inputs gathers everything one Decide call consumes. Optional
// readings carry a presence flag; absent readings degrade to neutral
// behavior rather than failing the decision.
type Inputs struct {
	Price      float64
	PriceOK    bool
	Indicators *models.IndicatorSet

	PCR    float64
	HasPCR bool

	VIX    float64
	HasVIX bool

	Sentiment    int
	HasSentiment bool

	StrikeStep float64
	Now        time.Time
}

// Engine turns indicator inputs into a trade recommendation using the
// configured threshold table.
type Engine struct {
	thresholds config.Thresholds
	logger     zerolog.Logger
}

// NewEngine creates a signal engine.
func NewEngine(thresholds config.Thresholds) *Engine {
	return &Engine{
		thresholds: thresholds,
		logger:     log.With().Str("component", "signal_engine").Logger(),
	}
}

// Decide produces the SignalRecord for one instrument and run.
//
// The decision walks NO_SIGNAL → BULLISH/BEARISH_CANDIDATE →
// CONFIRMED_CALL/PUT; anything that does not confirm lands on AVOID.
// ERROR fires only when a required input (price, indicators) is
// missing, and carries a readable cause.
func (e *Engine) Decide(in Inputs) models.SignalRecord {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	record := models.SignalRecord{
		Side: models.SideAvoid,
		Time: now.Format("15:04"),
	}

	if missing := requiredMissing(in); len(missing) > 0 {
		record.Side = fmt.Sprintf("%s - Missing: %s", models.SideError, strings.Join(missing, ", "))
		record.Error = "required inputs unavailable"
		record.Price = "N/A"
		e.logger.Error().Strs("missing", missing).Msg("Decision aborted")
		return record
	}

	record.Price = fmt.Sprintf("₹%.2f", in.Price)
	record.Indicators = in.Indicators
	if in.HasPCR {
		record.PCR = in.PCR
	}
	if in.HasVIX {
		record.VIX = in.VIX
	}
	if in.HasSentiment {
		record.Sentiment = in.Sentiment
	}

	bull, bear, evaluated := e.score(in)
	st := e.transition(in, bull, bear)

	e.logger.Debug().
		Int("bullish", bull).
		Int("bearish", bear).
		Int("state", int(st)).
		Msg("Conditions scored")

	switch st {
	case confirmedCall:
		e.fillDirectional(&record, in, models.SideBuyCall, bull, evaluated, now)
	case confirmedPut:
		e.fillDirectional(&record, in, models.SideBuyPut, bear, evaluated, now)
	default:
		// AVOID carries no entry/target/stop.
	}

	e.applyVolatilityPolicy(&record, in)
	return record
}

// requiredMissing names the upstream inputs the decision cannot run
// without.
func requiredMissing(in Inputs) []string {
	var missing []string
	if !in.PriceOK {
		missing = append(missing, "price")
	}
	if in.Indicators == nil {
		missing = append(missing, "indicators")
	}
	return missing
}

// score counts the independent bullish and bearish conditions, and
// how many conditions were evaluated per side (confidence base).
func (e *Engine) score(in Inputs) (bull, bear, evaluated int) {
	th := e.thresholds
	ind := in.Indicators

	evaluated = 4 // SMA20 side, SMA50 side, RSI band, momentum sign

	if in.Price > ind.SMAShort {
		bull++
	} else if in.Price < ind.SMAShort {
		bear++
	}
	if in.Price > ind.SMALong {
		bull++
	} else if in.Price < ind.SMALong {
		bear++
	}

	if ind.RSI > th.RSILowerNeutral && ind.RSI < th.RSIOverbought {
		bull++
	} else if ind.RSI > th.RSIOversold && ind.RSI < th.RSILowerNeutral {
		bear++
	}

	if ind.Momentum > th.MomentumThresholdPct {
		bull++
	} else if ind.Momentum < -th.MomentumThresholdPct {
		bear++
	}

	if ind.VolumeSpike {
		evaluated++
		// A spike confirms whichever way the tape is leaning.
		if in.Price > ind.SMAShort {
			bull++
		} else if in.Price < ind.SMAShort {
			bear++
		}
	}

	if in.HasPCR {
		evaluated++
		if in.PCR > th.PCRBullish {
			bull++
		} else if in.PCR < th.PCRBearish {
			bear++
		}
	}

	if in.HasSentiment {
		evaluated++
		if in.Sentiment > 0 {
			bull++
		} else if in.Sentiment < 0 {
			bear++
		}
	}

	return bull, bear, evaluated
}

// transition resolves the decision state from the gating conditions
// and the confirmation score. Ties and partial scores fall back to
// NO_SIGNAL.
func (e *Engine) transition(in Inputs, bull, bear int) state {
	th := e.thresholds
	ind := in.Indicators

	st := noSignal
	switch {
	case in.Price > ind.SMAShort &&
		ind.RSI > th.RSILowerNeutral && ind.RSI < th.RSIOverbought &&
		ind.Momentum > th.MomentumThresholdPct:
		st = bullishCandidate
	case in.Price < ind.SMAShort &&
		ind.RSI > th.RSIOversold && ind.RSI < th.RSILowerNeutral &&
		ind.Momentum < -th.MomentumThresholdPct:
		st = bearishCandidate
	}

	if bull == bear {
		return noSignal
	}

	switch st {
	case bullishCandidate:
		if bull >= th.MinConditions && bull > bear {
			return confirmedCall
		}
	case bearishCandidate:
		if bear >= th.MinConditions && bear > bull {
			return confirmedPut
		}
	}

	return noSignal
}

// fillDirectional populates entry, target, stop, strikes, expiry and
// confidence for a confirmed signal.
func (e *Engine) fillDirectional(record *models.SignalRecord, in Inputs, side string, score, evaluated int, now time.Time) {
	th := e.thresholds

	// Target distance scales with available volatility; absent
	// volatility means multiplier 1.
	move := th.BaseMove
	if in.HasVIX {
		move = th.BaseMove * (1 + in.VIX/100)
	}

	record.Side = side
	switch side {
	case models.SideBuyCall:
		record.Entry = fmt.Sprintf("Above %.2f", in.Price)
		record.Target = in.Price + move
		record.StopLoss = in.Price - move/2
	case models.SideBuyPut:
		record.Entry = fmt.Sprintf("Below %.2f", in.Price)
		record.Target = in.Price - move
		record.StopLoss = in.Price + move/2
	}
	record.Exit = fmt.Sprintf("Target %.2f", record.Target)

	if evaluated > 0 {
		record.Confidence = score * 100 / evaluated
	}
	if in.StrikeStep > 0 {
		record.Strikes = SuggestedStrikes(in.Price, in.StrikeStep, side)
	}
	record.Expiry = NextWeeklyExpiry(now).Format("2006-01-02")

	e.logger.Info().
		Str("side", side).
		Float64("target", record.Target).
		Float64("stop_loss", record.StopLoss).
		Int("confidence", record.Confidence).
		Msg("Signal confirmed")
}

// applyVolatilityPolicy handles a volatility reading above the
// ceiling: warn appends a non-blocking qualifier to the side string,
// veto forces AVOID.
func (e *Engine) applyVolatilityPolicy(record *models.SignalRecord, in Inputs) {
	th := e.thresholds
	if !in.HasVIX || in.VIX <= th.VolatilityCeiling {
		return
	}
	if strings.HasPrefix(record.Side, models.SideError) {
		return
	}

	switch th.VolatilityPolicy {
	case "veto":
		if record.Side != models.SideAvoid {
			e.logger.Warn().Float64("vix", in.VIX).Msg("High volatility veto")
			record.Side = models.SideAvoid
			record.Entry = ""
			record.Exit = ""
			record.Target = 0
			record.StopLoss = 0
			record.Strikes = nil
			record.Expiry = ""
			record.Confidence = 0
		}
	default: // warn
		e.logger.Warn().Float64("vix", in.VIX).Msg("High volatility detected")
		record.Side += fmt.Sprintf(" | High Volatility (VIX: %.2f)", in.VIX)
	}
}
