package calculate

import (
	"math"

	"optionsengine/models"
)

// ATRResult carries the Average True Range state for one point in a
// series. Valid=false is the insufficient-data state (fewer than
// period+1 samples), not an error.
type ATRResult struct {
	Value     float64
	Valid     bool
	Expanding bool
}

// ATR computes the rolling-mean Average True Range over the last
// `period` true ranges, and whether it is expanding relative to the
// previous sample's ATR.
func ATR(candles []models.Candle, period int) ATRResult {
	if period <= 0 || len(candles) < period+1 {
		return ATRResult{}
	}

	ranges := trueRanges(candles)

	current := mean(ranges[len(ranges)-period:])
	result := ATRResult{Value: current, Valid: true}

	// The previous ATR needs one more sample to exist.
	if len(ranges) > period {
		previous := mean(ranges[len(ranges)-period-1 : len(ranges)-1])
		result.Expanding = current > previous
	}

	return result
}

// ATRSeries computes the ATR at every candle index, each over the
// prefix ending there. Indices without enough history carry the
// zero (not valid, not expanding) result.
func ATRSeries(candles []models.Candle, period int) []ATRResult {
	results := make([]ATRResult, len(candles))
	for i := range candles {
		results[i] = ATR(candles[:i+1], period)
	}
	return results
}

// trueRanges returns the per-candle true range series (one element
// shorter than the input).
func trueRanges(candles []models.Candle) []float64 {
	ranges := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		highLow := candles[i].High - candles[i].Low
		highPrevClose := math.Abs(candles[i].High - candles[i-1].Close)
		lowPrevClose := math.Abs(candles[i].Low - candles[i-1].Close)

		ranges = append(ranges, math.Max(highLow, math.Max(highPrevClose, lowPrevClose)))
	}
	return ranges
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
