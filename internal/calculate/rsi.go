package calculate

import "math"

// RSI computes the Relative Strength Index over closing prices using
// simple averaging of the trailing `period` gains and losses.
//
// Fewer than period+1 samples returns the neutral default of 50. A
// zero average loss returns 100 (fully bullish) to avoid dividing by
// zero. The result is rounded to 2 decimals.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50
	}

	gains := make([]float64, 0, len(closes)-1)
	losses := make([]float64, 0, len(closes)-1)

	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -change)
		}
	}

	var gainSum, lossSum float64
	for i := len(gains) - period; i < len(gains); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
	}

	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	rsi := 100 - (100 / (1 + rs))
	return math.Round(rsi*100) / 100
}
