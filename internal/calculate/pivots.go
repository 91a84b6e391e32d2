package calculate

import "optionsengine/models"

// minPivotWindow is the smallest trailing window the pivot method is
// meaningful over.
const minPivotWindow = 20

// SupportResistance computes pivot-point support and resistance over
// the trailing window of candles:
//
//	pivot      = (high + low + lastClose) / 3
//	resistance = 2*pivot - low
//	support    = 2*pivot - high
//
// high/low are the extremes of the window. No state is carried across
// calls; the same window always yields the same levels. ok=false when
// the series is shorter than the window.
func SupportResistance(candles []models.Candle, window int) (support, resistance, pivot float64, ok bool) {
	if window < minPivotWindow {
		window = minPivotWindow
	}
	if len(candles) < window {
		return 0, 0, 0, false
	}

	recent := candles[len(candles)-window:]
	high := recent[0].High
	low := recent[0].Low
	for _, c := range recent[1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}

	last := recent[len(recent)-1].Close
	pivot = (high + low + last) / 3
	resistance = 2*pivot - low
	support = 2*pivot - high

	return support, resistance, pivot, true
}
