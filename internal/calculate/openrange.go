package calculate

import (
	"optionsengine/models"
)

// OpeningRange computes the high/low of the samples whose wall-clock
// time falls in [start, end), where start/end are "HH:MM" session
// times. The range is not formed until minSamples samples landed in
// the window; callers report WAITING in that case.
func OpeningRange(candles []models.Candle, start, end string, minSamples int) models.OpeningRange {
	var r models.OpeningRange
	count := 0

	for _, c := range candles {
		clock := c.Timestamp.Format("15:04")
		if clock < start || clock >= end {
			continue
		}

		if count == 0 {
			r.High = c.High
			r.Low = c.Low
		} else {
			if c.High > r.High {
				r.High = c.High
			}
			if c.Low < r.Low {
				r.Low = c.Low
			}
		}
		count++
	}

	r.Formed = count >= minSamples && minSamples > 0
	return r
}
