package signal

import (
	"math"
	"time"

	"optionsengine/models"
)

// SuggestedStrikes returns the at-the-money strike for the
// instrument's strike spacing plus two further strikes in the trade
// direction.
func SuggestedStrikes(price, step float64, side string) []float64 {
	atm := math.Round(price/step) * step

	switch side {
	case models.SideBuyCall:
		return []float64{atm, atm + step, atm + 2*step}
	case models.SideBuyPut:
		return []float64{atm, atm - step, atm - 2*step}
	}
	return []float64{atm}
}

// NextWeeklyExpiry returns the next Thursday on or after the given
// day. Index options on the NSE expire weekly on Thursdays.
func NextWeeklyExpiry(now time.Time) time.Time {
	day := now
	for day.Weekday() != time.Thursday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}
