package calculate

// Momentum returns the percent change of the close over the trailing
// look-back. ok=false when the series is too short to look back.
func Momentum(closes []float64, lookback int) (float64, bool) {
	if lookback <= 0 || len(closes) < lookback+1 {
		return 0, false
	}

	base := closes[len(closes)-1-lookback]
	if base == 0 {
		return 0, false
	}

	return (closes[len(closes)-1] - base) / base * 100, true
}
