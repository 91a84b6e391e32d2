package calculate

// SMA computes the arithmetic mean of the last `window` closes.
// When fewer samples than the window exist it returns ok=false; the
// caller substitutes the current price as the degenerate fallback.
func SMA(closes []float64, window int) (float64, bool) {
	if window <= 0 || len(closes) < window {
		return 0, false
	}

	var sum float64
	for i := len(closes) - window; i < len(closes); i++ {
		sum += closes[i]
	}

	return sum / float64(window), true
}
