package calculate

import "optionsengine/models"

// volumeSpikeRatio is how far above the trailing average the latest
// volume must sit to count as a spike.
const volumeSpikeRatio = 1.5

// VolumeSpike reports whether the latest candle's volume exceeds 1.5x
// the average of the preceding window. Instruments without volume data
// never spike.
func VolumeSpike(candles []models.Candle, window int) bool {
	if window <= 0 || len(candles) < window+1 {
		return false
	}

	var sum int64
	for i := len(candles) - 1 - window; i < len(candles)-1; i++ {
		sum += candles[i].Volume
	}
	avg := float64(sum) / float64(window)
	if avg <= 0 {
		return false
	}

	return float64(candles[len(candles)-1].Volume) > volumeSpikeRatio*avg
}
