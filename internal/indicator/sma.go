package indicator

import "marketpulse/internal/model"

// SMA returns the arithmetic mean of the last period prices.
// ok=false when the window holds fewer than period samples.
func SMA(samples []model.Sample, period int) (float64, bool) {
	if period < 1 || len(samples) < period {
		return 0, false
	}
	sum := 0.0
	for _, s := range samples[len(samples)-period:] {
		sum += s.Price
	}
	return sum / float64(period), true
}
