package indicator

import "marketpulse/internal/model"

// EMA returns an exponential moving average with smoothing
// α = 2/(period+1). The recurrence is seeded with the oldest retained
// price and applied left-to-right over the ENTIRE window, not just the
// last period samples — once the window exceeds period, older history
// keeps contributing through the seed, and the seed is not re-derived
// when eviction drops old samples. This matches the behavior streaming
// consumers were built against; do not "fix" it to a fixed-period EMA.
// ok=false when the window holds fewer than period samples.
func EMA(samples []model.Sample, period int) (float64, bool) {
	if period < 1 || len(samples) < period {
		return 0, false
	}
	alpha := 2.0 / float64(period+1)
	ema := samples[0].Price
	for _, s := range samples[1:] {
		ema = s.Price*alpha + ema*(1-alpha)
	}
	return ema, true
}
