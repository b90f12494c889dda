package indicator

import "marketpulse/internal/model"

// RSI returns the Relative Strength Index over the last period deltas
// (period+1 prices), using simple averages of gains and losses.
// Returns exactly 100 when the average loss is zero, avoiding the
// division by zero in RS. ok=false when the window holds fewer than
// period+1 samples.
func RSI(samples []model.Sample, period int) (float64, bool) {
	if period < 1 || len(samples) < period+1 {
		return 0, false
	}

	tail := samples[len(samples)-period-1:]
	var gains, losses float64
	for i := 1; i < len(tail); i++ {
		delta := tail[i].Price - tail[i-1].Price
		if delta > 0 {
			gains += delta
		} else {
			losses += -delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}
