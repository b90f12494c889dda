package indicator

import (
	"math"

	"marketpulse/internal/model"
)

// Bands is a Bollinger band triple.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bollinger returns bands with middle = SMA(period) and upper/lower at
// middle ± k population standard deviations of the last period prices.
// ok=false when the window holds fewer than period samples.
func Bollinger(samples []model.Sample, period int, k float64) (Bands, bool) {
	middle, ok := SMA(samples, period)
	if !ok {
		return Bands{}, false
	}

	var sumSq float64
	for _, s := range samples[len(samples)-period:] {
		d := s.Price - middle
		sumSq += d * d
	}
	std := math.Sqrt(sumSq / float64(period))

	return Bands{
		Upper:  middle + k*std,
		Middle: middle,
		Lower:  middle - k*std,
	}, true
}
