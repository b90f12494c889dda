package indicator

import "marketpulse/internal/model"

// VWAP returns the volume-weighted average price over the entire
// window. ok=false when the window is empty or total volume is zero.
func VWAP(samples []model.Sample) (float64, bool) {
	var pv, vol float64
	for _, s := range samples {
		pv += s.Price * float64(s.Volume)
		vol += float64(s.Volume)
	}
	if vol == 0 {
		return 0, false
	}
	return pv / vol, true
}
