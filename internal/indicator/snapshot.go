package indicator

import "marketpulse/internal/model"

// Snapshot is the derived indicator bundle for one window read.
// Nil fields mean "not available yet" — the window does not hold enough
// samples for that indicator's period. Values are unrounded.
type Snapshot struct {
	SMAFast   *float64
	SMASlow   *float64
	EMA       *float64
	RSI       *float64
	VWAP      *float64
	Bollinger *Bands
}

// Compute derives the full indicator bundle from a window snapshot.
func Compute(samples []model.Sample, cfg Config) Snapshot {
	var snap Snapshot

	if v, ok := SMA(samples, cfg.SMAFast); ok {
		snap.SMAFast = &v
	}
	if v, ok := SMA(samples, cfg.SMASlow); ok {
		snap.SMASlow = &v
	}
	if v, ok := EMA(samples, cfg.EMAPeriod); ok {
		snap.EMA = &v
	}
	if v, ok := RSI(samples, cfg.RSIPeriod); ok {
		snap.RSI = &v
	}
	if v, ok := VWAP(samples); ok {
		snap.VWAP = &v
	}
	if b, ok := Bollinger(samples, cfg.BollPeriod, cfg.BollK); ok {
		snap.Bollinger = &b
	}

	return snap
}
