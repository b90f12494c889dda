// Package indicator provides technical indicator calculations over a
// window snapshot of samples.
//
// Every function is pure: it takes an oldest-first sample slice and
// returns (value, ok). ok=false means "not available yet" — the window
// does not hold enough samples for the requested period. Callers must
// treat absence as distinct from zero; no function ever substitutes a
// default. Values keep full float64 precision; rounding happens only at
// the serialization boundary.
package indicator

// Config holds the periods for the computed indicator bundle.
type Config struct {
	SMAFast    int // default 20
	SMASlow    int // default 50
	EMAPeriod  int // default 20
	RSIPeriod  int // default 14
	BollPeriod int // default 20
	BollK      float64
}

// DefaultConfig returns the standard indicator periods.
func DefaultConfig() Config {
	return Config{
		SMAFast:    20,
		SMASlow:    50,
		EMAPeriod:  20,
		RSIPeriod:  14,
		BollPeriod: 20,
		BollK:      2,
	}
}
