// Package window provides the per-symbol trailing sample store: a
// fixed-capacity FIFO ring buffer of recent ticks per symbol, shared by
// every session streaming that symbol. Appends are O(1) and evict the
// oldest sample once the window is full; readers take point-in-time
// copies so concurrent appends never expose partial state.
package window

import (
	"time"

	"marketpulse/internal/model"
)

// ring is a fixed-capacity FIFO buffer of samples for one symbol.
// Not safe for concurrent use on its own; Store serializes access.
type ring struct {
	buf   []model.Sample
	start int // index of the oldest sample
	count int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]model.Sample, capacity)}
}

// push appends a sample, evicting the oldest when full.
func (r *ring) push(s model.Sample) {
	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = s
		r.count++
		return
	}
	// Full: overwrite the oldest slot and advance start.
	r.buf[r.start] = s
	r.start = (r.start + 1) % len(r.buf)
}

// snapshot returns the samples oldest-first as a fresh slice.
func (r *ring) snapshot() []model.Sample {
	out := make([]model.Sample, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

func (r *ring) len() int { return r.count }

// last returns the most recent sample. ok=false when empty.
func (r *ring) last() (model.Sample, bool) {
	if r.count == 0 {
		return model.Sample{}, false
	}
	return r.buf[(r.start+r.count-1)%len(r.buf)], true
}

// Sample constructs a Sample with a UTC-normalized timestamp.
func Sample(price float64, volume uint64, ts time.Time) model.Sample {
	return model.Sample{Price: price, Volume: volume, TS: ts.UTC()}
}
