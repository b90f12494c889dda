package indicator

import (
	"math"
	"testing"
	"time"

	"marketpulse/internal/model"
)

func mkSamples(prices []float64, volume uint64) []model.Sample {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Sample, len(prices))
	for i, p := range prices {
		out[i] = model.Sample{Price: p, Volume: volume, TS: base.Add(time.Duration(i) * time.Second)}
	}
	return out
}

func linear(start float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA_NotAvailableBelowPeriod(t *testing.T) {
	samples := mkSamples(linear(100, 19), 1000)
	if _, ok := SMA(samples, 20); ok {
		t.Fatal("SMA should be unavailable with 19 samples for period 20")
	}
}

func TestSMA_LinearSeries(t *testing.T) {
	// 20 strictly increasing prices 100..119: mean = 109.5
	samples := mkSamples(linear(100, 20), 1000)
	v, ok := SMA(samples, 20)
	if !ok {
		t.Fatal("SMA should be available")
	}
	if !almostEqual(v, 109.5) {
		t.Fatalf("expected SMA=109.5, got %v", v)
	}
}

func TestSMA_UsesOnlyLastPeriod(t *testing.T) {
	// One eviction step: window slides from [100..119] to [101..120].
	// SMA must reflect the new tail within one append, no drift.
	samples := mkSamples(linear(101, 20), 1000)
	v, ok := SMA(samples, 20)
	if !ok || !almostEqual(v, 110.5) {
		t.Fatalf("expected SMA=110.5 after slide, got %v ok=%v", v, ok)
	}

	// Longer window than period: the leading samples must not contribute.
	long := mkSamples(append([]float64{1, 1, 1, 1, 1}, linear(100, 20)...), 1000)
	v, ok = SMA(long, 20)
	if !ok || !almostEqual(v, 109.5) {
		t.Fatalf("expected SMA=109.5 over last 20, got %v ok=%v", v, ok)
	}
}

func TestEMA_NotAvailableBelowPeriod(t *testing.T) {
	samples := mkSamples(linear(100, 4), 1000)
	if _, ok := EMA(samples, 5); ok {
		t.Fatal("EMA should be unavailable with 4 samples for period 5")
	}
}

func TestEMA_Recurrence(t *testing.T) {
	// period=2, alpha=2/3, seed=1:
	//   after 2: 2*(2/3) + 1*(1/3) = 5/3
	//   after 3: 3*(2/3) + (5/3)*(1/3) = 23/9
	samples := mkSamples([]float64{1, 2, 3}, 1)
	v, ok := EMA(samples, 2)
	if !ok {
		t.Fatal("EMA should be available")
	}
	if !almostEqual(v, 23.0/9.0) {
		t.Fatalf("expected EMA=23/9, got %v", v)
	}
}

func TestEMA_IteratesFullWindow(t *testing.T) {
	// The recurrence runs over every retained sample, not just the last
	// period — verify against a manual left-to-right pass.
	prices := linear(50, 30)
	samples := mkSamples(prices, 1)

	alpha := 2.0 / float64(20+1)
	want := prices[0]
	for _, p := range prices[1:] {
		want = p*alpha + want*(1-alpha)
	}

	v, ok := EMA(samples, 20)
	if !ok || !almostEqual(v, want) {
		t.Fatalf("expected EMA=%v over full window, got %v ok=%v", want, v, ok)
	}
}

func TestRSI_NotAvailableBelowPeriodPlusOne(t *testing.T) {
	samples := mkSamples(linear(100, 14), 1000)
	if _, ok := RSI(samples, 14); ok {
		t.Fatal("RSI needs period+1 prices; 14 samples must be unavailable for period 14")
	}
}

func TestRSI_AllGainsIs100(t *testing.T) {
	samples := mkSamples(linear(100, 20), 1000)
	v, ok := RSI(samples, 14)
	if !ok {
		t.Fatal("RSI should be available")
	}
	if v != 100 {
		t.Fatalf("expected RSI=100 with only gains, got %v", v)
	}
}

func TestRSI_FlatSeriesIs100(t *testing.T) {
	// Zero deltas count as neither gain nor loss; avg loss = 0 → 100.
	samples := mkSamples([]float64{5, 5, 5, 5, 5, 5}, 1)
	v, ok := RSI(samples, 5)
	if !ok || v != 100 {
		t.Fatalf("expected RSI=100 on flat series, got %v ok=%v", v, ok)
	}
}

func TestRSI_MixedDeltas(t *testing.T) {
	// Deltas: +2, -1, +2, -1 over period 4.
	// avgGain = 4/4 = 1, avgLoss = 2/4 = 0.5, RS = 2, RSI = 100-100/3.
	samples := mkSamples([]float64{10, 12, 11, 13, 12}, 1)
	v, ok := RSI(samples, 4)
	if !ok {
		t.Fatal("RSI should be available")
	}
	want := 100 - 100.0/3.0
	if !almostEqual(v, want) {
		t.Fatalf("expected RSI=%v, got %v", want, v)
	}
}

func TestVWAP_WeightedMean(t *testing.T) {
	samples := []model.Sample{
		{Price: 10, Volume: 100},
		{Price: 20, Volume: 100},
	}
	v, ok := VWAP(samples)
	if !ok || !almostEqual(v, 15) {
		t.Fatalf("expected VWAP=15, got %v ok=%v", v, ok)
	}
}

func TestVWAP_UnevenWeights(t *testing.T) {
	samples := []model.Sample{
		{Price: 10, Volume: 300},
		{Price: 20, Volume: 100},
	}
	v, ok := VWAP(samples)
	if !ok || !almostEqual(v, 12.5) {
		t.Fatalf("expected VWAP=12.5, got %v ok=%v", v, ok)
	}
}

func TestVWAP_AbsentOnZeroVolume(t *testing.T) {
	if _, ok := VWAP(nil); ok {
		t.Fatal("VWAP on empty window should be unavailable")
	}
	samples := mkSamples([]float64{10, 20}, 0)
	if _, ok := VWAP(samples); ok {
		t.Fatal("VWAP with zero total volume should be unavailable")
	}
}

func TestBollinger_FlatSeries(t *testing.T) {
	samples := mkSamples([]float64{100, 100, 100, 100, 100}, 1)
	b, ok := Bollinger(samples, 5, 2)
	if !ok {
		t.Fatal("bands should be available")
	}
	if !almostEqual(b.Middle, 100) || !almostEqual(b.Upper, 100) || !almostEqual(b.Lower, 100) {
		t.Fatalf("flat series should collapse bands to the mean, got %+v", b)
	}
}

func TestBollinger_PopulationStdDev(t *testing.T) {
	// Prices 2,4,4,4,5,5,7,9: mean=5, population std=2.
	samples := mkSamples([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 1)
	b, ok := Bollinger(samples, 8, 2)
	if !ok {
		t.Fatal("bands should be available")
	}
	if !almostEqual(b.Middle, 5) {
		t.Fatalf("expected middle=5, got %v", b.Middle)
	}
	if !almostEqual(b.Upper, 9) || !almostEqual(b.Lower, 1) {
		t.Fatalf("expected upper=9 lower=1, got %+v", b)
	}
}

func TestBollinger_NotAvailableBelowPeriod(t *testing.T) {
	samples := mkSamples(linear(100, 19), 1)
	if _, ok := Bollinger(samples, 20, 2); ok {
		t.Fatal("bands should be unavailable below period")
	}
}

func TestCompute_EmptyWindow(t *testing.T) {
	snap := Compute(nil, DefaultConfig())
	if snap.SMAFast != nil || snap.SMASlow != nil || snap.EMA != nil ||
		snap.RSI != nil || snap.VWAP != nil || snap.Bollinger != nil {
		t.Fatalf("empty window must yield an all-absent snapshot, got %+v", snap)
	}
}

func TestCompute_PartialAvailability(t *testing.T) {
	// 20 samples: SMA20/EMA20/RSI14/Bollinger/VWAP available, SMA50 not.
	samples := mkSamples(linear(100, 20), 1000)
	snap := Compute(samples, DefaultConfig())

	if snap.SMAFast == nil || snap.EMA == nil || snap.RSI == nil ||
		snap.VWAP == nil || snap.Bollinger == nil {
		t.Fatalf("expected 20-sample indicators present, got %+v", snap)
	}
	if snap.SMASlow != nil {
		t.Fatal("SMA50 must be absent with only 20 samples")
	}
}

func TestCompute_EndToEndScenario(t *testing.T) {
	// 20 samples, prices 100..119, constant volume 1000:
	// SMA20 = 109.5, VWAP = 109.5, RSI = 100, Bollinger middle = 109.5.
	samples := mkSamples(linear(100, 20), 1000)
	snap := Compute(samples, DefaultConfig())

	if snap.SMAFast == nil || !almostEqual(*snap.SMAFast, 109.5) {
		t.Fatalf("expected SMA20=109.5, got %v", snap.SMAFast)
	}
	if snap.VWAP == nil || !almostEqual(*snap.VWAP, 109.5) {
		t.Fatalf("expected VWAP=109.5, got %v", snap.VWAP)
	}
	if snap.RSI == nil || *snap.RSI != 100 {
		t.Fatalf("expected RSI=100, got %v", snap.RSI)
	}
	if snap.Bollinger == nil || !almostEqual(snap.Bollinger.Middle, 109.5) {
		t.Fatalf("expected Bollinger middle=109.5, got %v", snap.Bollinger)
	}
}
