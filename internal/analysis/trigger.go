package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"marketpulse/internal/indicator"
	"marketpulse/internal/model"
)

// Policy decides when a window warrants analysis. The enable threshold
// and the cadence are independent knobs so they can be tuned (and
// tested) separately.
type Policy struct {
	MinWindow int // analysis enabled once the window holds this many samples
	Every     int // trigger on every Nth append after session start
}

// DefaultPolicy returns the production cadence: every 10th append once
// the window holds 20 samples.
func DefaultPolicy() Policy {
	return Policy{MinWindow: 20, Every: 10}
}

// Due reports whether analysis should run for the given window length
// and append count.
func (p Policy) Due(windowLen, appends int) bool {
	if p.Every <= 0 || appends <= 0 {
		return false
	}
	return windowLen >= p.MinWindow && appends%p.Every == 0
}

// Trigger runs the analysis pipeline for one window snapshot: build a
// compact context, delegate to the analyzer, and fall back to a neutral
// record when the analyzer is degraded. It never returns an error — the
// data stream must not stall because analysis is down.
type Trigger struct {
	policy   Policy
	analyzer Analyzer
	log      *slog.Logger
}

// NewTrigger creates a Trigger with the given policy and analyzer.
func NewTrigger(policy Policy, analyzer Analyzer, log *slog.Logger) *Trigger {
	if log == nil {
		log = slog.Default()
	}
	return &Trigger{policy: policy, analyzer: analyzer, log: log}
}

// Policy returns the trigger's cadence policy.
func (t *Trigger) Policy() Policy { return t.policy }

// Run analyzes a window snapshot and always yields a record: the
// analyzer's result on success, the neutral fallback otherwise.
// fallback reports which of the two it was.
func (t *Trigger) Run(ctx context.Context, symbol string, samples []model.Sample) (rec model.AnalysisRecord, fallback bool) {
	var (
		res model.AnalysisResult
		err error
	)
	if t.analyzer == nil {
		err = ErrUnavailable
	} else {
		res, err = t.analyzer.Analyze(ctx, t.buildContext(symbol, samples))
	}
	if err != nil {
		t.log.Warn("analysis degraded, using neutral fallback",
			slog.String("symbol", symbol), slog.String("error", err.Error()))
		res = NeutralResult()
		fallback = true
	}

	return model.AnalysisRecord{
		ID:             uuid.NewString(),
		Symbol:         symbol,
		Narrative:      res.Reasoning,
		Pattern:        res.Pattern,
		Sentiment:      res.Sentiment,
		Recommendation: res.Recommendation,
		Confidence:     res.Confidence,
		CreatedAt:      time.Now().UTC(),
	}, fallback
}

// NeutralResult is the fallback used when the analyzer is unavailable
// or returns something unusable.
func NeutralResult() model.AnalysisResult {
	return model.AnalysisResult{
		Pattern:        "",
		Sentiment:      "neutral",
		Recommendation: "Hold position, monitor market conditions",
		Confidence:     60,
		Reasoning:      "External analysis unavailable; holding a neutral stance until it recovers.",
	}
}

// buildContext summarizes the tail of the window for the analyzer:
// current price, percent change across the context window, RSI, SMA,
// and the last few raw prices.
func (t *Trigger) buildContext(symbol string, samples []model.Sample) string {
	n := t.policy.MinWindow
	if n > len(samples) {
		n = len(samples)
	}
	tail := samples[len(samples)-n:]

	current := tail[len(tail)-1].Price
	first := tail[0].Price
	change := 0.0
	if first != 0 {
		change = (current - first) / first * 100
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Symbol: %s\n", symbol)
	fmt.Fprintf(&b, "Current price: %.2f\n", current)
	fmt.Fprintf(&b, "Change over last %d samples: %+.2f%%\n", n, change)

	if rsi, ok := indicator.RSI(samples, 14); ok {
		fmt.Fprintf(&b, "RSI(14): %.2f\n", rsi)
	}
	if sma, ok := indicator.SMA(samples, 20); ok {
		fmt.Fprintf(&b, "SMA(20): %.2f\n", sma)
	}

	last := tail
	if len(last) > 5 {
		last = last[len(last)-5:]
	}
	b.WriteString("Last prices:")
	for _, s := range last {
		fmt.Fprintf(&b, " %.2f", s.Price)
	}
	b.WriteString("\n")

	return b.String()
}
