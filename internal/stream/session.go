// Package stream owns the connection/session lifecycle: one session per
// client subscription, a registry coordinating creation and teardown,
// and the WebSocket sink implementation. Each session drives its own
// production loop (append → compute → emit → maybe-analyze → sleep);
// analysis runs decoupled so a stalled analyzer never delays frames.
package stream

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"marketpulse/internal/indicator"
	"marketpulse/internal/model"
)

// Session states.
type State int32

const (
	StateCreated State = iota
	StateStreaming
	StateCancelled
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStreaming:
		return "streaming"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is one client's subscription to one symbol's stream. It
// exclusively owns its production goroutine; the window for its symbol
// is shared read-only with other sessions on the same symbol.
type Session struct {
	ID     string
	ConnID string
	Symbol string

	sink   Sink
	reg    *Registry
	cancel context.CancelFunc
	done   chan struct{}

	state   atomic.Int32
	appends int // owned by the production goroutine
}

func newSession(connID, symbol string, sink Sink, reg *Registry, cancel context.CancelFunc) *Session {
	s := &Session{
		ID:     uuid.NewString(),
		ConnID: connID,
		Symbol: symbol,
		sink:   sink,
		reg:    reg,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.state.Store(int32(StateCreated))
	return s
}

// State returns the session's current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Done is closed when the production loop has fully exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// setState transitions only out of live states; a session that already
// failed stays failed when the cancel path races it.
func (s *Session) setState(to State) {
	for {
		cur := s.state.Load()
		if State(cur) == StateFailed || State(cur) == StateClosed {
			return
		}
		if s.state.CompareAndSwap(cur, int32(to)) {
			return
		}
	}
}

// run is the production loop. Cancellation is cooperative: the context
// is checked at the top of each iteration and at the sleep, never
// interrupting a computation midway.
func (s *Session) run(ctx context.Context) {
	d := s.reg.deps
	s.setState(StateStreaming)

	defer func() {
		if s.State() == StateStreaming {
			s.setState(StateCancelled)
		}
		s.sink.Close()
		s.reg.remove(s)
		s.state.Store(int32(StateClosed))
		close(s.done)
	}()

	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.produce(ctx); err != nil {
			s.state.Store(int32(StateFailed))
			d.Log.Info("session sink closed",
				slog.String("conn_id", s.ConnID), slog.String("symbol", s.Symbol))
			if d.Metrics != nil {
				d.Metrics.EmitFailures.Inc()
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// produce performs one tick: append a sample, compute indicators, emit
// the market_data frame, and fire analysis when the policy is due.
// No lock is held across the emit.
func (s *Session) produce(ctx context.Context) error {
	d := s.reg.deps

	sample := d.Source.Next(s.Symbol)
	d.Store.Append(s.Symbol, sample.Price, sample.Volume, sample.TS)
	s.appends++

	snap := d.Store.Snapshot(s.Symbol)

	start := time.Now()
	bundle := indicator.Compute(snap, d.Indicators)
	if d.Metrics != nil {
		d.Metrics.TicksTotal.Inc()
		d.Metrics.ComputeDur.Observe(time.Since(start).Seconds())
	}

	if err := s.sink.Emit(NewMarketDataFrame(s.Symbol, sample, bundle)); err != nil {
		return err
	}
	if d.Metrics != nil {
		d.Metrics.FramesTotal.WithLabelValues(FrameMarketData).Inc()
	}

	if d.Cache != nil {
		d.Cache.SetLatestPrice(ctx, s.Symbol, sample.Price)
	}

	if d.Trigger != nil && d.Trigger.Policy().Due(len(snap), s.appends) {
		// Decoupled from the append/emit path: a slow analyzer call must
		// not delay the next market_data frame. snap is already a copy.
		go s.analyze(ctx, snap, sample.Price)
	}

	return nil
}

// analyze runs one analysis round and forwards the result downstream:
// to the client, to the persistence channel, and to the pub/sub cache.
// None of these waits on durable success.
func (s *Session) analyze(ctx context.Context, snap []model.Sample, currentPrice float64) {
	d := s.reg.deps

	rec, fallback := d.Trigger.Run(ctx, s.Symbol, snap)
	if d.Metrics != nil {
		d.Metrics.AnalysesTotal.Inc()
		if fallback {
			d.Metrics.AnalysisFallbacks.Inc()
		}
	}

	if err := s.sink.Emit(NewAnalysisFrame(rec, currentPrice)); err != nil {
		// The production loop handles sink teardown; nothing to do here.
		return
	}
	if d.Metrics != nil {
		d.Metrics.FramesTotal.WithLabelValues(FrameAnalysis).Inc()
	}

	if d.Records != nil {
		select {
		case d.Records <- rec:
		default:
			d.Log.Warn("analysis record dropped, persistence queue full",
				slog.String("symbol", s.Symbol))
		}
	}
	if d.Cache != nil {
		d.Cache.PublishAnalysis(ctx, rec)
	}
}
