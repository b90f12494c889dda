package stream

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"marketpulse/internal/analysis"
	"marketpulse/internal/indicator"
	"marketpulse/internal/metrics"
	"marketpulse/internal/model"
	"marketpulse/internal/ticks"
	"marketpulse/internal/window"
)

// ErrDuplicateSession reports that a connection id is already
// registered. The registry rejects reuse rather than silently replacing
// the live session.
var ErrDuplicateSession = errors.New("duplicate session")

// defaultCloseWait bounds how long Close waits for a loop to exit
// before abandoning it to clean up on its own.
const defaultCloseWait = 5 * time.Second

// Deps bundles everything a session's production loop needs. Records
// and Cache may be nil; the loop skips those forwarding steps.
type Deps struct {
	Store      *window.Store
	Source     ticks.Source
	Indicators indicator.Config
	Interval   time.Duration
	Trigger    *analysis.Trigger
	Records    chan<- model.AnalysisRecord
	Cache      model.LatestCache
	Metrics    *metrics.Metrics
	Log        *slog.Logger
}

// Registry is the single point of mutation for the live-session table.
// All map mutation is mutex-serialized: sessions close concurrently
// from independent paths (client disconnect, emit failure, shutdown
// sweep) and must never corrupt the table or each other.
type Registry struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
	bySymbol map[string]int // live sessions per symbol, for window release
}

// NewRegistry creates a Registry. Interval defaults to 2s when unset.
func NewRegistry(deps Deps) *Registry {
	if deps.Interval <= 0 {
		deps.Interval = 2 * time.Second
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &Registry{
		deps:     deps,
		sessions: make(map[string]*Session),
		bySymbol: make(map[string]int),
	}
}

// Open registers a session for a connection and starts its production
// loop. Fails with ErrDuplicateSession when connID is already live.
// The connection greeting frame is emitted before the first tick.
func (r *Registry) Open(ctx context.Context, connID, symbol string, sink Sink) (*Session, error) {
	sctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	if _, exists := r.sessions[connID]; exists {
		r.mu.Unlock()
		cancel()
		return nil, ErrDuplicateSession
	}
	s := newSession(connID, symbol, sink, r, cancel)
	r.sessions[connID] = s
	r.bySymbol[symbol]++
	r.mu.Unlock()

	if err := sink.Emit(NewConnectionFrame(symbol, time.Now())); err != nil {
		// Peer vanished before the loop even started; undo registration.
		cancel()
		r.remove(s)
		close(s.done)
		return nil, err
	}
	if r.deps.Metrics != nil {
		r.deps.Metrics.FramesTotal.WithLabelValues(FrameConnection).Inc()
		r.deps.Metrics.SessionsTotal.Inc()
		r.deps.Metrics.SessionsActive.Inc()
	}

	r.deps.Log.Info("session opened",
		slog.String("conn_id", connID),
		slog.String("session_id", s.ID),
		slog.String("symbol", symbol))

	go s.run(sctx)
	return s, nil
}

// Close cancels a session's loop and waits (bounded) for it to exit.
// Idempotent: closing an unknown id is a no-op, and racing the
// session's own failure path is safe — cancellation of an already
// cancelled context does nothing.
func (r *Registry) Close(connID string) {
	r.mu.Lock()
	s, ok := r.sessions[connID]
	r.mu.Unlock()
	if !ok {
		return
	}

	s.cancel()
	select {
	case <-s.done:
	case <-time.After(defaultCloseWait):
		r.deps.Log.Warn("session did not exit within grace period",
			slog.String("conn_id", connID))
	}
}

// remove deregisters a session after its loop exits, releasing the
// symbol's window when this was the last session streaming it.
func (r *Registry) remove(s *Session) {
	r.mu.Lock()
	if cur, ok := r.sessions[s.ConnID]; !ok || cur != s {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, s.ConnID)
	r.bySymbol[s.Symbol]--
	release := r.bySymbol[s.Symbol] <= 0
	if release {
		delete(r.bySymbol, s.Symbol)
	}
	r.mu.Unlock()

	if release {
		r.deps.Store.Release(s.Symbol)
	}
	if r.deps.Metrics != nil {
		r.deps.Metrics.SessionsActive.Dec()
	}
	r.deps.Log.Info("session closed",
		slog.String("conn_id", s.ConnID),
		slog.String("symbol", s.Symbol),
		slog.String("state", s.State().String()))
}

// ListActive returns the connection ids with live sessions.
func (r *Registry) ListActive() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		out = append(out, id)
	}
	return out
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ActiveSymbols returns the number of distinct symbols being streamed.
func (r *Registry) ActiveSymbols() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bySymbol)
}

// Shutdown cancels every live session and waits for all loops to
// release, up to the context deadline. Sessions that miss the grace
// period are abandoned with a warning; their deferred cleanup still
// runs whenever they exit.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.Unlock()

	for _, s := range all {
		s.cancel()
	}
	for _, s := range all {
		select {
		case <-s.done:
		case <-ctx.Done():
			r.deps.Log.Warn("force-abandoning session at shutdown",
				slog.String("conn_id", s.ConnID))
		}
	}
}
