package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"marketpulse/internal/indicator"
	"marketpulse/internal/model"
	"marketpulse/internal/ticks"
	"marketpulse/internal/window"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	SetCORS(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDetail mirrors the {"detail": ...} error shape the frontend
// already parses.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// RouterDeps bundles the collaborators the HTTP layer exposes.
type RouterDeps struct {
	Registry   *Registry
	Store      *window.Store
	Source     ticks.Source
	Analyses   model.AnalysisStore
	Alerts     model.AlertStore
	Indicators indicator.Config
	Version    string
	Start      time.Time
	Log        *slog.Logger
}

// RegisterRoutes registers all HTTP routes on the provided mux.
func RegisterRoutes(mux *http.ServeMux, d RouterDeps) {
	// WebSocket endpoint: one session per connection per symbol.
	mux.HandleFunc("/api/ws/market/", func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.TrimPrefix(r.URL.Path, "/api/ws/market/")
		if symbol == "" || strings.Contains(symbol, "/") {
			http.Error(w, "symbol required", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.Log.Warn("ws upgrade failed", slog.String("error", err.Error()))
			return
		}

		connID := uuid.NewString()
		sink := NewWSSink(conn, d.Log)
		// The session must outlive this handler: the request context is
		// cancelled the moment ServeHTTP returns, even for hijacked
		// connections. Teardown is owned by the sink's exit callback and
		// Registry.Shutdown instead.
		if _, err := d.Registry.Open(context.Background(), connID, symbol, sink); err != nil {
			sink.Close()
			return
		}
		sink.Start(func() { d.Registry.Close(connID) })
	})

	// Root: service banner.
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/" && r.URL.Path != "/api" {
			writeDetail(w, http.StatusNotFound, "Not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "MarketPulse streaming API",
			"version": d.Version,
		})
	})

	// Health: stream-level liveness counters.
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":             "healthy",
			"timestamp":          time.Now().UTC().Format(time.RFC3339Nano),
			"active_symbols":     d.Registry.ActiveSymbols(),
			"active_connections": d.Registry.Count(),
			"uptime_sec":         int64(time.Since(d.Start).Seconds()),
		})
	})

	// Symbol catalog with live prices.
	mux.HandleFunc("/api/symbols", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"symbols": d.Source.Catalog(),
		})
	})

	// Latest indicator bundle for one symbol. 404 until the symbol's
	// window holds at least one sample.
	mux.HandleFunc("/api/indicators/", func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.TrimPrefix(r.URL.Path, "/api/indicators/")
		if symbol == "" {
			writeDetail(w, http.StatusNotFound, "Symbol required")
			return
		}

		snap := d.Store.Snapshot(symbol)
		if len(snap) == 0 {
			writeDetail(w, http.StatusNotFound, "No data available for symbol")
			return
		}

		last := snap[len(snap)-1]
		bundle := indicator.Compute(snap, d.Indicators)
		frame := NewMarketDataFrame(symbol, last, bundle)
		writeJSON(w, http.StatusOK, map[string]any{
			"symbol":     symbol,
			"timestamp":  frame.Timestamp,
			"price":      frame.Price,
			"volume":     frame.Volume,
			"indicators": frame.Indicators,
		})
	})

	// Recent persisted analyses for one symbol.
	mux.HandleFunc("/api/analysis/", func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.TrimPrefix(r.URL.Path, "/api/analysis/")
		if symbol == "" {
			writeDetail(w, http.StatusNotFound, "Symbol required")
			return
		}

		records, err := d.Analyses.RecentAnalyses(symbol, 10)
		if err != nil {
			d.Log.Error("analysis lookup failed", slog.String("error", err.Error()))
			writeDetail(w, http.StatusInternalServerError, "Failed to fetch analyses")
			return
		}
		if records == nil {
			records = []model.AnalysisRecord{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"symbol":   symbol,
			"analyses": records,
		})
	})

	// Price alerts: create and list.
	mux.HandleFunc("/api/alerts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			SetCORS(w)
			w.WriteHeader(http.StatusOK)
			return
		}

		if r.Method == http.MethodPost {
			var a model.PriceAlert
			if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
				writeDetail(w, http.StatusUnprocessableEntity, "Invalid alert payload")
				return
			}
			if a.Symbol == "" || a.TargetPrice <= 0 ||
				(a.Condition != model.AlertAbove && a.Condition != model.AlertBelow) {
				writeDetail(w, http.StatusUnprocessableEntity,
					"symbol, condition (above|below) and target_price are required")
				return
			}
			// Ids are server-assigned; honoring a client-supplied id would
			// let a reused id overwrite someone else's alert.
			a.ID = uuid.NewString()
			a.Triggered = false
			a.CreatedAt = time.Now().UTC()

			if err := d.Alerts.SaveAlert(a); err != nil {
				d.Log.Error("alert save failed", slog.String("error", err.Error()))
				writeDetail(w, http.StatusInternalServerError, "Failed to save alert")
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{
				"message":  "Alert created",
				"alert_id": a.ID,
			})
			return
		}

		alerts, err := d.Alerts.ListAlerts()
		if err != nil {
			d.Log.Error("alert list failed", slog.String("error", err.Error()))
			writeDetail(w, http.StatusInternalServerError, "Failed to fetch alerts")
			return
		}
		if alerts == nil {
			alerts = []model.PriceAlert{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
	})
}
