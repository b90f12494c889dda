package model

import "context"

// ── Storage Port Interfaces ──
// These interfaces decouple the streaming core from concrete storage
// implementations (SQLite, Redis). Each implementation satisfies one or
// more of these interfaces.

// AnalysisStore persists and queries analysis records.
type AnalysisStore interface {
	// Run reads records from recordCh and writes them.
	// Blocks until ctx is cancelled or recordCh is closed.
	Run(ctx context.Context, recordCh <-chan AnalysisRecord)

	// RecentAnalyses returns up to limit records for a symbol, newest first.
	RecentAnalyses(symbol string, limit int) ([]AnalysisRecord, error)

	// Close releases underlying resources.
	Close() error
}

// AlertStore persists and queries price alerts.
type AlertStore interface {
	// SaveAlert inserts or replaces an alert.
	SaveAlert(a PriceAlert) error

	// ListAlerts returns all alerts, newest first.
	ListAlerts() ([]PriceAlert, error)

	// PendingAlerts returns untriggered alerts.
	PendingAlerts() ([]PriceAlert, error)

	// MarkTriggered flags an alert as triggered at the given price.
	MarkTriggered(id string, price float64) error
}

// LatestCache caches the most recent per-symbol state for fast reads by
// REST handlers and the alert sweeper. Implementations must be safe for
// concurrent use and must never block the production loop on failure.
type LatestCache interface {
	// SetLatestPrice caches the latest price for a symbol.
	SetLatestPrice(ctx context.Context, symbol string, price float64)

	// LatestPrice returns the cached price. ok=false on miss.
	LatestPrice(ctx context.Context, symbol string) (price float64, ok bool)

	// PublishAnalysis fans an analysis record out to subscribers
	// (fire and forget).
	PublishAnalysis(ctx context.Context, rec AnalysisRecord)

	// Close releases underlying resources.
	Close() error
}
