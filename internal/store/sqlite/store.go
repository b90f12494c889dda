// Package sqlite persists analysis records and price alerts. Analysis
// writes arrive over a channel and are committed in batched
// transactions so the streaming core never waits on disk.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"marketpulse/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultBatchSize  = 50
	defaultFlushDelay = 500 * time.Millisecond
)

// Config configures the SQLite store.
type Config struct {
	DBPath string // path to SQLite database file, e.g. "data/marketpulse.db"
}

// Store implements model.AnalysisStore and model.AlertStore over one
// SQLite database.
type Store struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// New opens the database with WAL mode and creates the schema.
func New(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer keeps WAL contention away.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS analyses (
			id             TEXT PRIMARY KEY,
			symbol         TEXT NOT NULL,
			narrative      TEXT,
			pattern        TEXT,
			sentiment      TEXT NOT NULL,
			recommendation TEXT NOT NULL,
			confidence     REAL NOT NULL,
			created_at     INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_analyses_symbol_ts
			ON analyses(symbol, created_at DESC);

		CREATE TABLE IF NOT EXISTS alerts (
			id            TEXT PRIMARY KEY,
			symbol        TEXT NOT NULL,
			condition     TEXT NOT NULL,
			target_price  REAL NOT NULL,
			current_price REAL NOT NULL,
			triggered     INTEGER NOT NULL DEFAULT 0,
			created_at    INTEGER NOT NULL
		);
	`)
	return err
}

// Run reads analysis records from recordCh and inserts them in batched
// transactions. Flushes every batchSize records OR every flushDelay,
// whichever first. Blocks until ctx is cancelled or recordCh is closed.
func (s *Store) Run(ctx context.Context, recordCh <-chan model.AnalysisRecord) {
	batch := make([]model.AnalysisRecord, 0, defaultBatchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.insertBatch(batch); err != nil {
			log.Printf("[sqlite] analysis batch insert error: %v", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case rec, ok := <-recordCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= defaultBatchSize {
				flush()
				// Drain a fired timer before resetting, or the stale tick
				// would cut the next flush interval short.
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(defaultFlushDelay)
			}

		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}

func (s *Store) insertBatch(records []model.AnalysisRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO analyses
			(id, symbol, narrative, pattern, sentiment, recommendation, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(r.ID, r.Symbol, r.Narrative, r.Pattern,
			r.Sentiment, r.Recommendation, r.Confidence, r.CreatedAt.Unix())
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// RecentAnalyses returns up to limit records for a symbol, newest first.
func (s *Store) RecentAnalyses(symbol string, limit int) ([]model.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT id, symbol, narrative, pattern, sentiment, recommendation, confidence, created_at
		FROM analyses WHERE symbol = ?
		ORDER BY created_at DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AnalysisRecord
	for rows.Next() {
		var r model.AnalysisRecord
		var ts int64
		if err := rows.Scan(&r.ID, &r.Symbol, &r.Narrative, &r.Pattern,
			&r.Sentiment, &r.Recommendation, &r.Confidence, &ts); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(ts, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveAlert inserts or replaces an alert.
func (s *Store) SaveAlert(a model.PriceAlert) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO alerts
			(id, symbol, condition, target_price, current_price, triggered, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Symbol, a.Condition, a.TargetPrice, a.CurrentPrice,
		boolToInt(a.Triggered), a.CreatedAt.Unix())
	return err
}

// ListAlerts returns all alerts, newest first.
func (s *Store) ListAlerts() ([]model.PriceAlert, error) {
	return s.queryAlerts(`
		SELECT id, symbol, condition, target_price, current_price, triggered, created_at
		FROM alerts ORDER BY created_at DESC`)
}

// PendingAlerts returns untriggered alerts.
func (s *Store) PendingAlerts() ([]model.PriceAlert, error) {
	return s.queryAlerts(`
		SELECT id, symbol, condition, target_price, current_price, triggered, created_at
		FROM alerts WHERE triggered = 0 ORDER BY created_at DESC`)
}

func (s *Store) queryAlerts(query string) ([]model.PriceAlert, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PriceAlert
	for rows.Next() {
		var a model.PriceAlert
		var triggered int
		var ts int64
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Condition, &a.TargetPrice,
			&a.CurrentPrice, &triggered, &ts); err != nil {
			return nil, err
		}
		a.Triggered = triggered != 0
		a.CreatedAt = time.Unix(ts, 0).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkTriggered flags an alert as triggered at the given price.
func (s *Store) MarkTriggered(id string, price float64) error {
	_, err := s.db.Exec(
		`UPDATE alerts SET triggered = 1, current_price = ? WHERE id = ?`,
		price, id)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
