package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketpulse/config"
	"marketpulse/internal/alerts"
	"marketpulse/internal/analysis"
	"marketpulse/internal/indicator"
	"marketpulse/internal/logger"
	"marketpulse/internal/metrics"
	"marketpulse/internal/model"
	"marketpulse/internal/notification"
	redisstore "marketpulse/internal/store/redis"
	"marketpulse/internal/store/sqlite"
	"marketpulse/internal/stream"
	"marketpulse/internal/ticks"
	"marketpulse/internal/window"
)

var processStart = time.Now()

// windowPrices answers latest-price lookups straight from the in-memory
// windows when Redis is not available.
type windowPrices struct {
	store *window.Store
}

func (w windowPrices) LatestPrice(_ context.Context, symbol string) (float64, bool) {
	s, ok := w.store.Last(symbol)
	if !ok {
		return 0, false
	}
	return s.Price, true
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[streamserver] config: %v", err)
	}

	slogger := logger.Init("streamserver", logger.ParseLevel(cfg.LogLevel))
	slogger.Info("starting", slog.String("addr", cfg.ListenAddr), slog.String("version", cfg.Version))

	m := metrics.New()

	// SQLite: analyses + alerts persistence.
	db, err := sqlite.New(sqlite.Config{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[streamserver] sqlite: %v", err)
	}

	// Redis is optional: without it the latest-price cache and analysis
	// fanout are skipped and the alert sweeper reads the windows directly.
	var cache model.LatestCache
	redisCache, err := redisstore.New(redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		slogger.Warn("redis unavailable, continuing without cache", slog.String("error", err.Error()))
	} else {
		cache = redisCache
	}

	windows := window.NewStore(cfg.WindowCapacity)

	seed := cfg.GeneratorSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	source := ticks.NewGenerator(seed)

	indicators := indicator.Config{
		SMAFast:    cfg.SMAFast,
		SMASlow:    cfg.SMASlow,
		EMAPeriod:  cfg.EMAPeriod,
		RSIPeriod:  cfg.RSIPeriod,
		BollPeriod: cfg.BollPeriod,
		BollK:      cfg.BollK,
	}

	var analyzer analysis.Analyzer
	if cfg.LLMAPIKey != "" {
		analyzer = analysis.NewLLMClient(cfg.LLMEndpoint, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	}
	trigger := analysis.NewTrigger(analysis.Policy{
		MinWindow: cfg.AnalysisMinWindow,
		Every:     cfg.AnalysisEvery,
	}, analyzer, slogger)

	// Analysis records flow to SQLite through a buffered channel so the
	// streaming loops never block on disk.
	records := make(chan model.AnalysisRecord, 256)
	persistCtx, persistCancel := context.WithCancel(context.Background())
	persistDone := make(chan struct{})
	go func() {
		defer close(persistDone)
		db.Run(persistCtx, records)
	}()

	registry := stream.NewRegistry(stream.Deps{
		Store:      windows,
		Source:     source,
		Indicators: indicators,
		Interval:   cfg.TickInterval,
		Trigger:    trigger,
		Records:    records,
		Cache:      cache,
		Metrics:    m,
		Log:        slogger,
	})

	// Alert sweeper: Redis-backed when available, window-backed otherwise.
	var prices alerts.PriceSource = windowPrices{store: windows}
	if cache != nil {
		prices = redisCache
	}
	notifiers := []notification.Notifier{notification.NewLogNotifier()}
	if cfg.AlertWebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.AlertWebhookURL))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	sweeper := alerts.NewSweeper(db, prices, notifiers, m, slogger)
	if err := sweeper.Start(cfg.AlertSweepSpec); err != nil {
		log.Fatalf("[streamserver] alert sweeper: %v", err)
	}

	mux := http.NewServeMux()
	stream.RegisterRoutes(mux, stream.RouterDeps{
		Registry:   registry,
		Store:      windows,
		Source:     source,
		Analyses:   db,
		Alerts:     db,
		Indicators: indicators,
		Version:    cfg.Version,
		Start:      processStart,
		Log:        slogger,
	})
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slogger.Info("serving", slog.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[streamserver] server error: %v", err)
		}
	}()

	<-sigCh
	slogger.Info("shutting down")

	// Stop accepting new connections, then drain sessions within grace.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	registry.Shutdown(shutdownCtx)

	sweeper.Stop()

	// Flush pending analysis writes before closing the database.
	close(records)
	select {
	case <-persistDone:
	case <-time.After(5 * time.Second):
		slogger.Warn("analysis writer did not drain in time")
	}
	persistCancel()

	if cache != nil {
		cache.Close()
	}
	if err := db.Close(); err != nil {
		slogger.Warn("sqlite close", slog.String("error", err.Error()))
	}
	slogger.Info("bye")
}
