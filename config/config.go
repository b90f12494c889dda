// Package config loads application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8000"`
	Version    string `envconfig:"VERSION" default:"1.0.0"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`

	// Streaming
	TickInterval   time.Duration `envconfig:"TICK_INTERVAL" default:"2s"`
	WindowCapacity int           `envconfig:"WINDOW_CAPACITY" default:"50"`
	GeneratorSeed  int64         `envconfig:"GENERATOR_SEED" default:"0"`

	// Indicator periods
	SMAFast    int     `envconfig:"SMA_FAST" default:"20"`
	SMASlow    int     `envconfig:"SMA_SLOW" default:"50"`
	EMAPeriod  int     `envconfig:"EMA_PERIOD" default:"20"`
	RSIPeriod  int     `envconfig:"RSI_PERIOD" default:"14"`
	BollPeriod int     `envconfig:"BOLL_PERIOD" default:"20"`
	BollK      float64 `envconfig:"BOLL_K" default:"2"`

	// Analysis cadence
	AnalysisMinWindow int `envconfig:"ANALYSIS_MIN_WINDOW" default:"20"`
	AnalysisEvery     int `envconfig:"ANALYSIS_EVERY" default:"10"`

	// External analyzer (OpenAI-compatible chat completions)
	LLMEndpoint string        `envconfig:"LLM_ENDPOINT" default:"https://api.openai.com/v1/chat/completions"`
	LLMAPIKey   string        `envconfig:"LLM_API_KEY"`
	LLMModel    string        `envconfig:"LLM_MODEL" default:"gpt-4o"`
	LLMTimeout  time.Duration `envconfig:"LLM_TIMEOUT" default:"15s"`

	// Infrastructure
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"data/marketpulse.db"`

	// Alerts
	AlertSweepSpec   string `envconfig:"ALERT_SWEEP" default:"@every 30s"`
	AlertWebhookURL  string `envconfig:"ALERT_WEBHOOK_URL"`
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `envconfig:"TELEGRAM_CHAT_ID"`

	// Shutdown
	ShutdownGrace time.Duration `envconfig:"SHUTDOWN_GRACE" default:"10s"`
}

// Load reads a .env file if present, then maps environment variables
// onto Config. Missing .env is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
