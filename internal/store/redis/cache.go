// Package redis caches the latest per-symbol price for fast reads by
// the alert sweeper and fans analysis records out over PubSub for any
// interested downstream service. All writes are best-effort: a Redis
// hiccup is logged and the stream continues.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"marketpulse/internal/model"
)

const (
	priceKeyPrefix     = "latest:price:"
	analysisChanPrefix = "pub:analysis:"
	priceTTL           = 10 * time.Minute
)

// Config configures the Redis cache.
type Config struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
}

// Cache implements model.LatestCache over Redis.
type Cache struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (c *Cache) Client() *goredis.Client { return c.client }

// New creates a Cache and pings the server.
func New(cfg Config) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Cache{client: client}, nil
}

// SetLatestPrice caches a symbol's latest price with a TTL so stale
// symbols age out on their own.
func (c *Cache) SetLatestPrice(ctx context.Context, symbol string, price float64) {
	key := priceKeyPrefix + symbol
	if err := c.client.Set(ctx, key, price, priceTTL).Err(); err != nil {
		log.Printf("[redis] set %s failed: %v", key, err)
	}
}

// LatestPrice returns the cached price for a symbol. ok=false on miss
// or error.
func (c *Cache) LatestPrice(ctx context.Context, symbol string) (float64, bool) {
	val, err := c.client.Get(ctx, priceKeyPrefix+symbol).Result()
	if err != nil {
		return 0, false
	}
	price, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

// PublishAnalysis fans an analysis record out on the symbol's channel.
// Fire and forget.
func (c *Cache) PublishAnalysis(ctx context.Context, rec model.AnalysisRecord) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	ch := analysisChanPrefix + rec.Symbol
	if err := c.client.Publish(ctx, ch, payload).Err(); err != nil {
		log.Printf("[redis] publish %s failed: %v", ch, err)
	}
}

// Close closes the client.
func (c *Cache) Close() error {
	return c.client.Close()
}
