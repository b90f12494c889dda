// Package ticks supplies market samples to streaming sessions. The
// production source is a bounded random-walk generator; the Source
// interface keeps it pluggable so sessions never depend on how ticks
// are produced. Timestamps are assumed non-decreasing per symbol but
// not verified.
package ticks

import (
	"math/rand"
	"sync"
	"time"

	"marketpulse/internal/model"
)

// Source supplies one sample per call for a symbol.
type Source interface {
	// Next synthesizes or fetches the next sample for a symbol.
	Next(symbol string) model.Sample

	// Catalog lists the known symbols with their current prices.
	Catalog() []model.SymbolInfo
}

// catalogEntry seeds the generator for one well-known symbol.
type catalogEntry struct {
	symbol string
	name   string
	base   float64
}

// defaultCatalog mirrors the symbols the frontend offers out of the box.
var defaultCatalog = []catalogEntry{
	{"AAPL", "Apple Inc.", 182.50},
	{"GOOGL", "Alphabet Inc.", 141.20},
	{"MSFT", "Microsoft Corporation", 378.90},
	{"AMZN", "Amazon.com Inc.", 155.40},
	{"TSLA", "Tesla Inc.", 248.70},
	{"NVDA", "NVIDIA Corporation", 482.30},
	{"META", "Meta Platforms Inc.", 353.60},
	{"BTC-USD", "Bitcoin USD", 43250.00},
}

// Generator is a random-walk tick source. Each symbol performs a
// bounded walk around its base price; unknown symbols are seeded on
// first use so any requested stream produces data. Safe for concurrent
// use by multiple sessions.
type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	prices map[string]float64
	bases  map[string]float64
	names  map[string]string
	order  []string
}

// NewGenerator creates a Generator seeded with the default catalog.
func NewGenerator(seed int64) *Generator {
	g := &Generator{
		rng:    rand.New(rand.NewSource(seed)),
		prices: make(map[string]float64),
		bases:  make(map[string]float64),
		names:  make(map[string]string),
	}
	for _, e := range defaultCatalog {
		g.prices[e.symbol] = e.base
		g.bases[e.symbol] = e.base
		g.names[e.symbol] = e.name
		g.order = append(g.order, e.symbol)
	}
	return g
}

const (
	maxStepPct   = 0.005 // ±0.5% per tick
	fallbackBase = 100.0
)

// Next advances the walk for a symbol and returns the new sample.
func (g *Generator) Next(symbol string) model.Sample {
	g.mu.Lock()
	defer g.mu.Unlock()

	price, ok := g.prices[symbol]
	if !ok {
		// Unknown symbol: seed a walk so the stream still produces data.
		price = fallbackBase
		g.bases[symbol] = fallbackBase
		g.names[symbol] = symbol
		g.order = append(g.order, symbol)
	}

	step := (g.rng.Float64()*2 - 1) * maxStepPct
	price *= 1 + step

	// Keep the walk tethered to its base so it cannot drift to zero or
	// run away over a long session.
	base := g.bases[symbol]
	if price < base*0.5 {
		price = base * 0.5
	} else if price > base*2 {
		price = base * 2
	}
	g.prices[symbol] = price

	volume := uint64(500 + g.rng.Intn(9500))

	return model.Sample{
		Price:  price,
		Volume: volume,
		TS:     time.Now().UTC(),
	}
}

// Catalog lists all symbols seen so far, in seed order, with live prices.
func (g *Generator) Catalog() []model.SymbolInfo {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]model.SymbolInfo, 0, len(g.order))
	for _, sym := range g.order {
		out = append(out, model.SymbolInfo{
			Symbol: sym,
			Name:   g.names[sym],
			Price:  g.prices[sym],
		})
	}
	return out
}
