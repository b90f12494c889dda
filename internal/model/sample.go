package model

import "time"

// Sample is a single observed market tick for one symbol.
// Immutable once appended to a window.
type Sample struct {
	Price  float64   `json:"price"`
	Volume uint64    `json:"volume"`
	TS     time.Time `json:"ts"` // UTC timestamp
}

// SymbolInfo describes one streamable symbol in the catalog.
type SymbolInfo struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
}
