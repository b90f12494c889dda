package model

import "time"

// AnalysisResult is the structured output of the external analyzer.
type AnalysisResult struct {
	Pattern        string  `json:"pattern"`
	Sentiment      string  `json:"sentiment"`
	Recommendation string  `json:"recommendation"`
	Confidence     float64 `json:"confidence"` // 0..100
	Reasoning      string  `json:"reasoning"`
}

// AnalysisRecord is a persisted analysis of one symbol's recent window.
type AnalysisRecord struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Narrative      string    `json:"narrative"`
	Pattern        string    `json:"pattern,omitempty"`
	Sentiment      string    `json:"sentiment"`
	Recommendation string    `json:"recommendation"`
	Confidence     float64   `json:"confidence"` // 0..100
	CreatedAt      time.Time `json:"created_at"`
}
