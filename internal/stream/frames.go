package stream

import (
	"math"
	"time"

	"marketpulse/internal/indicator"
	"marketpulse/internal/model"
)

// Frame types sent to clients.
const (
	FrameMarketData = "market_data"
	FrameAnalysis   = "ai_analysis"
	FrameConnection = "connection"
	FramePong       = "pong"
)

// BandsPayload is the serialized Bollinger band triple.
type BandsPayload struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// IndicatorsPayload is the serialized indicator bundle. Nil fields
// encode as JSON null, which clients read as "no signal yet" — distinct
// from a real zero.
type IndicatorsPayload struct {
	SMA20          *float64      `json:"sma_20"`
	SMA50          *float64      `json:"sma_50"`
	EMA20          *float64      `json:"ema_20"`
	RSI            *float64      `json:"rsi"`
	VWAP           *float64      `json:"vwap"`
	BollingerBands *BandsPayload `json:"bollinger_bands"`
}

// MarketDataFrame carries one tick plus its derived indicators.
type MarketDataFrame struct {
	Type       string            `json:"type"`
	Symbol     string            `json:"symbol"`
	Timestamp  string            `json:"timestamp"`
	Price      float64           `json:"price"`
	Volume     uint64            `json:"volume"`
	Indicators IndicatorsPayload `json:"indicators"`
}

// AnalysisPayload is the serialized analyzer output.
type AnalysisPayload struct {
	Pattern        string  `json:"pattern"`
	Sentiment      string  `json:"sentiment"`
	Recommendation string  `json:"recommendation"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
}

// AnalysisFrame carries one analysis record to the client.
type AnalysisFrame struct {
	Type         string          `json:"type"`
	Symbol       string          `json:"symbol"`
	Timestamp    string          `json:"timestamp"`
	Analysis     AnalysisPayload `json:"analysis"`
	CurrentPrice float64         `json:"current_price"`
}

// ConnectionFrame greets a client when its session opens.
type ConnectionFrame struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Symbol    string `json:"symbol"`
	Timestamp string `json:"timestamp"`
}

// round2 rounds to display precision. Applied only here, at the
// serialization boundary — internal computation keeps full precision so
// rounding never compounds through the EMA recurrence.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round2Ptr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := round2(*p)
	return &v
}

// NewMarketDataFrame builds the wire frame for one sample and its
// indicator bundle, rounding every price-like field to 2 decimals.
func NewMarketDataFrame(symbol string, sample model.Sample, snap indicator.Snapshot) MarketDataFrame {
	payload := IndicatorsPayload{
		SMA20: round2Ptr(snap.SMAFast),
		SMA50: round2Ptr(snap.SMASlow),
		EMA20: round2Ptr(snap.EMA),
		RSI:   round2Ptr(snap.RSI),
		VWAP:  round2Ptr(snap.VWAP),
	}
	if snap.Bollinger != nil {
		payload.BollingerBands = &BandsPayload{
			Upper:  round2(snap.Bollinger.Upper),
			Middle: round2(snap.Bollinger.Middle),
			Lower:  round2(snap.Bollinger.Lower),
		}
	}
	return MarketDataFrame{
		Type:       FrameMarketData,
		Symbol:     symbol,
		Timestamp:  sample.TS.UTC().Format(time.RFC3339Nano),
		Price:      round2(sample.Price),
		Volume:     sample.Volume,
		Indicators: payload,
	}
}

// NewAnalysisFrame builds the wire frame for one analysis record.
func NewAnalysisFrame(rec model.AnalysisRecord, currentPrice float64) AnalysisFrame {
	return AnalysisFrame{
		Type:      FrameAnalysis,
		Symbol:    rec.Symbol,
		Timestamp: rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		Analysis: AnalysisPayload{
			Pattern:        rec.Pattern,
			Sentiment:      rec.Sentiment,
			Recommendation: rec.Recommendation,
			Confidence:     rec.Confidence,
			Reasoning:      rec.Narrative,
		},
		CurrentPrice: round2(currentPrice),
	}
}

// NewConnectionFrame builds the greeting frame for a new session.
func NewConnectionFrame(symbol string, now time.Time) ConnectionFrame {
	return ConnectionFrame{
		Type:      FrameConnection,
		Message:   "Connected to market stream",
		Symbol:    symbol,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}
