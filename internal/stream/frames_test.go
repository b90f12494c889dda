package stream

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/indicator"
	"marketpulse/internal/model"
)

func fptr(v float64) *float64 { return &v }

func TestMarketDataFrameRoundsAtSerialization(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sample := model.Sample{Price: 123.456789, Volume: 4200, TS: ts}
	snap := indicator.Snapshot{
		SMAFast: fptr(101.23456),
		SMASlow: fptr(99.99999),
		EMA:     fptr(100.005),
		RSI:     fptr(55.554),
		VWAP:    fptr(102.125),
		Bollinger: &indicator.Bands{
			Upper:  110.119,
			Middle: 105.005,
			Lower:  99.891,
		},
	}

	frame := NewMarketDataFrame("AAPL", sample, snap)

	assert.Equal(t, FrameMarketData, frame.Type)
	assert.Equal(t, "AAPL", frame.Symbol)
	assert.Equal(t, "2024-03-01T12:00:00Z", frame.Timestamp)
	assert.Equal(t, 123.46, frame.Price)
	assert.Equal(t, uint64(4200), frame.Volume)

	assert.Equal(t, 101.23, *frame.Indicators.SMA20)
	assert.Equal(t, 100.0, *frame.Indicators.SMA50)
	assert.Equal(t, 100.01, *frame.Indicators.EMA20)
	assert.Equal(t, 55.55, *frame.Indicators.RSI)
	assert.Equal(t, 102.13, *frame.Indicators.VWAP)

	require.NotNil(t, frame.Indicators.BollingerBands)
	assert.Equal(t, 110.12, frame.Indicators.BollingerBands.Upper)
	assert.Equal(t, 105.01, frame.Indicators.BollingerBands.Middle)
	assert.Equal(t, 99.89, frame.Indicators.BollingerBands.Lower)
}

func TestMarketDataFrameAbsentIndicatorsEncodeAsNull(t *testing.T) {
	sample := model.Sample{Price: 50, Volume: 100, TS: time.Now().UTC()}
	frame := NewMarketDataFrame("TSLA", sample, indicator.Snapshot{})

	buf, err := json.Marshal(frame)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf, &decoded))

	inds, ok := decoded["indicators"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"sma_20", "sma_50", "ema_20", "rsi", "vwap", "bollinger_bands"} {
		v, present := inds[key]
		assert.True(t, present, "key %s missing", key)
		assert.Nil(t, v, "key %s should be null", key)
	}
}

func TestAnalysisFrameCarriesRecord(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	rec := model.AnalysisRecord{
		ID:             "rec-1",
		Symbol:         "NVDA",
		Narrative:      "Momentum building on rising volume.",
		Pattern:        "breakout",
		Sentiment:      "bullish",
		Recommendation: "Consider entry on pullback",
		Confidence:     78,
		CreatedAt:      created,
	}

	frame := NewAnalysisFrame(rec, 482.30999)

	assert.Equal(t, FrameAnalysis, frame.Type)
	assert.Equal(t, "NVDA", frame.Symbol)
	assert.Equal(t, "2024-03-01T09:30:00Z", frame.Timestamp)
	assert.Equal(t, 482.31, frame.CurrentPrice)
	assert.Equal(t, "bullish", frame.Analysis.Sentiment)
	assert.Equal(t, "breakout", frame.Analysis.Pattern)
	assert.Equal(t, 78.0, frame.Analysis.Confidence)
	assert.Equal(t, "Momentum building on rising volume.", frame.Analysis.Reasoning)
}

func TestConnectionFrameGreeting(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	frame := NewConnectionFrame("BTC-USD", now)

	assert.Equal(t, FrameConnection, frame.Type)
	assert.Equal(t, "Connected to market stream", frame.Message)
	assert.Equal(t, "BTC-USD", frame.Symbol)
	assert.Equal(t, "2024-03-01T08:00:00Z", frame.Timestamp)
}
