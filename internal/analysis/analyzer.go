// Package analysis decides when a symbol's window warrants higher-level
// pattern analysis, delegates to an external analyzer, and degrades to
// a neutral result when the analyzer is unavailable. The data stream
// never stalls on this package: triggering is fire-and-forget relative
// to the append/emit path.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"marketpulse/internal/model"
)

// ErrUnavailable reports that the external analyzer could not produce a
// usable result (transport failure, bad status, or malformed response).
// Callers recover with a neutral fallback rather than propagating it.
var ErrUnavailable = errors.New("analysis unavailable")

// Analyzer produces a structured market analysis from a textual context.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (model.AnalysisResult, error)
}

const systemPrompt = `You are a market pattern analyst. Given recent price action for one symbol, respond with JSON only, using this exact structure:
{"pattern":"<chart pattern or none>","sentiment":"bullish|bearish|neutral","recommendation":"<one sentence>","confidence":<0-100>,"reasoning":"<two sentences max>"}`

// LLMClient calls an OpenAI-compatible chat completions endpoint and
// parses the first choice's content as a JSON AnalysisResult.
type LLMClient struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewLLMClient creates an analyzer client.
// endpoint is the full chat completions URL.
func NewLLMClient(endpoint, apiKey, llmModel string, timeout time.Duration) *LLMClient {
	return &LLMClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    llmModel,
		client:   &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *LLMClient) Analyze(ctx context.Context, prompt string) (model.AnalysisResult, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("llm: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("llm: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.AnalysisResult{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if len(cr.Choices) == 0 {
		return model.AnalysisResult{}, fmt.Errorf("%w: empty choices", ErrUnavailable)
	}

	return parseResult(cr.Choices[0].Message.Content)
}

// parseResult extracts the structured result from the model's reply.
// Models occasionally wrap JSON in code fences; strip them before
// decoding. Anything that doesn't decode is ErrUnavailable.
func parseResult(content string) (model.AnalysisResult, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var res model.AnalysisResult
	if err := json.Unmarshal([]byte(content), &res); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("%w: malformed content: %v", ErrUnavailable, err)
	}
	if res.Sentiment == "" || res.Recommendation == "" {
		return model.AnalysisResult{}, fmt.Errorf("%w: missing required fields", ErrUnavailable)
	}
	if res.Confidence < 0 {
		res.Confidence = 0
	} else if res.Confidence > 100 {
		res.Confidence = 100
	}
	return res, nil
}
