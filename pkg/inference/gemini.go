package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const providerGemini = "gemini"

// Gemini implements the Provider interface against the Gemini
// generateContent REST API.
type Gemini struct {
	apiKey string
	config *Config
	http   *http.Client
	logger *slog.Logger
}

// NewGemini creates a Gemini provider.
func NewGemini(opts ...Option) (*Gemini, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, WrapError(providerGemini, ErrNoAPIKey)
	}

	return &Gemini{
		apiKey: cfg.APIKey,
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: cfg.Logger.With("component", "inference.gemini"),
	}, nil
}

// Generate produces one complete reply to the request prompt.
func (g *Gemini) Generate(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = g.config.Model
	}

	payload := map[string]interface{}{
		"contents": g.buildContents(req),
		"generationConfig": map[string]interface{}{
			"temperature": g.config.Temperature,
			"topP":        g.config.TopP,
			"topK":        g.config.TopK,
		},
	}
	if g.config.MaxTokens > 0 {
		payload["generationConfig"].(map[string]interface{})["maxOutputTokens"] = g.config.MaxTokens
	}
	if g.config.SystemInstruction != "" {
		payload["systemInstruction"] = map[string]interface{}{
			"parts": []map[string]interface{}{
				{"text": g.config.SystemInstruction},
			},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerGemini, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.config.BaseURL, model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerGemini, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return nil, WrapError(providerGemini, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, g.parseError(resp)
	}

	var result geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("decode response: %w", err))
	}

	if result.Error.Message != "" {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    result.Error.Message,
			Provider:   providerGemini,
		}
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, WrapError(providerGemini, ErrNoResponse)
	}

	g.logger.Debug("generation complete",
		"model", model,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return &Response{
		Text:         result.Candidates[0].Content.Parts[0].Text,
		FinishReason: result.Candidates[0].FinishReason,
		Model:        model,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

// Health checks API connectivity.
func (g *Gemini) Health(ctx context.Context) error {
	_, err := g.Generate(ctx, &Request{Prompt: "ping"})
	return err
}

// Close releases resources.
func (g *Gemini) Close() error {
	g.http.CloseIdleConnections()
	return nil
}

// buildContents converts history plus prompt to the wire format.
func (g *Gemini) buildContents(req *Request) []map[string]interface{} {
	var contents []map[string]interface{}

	for _, turn := range req.History {
		role := "user"
		if turn.Role == RoleModel {
			role = "model"
		}
		contents = append(contents, map[string]interface{}{
			"role": role,
			"parts": []map[string]interface{}{
				{"text": turn.Text},
			},
		})
	}

	contents = append(contents, map[string]interface{}{
		"role": "user",
		"parts": []map[string]interface{}{
			{"text": req.Prompt},
		},
	})

	return contents
}

// parseError reads and parses an error response.
func (g *Gemini) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}

	message := string(body)
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerGemini,
	}
}

// geminiResponse is the generateContent response format.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Verify Gemini implements Provider at compile time.
var _ Provider = (*Gemini)(nil)
