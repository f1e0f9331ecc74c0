package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewGemini_RequiresAPIKey(t *testing.T) {
	if _, err := NewGemini(); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestGemini_Generate(t *testing.T) {
	var captured map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{
						{"text": "We offer bespoke suits and alterations."},
					},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	defer srv.Close()

	provider, err := NewGemini(
		WithAPIKey("test-key"),
		WithBaseURL(srv.URL),
		WithSystemInstruction("You are a tailoring assistant."),
	)
	if err != nil {
		t.Fatalf("NewGemini failed: %v", err)
	}
	defer provider.Close()

	resp, err := provider.Generate(context.Background(), &Request{
		History: []Turn{
			{Role: RoleUser, Text: "hi"},
			{Role: RoleModel, Text: "Welcome!"},
		},
		Prompt: "what do you sell?",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if resp.Text != "We offer bespoke suits and alterations." {
		t.Errorf("unexpected reply: %q", resp.Text)
	}
	if resp.FinishReason != "STOP" {
		t.Errorf("finish reason: got %q", resp.FinishReason)
	}

	// History plus the new prompt, in order.
	contents, ok := captured["contents"].([]interface{})
	if !ok || len(contents) != 3 {
		t.Fatalf("expected 3 contents, got %v", captured["contents"])
	}
	last := contents[2].(map[string]interface{})
	if last["role"] != "user" {
		t.Errorf("final content role: got %v", last["role"])
	}

	if _, ok := captured["systemInstruction"]; !ok {
		t.Error("systemInstruction missing from request")
	}

	gc, ok := captured["generationConfig"].(map[string]interface{})
	if !ok {
		t.Fatal("generationConfig missing from request")
	}
	if gc["temperature"] != 0.7 {
		t.Errorf("temperature: got %v", gc["temperature"])
	}
	if gc["topK"] != float64(64) {
		t.Errorf("topK: got %v", gc["topK"])
	}
}

func TestGemini_GenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"message": "quota exceeded",
				"code":    429,
			},
		})
	}))
	defer srv.Close()

	provider, err := NewGemini(WithAPIKey("test-key"), WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewGemini failed: %v", err)
	}
	defer provider.Close()

	_, err = provider.Generate(context.Background(), &Request{Prompt: "hi"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != 429 || apiErr.Message != "quota exceeded" {
		t.Errorf("unexpected APIError: %+v", apiErr)
	}
	if !apiErr.IsRateLimited() || !apiErr.IsRetryable() {
		t.Error("429 must be rate-limited and retryable")
	}
}

func TestGemini_GenerateEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer srv.Close()

	provider, err := NewGemini(WithAPIKey("test-key"), WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewGemini failed: %v", err)
	}
	defer provider.Close()

	if _, err := provider.Generate(context.Background(), &Request{Prompt: "hi"}); !errors.Is(err, ErrNoResponse) {
		t.Fatalf("expected ErrNoResponse, got %v", err)
	}
}

func TestMock_ScriptedReplies(t *testing.T) {
	m := NewMock("fallback")
	m.QueueReply("first")

	resp, err := m.Generate(context.Background(), &Request{Prompt: "a"})
	if err != nil || resp.Text != "first" {
		t.Fatalf("got %v, %v", resp, err)
	}

	resp, err = m.Generate(context.Background(), &Request{Prompt: "b"})
	if err != nil || resp.Text != "fallback" {
		t.Fatalf("got %v, %v", resp, err)
	}

	if got := len(m.Requests()); got != 2 {
		t.Errorf("recorded requests: got %d, want 2", got)
	}
}
