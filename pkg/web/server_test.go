package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Iggysmallz/houseofmeraal/pkg/chat"
	"github.com/Iggysmallz/houseofmeraal/pkg/inference"
	"github.com/Iggysmallz/houseofmeraal/pkg/session"
)

func newTestServer(t *testing.T, mutate func(*session.Config)) *Server {
	t.Helper()

	cfg := session.DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.Provider = inference.NewMock("mock reply")
	if mutate != nil {
		mutate(&cfg)
	}

	ctrl, err := session.NewController(cfg, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	t.Cleanup(func() { ctrl.Close() })

	return NewServer("0", ctrl, nil)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	payload, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, payload
}

func TestServer_HistoryEmpty(t *testing.T) {
	s := newTestServer(t, nil)

	resp, body := doJSON(t, s, "GET", "/api/history", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}

	var msgs []chat.Message
	if err := json.Unmarshal(body, &msgs); err != nil {
		t.Fatalf("decoding history: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected empty history, got %d messages", len(msgs))
	}
}

func TestServer_ChatAppendsAndReturnsHistory(t *testing.T) {
	s := newTestServer(t, nil)

	resp, body := doJSON(t, s, "POST", "/api/chat", ChatRequest{Text: "Suggest a fabric"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, body %s", resp.StatusCode, body)
	}

	var msgs []chat.Message
	if err := json.Unmarshal(body, &msgs); err != nil {
		t.Fatalf("decoding history: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != chat.RoleUser || msgs[1].Role != chat.RoleModel {
		t.Errorf("unexpected roles: %s, %s", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].Text != "mock reply" {
		t.Errorf("reply: got %q", msgs[1].Text)
	}
}

func TestServer_ChatBadBody(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest("POST", "/api/chat", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, 5000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}

func TestServer_ChatProviderFailure(t *testing.T) {
	provider := inference.NewMock("")
	provider.FailWith(errors.New("quota exceeded"))
	s := newTestServer(t, func(c *session.Config) { c.Provider = provider })

	resp, body := doJSON(t, s, "POST", "/api/chat", ChatRequest{Text: "hello"})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status: got %d, body %s", resp.StatusCode, body)
	}

	var payload struct {
		Error errorFrame `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if payload.Error.Kind != session.KindNetwork {
		t.Errorf("error kind: got %q", payload.Error.Kind)
	}
}

func TestServer_LiveStartNoCredential(t *testing.T) {
	s := newTestServer(t, func(c *session.Config) { c.APIKey = "" })

	resp, body := doJSON(t, s, "POST", "/api/live/start", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status: got %d, body %s", resp.StatusCode, body)
	}

	var payload struct {
		Error errorFrame `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if payload.Error.Kind != session.KindCredential {
		t.Errorf("error kind: got %q", payload.Error.Kind)
	}
}

func TestServer_LiveStopAlwaysOK(t *testing.T) {
	s := newTestServer(t, nil)

	resp, _ := doJSON(t, s, "POST", "/api/live/stop", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d", resp.StatusCode)
	}
}

func TestServer_Status(t *testing.T) {
	s := newTestServer(t, nil)

	resp, body := doJSON(t, s, "GET", "/api/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}

	var status struct {
		LiveActive bool `json:"live_active"`
		Clients    int  `json:"clients"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if status.LiveActive {
		t.Error("live_active true with no session")
	}
}
