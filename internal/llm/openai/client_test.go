package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"hub-backend/internal/llm"
)

func TestFixedTemperature(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "o-series", model: "o3-mini", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := fixedTemperature(tt.model); got != tt.want {
				t.Fatalf("fixedTemperature(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

type recorder struct {
	mu     sync.Mutex
	bodies []map[string]any
}

func (r *recorder) add(t *testing.T, req *http.Request) int {
	t.Helper()
	defer req.Body.Close()
	var payload map[string]any
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		t.Errorf("decode request: %v", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies = append(r.bodies, payload)
	return len(r.bodies)
}

func (r *recorder) all() []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]any(nil), r.bodies...)
}

func writeChoice(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": content}}},
		"usage":   map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
}

func newTestClient(t *testing.T, url, model string, timeout time.Duration) *Client {
	t.Helper()
	client, err := NewClient(Config{APIKey: "test-key", Model: model, BaseURL: url, Timeout: timeout})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestCompleteJSONModeWithImages(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(t, r)
		writeChoice(w, `{"heuristics":[]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "gpt-4o-mini", 0)
	out, err := client.Complete(context.Background(), llm.Request{
		System: "sys",
		Prompt: "analyze",
		Mode:   llm.ModeJSON,
		Images: []string{"data:image/png;base64,AAAA", "https://example.com/a.png"},
		Model:  "gpt-4o",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"heuristics":[]}` {
		t.Fatalf("unexpected content %q", out)
	}

	bodies := rec.all()
	if len(bodies) != 1 {
		t.Fatalf("expected 1 request, got %d", len(bodies))
	}
	body := bodies[0]
	if body["model"] != "gpt-4o" {
		t.Fatalf("expected model override, got %v", body["model"])
	}
	format, _ := body["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", body["response_format"])
	}
	messages, _ := body["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(messages))
	}
	user, _ := messages[1].(map[string]any)
	parts, _ := user["content"].([]any)
	if len(parts) != 3 {
		t.Fatalf("expected text plus two image parts, got %v", user["content"])
	}
	img, _ := parts[1].(map[string]any)
	if img["type"] != "image_url" {
		t.Fatalf("expected image_url part, got %v", img)
	}
}

func TestCompleteOmitsTemperatureForFixedModels(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(t, r)
		writeChoice(w, "ok")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "gpt-5-mini", 0)
	if _, err := client.Complete(context.Background(), llm.Request{Prompt: "p", Mode: llm.ModeText}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	body := rec.all()[0]
	if _, hasTemp := body["temperature"]; hasTemp {
		t.Fatalf("expected temperature to be omitted")
	}
	if _, hasFormat := body["response_format"]; hasFormat {
		t.Fatalf("expected no response_format in text mode")
	}
}

func TestCompleteRetriesWithoutTemperature(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := rec.add(t, r)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Unsupported value: 'temperature' does not support 0.2 with this model.","type":"invalid_request_error"}}`))
			return
		}
		writeChoice(w, "ok")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "gpt-4o-mini", 0)
	if _, err := client.Complete(context.Background(), llm.Request{Prompt: "p"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	bodies := rec.all()
	if len(bodies) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(bodies))
	}
	if _, ok := bodies[0]["temperature"]; !ok {
		t.Fatalf("expected first request to include temperature")
	}
	if _, ok := bodies[1]["temperature"]; ok {
		t.Fatalf("expected retry request to omit temperature")
	}
}

func TestCompleteNoInfiniteRetry(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(t, r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Unsupported value: 'temperature' does not support 0.2 with this model.","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "gpt-4o-mini", 0)
	_, err := client.Complete(context.Background(), llm.Request{Prompt: "p"})
	if !errors.Is(err, llm.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if n := len(rec.all()); n != 2 {
		t.Fatalf("expected 2 requests (one retry), got %d", n)
	}
}

func TestCompleteServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "gpt-4o-mini", 0)
	_, err := client.Complete(context.Background(), llm.Request{Prompt: "p"})
	if !errors.Is(err, llm.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if !llm.Transient(err) {
		t.Fatalf("expected 503 to be transient")
	}
}

func TestCompleteTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(t, server.URL, "gpt-4o-mini", 50*time.Millisecond)
	_, err := client.Complete(context.Background(), llm.Request{Prompt: "p"})
	if !errors.Is(err, llm.ErrUpstreamTimeout) {
		t.Fatalf("expected ErrUpstreamTimeout, got %v", err)
	}
}

func TestNewClientRequiresKeyAndModel(t *testing.T) {
	if _, err := NewClient(Config{Model: "gpt-4o"}); err == nil {
		t.Fatalf("expected missing key error")
	}
	if _, err := NewClient(Config{APIKey: "k"}); err == nil {
		t.Fatalf("expected missing model error")
	}
}
