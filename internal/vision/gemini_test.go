package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewGeminiDefaults(t *testing.T) {
	t.Parallel()

	g := NewGemini(nil, GeminiConfig{})
	if g.cfg.BaseURL != "https://generativelanguage.googleapis.com/v1beta" {
		t.Fatalf("unexpected base url: %q", g.cfg.BaseURL)
	}
	if g.cfg.Model != "gemini-2.0-flash" {
		t.Fatalf("unexpected model: %q", g.cfg.Model)
	}
	if g.client == nil {
		t.Fatalf("expected default http client")
	}
}

func TestGeminiDescribeRequiresAPIKey(t *testing.T) {
	t.Parallel()

	g := NewGemini(nil, GeminiConfig{})
	err := g.Describe(context.Background(), "question", []byte("png"), func(string) error { return nil })
	if err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestGeminiDescribeRoundTrip(t *testing.T) {
	t.Parallel()

	image := []byte("png-bytes")
	var gotPath, gotKey string
	var gotReq geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"A terminal window is open."}]}}]}`))
	}))
	defer server.Close()

	g := NewGemini(server.Client(), GeminiConfig{APIKey: "test-key", BaseURL: server.URL, Model: "gemini-2.0-flash"})

	var chunks []string
	err := g.Describe(context.Background(), "what is on my screen", image, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/models/gemini-2.0-flash:generateContent" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("unexpected api key header: %q", gotKey)
	}
	if len(gotReq.Contents) != 1 || len(gotReq.Contents[0].Parts) != 2 {
		t.Fatalf("unexpected request shape: %+v", gotReq)
	}
	if gotReq.Contents[0].Parts[0].Text != "what is on my screen" {
		t.Fatalf("unexpected question part: %q", gotReq.Contents[0].Parts[0].Text)
	}
	inline := gotReq.Contents[0].Parts[1].InlineData
	if inline == nil || inline.MimeType != "image/png" {
		t.Fatalf("unexpected inline data: %+v", inline)
	}
	if inline.Data != base64.StdEncoding.EncodeToString(image) {
		t.Fatalf("unexpected image payload: %q", inline.Data)
	}

	if got := strings.Join(chunks, ""); got != "A terminal window is open. " {
		t.Fatalf("unexpected answer: %q", got)
	}
	for _, chunk := range chunks {
		if !strings.HasSuffix(chunk, " ") {
			t.Fatalf("chunk missing trailing space: %q", chunk)
		}
	}
}

func TestGeminiDescribeServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"API key not valid"}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	g := NewGemini(server.Client(), GeminiConfig{APIKey: "bad", BaseURL: server.URL})
	err := g.Describe(context.Background(), "q", nil, func(string) error { return nil })
	if err == nil {
		t.Fatalf("expected status error")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Fatalf("expected status code in error: %v", err)
	}
}

func TestGeminiDescribeAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":{"message":"model is overloaded"}}`))
	}))
	defer server.Close()

	g := NewGemini(server.Client(), GeminiConfig{APIKey: "test-key", BaseURL: server.URL})
	err := g.Describe(context.Background(), "q", nil, func(string) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "model is overloaded") {
		t.Fatalf("expected api error, got: %v", err)
	}
}

func TestGeminiDescribeEmptyAnswer(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	g := NewGemini(server.Client(), GeminiConfig{APIKey: "test-key", BaseURL: server.URL})
	err := g.Describe(context.Background(), "q", nil, func(string) error { return nil })
	if err == nil {
		t.Fatalf("expected empty answer error")
	}
}

func TestGeminiDescribeEmitErrorAborts(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"one two three"}]}}]}`))
	}))
	defer server.Close()

	g := NewGemini(server.Client(), GeminiConfig{APIKey: "test-key", BaseURL: server.URL})

	stop := errors.New("consumer gone")
	var calls int
	err := g.Describe(context.Background(), "q", nil, func(string) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected emit error, got: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected stream to stop after first chunk, got %d calls", calls)
	}
}
