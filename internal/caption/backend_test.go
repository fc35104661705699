package caption

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"codeberg.org/snonux/echovision/internal/testutil"
)

func TestNewOpenAIBackend_NoAPIKey(t *testing.T) {
	if _, err := NewOpenAIBackend(OpenAIConfig{}); err == nil {
		t.Error("Expected error for missing API key")
	}
}

func TestOpenAIBackend_Describe(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": "a dog on grass"}}},
		})
	}))
	defer server.Close()

	backend, err := NewOpenAIBackend(OpenAIConfig{APIKey: "test", BaseURL: server.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAIBackend() failed: %v", err)
	}

	caption, err := backend.Describe(context.Background(), []byte{1, 2, 3}, "image/jpeg")
	if err != nil {
		t.Fatalf("Describe() failed: %v", err)
	}
	if caption != "a dog on grass" {
		t.Errorf("Describe() = %q", caption)
	}
	if !strings.Contains(body, "data:image/jpeg;base64,AQID") {
		t.Error("Request did not carry the image as data URL")
	}
}

func TestNewGeminiBackend_NoAPIKey(t *testing.T) {
	if _, err := NewGeminiBackend(context.Background(), GeminiConfig{}); err == nil {
		t.Error("Expected error for missing API key")
	}
}

func TestGeminiBackend_Describe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, DefaultGeminiModel+":generateContent") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"a cat on a sofa"}]}}]}`)
	}))
	defer server.Close()

	backend, err := NewGeminiBackend(context.Background(), GeminiConfig{APIKey: "test", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewGeminiBackend() failed: %v", err)
	}

	caption, err := backend.Describe(context.Background(), []byte{1, 2, 3}, "image/jpeg")
	if err != nil {
		t.Fatalf("Describe() failed: %v", err)
	}
	if caption != "a cat on a sofa" {
		t.Errorf("Describe() = %q", caption)
	}
}

func TestOpenAIBackend_Integration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}

	backend, err := NewOpenAIBackend(OpenAIConfig{APIKey: apiKey})
	if err != nil {
		t.Fatalf("NewOpenAIBackend() failed: %v", err)
	}

	path := testutil.WriteImage(t, t.TempDir(), "solid.png", 64, 64)
	caption, err := NewCaptioner(backend, 0).Caption(context.Background(), path)
	if err != nil {
		t.Fatalf("Caption() failed: %v", err)
	}
	t.Logf("Caption: %s", caption)
}
