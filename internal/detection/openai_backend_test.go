package detection

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func chatServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": answer}}},
		})
	}))
}

func TestNewOpenAIBackend_NoAPIKey(t *testing.T) {
	if _, err := NewOpenAIBackend(OpenAIConfig{}); err == nil {
		t.Error("Expected error for missing API key")
	}
}

func TestOpenAIBackend_Predict(t *testing.T) {
	server := chatServer(t, "```json\n[\"dog\", \"person\", \"dog\"]\n```")
	defer server.Close()

	backend, err := NewOpenAIBackend(OpenAIConfig{APIKey: "test", BaseURL: server.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAIBackend() failed: %v", err)
	}

	boxes, err := backend.Predict(context.Background(), []byte{0xFF, 0xD8})
	if err != nil {
		t.Fatalf("Predict() failed: %v", err)
	}
	if len(boxes) != 3 {
		t.Fatalf("Expected 3 boxes, got %d", len(boxes))
	}
	if got := Labels(boxes, DefaultConfidence); !reflect.DeepEqual(got, []string{"dog", "person"}) {
		t.Errorf("Labels() = %v", got)
	}
}

func TestParseLabelList(t *testing.T) {
	tests := []struct {
		content string
		want    []string
		wantErr bool
	}{
		{`["cat"]`, []string{"cat"}, false},
		{`[]`, []string{}, false},
		{"Sure! [\"car\",\"bus\"]", []string{"car", "bus"}, false},
		{"I see a dog", nil, true},
		{"[dog]", nil, true},
	}

	for _, tt := range tests {
		got, err := parseLabelList(tt.content)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLabelList(%q) error = %v, wantErr %v", tt.content, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseLabelList(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}
