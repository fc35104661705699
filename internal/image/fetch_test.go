package image

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIsURL(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"https://example.com/dog.jpg", true},
		{"http://example.com/dog.jpg", true},
		{"dog.jpg", false},
		{"/tmp/https.jpg", false},
	}

	for _, tt := range tests {
		if got := IsURL(tt.src); got != tt.want {
			t.Errorf("IsURL(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestFetch(t *testing.T) {
	payload := bytes.Repeat([]byte{0xff}, 100)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpg":
			_, _ = w.Write(payload)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	data, err := Fetch(context.Background(), server.URL+"/ok.jpg", 100)
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("Fetch() returned %d bytes", len(data))
	}

	if _, err := Fetch(context.Background(), server.URL+"/ok.jpg", 99); err == nil || !strings.Contains(err.Error(), "maximum size") {
		t.Errorf("Expected size error, got %v", err)
	}

	if _, err := Fetch(context.Background(), server.URL+"/missing.jpg", 0); err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Errorf("Expected status error, got %v", err)
	}
}
