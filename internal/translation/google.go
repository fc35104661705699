package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codeberg.org/snonux/echovision/internal/breaker"
	"codeberg.org/snonux/echovision/internal/language"
)

// DefaultGoogleURL is the public web translation endpoint
const DefaultGoogleURL = "https://translate.googleapis.com"

// GoogleBackend uses the free Google web translation endpoint
type GoogleBackend struct {
	baseURL string
	client  *http.Client
}

// NewGoogleBackend creates a new Google backend. An empty baseURL uses
// DefaultGoogleURL, a zero timeout leaves requests bounded only by their
// context.
func NewGoogleBackend(baseURL string, timeout time.Duration) *GoogleBackend {
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	return &GoogleBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the backend name
func (g *GoogleBackend) Name() string {
	return "google"
}

// Translate calls the endpoint and joins the translated segments
func (g *GoogleBackend) Translate(ctx context.Context, text, source, target string) (string, error) {
	if source == "" {
		source = AutoSource
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", language.BackendCode(source))
	params.Set("tl", language.BackendCode(target))
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/translate_a/single?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call translation service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &breaker.StatusError{Service: "translation service", StatusCode: resp.StatusCode}
	}

	var payload []any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode translation response: %w", err)
	}

	return joinSegments(payload)
}

// joinSegments concatenates the translated sentences found at payload[0][i][0]
func joinSegments(payload []any) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("empty translation response")
	}

	segments, ok := payload[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected translation response format")
	}

	var sb strings.Builder
	for _, segment := range segments {
		parts, ok := segment.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			sb.WriteString(s)
		}
	}

	return sb.String(), nil
}
