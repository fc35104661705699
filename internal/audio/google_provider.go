package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"codeberg.org/snonux/echovision/internal/breaker"
	"codeberg.org/snonux/echovision/internal/language"
)

// DefaultGoogleTTSURL is the public translate TTS endpoint
const DefaultGoogleTTSURL = "https://translate.google.com"

// maxChunkLen is the longest text the endpoint accepts per request
const maxChunkLen = 100

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// GoogleProvider implements Provider with the Google translate TTS endpoint.
// Long texts are split into chunks whose MP3 responses are appended.
type GoogleProvider struct {
	baseURL string
	client  *http.Client
}

// NewGoogleProvider creates a new Google TTS provider. A zero timeout
// leaves requests bounded only by their context.
func NewGoogleProvider(baseURL string, timeout time.Duration) *GoogleProvider {
	if baseURL == "" {
		baseURL = DefaultGoogleTTSURL
	}
	return &GoogleProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name
func (g *GoogleProvider) Name() string {
	return "google"
}

// IsAvailable always succeeds, the endpoint needs no credentials
func (g *GoogleProvider) IsAvailable() error {
	return nil
}

// GenerateAudio fetches speech for every chunk of text and writes the
// concatenated MP3 stream to outputFile
func (g *GoogleProvider) GenerateAudio(ctx context.Context, text, lang, outputFile string) error {
	if err := ValidateSpeechText(text); err != nil {
		return err
	}

	chunks := SplitText(text, maxChunkLen)
	var audio bytes.Buffer

	for i, chunk := range chunks {
		data, err := g.fetch(ctx, chunk, lang, i, len(chunks))
		if err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		audio.Write(data)
	}

	if audio.Len() == 0 {
		return fmt.Errorf("no audio data received from Google")
	}

	if err := os.WriteFile(outputFile, audio.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	return nil
}

func (g *GoogleProvider) fetch(ctx context.Context, chunk, lang string, idx, total int) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", language.BackendCode(lang))
	params.Set("q", chunk)
	params.Set("total", strconv.Itoa(total))
	params.Set("idx", strconv.Itoa(idx))
	params.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/translate_tts?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call speech service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &breaker.StatusError{Service: "speech service", StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	return data, nil
}

// SplitText splits text at word boundaries into chunks of at most maxLen
// runes. Words longer than maxLen are cut.
func SplitText(text string, maxLen int) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		runes := []rune(word)

		for len(runes) > maxLen {
			flush()
			chunks = append(chunks, string(runes[:maxLen]))
			runes = runes[maxLen:]
		}
		if len(runes) == 0 {
			continue
		}

		needed := len(runes)
		if currentLen > 0 {
			needed++
		}
		if currentLen+needed > maxLen {
			flush()
			needed = len(runes)
		}

		if currentLen > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(string(runes))
		currentLen += needed
	}
	flush()

	return chunks
}
