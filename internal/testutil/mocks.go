package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// MP3Frame is a minimal MPEG audio frame header used as fake audio
var MP3Frame = []byte{0xFF, 0xFB, 0x90, 0x00, 0x00, 0x00, 0x00, 0x00}

// MockCaptionBackend mocks an image captioner
type MockCaptionBackend struct {
	Caption string
	Err     error
	Calls   int
	mu      sync.Mutex
}

// Describe returns the configured caption
func (m *MockCaptionBackend) Describe(ctx context.Context, img []byte, mimeType string) (string, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	return m.Caption, m.Err
}

// Name returns the backend name
func (m *MockCaptionBackend) Name() string {
	return "mock-caption"
}

// MockTranslationBackend mocks a translation service
type MockTranslationBackend struct {
	Translations map[string]string
	Err          error
	Calls        []string
}

// Translate looks up the configured translation
func (m *MockTranslationBackend) Translate(ctx context.Context, text, source, target string) (string, error) {
	m.Calls = append(m.Calls, fmt.Sprintf("Translate: %s (%s->%s)", text, source, target))

	if m.Err != nil {
		return "", m.Err
	}

	if translation, ok := m.Translations[target+":"+text]; ok {
		return translation, nil
	}

	return fmt.Sprintf("[%s] %s", target, text), nil
}

// Name returns the backend name
func (m *MockTranslationBackend) Name() string {
	return "mock-translation"
}

// MockSpeechProvider mocks a text-to-speech provider
type MockSpeechProvider struct {
	Err       error
	Data      []byte
	Languages []string
	mu        sync.Mutex
}

// GenerateAudio writes fake MP3 data to outputFile
func (m *MockSpeechProvider) GenerateAudio(ctx context.Context, text, lang, outputFile string) error {
	m.mu.Lock()
	m.Languages = append(m.Languages, lang)
	m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	data := m.Data
	if data == nil {
		data = MP3Frame
	}
	return os.WriteFile(outputFile, data, 0644)
}

// Name returns the provider name
func (m *MockSpeechProvider) Name() string {
	return "mock-speech"
}

// IsAvailable always succeeds
func (m *MockSpeechProvider) IsAvailable() error {
	return nil
}
