package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
)

// Provider defines the interface for text-to-speech providers
type Provider interface {
	// GenerateAudio speaks text in lang and saves the audio to outputFile
	GenerateAudio(ctx context.Context, text, lang, outputFile string) error

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// Config holds common configuration for audio providers
type Config struct {
	Provider string // Provider name: "google" or "openai"
	Fallback string // Optional second provider used when the first one fails
	Timeout  time.Duration

	// Google-specific settings
	GoogleURL string // Base URL of the translate TTS endpoint

	// OpenAI-specific settings
	OpenAIKey         string
	OpenAIBaseURL     string
	OpenAIModel       string  // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAIVoice       string  // "alloy", "ash", "ballad", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer", "verse"
	OpenAISpeed       float64 // 0.25 to 4.0
	OpenAIInstruction string  // Voice instructions for gpt-4o-mini-tts, %s is replaced by the language name

	// Cache settings
	CacheDir    string
	EnableCache bool
}

// DefaultProviderConfig returns default configuration
func DefaultProviderConfig() *Config {
	return &Config{
		Provider:          "google",
		Timeout:           30 * time.Second,
		GoogleURL:         DefaultGoogleTTSURL,
		OpenAIModel:       "gpt-4o-mini-tts",
		OpenAIVoice:       "alloy",
		OpenAISpeed:       1.0,
		OpenAIInstruction: "You are reading an image caption aloud in %s. Use natural native pronunciation and speak clearly.",
	}
}

// NewProvider creates the appropriate audio provider based on configuration.
// When a fallback is configured the result tries both in order.
func NewProvider(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultProviderConfig()
	}

	primary, err := newSingleProvider(config.Provider, config)
	if err != nil {
		return nil, err
	}

	if config.Fallback == "" || config.Fallback == config.Provider {
		return primary, nil
	}

	fallback, err := newSingleProvider(config.Fallback, config)
	if err != nil {
		log.WithError(err).Warnf("speech fallback %s unavailable, using %s only", config.Fallback, primary.Name())
		return primary, nil
	}

	return NewProviderWithFallback(primary, fallback), nil
}

func newSingleProvider(name string, config *Config) (Provider, error) {
	switch name {
	case "google":
		return NewGoogleProvider(config.GoogleURL, config.Timeout), nil

	case "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAIProvider(config)

	default:
		return nil, fmt.Errorf("unknown audio provider: %s", name)
	}
}

// ProviderWithFallback wraps a primary provider with a fallback option
type ProviderWithFallback struct {
	primary  Provider
	fallback Provider
}

// NewProviderWithFallback creates a provider that falls back to secondary if primary fails
func NewProviderWithFallback(primary, fallback Provider) Provider {
	return &ProviderWithFallback{
		primary:  primary,
		fallback: fallback,
	}
}

// GenerateAudio tries primary provider first, falls back to secondary on error
func (p *ProviderWithFallback) GenerateAudio(ctx context.Context, text, lang, outputFile string) error {
	err := p.primary.GenerateAudio(ctx, text, lang, outputFile)
	if err != nil {
		log.WithFields(log.Fields{
			"primary":  p.primary.Name(),
			"fallback": p.fallback.Name(),
			"error":    err,
		}).Warn("primary speech provider failed, falling back")

		return p.fallback.GenerateAudio(ctx, text, lang, outputFile)
	}
	return nil
}

// Name returns the provider name
func (p *ProviderWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}

// IsAvailable checks if at least one provider is available
func (p *ProviderWithFallback) IsAvailable() error {
	primaryErr := p.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := p.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both providers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}
