package processor

import (
	"context"
	"fmt"

	"github.com/apex/log"

	"codeberg.org/snonux/echovision/internal/audio"
	"codeberg.org/snonux/echovision/internal/caption"
	"codeberg.org/snonux/echovision/internal/cli"
	"codeberg.org/snonux/echovision/internal/detection"
	"codeberg.org/snonux/echovision/internal/storage"
	"codeberg.org/snonux/echovision/internal/translation"
)

// NewProcessor builds every adapter from settings and prepares the
// scratch directories
func NewProcessor(ctx context.Context, settings *cli.Settings) (*Processor, error) {
	store := storage.New(settings.UploadDir, settings.AudioDir)
	if err := store.Prepare(); err != nil {
		return nil, err
	}

	detector, err := newDetector(settings)
	if err != nil {
		return nil, err
	}

	captioner, err := newCaptioner(ctx, settings)
	if err != nil {
		return nil, err
	}

	translator, err := newTranslator(settings)
	if err != nil {
		return nil, err
	}

	synthesizer, err := newSynthesizer(settings, store.AudioDir())
	if err != nil {
		return nil, err
	}

	services := Services{
		Storage:     store,
		Captioner:   captioner,
		Translator:  translator,
		Synthesizer: synthesizer,
	}
	if detector != nil {
		services.Detector = detector
	}

	return New(services, settings.Timeouts), nil
}

// newDetector returns nil when no detection backend can be used
func newDetector(settings *cli.Settings) (*detection.Detector, error) {
	name := settings.Detection.Backend
	if name == "" || name == "auto" {
		switch {
		case settings.Detection.URL != "":
			name = "yolo"
		case settings.OpenAIKey != "":
			name = "openai"
		default:
			log.Warn("no detection backend configured, object detection disabled")
			return nil, nil
		}
	}

	var backend detection.Backend
	switch name {
	case "yolo":
		if settings.Detection.URL == "" {
			return nil, fmt.Errorf("detection backend yolo needs detection.url")
		}
		backend = detection.NewHTTPBackend(detection.HTTPConfig{
			URL:        settings.Detection.URL,
			APIKey:     settings.Detection.APIKey,
			Confidence: settings.Detection.Confidence,
			Timeout:    settings.Timeouts.Detect,
		})

	case "openai":
		b, err := detection.NewOpenAIBackend(detection.OpenAIConfig{
			APIKey:  settings.OpenAIKey,
			Model:   settings.Detection.Model,
			BaseURL: settings.OpenAIBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("detection: %w", err)
		}
		backend = b

	case "none":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown detection backend: %s", name)
	}

	detector := detection.NewDetector(backend, detection.Config{Confidence: settings.Detection.Confidence})
	log.WithField("backend", detector.Backend()).Info("detection ready")
	return detector, nil
}

func newCaptioner(ctx context.Context, settings *cli.Settings) (*caption.Captioner, error) {
	name := settings.Caption.Backend
	if name == "" || name == "auto" {
		switch {
		case settings.OpenAIKey != "":
			name = "openai"
		case settings.GeminiKey != "":
			name = "gemini"
		default:
			return nil, fmt.Errorf("no caption backend available: set OPENAI_API_KEY or GEMINI_API_KEY")
		}
	}

	var backend caption.Backend
	switch name {
	case "openai":
		b, err := caption.NewOpenAIBackend(caption.OpenAIConfig{
			APIKey:  settings.OpenAIKey,
			Model:   settings.Caption.Model,
			BaseURL: settings.OpenAIBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("caption: %w", err)
		}
		backend = b

	case "gemini":
		b, err := caption.NewGeminiBackend(ctx, caption.GeminiConfig{
			APIKey: settings.GeminiKey,
			Model:  settings.Caption.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("caption: %w", err)
		}
		backend = b

	default:
		return nil, fmt.Errorf("unknown caption backend: %s", name)
	}

	captioner := caption.NewCaptioner(backend, 0)
	log.WithField("backend", captioner.Backend()).Info("captioning ready")
	return captioner, nil
}

func newTranslator(settings *cli.Settings) (*translation.Translator, error) {
	var backend translation.Backend
	switch settings.Translation.Backend {
	case "", "google":
		backend = translation.NewGoogleBackend(settings.Translation.URL, settings.Timeouts.Translate)

	case "openai":
		b, err := translation.NewOpenAIBackend(translation.OpenAIConfig{
			APIKey:  settings.OpenAIKey,
			Model:   settings.Translation.Model,
			BaseURL: settings.OpenAIBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("translation: %w", err)
		}
		backend = b

	default:
		return nil, fmt.Errorf("unknown translation backend: %s", settings.Translation.Backend)
	}

	var detector translation.SourceDetector
	if settings.Translation.DetectSource {
		detector = translation.NewLinguaDetector(settings.Translation.MinConfidence)
	}

	translator := translation.NewTranslator(backend, detector)
	log.WithField("backend", translator.Backend()).Info("translation ready")
	return translator, nil
}

func newSynthesizer(settings *cli.Settings, audioDir string) (*audio.Synthesizer, error) {
	config := audio.DefaultProviderConfig()
	if settings.Speech.Provider != "" {
		config.Provider = settings.Speech.Provider
	}
	config.Fallback = settings.Speech.Fallback
	config.Timeout = settings.Timeouts.Speech
	config.OpenAIKey = settings.OpenAIKey
	config.OpenAIBaseURL = settings.OpenAIBaseURL
	config.CacheDir = settings.Speech.CacheDir
	config.EnableCache = settings.Speech.EnableCache

	if settings.Speech.GoogleURL != "" {
		config.GoogleURL = settings.Speech.GoogleURL
	}
	if settings.Speech.OpenAIModel != "" {
		config.OpenAIModel = settings.Speech.OpenAIModel
	}
	if settings.Speech.OpenAIVoice != "" {
		config.OpenAIVoice = settings.Speech.OpenAIVoice
	}
	if settings.Speech.OpenAISpeed > 0 {
		config.OpenAISpeed = settings.Speech.OpenAISpeed
	}
	if settings.Speech.OpenAIInstruction != "" {
		config.OpenAIInstruction = settings.Speech.OpenAIInstruction
	}

	provider, err := audio.NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("speech: %w", err)
	}
	if err := provider.IsAvailable(); err != nil {
		return nil, fmt.Errorf("speech: %w", err)
	}

	synth := audio.NewSynthesizer(provider, audioDir)
	log.WithField("provider", synth.Provider()).Info("speech ready")
	return synth, nil
}
