package cli

import "time"

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile       string
	Language      string
	Addr          string
	UploadDir     string
	AudioDir      string
	MaxUploadMB   int
	LogLevel      string
	JSON          bool
	ListLanguages bool
	ListModels    bool
	ClearCache    bool

	// Backend selection
	DetectionBackend   string
	DetectionURL       string
	CaptionBackend     string
	CaptionModel       string
	TranslationBackend string
	SpeechProvider     string
	SpeechFallback     string

	// OpenAI TTS flags
	OpenAIModel       string
	OpenAIVoice       string
	OpenAISpeed       float64
	OpenAIInstruction string

	// Per-stage timeouts, 0 disables
	DetectTimeout    time.Duration
	CaptionTimeout   time.Duration
	TranslateTimeout time.Duration
	SpeechTimeout    time.Duration
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Language:           "en",
		Addr:               ":8080",
		UploadDir:          "temp_uploads",
		AudioDir:           "temp_audio",
		MaxUploadMB:        20,
		LogLevel:           "info",
		DetectionBackend:   "auto",
		CaptionBackend:     "auto",
		TranslationBackend: "google",
		SpeechProvider:     "google",
		OpenAIModel:        "gpt-4o-mini-tts",
		OpenAIVoice:        "alloy",
		OpenAISpeed:        1.0,
		DetectTimeout:      30 * time.Second,
		CaptionTimeout:     60 * time.Second,
		TranslateTimeout:   15 * time.Second,
		SpeechTimeout:      30 * time.Second,
	}
}
