package cli

import (
	"time"

	"github.com/spf13/viper"
)

// Settings is the fully resolved configuration
type Settings struct {
	Language       string
	Addr           string
	UploadDir      string
	AudioDir       string
	MaxUploadBytes int64
	LogLevel       string

	OpenAIKey     string
	OpenAIBaseURL string
	GeminiKey     string

	Detection   DetectionSettings
	Caption     CaptionSettings
	Translation TranslationSettings
	Speech      SpeechSettings
	Timeouts    Timeouts
}

// DetectionSettings configures the detection stage
type DetectionSettings struct {
	Backend    string // auto, yolo or openai
	URL        string
	APIKey     string
	Model      string
	Confidence float64
}

// CaptionSettings configures the caption stage
type CaptionSettings struct {
	Backend string // auto, openai or gemini
	Model   string
}

// TranslationSettings configures the translation stage
type TranslationSettings struct {
	Backend string // google or openai
	URL     string
	Model   string
	// DetectSource enables offline source language detection
	DetectSource  bool
	MinConfidence float64
}

// SpeechSettings configures the speech stage
type SpeechSettings struct {
	Provider          string
	Fallback          string
	GoogleURL         string
	OpenAIModel       string
	OpenAIVoice       string
	OpenAISpeed       float64
	OpenAIInstruction string
	CacheDir          string
	EnableCache       bool
}

// Timeouts bound each remote stage, 0 means no limit
type Timeouts struct {
	Detect    time.Duration
	Caption   time.Duration
	Translate time.Duration
	Speech    time.Duration
}

// SetDefaults registers the default value of every configuration key
func SetDefaults() {
	flags := NewFlags()

	viper.SetDefault("language", flags.Language)
	viper.SetDefault("server.addr", flags.Addr)
	viper.SetDefault("server.max_upload_mb", flags.MaxUploadMB)
	viper.SetDefault("storage.upload_dir", flags.UploadDir)
	viper.SetDefault("storage.audio_dir", flags.AudioDir)
	viper.SetDefault("log.level", flags.LogLevel)

	viper.SetDefault("detection.backend", flags.DetectionBackend)
	viper.SetDefault("detection.confidence", 0.25)
	viper.SetDefault("caption.backend", flags.CaptionBackend)
	viper.SetDefault("translation.backend", flags.TranslationBackend)
	viper.SetDefault("translation.detect_source", true)
	viper.SetDefault("translation.min_confidence", 0.5)

	viper.SetDefault("speech.provider", flags.SpeechProvider)
	viper.SetDefault("speech.openai_model", flags.OpenAIModel)
	viper.SetDefault("speech.openai_voice", flags.OpenAIVoice)
	viper.SetDefault("speech.openai_speed", flags.OpenAISpeed)

	viper.SetDefault("timeouts.detect", flags.DetectTimeout)
	viper.SetDefault("timeouts.caption", flags.CaptionTimeout)
	viper.SetDefault("timeouts.translate", flags.TranslateTimeout)
	viper.SetDefault("timeouts.speech", flags.SpeechTimeout)
}

// LoadSettings resolves flags, environment, config file and defaults into
// one Settings value
func LoadSettings() *Settings {
	return &Settings{
		Language:       viper.GetString("language"),
		Addr:           viper.GetString("server.addr"),
		UploadDir:      viper.GetString("storage.upload_dir"),
		AudioDir:       viper.GetString("storage.audio_dir"),
		MaxUploadBytes: int64(viper.GetInt("server.max_upload_mb")) << 20,
		LogLevel:       viper.GetString("log.level"),

		OpenAIKey:     GetOpenAIKey(),
		OpenAIBaseURL: viper.GetString("openai.base_url"),
		GeminiKey:     GetGeminiKey(),

		Detection: DetectionSettings{
			Backend:    viper.GetString("detection.backend"),
			URL:        viper.GetString("detection.url"),
			APIKey:     viper.GetString("detection.api_key"),
			Model:      viper.GetString("detection.model"),
			Confidence: viper.GetFloat64("detection.confidence"),
		},
		Caption: CaptionSettings{
			Backend: viper.GetString("caption.backend"),
			Model:   viper.GetString("caption.model"),
		},
		Translation: TranslationSettings{
			Backend:       viper.GetString("translation.backend"),
			URL:           viper.GetString("translation.url"),
			Model:         viper.GetString("translation.model"),
			DetectSource:  viper.GetBool("translation.detect_source"),
			MinConfidence: viper.GetFloat64("translation.min_confidence"),
		},
		Speech: SpeechSettings{
			Provider:          viper.GetString("speech.provider"),
			Fallback:          viper.GetString("speech.fallback"),
			GoogleURL:         viper.GetString("speech.google_url"),
			OpenAIModel:       viper.GetString("speech.openai_model"),
			OpenAIVoice:       viper.GetString("speech.openai_voice"),
			OpenAISpeed:       viper.GetFloat64("speech.openai_speed"),
			OpenAIInstruction: viper.GetString("speech.openai_instruction"),
			CacheDir:          viper.GetString("speech.cache_dir"),
			EnableCache:       viper.GetBool("speech.enable_cache"),
		},
		Timeouts: Timeouts{
			Detect:    viper.GetDuration("timeouts.detect"),
			Caption:   viper.GetDuration("timeouts.caption"),
			Translate: viper.GetDuration("timeouts.translate"),
			Speech:    viper.GetDuration("timeouts.speech"),
		},
	}
}
