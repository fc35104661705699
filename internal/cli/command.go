package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/echovision/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "echovision [image]",
		Short: "Describe images aloud in many languages",
		Long: `echovision detects the objects in an image, captions it, translates the
caption and speaks the translation as an MP3 clip.

Without an image argument it starts an HTTP server with an upload API.

Examples:
  echovision                          # Start the HTTP server on :8080
  echovision dog.jpg                  # Describe dog.jpg in English
  echovision dog.jpg --lang Spanish   # Describe and speak in Spanish
  echovision --list-languages         # Show the supported languages`,
		Args:    cobra.MaximumNArgs(1),
		Version: internal.Version,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.echovision.yaml)")

	// Local flags
	cmd.Flags().StringVarP(&flags.Language, "lang", "l", flags.Language, "Target language (name or code, e.g. Spanish or es)")
	cmd.Flags().StringVar(&flags.Addr, "addr", flags.Addr, "HTTP listen address in server mode")
	cmd.Flags().StringVar(&flags.UploadDir, "upload-dir", flags.UploadDir, "Scratch directory for uploaded images")
	cmd.Flags().StringVar(&flags.AudioDir, "audio-dir", flags.AudioDir, "Scratch directory for generated audio")
	cmd.Flags().IntVar(&flags.MaxUploadMB, "max-upload-mb", flags.MaxUploadMB, "Maximum upload size in MiB (0 for unlimited)")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&flags.ListLanguages, "list-languages", false, "List the supported languages")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List available OpenAI models for the current API key")
	cmd.Flags().BoolVar(&flags.ClearCache, "clear-speech-cache", false, "Remove cached OpenAI speech files and exit")

	// Backend flags
	cmd.Flags().StringVar(&flags.DetectionBackend, "detection", flags.DetectionBackend, "Detection backend: auto, yolo, openai")
	cmd.Flags().StringVar(&flags.DetectionURL, "detection-url", "", "URL of the YOLO inference endpoint")
	cmd.Flags().StringVar(&flags.CaptionBackend, "caption", flags.CaptionBackend, "Caption backend: auto, openai, gemini")
	cmd.Flags().StringVar(&flags.CaptionModel, "caption-model", "", "Caption model (backend default when empty)")
	cmd.Flags().StringVar(&flags.TranslationBackend, "translation", flags.TranslationBackend, "Translation backend: google, openai")
	cmd.Flags().StringVar(&flags.SpeechProvider, "speech", flags.SpeechProvider, "Speech provider: google, openai")
	cmd.Flags().StringVar(&flags.SpeechFallback, "speech-fallback", "", "Speech provider used when the first one fails")

	// OpenAI TTS flags
	cmd.Flags().StringVar(&flags.OpenAIModel, "openai-tts-model", flags.OpenAIModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	cmd.Flags().StringVar(&flags.OpenAIVoice, "openai-voice", flags.OpenAIVoice, "OpenAI voice: alloy, ash, ballad, coral, echo, fable, onyx, nova, sage, shimmer, verse")
	cmd.Flags().Float64Var(&flags.OpenAISpeed, "openai-speed", flags.OpenAISpeed, "OpenAI speech speed (0.25 to 4.0)")
	cmd.Flags().StringVar(&flags.OpenAIInstruction, "openai-instruction", "", "Voice instructions for gpt-4o-mini-tts (%s is replaced by the language name)")

	// Timeouts
	cmd.Flags().DurationVar(&flags.DetectTimeout, "detect-timeout", flags.DetectTimeout, "Detection stage timeout (0 for none)")
	cmd.Flags().DurationVar(&flags.CaptionTimeout, "caption-timeout", flags.CaptionTimeout, "Caption stage timeout (0 for none)")
	cmd.Flags().DurationVar(&flags.TranslateTimeout, "translate-timeout", flags.TranslateTimeout, "Translation stage timeout (0 for none)")
	cmd.Flags().DurationVar(&flags.SpeechTimeout, "speech-timeout", flags.SpeechTimeout, "Speech stage timeout (0 for none)")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

// flagKeys maps flag names to viper configuration keys
var flagKeys = map[string]string{
	"lang":               "language",
	"addr":               "server.addr",
	"max-upload-mb":      "server.max_upload_mb",
	"upload-dir":         "storage.upload_dir",
	"audio-dir":          "storage.audio_dir",
	"log-level":          "log.level",
	"detection":          "detection.backend",
	"detection-url":      "detection.url",
	"caption":            "caption.backend",
	"caption-model":      "caption.model",
	"translation":        "translation.backend",
	"speech":             "speech.provider",
	"speech-fallback":    "speech.fallback",
	"openai-tts-model":   "speech.openai_model",
	"openai-voice":       "speech.openai_voice",
	"openai-speed":       "speech.openai_speed",
	"openai-instruction": "speech.openai_instruction",
	"detect-timeout":     "timeouts.detect",
	"caption-timeout":    "timeouts.caption",
	"translate-timeout":  "timeouts.translate",
	"speech-timeout":     "timeouts.speech",
}

func bindFlagsToViper(cmd *cobra.Command) {
	for name, key := range flagKeys {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			_ = viper.BindPFlag(key, flag)
		}
	}
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	SetDefaults()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".echovision" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".echovision")
	}

	// Environment variables, e.g. ECHOVISION_SPEECH_PROVIDER
	viper.SetEnvPrefix("ECHOVISION")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("openai.key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("gemini.key")
}
