package cli

import (
	"reflect"
	"testing"
	"time"
)

func TestNewFlags(t *testing.T) {
	flags := NewFlags()

	// Test default values
	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Language", flags.Language, "en"},
		{"Addr", flags.Addr, ":8080"},
		{"UploadDir", flags.UploadDir, "temp_uploads"},
		{"AudioDir", flags.AudioDir, "temp_audio"},
		{"MaxUploadMB", flags.MaxUploadMB, 20},
		{"LogLevel", flags.LogLevel, "info"},
		{"DetectionBackend", flags.DetectionBackend, "auto"},
		{"CaptionBackend", flags.CaptionBackend, "auto"},
		{"TranslationBackend", flags.TranslationBackend, "google"},
		{"SpeechProvider", flags.SpeechProvider, "google"},
		{"OpenAIModel", flags.OpenAIModel, "gpt-4o-mini-tts"},
		{"OpenAIVoice", flags.OpenAIVoice, "alloy"},
		{"OpenAISpeed", flags.OpenAISpeed, 1.0},
		{"DetectTimeout", flags.DetectTimeout, 30 * time.Second},
		{"CaptionTimeout", flags.CaptionTimeout, 60 * time.Second},
		{"TranslateTimeout", flags.TranslateTimeout, 15 * time.Second},
		{"SpeechTimeout", flags.SpeechTimeout, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.expected) {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}

	// Test boolean defaults (should be false)
	boolTests := []struct {
		name  string
		value bool
	}{
		{"JSON", flags.JSON},
		{"ListLanguages", flags.ListLanguages},
		{"ListModels", flags.ListModels},
		{"ClearCache", flags.ClearCache},
	}

	for _, tt := range boolTests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != false {
				t.Errorf("%s = %v, want false", tt.name, tt.value)
			}
		})
	}

	// Test string defaults (should be empty)
	stringTests := []struct {
		name  string
		value string
	}{
		{"CfgFile", flags.CfgFile},
		{"DetectionURL", flags.DetectionURL},
		{"CaptionModel", flags.CaptionModel},
		{"SpeechFallback", flags.SpeechFallback},
		{"OpenAIInstruction", flags.OpenAIInstruction},
	}

	for _, tt := range stringTests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Errorf("%s = %v, want empty string", tt.name, tt.value)
			}
		})
	}
}
