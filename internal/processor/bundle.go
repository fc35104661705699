package processor

import (
	"fmt"
	"io"
	"strings"

	"codeberg.org/snonux/echovision/internal/language"
)

// Stage names used in logs, metrics and errors
const (
	StageIngest    = "ingest"
	StageDetect    = "detect"
	StageCaption   = "caption"
	StageTranslate = "translate"
	StageSpeech    = "speech"
)

// NoObjectsText is shown when detection found nothing
const NoObjectsText = "none detected"

// Request is one image to describe
type Request struct {
	Image []byte
	// Format is jpg, jpeg or png. Empty sniffs the format from Image.
	Format string
	// Language is a display name or a code
	Language string
}

// Bundle is the result of one successful pipeline run
type Bundle struct {
	RequestID           string            `json:"request_id"`
	ImagePath           string            `json:"-"`
	Language            language.Language `json:"language"`
	Objects             []string          `json:"objects"`
	DetectionFailed     bool              `json:"detection_failed,omitempty"`
	Caption             string            `json:"caption"`
	Translated          string            `json:"translated_caption"`
	TranslationFallback bool              `json:"translation_fallback,omitempty"`
	AudioPath           string            `json:"-"`
	SpeechLang          string            `json:"speech_language,omitempty"`
	SpeechSubstituted   bool              `json:"speech_substituted,omitempty"`
}

// HasAudio reports whether a clip was synthesized
func (b *Bundle) HasAudio() bool {
	return b.AudioPath != ""
}

// ObjectsText renders the labels for display
func (b *Bundle) ObjectsText() string {
	if len(b.Objects) == 0 {
		return NoObjectsText
	}
	return strings.Join(b.Objects, ", ")
}

// Print writes the bundle in human readable form
func (b *Bundle) Print(w io.Writer) {
	fmt.Fprintf(w, "Objects: %s\n", b.ObjectsText())
	fmt.Fprintf(w, "Caption: %s\n", b.Caption)
	fmt.Fprintf(w, "Translated (%s): %s\n", b.Language.Name, b.Translated)
	if b.HasAudio() {
		fmt.Fprintf(w, "Audio: %s\n", b.AudioPath)
	} else {
		fmt.Fprintln(w, "Audio: no audio available")
	}
}

// StageError is returned when a fatal stage fails
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
