package audio

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxSpeechLength is the longest text accepted for synthesis
const MaxSpeechLength = 4096

// ValidateSpeechText checks that text can be spoken: it must not be empty,
// must contain at least one letter and must fit MaxSpeechLength
func ValidateSpeechText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}

	if utf8.RuneCountInString(text) > MaxSpeechLength {
		return fmt.Errorf("text exceeds %d characters", MaxSpeechLength)
	}

	hasLetter := false
	for _, r := range text {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}

	if !hasLetter {
		return fmt.Errorf("text must contain letters")
	}

	return nil
}
