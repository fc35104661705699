package translation

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// LinguaDetector detects the source language offline with lingua
type LinguaDetector struct {
	detector      lingua.LanguageDetector
	minConfidence float64
}

// NewLinguaDetector creates a detector over all languages lingua knows.
// Guesses below minConfidence are reported as unknown.
func NewLinguaDetector(minConfidence float64) *LinguaDetector {
	return &LinguaDetector{
		detector:      lingua.NewLanguageDetectorBuilder().FromAllLanguages().Build(),
		minConfidence: minConfidence,
	}
}

// Detect returns the lower-case ISO 639-1 code of the language of text
func (d *LinguaDetector) Detect(text string) (string, bool) {
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}

	if d.minConfidence > 0 && d.detector.ComputeLanguageConfidence(text, lang) < d.minConfidence {
		return "", false
	}

	return strings.ToLower(lang.IsoCode639_1().String()), true
}
