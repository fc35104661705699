package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"

	"codeberg.org/snonux/echovision/internal/breaker"
	"codeberg.org/snonux/echovision/internal/language"
)

// Result is the outcome of one synthesis. Path is empty when no audio was
// produced; a non-empty Path always names an existing, non-empty file.
type Result struct {
	Path string
	// Lang is the language actually spoken
	Lang string
	// Substituted is set when the requested language was replaced by the default
	Substituted bool
	Err         error
}

// OK reports whether audio was produced
func (r Result) OK() bool {
	return r.Path != ""
}

// Synthesizer speaks text into files inside one output directory
type Synthesizer struct {
	provider  Provider
	outputDir string
	breaker   *breaker.Breaker
}

// NewSynthesizer creates a synthesizer writing into outputDir
func NewSynthesizer(provider Provider, outputDir string) *Synthesizer {
	return &Synthesizer{
		provider:  provider,
		outputDir: outputDir,
		breaker:   breaker.New("speech-"+provider.Name(), breaker.DefaultSettings()),
	}
}

// Provider returns the name of the configured provider
func (s *Synthesizer) Provider() string {
	return s.provider.Name()
}

// ResolveLanguage validates code against the supported languages. Unknown
// codes resolve to the default language with substituted set.
func ResolveLanguage(code string) (lang string, substituted bool) {
	code = language.NormalizeCode(code)
	if language.IsSupported(code) {
		return code, false
	}
	return language.DefaultCode, true
}

// Synthesize speaks text in langCode and stores it as destName inside the
// output directory. Failures are logged and reported through the Result.
func (s *Synthesizer) Synthesize(ctx context.Context, text, langCode, destName string) Result {
	lang, substituted := ResolveLanguage(langCode)
	if substituted {
		log.WithFields(log.Fields{
			"requested": langCode,
			"using":     lang,
		}).Info("unsupported speech language, using default")
	}

	result := Result{Lang: lang, Substituted: substituted}

	if destName == "" || filepath.Base(destName) != destName {
		result.Err = fmt.Errorf("invalid audio file name %q", destName)
		return s.failed(result)
	}
	if err := ValidateSpeechText(text); err != nil {
		result.Err = err
		return s.failed(result)
	}

	outputFile := filepath.Join(s.outputDir, destName)
	err := s.breaker.Do(func() error {
		return s.provider.GenerateAudio(ctx, text, lang, outputFile)
	})
	if err != nil {
		_ = os.Remove(outputFile)
		result.Err = err
		return s.failed(result)
	}

	info, err := os.Stat(outputFile)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(outputFile)
		result.Err = fmt.Errorf("%s produced no audio", s.provider.Name())
		return s.failed(result)
	}

	result.Path = outputFile
	return result
}

func (s *Synthesizer) failed(result Result) Result {
	log.WithFields(log.Fields{
		"provider": s.provider.Name(),
		"lang":     result.Lang,
		"error":    result.Err,
	}).Warn("speech synthesis failed, no audio available")
	return result
}
