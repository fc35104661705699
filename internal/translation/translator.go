package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/apex/log"

	"codeberg.org/snonux/echovision/internal/breaker"
	"codeberg.org/snonux/echovision/internal/language"
)

// AutoSource asks a backend to detect the source language itself
const AutoSource = "auto"

// ErrEmptyTranslation is returned when a backend answers with no text
var ErrEmptyTranslation = errors.New("translation backend returned no text")

// Backend translates text from source to target. source may be AutoSource.
type Backend interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
	Name() string
}

// SourceDetector guesses the language of a text and returns its ISO 639-1
// code
type SourceDetector interface {
	Detect(text string) (string, bool)
}

// Result is the outcome of one translation
type Result struct {
	Text string
	// Source is the detected source language, empty when unknown
	Source string
	// Fallback is set when Text is the untranslated input
	Fallback bool
	// Err is the reason for the fallback
	Err error
}

// Translator wraps a backend with caching, source detection and the
// identity fallback
type Translator struct {
	backend  Backend
	detector SourceDetector
	cache    *TranslationCache
	breaker  *breaker.Breaker
}

// NewTranslator creates a new translator. detector may be nil.
func NewTranslator(backend Backend, detector SourceDetector) *Translator {
	return &Translator{
		backend:  backend,
		detector: detector,
		cache:    NewTranslationCache(),
		breaker:  breaker.New("translation-"+backend.Name(), breaker.DefaultSettings()),
	}
}

// Backend returns the name of the configured backend
func (t *Translator) Backend() string {
	return t.backend.Name()
}

// Translate translates text into target. It always returns usable text.
func (t *Translator) Translate(ctx context.Context, text, target string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Text: text}
	}

	target = language.NormalizeCode(target)
	if target == "" {
		return t.fallback(text, "", fmt.Errorf("no target language"))
	}

	key := cacheKey(target, text)
	if cached, ok := t.cache.Get(key); ok {
		return Result{Text: cached}
	}

	source := AutoSource
	if t.detector != nil {
		if detected, ok := t.detector.Detect(text); ok {
			if sameLanguage(detected, target) {
				return Result{Text: text, Source: detected}
			}
			source = detected
		}
	}

	translated, err := breaker.Call(t.breaker, func() (string, error) {
		return t.backend.Translate(ctx, text, source, target)
	})
	if err != nil {
		return t.fallback(text, source, err)
	}

	translated = strings.TrimSpace(translated)
	if translated == "" {
		return t.fallback(text, source, ErrEmptyTranslation)
	}

	t.cache.Add(key, translated)
	log.WithField("cached", t.cache.Len()).Debug("translation cached")
	if source == AutoSource {
		source = ""
	}
	return Result{Text: translated, Source: source}
}

func (t *Translator) fallback(text, source string, err error) Result {
	entry := log.WithFields(log.Fields{
		"backend": t.backend.Name(),
		"error":   err,
	})
	if breaker.IsOpen(err) {
		entry.Warn("translation backend unavailable, keeping original text")
	} else {
		entry.Warn("translation failed, keeping original text")
	}

	if source == AutoSource {
		source = ""
	}
	return Result{Text: text, Source: source, Fallback: true, Err: err}
}

// sameLanguage compares an ISO 639-1 code with a registry code such as zh-cn
func sameLanguage(detected, target string) bool {
	base, _, _ := strings.Cut(target, "-")
	return strings.EqualFold(detected, base)
}

func cacheKey(target, text string) string {
	return target + ":" + text
}

// TranslationCache stores translations in memory
type TranslationCache struct {
	mu           sync.RWMutex
	translations map[string]string
}

// NewTranslationCache creates a new translation cache
func NewTranslationCache() *TranslationCache {
	return &TranslationCache{
		translations: make(map[string]string),
	}
}

// Add adds a translation to the cache
func (tc *TranslationCache) Add(key, translation string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.translations[key] = translation
}

// Get retrieves a translation from the cache
func (tc *TranslationCache) Get(key string) (string, bool) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	translation, ok := tc.translations[key]
	return translation, ok
}

// Len returns the number of cached translations
func (tc *TranslationCache) Len() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return len(tc.translations)
}
