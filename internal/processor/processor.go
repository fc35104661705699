package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"

	"codeberg.org/snonux/echovision/internal/audio"
	"codeberg.org/snonux/echovision/internal/cli"
	"codeberg.org/snonux/echovision/internal/image"
	"codeberg.org/snonux/echovision/internal/language"
	"codeberg.org/snonux/echovision/internal/metrics"
	"codeberg.org/snonux/echovision/internal/storage"
	"codeberg.org/snonux/echovision/internal/translation"
)

// Detector finds object labels in an image file
type Detector interface {
	Detect(ctx context.Context, imagePath string) ([]string, error)
}

// Captioner describes an image file in one sentence
type Captioner interface {
	Caption(ctx context.Context, imagePath string) (string, error)
}

// Translator translates text, falling back to the input on failure
type Translator interface {
	Translate(ctx context.Context, text, target string) translation.Result
}

// Synthesizer speaks text into a named file, reporting absence on failure
type Synthesizer interface {
	Synthesize(ctx context.Context, text, langCode, destName string) audio.Result
}

// Services are the adapters a processor runs. They are built once and
// shared read-only by every request. Detector may be nil.
type Services struct {
	Storage     *storage.Manager
	Detector    Detector
	Captioner   Captioner
	Translator  Translator
	Synthesizer Synthesizer
}

// Processor runs the describe pipeline
type Processor struct {
	services Services
	timeouts cli.Timeouts

	// mu serialises requests: ingest wipes the shared scratch directories
	mu sync.Mutex
}

// New creates a processor from ready-made services
func New(services Services, timeouts cli.Timeouts) *Processor {
	return &Processor{
		services: services,
		timeouts: timeouts,
	}
}

// Storage returns the scratch storage manager
func (p *Processor) Storage() *storage.Manager {
	return p.services.Storage
}

// ProcessFile describes the image at path, which may also be an http(s) URL
func (p *Processor) ProcessFile(ctx context.Context, path, lang string) (*Bundle, error) {
	if image.IsURL(path) {
		data, err := image.Fetch(ctx, path, 0)
		if err != nil {
			return nil, &StageError{Stage: StageIngest, Err: err}
		}
		// Remote formats are sniffed, URLs rarely carry a reliable extension
		return p.Process(ctx, Request{Image: data, Language: lang})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StageError{Stage: StageIngest, Err: fmt.Errorf("failed to read image: %w", err)}
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format != "jpg" && format != "jpeg" && format != "png" {
		format = ""
	}

	return p.Process(ctx, Request{Image: data, Format: format, Language: lang})
}

// Process runs all five stages for one request. It returns a bundle on
// success and a *StageError when ingest or captioning failed.
func (p *Processor) Process(ctx context.Context, req Request) (*Bundle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A caller that gave up while queued must not wipe the scratch
	// directories of the request that is still being served
	if err := ctx.Err(); err != nil {
		metrics.RequestsTotal.WithLabelValues("abandoned").Inc()
		return nil, &StageError{Stage: StageIngest, Err: err}
	}

	metrics.InFlight.Inc()
	defer metrics.InFlight.Dec()

	bundle, err := p.run(ctx, req)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	metrics.RequestsTotal.WithLabelValues("success").Inc()
	return bundle, nil
}

func (p *Processor) run(ctx context.Context, req Request) (*Bundle, error) {
	lang, known := language.Resolve(req.Language)
	if !known && strings.TrimSpace(req.Language) != "" {
		log.WithField("language", req.Language).Warn("unknown language selection")
	}

	// 1. Ingest
	started := time.Now()
	id, imagePath, err := p.ingest(req)
	if err != nil {
		metrics.ObserveStage(StageIngest, "failed", started)
		log.WithError(err).Error("ingest failed")
		return nil, &StageError{Stage: StageIngest, Err: err}
	}
	metrics.ObserveStage(StageIngest, "ok", started)

	logger := log.WithFields(log.Fields{
		"request_id": id,
		"language":   lang.Code,
	})
	logger.Info("image stored")

	bundle := &Bundle{
		RequestID: id,
		ImagePath: imagePath,
		Language:  lang,
		Objects:   []string{},
	}

	// 2. Detect, failures degrade to no objects
	p.detect(ctx, logger, bundle)

	// 3. Caption, fatal
	started = time.Now()
	caption, err := p.caption(ctx, imagePath)
	if err != nil {
		metrics.ObserveStage(StageCaption, "failed", started)
		logger.WithError(err).Error("caption failed")
		return nil, &StageError{Stage: StageCaption, Err: err}
	}
	metrics.ObserveStage(StageCaption, "ok", started)
	bundle.Caption = caption
	logger.WithField("caption", caption).Info("caption generated")

	// 4. Translate, never fatal
	started = time.Now()
	translated := p.translate(ctx, caption, lang.Code)
	bundle.Translated = translated.Text
	bundle.TranslationFallback = translated.Fallback
	metrics.ObserveStage(StageTranslate, outcome(!translated.Fallback), started)

	// 5. Synthesize, never fatal
	started = time.Now()
	speech := p.synthesize(ctx, bundle.Translated, lang.Code, p.services.Storage.AudioFileName(id, lang.Code))
	bundle.AudioPath = speech.Path
	bundle.SpeechLang = speech.Lang
	bundle.SpeechSubstituted = speech.Substituted
	metrics.ObserveStage(StageSpeech, outcome(speech.OK() && !speech.Substituted), started)

	logger.WithFields(log.Fields{
		"objects":              len(bundle.Objects),
		"detection_failed":     bundle.DetectionFailed,
		"translation_fallback": bundle.TranslationFallback,
		"audio":                bundle.HasAudio(),
		"speech_language":      bundle.SpeechLang,
		"speech_substituted":   bundle.SpeechSubstituted,
	}).Info("request finished")

	return bundle, nil
}

func (p *Processor) ingest(req Request) (string, string, error) {
	if len(req.Image) == 0 {
		return "", "", fmt.Errorf("empty image")
	}

	format := req.Format
	if format == "" {
		format = image.DetectFormat(req.Image)
	}

	if err := p.services.Storage.Reset(); err != nil {
		return "", "", err
	}
	return p.services.Storage.Store(req.Image, format)
}

func (p *Processor) detect(ctx context.Context, logger log.Interface, bundle *Bundle) {
	started := time.Now()
	if p.services.Detector == nil {
		metrics.ObserveStage(StageDetect, "skipped", started)
		return
	}

	ctx, cancel := withTimeout(ctx, p.timeouts.Detect)
	defer cancel()

	labels, err := p.services.Detector.Detect(ctx, bundle.ImagePath)
	if err != nil {
		metrics.ObserveStage(StageDetect, "degraded", started)
		logger.WithError(err).Warn("detection failed, continuing without objects")
		bundle.DetectionFailed = true
		return
	}

	metrics.ObserveStage(StageDetect, "ok", started)
	if labels != nil {
		bundle.Objects = labels
	}
}

func (p *Processor) caption(ctx context.Context, imagePath string) (string, error) {
	ctx, cancel := withTimeout(ctx, p.timeouts.Caption)
	defer cancel()
	return p.services.Captioner.Caption(ctx, imagePath)
}

func (p *Processor) translate(ctx context.Context, text, target string) translation.Result {
	ctx, cancel := withTimeout(ctx, p.timeouts.Translate)
	defer cancel()
	return p.services.Translator.Translate(ctx, text, target)
}

func (p *Processor) synthesize(ctx context.Context, text, lang, dest string) audio.Result {
	ctx, cancel := withTimeout(ctx, p.timeouts.Speech)
	defer cancel()
	return p.services.Synthesizer.Synthesize(ctx, text, lang, dest)
}

// withTimeout bounds ctx by d; d <= 0 leaves it unbounded
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "degraded"
}
