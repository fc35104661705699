// Package caption produces a single natural-language sentence describing an
// image. Captioning is the primary output of a request, so unlike the other
// adapters it has no fallback: a failing backend fails the caller.
package caption

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/apex/log"

	"codeberg.org/snonux/echovision/internal/breaker"
	"codeberg.org/snonux/echovision/internal/image"
)

// ErrEmptyCaption is returned when a backend answers with no text
var ErrEmptyCaption = errors.New("caption backend returned no text")

const captionPrompt = "Describe this image in one short sentence, the way an image caption would. " +
	"Respond with the caption only."

// Backend generates a caption for a JPEG image
type Backend interface {
	Describe(ctx context.Context, img []byte, mimeType string) (string, error)
	Name() string
}

// Captioner runs one inference call per image
type Captioner struct {
	backend Backend
	maxSide int
	breaker *breaker.Breaker
}

// NewCaptioner creates a captioner around backend. maxSide <= 0 uses the
// default caption resolution.
func NewCaptioner(backend Backend, maxSide int) *Captioner {
	if maxSide <= 0 {
		maxSide = image.CaptionMaxSide
	}
	return &Captioner{
		backend: backend,
		maxSide: maxSide,
		breaker: breaker.New("caption-"+backend.Name(), breaker.DefaultSettings()),
	}
}

// Backend returns the name of the configured backend
func (c *Captioner) Backend() string {
	return c.backend.Name()
}

// Caption describes the image at imagePath
func (c *Captioner) Caption(ctx context.Context, imagePath string) (string, error) {
	prepared, err := image.LoadForModel(imagePath, c.maxSide)
	if err != nil {
		return "", err
	}

	text, err := breaker.Call(c.breaker, func() (string, error) {
		return c.backend.Describe(ctx, prepared.JPEG, prepared.MimeType())
	})
	if err != nil {
		return "", fmt.Errorf("%s captioning failed: %w", c.backend.Name(), err)
	}

	text = Clean(text)
	if text == "" {
		return "", ErrEmptyCaption
	}

	log.WithField("backend", c.backend.Name()).Debugf("caption: %s", text)
	return text, nil
}

// Clean trims whitespace and quotes models like to wrap captions in
func Clean(text string) string {
	text = strings.TrimSpace(text)
	for len(text) >= 2 {
		first, last := text[0], text[len(text)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			text = strings.TrimSpace(text[1 : len(text)-1])
			continue
		}
		break
	}
	return text
}
