package detection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/apex/log"

	"codeberg.org/snonux/echovision/internal/breaker"
	"codeberg.org/snonux/echovision/internal/image"
)

// DefaultConfidence is the minimum box confidence kept by the detector
const DefaultConfidence = 0.25

// Box is one predicted bounding box
type Box struct {
	ClassID    int
	Label      string
	Confidence float64
	X1, Y1     float64
	X2, Y2     float64
}

// Backend runs object detection on a JPEG encoded image
type Backend interface {
	Predict(ctx context.Context, jpeg []byte) ([]Box, error)
	Name() string
}

// Config holds detector configuration
type Config struct {
	// Confidence drops boxes below this score
	Confidence float64
	// MaxSide limits the image size sent to the backend
	MaxSide int
}

// DefaultConfig returns the default detector configuration
func DefaultConfig() Config {
	return Config{
		Confidence: DefaultConfidence,
		MaxSide:    image.DetectorMaxSide,
	}
}

// Detector turns images into label sets
type Detector struct {
	backend Backend
	config  Config
	breaker *breaker.Breaker
}

// NewDetector creates a detector around backend
func NewDetector(backend Backend, config Config) *Detector {
	if config.Confidence <= 0 {
		config.Confidence = DefaultConfidence
	}
	if config.MaxSide <= 0 {
		config.MaxSide = image.DetectorMaxSide
	}

	return &Detector{
		backend: backend,
		config:  config,
		breaker: breaker.New("detection-"+backend.Name(), breaker.DefaultSettings()),
	}
}

// Backend returns the name of the configured backend
func (d *Detector) Backend() string {
	return d.backend.Name()
}

// Detect returns the distinct labels found in the image at imagePath
func (d *Detector) Detect(ctx context.Context, imagePath string) ([]string, error) {
	prepared, err := image.LoadForModel(imagePath, d.config.MaxSide)
	if err != nil {
		return nil, err
	}

	boxes, err := breaker.Call(d.breaker, func() ([]Box, error) {
		return d.backend.Predict(ctx, prepared.JPEG)
	})
	if err != nil {
		return nil, fmt.Errorf("%s detection failed: %w", d.backend.Name(), err)
	}

	labels := Labels(boxes, d.config.Confidence)
	log.WithFields(log.Fields{
		"backend": d.backend.Name(),
		"boxes":   len(boxes),
		"labels":  len(labels),
	}).Debug("detection finished")

	return labels, nil
}

// Labels resolves boxes at or above threshold to a sorted list of distinct
// labels. The result is never nil.
func Labels(boxes []Box, threshold float64) []string {
	seen := make(map[string]bool)
	labels := []string{}

	for _, box := range boxes {
		if box.Confidence < threshold {
			continue
		}

		label := resolveLabel(box)
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}

	sort.Strings(labels)
	return labels
}

func resolveLabel(box Box) string {
	if label := strings.ToLower(strings.TrimSpace(box.Label)); label != "" {
		return label
	}
	return ClassName(box.ClassID)
}
