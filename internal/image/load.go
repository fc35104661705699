// Package image loads uploaded pictures and converts them into the
// representation the vision backends expect.
package image

import (
	"bytes"
	"fmt"
	stdimage "image"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"os"

	"github.com/apex/log"
	"golang.org/x/image/draw"
)

const (
	// DetectorMaxSide matches the input resolution of common YOLO models
	DetectorMaxSide = 640
	// CaptionMaxSide keeps vision requests small
	CaptionMaxSide = 512

	jpegQuality = 85
)

// Prepared is an image decoded, oriented, converted to RGB and re-encoded
// as JPEG so every model backend receives the same representation
type Prepared struct {
	JPEG   []byte
	Width  int
	Height int
	// Source dimensions before scaling
	SourceWidth  int
	SourceHeight int
}

// MimeType returns the MIME type of the prepared payload
func (p *Prepared) MimeType() string {
	return "image/jpeg"
}

// LoadForModel reads an image file and prepares it for a vision model.
// maxSide limits the longest side; 0 keeps the original size.
func LoadForModel(path string, maxSide int) (*Prepared, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return Prepare(data, maxSide)
}

// Prepare decodes image bytes and normalises them for a vision model
func Prepare(data []byte, maxSide int) (*Prepared, error) {
	img, _, err := stdimage.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if orientation := Orientation(data); orientation != 1 {
		img = Orient(img, orientation)
		log.WithField("orientation", orientation).Debug("applied EXIF orientation")
	}

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	dstW, dstH := fitWithin(srcW, srcH, maxSide)

	// Drawing onto RGBA flattens palettes, alpha and CMYK into plain RGB
	rgb := stdimage.NewRGBA(stdimage.Rect(0, 0, dstW, dstH))
	draw.Draw(rgb, rgb.Bounds(), stdimage.White, stdimage.Point{}, draw.Src)
	if dstW == srcW && dstH == srcH {
		draw.Draw(rgb, rgb.Bounds(), img, bounds.Min, draw.Over)
	} else {
		draw.ApproxBiLinear.Scale(rgb, rgb.Bounds(), img, bounds, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &Prepared{
		JPEG:         buf.Bytes(),
		Width:        dstW,
		Height:       dstH,
		SourceWidth:  srcW,
		SourceHeight: srcH,
	}, nil
}

// fitWithin scales w x h so the longest side is at most maxSide
func fitWithin(w, h, maxSide int) (int, int) {
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return w, h
	}

	scale := float64(maxSide) / float64(w)
	if h > w {
		scale = float64(maxSide) / float64(h)
	}

	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	if nw > maxSide {
		nw = maxSide
	}
	if nh > maxSide {
		nh = maxSide
	}
	return nw, nh
}

// DetectFormat sniffs the image format from its bytes. It returns "jpeg",
// "png" or an empty string for anything else.
func DetectFormat(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return "jpeg"
	case "image/png":
		return "png"
	default:
		return ""
	}
}
