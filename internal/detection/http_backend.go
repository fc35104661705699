package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"codeberg.org/snonux/echovision/internal/breaker"
)

// HTTPConfig configures an inference server backend
type HTTPConfig struct {
	// URL of the predict endpoint
	URL string
	// APIKey is sent as x-api-key when set
	APIKey string
	// Confidence is forwarded so the server can prefilter boxes
	Confidence float64
	// ImageSize is the model input size
	ImageSize int
	// Timeout bounds each request, zero leaves it to the caller's context
	Timeout time.Duration
}

// HTTPBackend calls a YOLO inference server that follows the Ultralytics
// predict API
type HTTPBackend struct {
	config HTTPConfig
	client *http.Client
}

// NewHTTPBackend creates a new inference server backend
func NewHTTPBackend(config HTTPConfig) *HTTPBackend {
	if config.Confidence <= 0 {
		config.Confidence = DefaultConfidence
	}
	if config.ImageSize <= 0 {
		config.ImageSize = 640
	}
	return &HTTPBackend{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Name returns the backend name
func (b *HTTPBackend) Name() string {
	return "yolo"
}

type predictResponse struct {
	Images []struct {
		Results []struct {
			Class      int     `json:"class"`
			Name       string  `json:"name"`
			Confidence float64 `json:"confidence"`
			Box        struct {
				X1 float64 `json:"x1"`
				Y1 float64 `json:"y1"`
				X2 float64 `json:"x2"`
				Y2 float64 `json:"y2"`
			} `json:"box"`
		} `json:"results"`
	} `json:"images"`
}

// Predict uploads the image and returns the predicted boxes
func (b *HTTPBackend) Predict(ctx context.Context, jpeg []byte) ([]Box, error) {
	if b.config.URL == "" {
		return nil, fmt.Errorf("detection endpoint not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(jpeg); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}
	_ = writer.WriteField("conf", strconv.FormatFloat(b.config.Confidence, 'f', -1, 64))
	_ = writer.WriteField("imgsz", strconv.Itoa(b.config.ImageSize))
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.config.URL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if b.config.APIKey != "" {
		req.Header.Set("x-api-key", b.config.APIKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call inference server: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &breaker.StatusError{
			Service:    "inference server",
			StatusCode: resp.StatusCode,
			Body:       string(bytes.TrimSpace(msg)),
		}
	}

	var result predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode inference response: %w", err)
	}

	var boxes []Box
	for _, img := range result.Images {
		for _, r := range img.Results {
			boxes = append(boxes, Box{
				ClassID:    r.Class,
				Label:      r.Name,
				Confidence: r.Confidence,
				X1:         r.Box.X1,
				Y1:         r.Box.Y1,
				X2:         r.Box.X2,
				Y2:         r.Box.Y2,
			})
		}
	}

	return boxes, nil
}
