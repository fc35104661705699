package detection

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const detectionPrompt = `List every object visible in this image. Use only labels from the COCO dataset (for example "person", "dog", "car", "cup"). ` +
	`Respond with a JSON array of lowercase label strings and nothing else. Respond with [] if nothing is visible.`

// OpenAIConfig configures the OpenAI vision backend
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIBackend asks a vision chat model for the objects in an image.
// Vision models report no scores, so every label gets confidence 1.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAIBackend creates a new OpenAI detection backend
func NewOpenAIBackend(config OpenAIConfig) (*OpenAIBackend, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIBackend{
		client: openai.NewClientWithConfig(clientConfig),
		model:  config.Model,
	}, nil
}

// Name returns the backend name
func (b *OpenAIBackend) Name() string {
	return "openai"
}

// Predict returns one box per label named by the model
func (b *OpenAIBackend) Predict(ctx context.Context, jpeg []byte) ([]Box, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)

	req := openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: detectionPrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
		MaxTokens:   200,
		Temperature: 0,
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no detection returned")
	}

	labels, err := parseLabelList(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	boxes := make([]Box, 0, len(labels))
	for _, label := range labels {
		boxes = append(boxes, Box{ClassID: -1, Label: label, Confidence: 1})
	}
	return boxes, nil
}

// parseLabelList extracts the JSON array from a model answer, tolerating
// markdown code fences around it
func parseLabelList(content string) ([]string, error) {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("unexpected detection answer: %q", content)
	}

	var labels []string
	if err := json.Unmarshal([]byte(content[start:end+1]), &labels); err != nil {
		return nil, fmt.Errorf("failed to parse detection answer: %w", err)
	}
	return labels, nil
}
