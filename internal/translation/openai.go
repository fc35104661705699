package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/echovision/internal/language"
)

// OpenAIConfig configures the OpenAI translation backend
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIBackend translates with a chat completion model
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAIBackend creates a new OpenAI translation backend
func NewOpenAIBackend(config OpenAIConfig) (*OpenAIBackend, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not found")
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
func (o *OpenAIBackend) Name() string {
	return "openai"
}

// Translate translates text into the language named by target
func (o *OpenAIBackend) Translate(ctx context.Context, text, source, target string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(text, source, target),
			},
		},
		MaxTokens:   300,
		Temperature: 0.3,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no translation returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildPrompt(text, source, target string) string {
	from := ""
	if source != "" && source != AutoSource {
		from = fmt.Sprintf(" from %s", displayName(source))
	}

	return fmt.Sprintf("Translate the following text%s to %s. Respond with only the translation, nothing else.\n\n%s",
		from, displayName(target), text)
}

func displayName(code string) string {
	if lang, ok := language.ByCode(code); ok {
		return lang.Name
	}
	return code
}
