package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// maxChatModels caps the chat section, the API returns dozens of snapshots
const maxChatModels = 10

// Catalog groups model ids by the pipeline stage that can use them
type Catalog struct {
	Vision []string
	Speech []string
	Chat   []string
}

// Lister handles listing available OpenAI models
type Lister struct {
	apiKey string
	client *openai.Client
}

// NewLister creates a new model lister. An empty baseURL uses the public API.
func NewLister(apiKey, baseURL string) *Lister {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Lister{
		apiKey: apiKey,
		client: openai.NewClientWithConfig(config),
	}
}

// Fetch queries the API and categorizes the returned models
func (l *Lister) Fetch(ctx context.Context) (*Catalog, error) {
	if l.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .echovision.yaml")
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	ids := make([]string, 0, len(models.Models))
	for _, model := range models.Models {
		ids = append(ids, model.ID)
	}
	return Categorize(ids), nil
}

// Categorize sorts model ids into the stages that can use them. A vision
// capable chat model is listed under both vision and chat.
func Categorize(ids []string) *Catalog {
	catalog := &Catalog{}

	for _, id := range ids {
		switch {
		case strings.Contains(id, "tts"):
			catalog.Speech = append(catalog.Speech, id)
		case strings.Contains(id, "audio"), strings.Contains(id, "transcribe"),
			strings.Contains(id, "realtime"), strings.Contains(id, "whisper"):
			// not usable by any stage
		case isVisionModel(id):
			catalog.Vision = append(catalog.Vision, id)
			catalog.Chat = append(catalog.Chat, id)
		case strings.Contains(id, "gpt") || strings.Contains(id, "chat"):
			catalog.Chat = append(catalog.Chat, id)
		}
	}

	sort.Strings(catalog.Vision)
	sort.Strings(catalog.Speech)
	sort.Strings(catalog.Chat)
	return catalog
}

func isVisionModel(id string) bool {
	for _, marker := range []string{"gpt-4o", "gpt-4.1", "gpt-5", "vision"} {
		if strings.Contains(id, marker) {
			return true
		}
	}
	// reasoning models: o1, o3, o4-mini and their snapshots
	return len(id) > 1 && id[0] == 'o' && id[1] >= '1' && id[1] <= '9'
}

// ListAvailableModels prints the categorized models to w
func (l *Lister) ListAvailableModels(ctx context.Context, w io.Writer) error {
	catalog, err := l.Fetch(ctx)
	if err != nil {
		return err
	}

	catalog.Print(w)
	return nil
}

// Print writes the catalog in human readable form
func (c *Catalog) Print(w io.Writer) {
	fmt.Fprintln(w, "Available OpenAI Models:")

	printSection(w, "Vision Models (detection and captioning):", c.Vision, "No vision models found")
	printSection(w, "Text-to-Speech (TTS) Models:", c.Speech, "No TTS models found")

	chat := c.Chat
	hidden := 0
	if len(chat) > maxChatModels {
		hidden = len(chat) - maxChatModels
		chat = chat[:maxChatModels]
	}
	printSection(w, "Chat Models (for translation):", chat, "No chat models found")
	if hidden > 0 {
		fmt.Fprintf(w, "  ... and %d more models\n", hidden)
	}
}

func printSection(w io.Writer, title string, ids []string, empty string) {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(ids) == 0 {
		fmt.Fprintf(w, "  %s\n", empty)
		return
	}
	for _, id := range ids {
		fmt.Fprintf(w, "  %s\n", id)
	}
}
