package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// DefaultAnthropicModel is the model used when none is configured.
	DefaultAnthropicModel = "claude-3-5-haiku-latest"

	// Posts are short; this leaves room for the model to ramble a little.
	anthropicMaxTokens = 300
)

// AnthropicConfig configures an Anthropic generator.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string

	// Options are appended to the client options, after the ones derived from the fields above.
	Options []option.RequestOption
}

// Anthropic generates text with the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	model  anthropic.Model
}

// Compile-time check to ensure Anthropic implements Generator
var _ Generator = (*Anthropic)(nil)

// NewAnthropic creates an Anthropic generator.
func NewAnthropic(cfg AnthropicConfig) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing anthropic api key")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, cfg.Options...)

	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}

	return &Anthropic{
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(model),
	}, nil
}

// Generate sends prompt as a single user message.
func (a *Anthropic) Generate(ctx context.Context, prompt string) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}

	var texts []string
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok && text.Text != "" {
			texts = append(texts, text.Text)
		}
	}
	return completion(strings.Join(texts, "\n"))
}
