package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/internal/lang"
)

const systemPrompt = "You are a professional medical translator specializing in physical medicine and rehabilitation. " +
	"Translate the user's text from %s to %s. Keep medical terminology accurate and preserve all formatting, " +
	"including markdown, HTML tags, line breaks and lists. Respond with the translated text only, without " +
	"explanations, notes or quotation marks."

// AnthropicProvider translates through the Anthropic Messages API.
type AnthropicProvider struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicProvider builds a provider. baseURL may be empty; opts are
// passed to the SDK client after the key and base URL.
func NewAnthropicProvider(apiKey, baseURL, model string, maxTokens int64, opts ...option.RequestOption) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)
	client := anthropic.NewClient(reqOpts...)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicProvider{client: &client, model: model, maxTokens: maxTokens}, nil
}

func (p *AnthropicProvider) Translate(ctx context.Context, text string, from, to lang.Language) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: fmt.Sprintf(systemPrompt, from.Name(), to.Name())},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: anthropic %s->%s: %w", apperr.ErrUpstreamUnavailable, from, to, err)
	}

	var b strings.Builder
	for _, content := range msg.Content {
		if content.Type == "text" {
			b.WriteString(content.Text)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errors.New("anthropic: empty translation")
	}
	return out, nil
}
