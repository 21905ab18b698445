// Package extract provides coupon extraction from free-form text and images.
// This file contains the OpenAI-compatible provider (Groq).
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// errImagesUnsupported marks a provider that cannot take inline images;
// the chain skips it for image extraction.
var errImagesUnsupported = errors.New("provider does not support image input")

// openaiProvider generates JSON responses through any OpenAI-compatible
// endpoint. Used for Groq as the text-parsing fallback behind Gemini.
type openaiProvider struct {
	client   openai.Client
	model    string
	provider Provider
}

// newOpenAIProvider creates an OpenAI-compatible provider with a custom
// base URL. Returns nil if apiKey is empty (provider disabled).
func newOpenAIProvider(provider Provider, baseURL, apiKey, model string) (*openaiProvider, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}
	if baseURL == "" {
		return nil, fmt.Errorf("no endpoint for provider: %s", provider)
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &openaiProvider{
		client:   client,
		model:    model,
		provider: provider,
	}, nil
}

func (p *openaiProvider) name() Provider {
	return p.provider
}

func (p *openaiProvider) supportsImages() bool {
	return false
}

func (p *openaiProvider) generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.1), // Low temperature for consistent extraction
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "extraction API call failed",
			"provider", p.provider,
			"model", p.model,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from model")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("no content in response")
	}

	if resp.Usage.TotalTokens > 0 {
		slog.DebugContext(ctx, "extraction completed",
			"provider", p.provider,
			"model", p.model,
			"input_tokens", resp.Usage.PromptTokens,
			"output_tokens", resp.Usage.CompletionTokens,
			"duration_ms", duration.Milliseconds())
	}

	return content, nil
}

func (p *openaiProvider) generateWithImage(_ context.Context, _ []byte, _, _ string) (string, error) {
	return "", errImagesUnsupported
}

func (p *openaiProvider) close() error {
	// openai-go client doesn't require cleanup
	return nil
}
