// Package extract provides coupon extraction from free-form text and images.
// This file contains the Gemini provider.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

// geminiProvider generates JSON responses using the Gemini API.
type geminiProvider struct {
	client *genai.Client
	model  string
}

// newGeminiProvider creates a Gemini provider.
// Returns nil if apiKey is empty (provider disabled).
func newGeminiProvider(ctx context.Context, apiKey, model string) (*geminiProvider, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiProvider{
		client: client,
		model:  model,
	}, nil
}

func (p *geminiProvider) name() Provider {
	return ProviderGemini
}

func (p *geminiProvider) supportsImages() bool {
	return true
}

func (p *geminiProvider) generate(ctx context.Context, prompt string) (string, error) {
	return p.generateContent(ctx, genai.Text(prompt))
}

func (p *geminiProvider) generateWithImage(ctx context.Context, data []byte, mimeType, prompt string) (string, error) {
	content := genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(data, mimeType),
		genai.NewPartFromText(prompt),
	}, genai.RoleUser)
	return p.generateContent(ctx, []*genai.Content{content})
}

func (p *geminiProvider) generateContent(ctx context.Context, contents []*genai.Content) (string, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.1), // Low temperature for consistent extraction
	}

	start := time.Now()
	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "extraction API call failed",
			"provider", "gemini",
			"model", p.model,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", fmt.Errorf("generate content failed: %w", err)
	}

	text, err := responseText(result)
	if err != nil {
		return "", err
	}

	if result.UsageMetadata != nil {
		slog.DebugContext(ctx, "extraction completed",
			"provider", "gemini",
			"model", p.model,
			"input_tokens", result.UsageMetadata.PromptTokenCount,
			"output_tokens", result.UsageMetadata.CandidatesTokenCount,
			"duration_ms", duration.Milliseconds())
	}

	return text, nil
}

// responseText extracts the text payload from a generation result.
func responseText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", errors.New("empty response from model")
	}

	candidate := result.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("no content in response")
	}

	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			return part.Text, nil
		}
	}

	return "", errors.New("no text part in response")
}

func (p *geminiProvider) close() error {
	// genai.Client does not require explicit cleanup in current SDK version
	return nil
}
