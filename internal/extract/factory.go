// Package extract provides coupon extraction from free-form text and images.
// This file contains the factory for building the provider chain.
package extract

import (
	"context"
	"log/slog"

	"github.com/ckeepapp/ckeep-whatsapp-go/internal/config"
)

// New builds the extraction gateway from configuration. Gemini leads the
// chain when configured (it is the only image-capable provider), with Groq
// as the text fallback. Returns a disabled gateway when no provider is
// configured; callers should check IsEnabled.
func New(ctx context.Context, cfg *config.Config, metrics MetricsRecorder) (*Gateway, error) {
	var providers []provider

	if cfg.GeminiAPIKey != "" {
		gemini, err := newGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			slog.WarnContext(ctx, "failed to create gemini provider", "error", err)
		} else if gemini != nil {
			providers = append(providers, gemini)
		}
	}

	if cfg.GroqAPIKey != "" {
		groq, err := newOpenAIProvider(ProviderGroq, GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel)
		if err != nil {
			slog.WarnContext(ctx, "failed to create groq provider", "error", err)
		} else if groq != nil {
			providers = append(providers, groq)
		}
	}

	retry := DefaultRetryConfig
	if cfg.ExtractionRetries > 0 {
		retry.MaxAttempts = cfg.ExtractionRetries
	}

	if len(providers) == 0 {
		slog.InfoContext(ctx, "no extraction provider configured")
	} else {
		slog.InfoContext(ctx, "extraction gateway configured",
			"primary", providers[0].name(),
			"chain_size", len(providers))
	}

	return &Gateway{
		providers: providers,
		retry:     retry,
		metrics:   metrics,
	}, nil
}
