// Package extract provides coupon extraction from free-form text and images.
// This file contains the provider-fallback gateway implementing Extractor.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainerrors "github.com/ckeepapp/ckeep-whatsapp-go/internal/errors"
)

// provider is a single LLM backend the gateway can call.
type provider interface {
	name() Provider
	supportsImages() bool
	generate(ctx context.Context, prompt string) (string, error)
	generateWithImage(ctx context.Context, data []byte, mimeType, prompt string) (string, error)
	close() error
}

// Gateway chains providers with per-provider retry. A call walks the chain
// in order and returns the first usable response; when the whole chain
// fails the result degrades to invalid instead of surfacing an error.
type Gateway struct {
	providers []provider
	retry     RetryConfig
	metrics   MetricsRecorder
}

var invalid = []Result{{Valid: false}}

// ParseText extracts coupon candidates from a text message.
func (g *Gateway) ParseText(ctx context.Context, text string) []Result {
	results, err := g.generateResults(ctx, "text", TextPrompt(text))
	if err != nil {
		return invalid
	}
	return results
}

// ParseImage extracts coupon candidates from an image with optional
// accompanying text. Only image-capable providers participate.
func (g *Gateway) ParseImage(ctx context.Context, data []byte, mimeType, accompanyingText string) []Result {
	prompt := ImagePrompt(accompanyingText)

	raw, err := g.callChain(ctx, "image", func(ctx context.Context, p provider) (string, error) {
		if !p.supportsImages() {
			return "", errImagesUnsupported
		}
		return p.generateWithImage(ctx, data, mimeType, prompt)
	})
	if err != nil {
		return invalid
	}

	results, err := DecodeResults(raw)
	if err != nil {
		slog.WarnContext(ctx, "undecodable extraction response",
			"operation", "image",
			"error", err)
		return invalid
	}
	return results
}

// ParseUpdate interprets an update request against an existing coupon.
func (g *Gateway) ParseUpdate(ctx context.Context, current map[string]string, request string) Result {
	results, err := g.generateResults(ctx, "update", UpdatePrompt(current, request))
	if err != nil || len(results) == 0 {
		return Result{Valid: false}
	}
	return results[0]
}

// SearchCoupons returns ids of coupons matching a natural language query.
// Ids the model invents are discarded; a failed call matches nothing.
func (g *Gateway) SearchCoupons(ctx context.Context, coupons []CouponRow, query string) []string {
	if len(coupons) == 0 {
		return nil
	}

	raw, err := g.callChain(ctx, "search", func(ctx context.Context, p provider) (string, error) {
		return p.generate(ctx, SearchPrompt(coupons, query))
	})
	if err != nil {
		return nil
	}

	var parsed struct {
		CouponIDs []string `json:"coupon_ids"`
	}
	if err := json.Unmarshal([]byte(stripMarkdownFences(raw)), &parsed); err != nil {
		slog.WarnContext(ctx, "undecodable search response", "error", err)
		return nil
	}

	known := make(map[string]bool, len(coupons))
	for _, c := range coupons {
		known[c.ID] = true
	}
	matched := make([]string, 0, len(parsed.CouponIDs))
	for _, id := range parsed.CouponIDs {
		if known[id] {
			matched = append(matched, id)
		}
	}
	return matched
}

// IsEnabled reports whether at least one provider is configured.
func (g *Gateway) IsEnabled() bool {
	return g != nil && len(g.providers) > 0
}

// Close releases all provider resources.
func (g *Gateway) Close() error {
	var errs []error
	for _, p := range g.providers {
		if err := p.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (g *Gateway) generateResults(ctx context.Context, operation, prompt string) ([]Result, error) {
	raw, err := g.callChain(ctx, operation, func(ctx context.Context, p provider) (string, error) {
		return p.generate(ctx, prompt)
	})
	if err != nil {
		return nil, err
	}

	results, err := DecodeResults(raw)
	if err != nil {
		slog.WarnContext(ctx, "undecodable extraction response",
			"operation", operation,
			"error", err)
		return nil, err
	}
	return results, nil
}

// callChain tries each provider in order, retrying transient failures per
// provider before moving on.
func (g *Gateway) callChain(ctx context.Context, operation string, call func(context.Context, provider) (string, error)) (string, error) {
	if !g.IsEnabled() {
		return "", domainerrors.ErrExtractionUnavailable
	}

	var lastErr error
	for _, p := range g.providers {
		var raw string

		start := time.Now()
		err := WithRetry(ctx, g.retry, func() error {
			var callErr error
			raw, callErr = call(ctx, p)
			return callErr
		})
		duration := time.Since(start).Seconds()

		if err == nil {
			g.recordMetric(p.name(), operation, "success", duration)
			return raw, nil
		}
		if !errors.Is(err, errImagesUnsupported) {
			g.recordMetric(p.name(), operation, "error", duration)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}

	slog.WarnContext(ctx, "all extraction providers failed",
		"operation", operation,
		"error", lastErr)
	return "", fmt.Errorf("all providers failed: %w", lastErr)
}

func (g *Gateway) recordMetric(provider Provider, operation, status string, duration float64) {
	if g.metrics != nil {
		g.metrics.RecordExtraction(provider.String(), operation, status, duration)
	}
}
