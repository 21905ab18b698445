// Package extract provides coupon extraction from free-form text and images
// using LLM APIs (Gemini native, Groq via the OpenAI-compatible API).
//
// Fallback strategy:
//  1. Model retry: the same provider is retried with full-jitter backoff.
//  2. Provider chain: the next configured provider is tried in order.
//
// A request that fails every provider degrades to an invalid result rather
// than an error; the caller only ever sees "no coupon found".
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Provider represents an LLM provider.
type Provider string

const (
	// ProviderGemini represents Google's Gemini API (non-OpenAI-compatible).
	ProviderGemini Provider = "gemini"
	// ProviderGroq represents Groq's API (OpenAI-compatible).
	ProviderGroq Provider = "groq"
)

// GroqBaseURL is the OpenAI-compatible endpoint for Groq.
const GroqBaseURL = "https://api.groq.com/openai/v1/"

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Result is one extracted coupon candidate. All fields are sparse; an empty
// string means the model did not find that field. Examples is only populated
// on invalid update requests, as guidance for the user.
type Result struct {
	Valid          bool     `json:"valid"`
	Store          string   `json:"store,omitempty"`
	CouponCode     string   `json:"coupon_code,omitempty"`
	ExpirationDate string   `json:"expiration_date,omitempty"`
	DiscountValue  string   `json:"discount_value,omitempty"`
	Value          string   `json:"value,omitempty"`
	Cost           string   `json:"cost,omitempty"`
	Terms          string   `json:"terms_and_conditions,omitempty"`
	URL            string   `json:"url,omitempty"`
	Category       string   `json:"category,omitempty"`
	Misc           string   `json:"misc,omitempty"`
	Examples       []string `json:"examples,omitempty"`
}

// Fields returns the non-empty coupon fields keyed by storage column name.
func (r *Result) Fields() map[string]string {
	fields := make(map[string]string)
	set := func(column, value string) {
		if value != "" {
			fields[column] = value
		}
	}
	set("store", r.Store)
	set("coupon_code", r.CouponCode)
	set("expiration_date", r.ExpirationDate)
	set("discount_value", r.DiscountValue)
	set("value", r.Value)
	set("cost", r.Cost)
	set("terms", r.Terms)
	set("url", r.URL)
	set("category", r.Category)
	set("misc", r.Misc)
	return fields
}

// CouponRow is the compact coupon view handed to the search prompt.
type CouponRow struct {
	ID       string
	Store    string
	Code     string
	Expiry   string
	Discount string
	Value    string
	Category string
	Terms    string
	Misc     string
}

// Extractor is the extraction gateway interface. Implementations never
// propagate provider failures; they return invalid results instead.
type Extractor interface {
	// ParseText extracts coupon candidates from a free-form text message.
	ParseText(ctx context.Context, text string) []Result
	// ParseImage extracts coupon candidates from an image, optionally with
	// accompanying text (a caption or text pulled out of a PDF).
	ParseImage(ctx context.Context, data []byte, mimeType, accompanyingText string) []Result
	// ParseUpdate interprets an update request against an existing coupon
	// snapshot and returns the fields to change, or an invalid result with
	// examples of well-formed requests.
	ParseUpdate(ctx context.Context, current map[string]string, request string) Result
	// SearchCoupons returns the ids of the coupons matching a natural
	// language query. Ids not present in the input are discarded.
	SearchCoupons(ctx context.Context, coupons []CouponRow, query string) []string
	// IsEnabled reports whether at least one provider is configured.
	IsEnabled() bool
	// Close releases provider resources.
	Close() error
}

// MetricsRecorder receives per-call extraction metrics.
type MetricsRecorder interface {
	RecordExtraction(provider, operation, status string, duration float64)
}

// RetryConfig defines retry behavior for provider API calls.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig is used when no retry configuration is supplied.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:  2,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     3 * time.Second,
}

// stripMarkdownFences removes a surrounding ```json ... ``` fence that some
// models emit even when asked for raw JSON.
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DecodeResults parses a model response into coupon results. The models
// return either a single JSON object or an array of objects; both shapes
// are accepted. Field values that arrive as numbers or booleans are
// stringified.
func DecodeResults(raw string) ([]Result, error) {
	cleaned := stripMarkdownFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var objects []map[string]any
	if strings.HasPrefix(cleaned, "[") {
		if err := json.Unmarshal([]byte(cleaned), &objects); err != nil {
			return nil, fmt.Errorf("decode result array: %w", err)
		}
	} else {
		var object map[string]any
		if err := json.Unmarshal([]byte(cleaned), &object); err != nil {
			return nil, fmt.Errorf("decode result object: %w", err)
		}
		objects = []map[string]any{object}
	}

	results := make([]Result, 0, len(objects))
	for _, obj := range objects {
		results = append(results, resultFromMap(obj))
	}
	return results, nil
}

func resultFromMap(obj map[string]any) Result {
	r := Result{
		Valid:          asBool(obj["valid"]),
		Store:          asString(obj["store"]),
		CouponCode:     asString(obj["coupon_code"]),
		ExpirationDate: asString(obj["expiration_date"]),
		DiscountValue:  asString(obj["discount_value"]),
		Value:          asString(obj["value"]),
		Cost:           asString(obj["cost"]),
		Terms:          asString(obj["terms_and_conditions"]),
		URL:            asString(obj["url"]),
		Category:       asString(obj["category"]),
		Misc:           asString(obj["misc"]),
	}
	if examples, ok := obj["examples"].([]any); ok {
		for _, e := range examples {
			if s := asString(e); s != "" {
				r.Examples = append(r.Examples, s)
			}
		}
	}
	return r
}

func asString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		// Trailing-zero free rendering for whole numbers
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%g", value)
	case bool:
		if value {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func asBool(v any) bool {
	switch value := v.(type) {
	case bool:
		return value
	case string:
		return strings.EqualFold(value, "true")
	default:
		return false
	}
}
