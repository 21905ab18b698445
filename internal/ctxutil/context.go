// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	userIDKey    contextKey = "ctxutil.userID"
	messageIDKey contextKey = "ctxutil.messageID"
	requestIDKey contextKey = "ctxutil.requestID"
)

// WithUserID adds a user ID (the sender's WhatsApp number) to the context.
// It is used for rate limiting, log correlation, and storage keys.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID retrieves the user ID from the context.
// Returns the user ID if found, empty string otherwise.
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// WithMessageID adds the inbound message ID to the context.
// Message IDs thread reactions and replies back to the triggering message.
func WithMessageID(ctx context.Context, messageID string) context.Context {
	return context.WithValue(ctx, messageIDKey, messageID)
}

// GetMessageID retrieves the inbound message ID from the context.
func GetMessageID(ctx context.Context) string {
	if v, ok := ctx.Value(messageIDKey).(string); ok {
		return v
	}
	return ""
}

// WithRequestID adds a request ID to the context for tracing.
// Request ID is typically generated per webhook request for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// PreserveTracing returns a fresh background context carrying only the
// tracing values of ctx. Use it when handing work to a goroutine that must
// outlive the inbound HTTP request.
func PreserveTracing(ctx context.Context) context.Context {
	out := context.Background()
	if v := GetUserID(ctx); v != "" {
		out = WithUserID(out, v)
	}
	if v := GetMessageID(ctx); v != "" {
		out = WithMessageID(out, v)
	}
	if v, ok := GetRequestID(ctx); ok {
		out = WithRequestID(out, v)
	}
	return out
}
