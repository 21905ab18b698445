package logger

import (
	"context"
	"log/slog"

	"github.com/ckeepapp/ckeep-whatsapp-go/internal/ctxutil"
)

// ContextHandler wraps another slog.Handler and enriches every record with
// tracing values carried in the context (user ID, inbound message ID,
// request ID), so call sites never extract them manually.
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler creates a new ContextHandler that wraps the provided handler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle adds context attributes and delegates to the wrapped handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if userID := ctxutil.GetUserID(ctx); userID != "" {
		r.AddAttrs(slog.String("user_id", userID))
	}
	if messageID := ctxutil.GetMessageID(ctx); messageID != "" {
		r.AddAttrs(slog.String("message_id", messageID))
	}
	if requestID, ok := ctxutil.GetRequestID(ctx); ok {
		r.AddAttrs(slog.String("request_id", requestID))
	}
	return h.handler.Handle(ctx, r)
}

// WithAttrs returns a new ContextHandler with the attributes applied.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

// WithGroup returns a new ContextHandler with the group applied.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}
