// Package bot holds the conversation logic: it routes normalized inbound
// WhatsApp messages through commands, the per-user state machine and the
// interactive button handlers, and replies through the transport.
package bot

import (
	"context"
	"log/slog"

	"github.com/ckeepapp/ckeep-whatsapp-go/internal/extract"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/storage"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/wamsg"
)

// Transport sends messages back to WhatsApp and fetches inbound media.
// *whatsapp.Client implements it.
type Transport interface {
	SendText(ctx context.Context, to, body, replyToID string) error
	SendInteractive(ctx context.Context, to string, interactive *wamsg.Interactive) error
	SendReaction(ctx context.Context, to, messageID, emoji string) error
	SendReadReceipt(ctx context.Context, messageID string) error
	DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error)
}

// EventRecorder counts coupon lifecycle events.
type EventRecorder interface {
	RecordCouponEvent(event string)
}

// Dispatcher routes inbound messages to their handlers.
type Dispatcher struct {
	db        *storage.DB
	extractor extract.Extractor
	transport Transport
	logger    *slog.Logger
	metrics   EventRecorder

	// botNumber is the bot's own WhatsApp number, embedded in share links.
	botNumber string

	// minTextLength gates free text against the extractor.
	minTextLength int
}

// Options configures a Dispatcher.
type Options struct {
	DB            *storage.DB
	Extractor     extract.Extractor
	Transport     Transport
	Logger        *slog.Logger
	Metrics       EventRecorder
	BotNumber     string
	MinTextLength int
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	if opts.MinTextLength <= 0 {
		opts.MinTextLength = 10
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Dispatcher{
		db:            opts.DB,
		extractor:     opts.Extractor,
		transport:     opts.Transport,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		botNumber:     opts.BotNumber,
		minTextLength: opts.MinTextLength,
	}
}

// Dispatch processes one inbound message end to end. The read receipt goes
// out before any handling so the sender sees the bot is alive even when
// processing takes a while.
func (d *Dispatcher) Dispatch(ctx context.Context, in *Inbound) error {
	if err := d.transport.SendReadReceipt(ctx, in.MessageID); err != nil {
		d.logger.WarnContext(ctx, "read receipt failed",
			slog.String("message_id", in.MessageID),
			slog.Any("error", err),
		)
	}

	switch in.Kind {
	case KindText:
		return d.handleText(ctx, in)
	case KindImage, KindDocument:
		return d.handleMedia(ctx, in)
	case KindButtonReply, KindListReply:
		return d.handleInteractive(ctx, in)
	default:
		d.logger.DebugContext(ctx, "ignoring unsupported message kind",
			slog.String("kind", string(in.Kind)),
			slog.String("from", in.From),
		)
		return nil
	}
}

func (d *Dispatcher) recordEvent(event string) {
	if d.metrics != nil {
		d.metrics.RecordCouponEvent(event)
	}
}
