package bot

import (
	"context"
	"log/slog"

	"github.com/ckeepapp/ckeep-whatsapp-go/internal/extract"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/mediautil"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/wamsg"
)

// handleMedia downloads an inbound image or document and runs it through
// extraction. Any failure along the way turns into the error reaction and
// an apology suggesting text instead.
func (d *Dispatcher) handleMedia(ctx context.Context, in *Inbound) error {
	if err := d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionProcessing); err != nil {
		return err
	}

	results, err := d.extractFromMedia(ctx, in)
	if err != nil {
		d.logger.ErrorContext(ctx, "media processing failed",
			slog.String("from", in.From),
			slog.String("media_id", in.MediaID),
			slog.Any("error", err),
		)
		if err := d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionError); err != nil {
			return err
		}
		return d.transport.SendText(ctx, in.From, wamsg.TextMediaError, "")
	}

	return d.respondWithResults(ctx, in, results)
}

func (d *Dispatcher) extractFromMedia(ctx context.Context, in *Inbound) ([]extract.Result, error) {
	data, mimeType, err := d.transport.DownloadMedia(ctx, in.MediaID)
	if err != nil {
		return nil, err
	}
	if mimeType == "" {
		mimeType = in.MediaMime
	}

	if in.Kind == KindDocument && mimeType == "application/pdf" {
		content, err := mediautil.ExtractPDF(data)
		if err != nil {
			return nil, err
		}
		if len(content.Image) > 0 {
			return d.extractor.ParseImage(ctx, content.Image, content.ImageMime, content.Text), nil
		}
		return d.extractor.ParseText(ctx, content.Text), nil
	}

	normalized, normalizedMime, err := mediautil.NormalizeImage(data)
	if err != nil {
		return nil, err
	}
	return d.extractor.ParseImage(ctx, normalized, normalizedMime, in.Text), nil
}
