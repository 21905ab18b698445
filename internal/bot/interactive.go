package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ckeepapp/ckeep-whatsapp-go/internal/storage"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/wamsg"
)

// handleInteractive routes tapped buttons and list selections by their
// action tag.
func (d *Dispatcher) handleInteractive(ctx context.Context, in *Inbound) error {
	action, params := wamsg.ParseTag(in.InteractiveID)

	switch action {
	case wamsg.ActionListCoupons:
		return d.sendCouponList(ctx, in.From)

	case wamsg.ActionShareList:
		return d.transport.SendInteractive(ctx, in.From, wamsg.NewShareListCTA(in.From, d.botNumber))

	case wamsg.ActionHowToAdd:
		return d.transport.SendText(ctx, in.From, wamsg.TextHowToAdd, "")

	case wamsg.ActionUpdateCoupon:
		return d.openUpdateMenu(ctx, in, params)

	case wamsg.ActionUpdateDetails:
		return d.startUpdate(ctx, in, params)

	case wamsg.ActionCancelUpdate:
		if err := d.db.SetUserState(ctx, in.From, Idle().String()); err != nil {
			return err
		}
		return d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionSuccess)

	case wamsg.ActionMarkAsUsed:
		if len(params) < 2 {
			return nil
		}
		if err := d.db.MarkCouponUsed(ctx, params[0], params[1]); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return d.rejectMissingCoupon(ctx, in)
			}
			return err
		}
		d.recordEvent("used")
		return d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionSuccess)

	case wamsg.ActionCancelCoupon:
		if len(params) < 1 {
			return nil
		}
		if err := d.db.CancelCoupon(ctx, in.From, params[0]); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return d.rejectMissingCoupon(ctx, in)
			}
			return err
		}
		d.recordEvent("canceled")
		return d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionSuccess)

	case wamsg.ActionShareCoupon:
		return d.offerCouponShare(ctx, in, params)

	case wamsg.ActionCancelShare:
		if len(params) < 1 {
			return nil
		}
		if err := d.db.CancelCouponSharing(ctx, in.From, params[0]); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return d.rejectMissingCoupon(ctx, in)
			}
			return err
		}
		return d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionSuccess)

	case wamsg.ActionConfirmPair:
		if len(params) < 1 {
			return nil
		}
		if err := d.db.ConfirmPairing(ctx, in.From, params[0]); err != nil {
			return err
		}
		d.recordEvent("paired")
		return d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionSuccess)

	case wamsg.ActionDeclinePair:
		if err := d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionSuccess); err != nil {
			return err
		}
		return d.transport.SendText(ctx, in.From, wamsg.TextPairingDeclined, "")

	case wamsg.ActionShowCoupon:
		return d.showOriginalCoupon(ctx, in, params)

	case wamsg.ActionCoupon:
		return d.showSelectedCoupon(ctx, in, params)

	case wamsg.ActionCategory:
		return d.showCategory(ctx, in, params)
	}

	d.logger.DebugContext(ctx, "unknown interactive action",
		slog.String("id", in.InteractiveID),
		slog.String("from", in.From),
	)
	return nil
}

// rejectMissingCoupon answers a button tap whose coupon no longer exists
// or already reached a terminal status.
func (d *Dispatcher) rejectMissingCoupon(ctx context.Context, in *Inbound) error {
	if err := d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionError); err != nil {
		return err
	}
	return d.transport.SendText(ctx, in.From, wamsg.TextCouponNotFound, "")
}

func (d *Dispatcher) openUpdateMenu(ctx context.Context, in *Inbound, params []string) error {
	if len(params) < 1 {
		return nil
	}
	coupon, err := d.db.GetCoupon(ctx, in.From, params[0])
	if err != nil || coupon == nil {
		return err
	}
	return d.transport.SendInteractive(ctx, in.From, wamsg.NewUpdateCouponMenu(coupon))
}

func (d *Dispatcher) startUpdate(ctx context.Context, in *Inbound, params []string) error {
	if len(params) < 1 {
		return nil
	}
	if err := d.db.SetUserState(ctx, in.From, UpdatingCoupon(params[0]).String()); err != nil {
		return err
	}
	prompt := wamsg.NewUpdateDetailsPrompt(in.From, params[0], "")
	return d.transport.SendInteractive(ctx, in.From, prompt)
}

func (d *Dispatcher) offerCouponShare(ctx context.Context, in *Inbound, params []string) error {
	if len(params) < 1 {
		return nil
	}
	coupon, err := d.db.GetCoupon(ctx, in.From, params[0])
	if err != nil || coupon == nil {
		return err
	}
	token, err := d.db.GenerateSharingToken(ctx, in.From, params[0])
	if err != nil {
		return err
	}
	return d.transport.SendInteractive(ctx, in.From, wamsg.NewShareCouponCTA(coupon, token, d.botNumber))
}

// showOriginalCoupon replies with a pointer to the message the coupon was
// extracted from, threaded so the client scrolls to it.
func (d *Dispatcher) showOriginalCoupon(ctx context.Context, in *Inbound, params []string) error {
	if len(params) < 1 {
		return nil
	}
	coupon, err := d.db.GetCoupon(ctx, in.From, params[0])
	if err != nil {
		return err
	}
	if coupon == nil {
		if err := d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionError); err != nil {
			return err
		}
		return d.transport.SendText(ctx, in.From, wamsg.TextCouponNotFound, "")
	}

	if err := d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionSuccess); err != nil {
		return err
	}
	return d.transport.SendText(ctx, in.From, wamsg.TextOriginalCoupon, coupon.OriginMsgID)
}

// showSelectedCoupon sends the card for a list selection, plus the bare
// code as its own message for easy copying.
func (d *Dispatcher) showSelectedCoupon(ctx context.Context, in *Inbound, params []string) error {
	if len(params) < 2 {
		return nil
	}
	ownerID, couponID := params[0], params[1]
	coupon, err := d.db.GetCoupon(ctx, ownerID, couponID)
	if err != nil || coupon == nil {
		return err
	}

	shared := ownerID != in.From
	if err := d.transport.SendInteractive(ctx, in.From, wamsg.NewCouponCard(coupon, false, shared)); err != nil {
		return err
	}
	if coupon.CouponCode != "" {
		return d.transport.SendText(ctx, in.From, coupon.CouponCode, "")
	}
	return nil
}

func (d *Dispatcher) showCategory(ctx context.Context, in *Inbound, params []string) error {
	if len(params) < 1 {
		return nil
	}
	category := params[0]

	owned, shared, err := d.loadCoupons(ctx, in.From)
	if err != nil {
		return err
	}
	list := wamsg.NewCategoryCouponList(category,
		wamsg.FilterByCategory(owned, category),
		wamsg.FilterByCategory(shared, category))
	return d.transport.SendInteractive(ctx, in.From, list)
}
