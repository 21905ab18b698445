package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ckeepapp/ckeep-whatsapp-go/internal/extract"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/wamsg"
)

// Text commands. The bang doubles as a /list alias when bare and a search
// prefix when followed by a query.
const (
	cmdList            = "/list"
	cmdBang            = "!"
	cmdAddSharedCoupon = "/add_shared_coupon"
	cmdShareList       = "/share_list"
	cmdCancelSharing   = "/cancel_sharing"
)

func (d *Dispatcher) handleText(ctx context.Context, in *Inbound) error {
	text := strings.TrimSpace(in.Text)

	switch {
	case text == cmdList || text == cmdBang:
		return d.sendCouponList(ctx, in.From)
	case strings.HasPrefix(text, cmdBang):
		return d.searchCoupons(ctx, in, strings.TrimSpace(strings.TrimPrefix(text, cmdBang)))
	case strings.HasPrefix(text, cmdAddSharedCoupon):
		return d.importSharedCoupon(ctx, in, argAfter(text, cmdAddSharedCoupon))
	case strings.HasPrefix(text, cmdShareList):
		return d.shareList(ctx, in, argAfter(text, cmdShareList))
	case strings.HasPrefix(text, cmdCancelSharing):
		return d.cancelSharing(ctx, in)
	}

	state, err := d.db.GetUserState(ctx, in.From)
	if err != nil {
		return err
	}

	if couponID, ok := ParseState(state).UpdatingCouponID(); ok {
		return d.handleUpdateRequest(ctx, in, couponID, text)
	}
	return d.handleIdleText(ctx, in, text)
}

// argAfter returns the first argument after a command, or "".
func argAfter(text, cmd string) string {
	rest := strings.TrimSpace(strings.TrimPrefix(text, cmd))
	if rest == "" {
		return ""
	}
	return strings.Fields(rest)[0]
}

// handleIdleText treats free text as potential coupon content. Short
// messages skip the extractor and get the welcome menu instead.
func (d *Dispatcher) handleIdleText(ctx context.Context, in *Inbound, text string) error {
	if len([]rune(text)) <= d.minTextLength {
		return d.sendContextualWelcome(ctx, in.From)
	}

	if err := d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionProcessing); err != nil {
		return err
	}

	results := d.extractor.ParseText(ctx, text)
	return d.respondWithResults(ctx, in, results)
}

// respondWithResults stores and announces every valid extraction result.
// When nothing valid came back, the processing reaction is cleared and the
// user gets the welcome menu.
func (d *Dispatcher) respondWithResults(ctx context.Context, in *Inbound, results []extract.Result) error {
	anyValid := false
	for i := range results {
		if !results[i].Valid {
			continue
		}
		anyValid = true
		if err := d.storeAndAnnounce(ctx, in, &results[i]); err != nil {
			d.logger.ErrorContext(ctx, "storing extracted coupon failed",
				slog.String("from", in.From),
				slog.Any("error", err),
			)
		}
	}

	if !anyValid {
		if err := d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionNone); err != nil {
			return err
		}
		return d.sendContextualWelcome(ctx, in.From)
	}
	return nil
}

// handleUpdateRequest runs while the user edits a coupon. The request goes
// through the extractor; an unintelligible one is answered with examples
// and keeps the edit state.
func (d *Dispatcher) handleUpdateRequest(ctx context.Context, in *Inbound, couponID, text string) error {
	var update extract.Result
	if len([]rune(text)) > d.minTextLength {
		if err := d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionProcessing); err != nil {
			return err
		}

		coupon, err := d.db.GetCoupon(ctx, in.From, couponID)
		if err != nil {
			return err
		}
		if coupon == nil {
			_ = d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionError)
			if err := d.db.SetUserState(ctx, in.From, Idle().String()); err != nil {
				return err
			}
			return d.transport.SendText(ctx, in.From, wamsg.TextCouponNotFound, "")
		}
		update = d.extractor.ParseUpdate(ctx, couponSnapshot(coupon), text)
	}

	if !update.Valid {
		if err := d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionError); err != nil {
			return err
		}
		prompt := wamsg.NewUpdateRejectedPrompt(in.From, couponID, update.Examples)
		return d.transport.SendInteractive(ctx, in.From, prompt)
	}

	if err := d.db.UpdateCouponFields(ctx, in.From, couponID, update.Fields()); err != nil {
		return err
	}
	d.recordEvent("updated")

	if err := d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionSuccess); err != nil {
		return err
	}
	if err := d.db.SetUserState(ctx, in.From, Idle().String()); err != nil {
		return err
	}

	updated, err := d.db.GetCoupon(ctx, in.From, couponID)
	if err != nil || updated == nil {
		return err
	}
	return d.transport.SendInteractive(ctx, in.From, wamsg.NewCouponCard(updated, false, false))
}

// importSharedCoupon redeems a single-use sharing token.
func (d *Dispatcher) importSharedCoupon(ctx context.Context, in *Inbound, token string) error {
	coupon, err := d.db.GetCouponByToken(ctx, token)
	if err != nil {
		return err
	}
	if coupon == nil {
		if err := d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionError); err != nil {
			return err
		}
		return d.transport.SendText(ctx, in.From, wamsg.TextSharedCouponNotFound, "")
	}

	if err := d.db.ShareCouponWith(ctx, coupon.OwnerID, coupon.CouponID, in.From); err != nil {
		return err
	}
	d.recordEvent("shared")

	if err := d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionSuccess); err != nil {
		return err
	}
	return d.transport.SendInteractive(ctx, in.From, wamsg.NewCouponCard(coupon, true, true))
}

// shareList without a target sends the invite message to forward; with a
// target it registers the sender's half of the pairing and asks the target
// to approve.
func (d *Dispatcher) shareList(ctx context.Context, in *Inbound, target string) error {
	if target == "" {
		return d.transport.SendInteractive(ctx, in.From, wamsg.NewShareListCTA(in.From, d.botNumber))
	}

	if err := d.db.ConfirmPairing(ctx, in.From, target); err != nil {
		return err
	}
	if err := d.transport.SendInteractive(ctx, target, wamsg.NewPairingConfirmation(in.From)); err != nil {
		return err
	}
	return d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionSuccess)
}

func (d *Dispatcher) cancelSharing(ctx context.Context, in *Inbound) error {
	if _, err := d.db.CancelPairing(ctx, in.From); err != nil {
		return err
	}
	return d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionSuccess)
}

// searchCoupons answers a "! query" message with the coupons the model
// picked out of the user's list.
func (d *Dispatcher) searchCoupons(ctx context.Context, in *Inbound, query string) error {
	if err := d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionProcessing); err != nil {
		return err
	}

	owned, shared, err := d.loadCoupons(ctx, in.From)
	if err != nil {
		return err
	}

	all := make([]*couponWithOrigin, 0, len(owned)+len(shared))
	rows := make([]extract.CouponRow, 0, len(owned)+len(shared))
	for _, c := range owned {
		all = append(all, &couponWithOrigin{coupon: c})
		rows = append(rows, couponRow(c))
	}
	for _, c := range shared {
		all = append(all, &couponWithOrigin{coupon: c, shared: true})
		rows = append(rows, couponRow(c))
	}

	matched := d.extractor.SearchCoupons(ctx, rows, query)
	matchedSet := make(map[string]bool, len(matched))
	for _, id := range matched {
		matchedSet[id] = true
	}

	var ownedHits, sharedHits []*couponWithOrigin
	for _, c := range all {
		if !matchedSet[c.coupon.CouponID] {
			continue
		}
		if c.shared {
			sharedHits = append(sharedHits, c)
		} else {
			ownedHits = append(ownedHits, c)
		}
	}

	if err := d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionNone); err != nil {
		return err
	}
	if len(ownedHits) == 0 && len(sharedHits) == 0 {
		return d.transport.SendText(ctx, in.From, fmt.Sprintf("לא מצאתי קופונים שמתאימים ל-\"%s\" 🤷", query), in.MessageID)
	}

	list := wamsg.NewCouponListTitled(coupons(ownedHits), coupons(sharedHits),
		"🔍 תוצאות החיפוש:", "בחר קופון כדי להציג או לבצע פעולה")
	return d.transport.SendInteractive(ctx, in.From, list)
}
