package bot

import (
	"context"

	"github.com/ckeepapp/ckeep-whatsapp-go/internal/extract"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/storage"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/wamsg"
)

// listThreshold is the combined coupon count above which the flat list is
// replaced by the category index.
const listThreshold = 10

type couponWithOrigin struct {
	coupon *storage.Coupon
	shared bool
}

func coupons(list []*couponWithOrigin) []*storage.Coupon {
	out := make([]*storage.Coupon, 0, len(list))
	for _, c := range list {
		out = append(out, c.coupon)
	}
	return out
}

// storeAndAnnounce saves one extraction result and sends its card. The
// bookmark reaction marks the source message as recognized.
func (d *Dispatcher) storeAndAnnounce(ctx context.Context, in *Inbound, result *extract.Result) error {
	if err := d.transport.SendReaction(ctx, in.From, in.MessageID, wamsg.ReactionBookmark); err != nil {
		return err
	}

	coupon := &storage.Coupon{
		OwnerID:        in.From,
		OriginMsgID:    in.MessageID,
		Store:          result.Store,
		CouponCode:     result.CouponCode,
		ExpirationDate: result.ExpirationDate,
		DiscountValue:  result.DiscountValue,
		Value:          result.Value,
		Cost:           result.Cost,
		Terms:          result.Terms,
		URL:            result.URL,
		Category:       result.Category,
		Misc:           result.Misc,
	}
	if err := d.db.StoreCoupon(ctx, coupon); err != nil {
		return err
	}
	d.recordEvent("stored")

	return d.transport.SendInteractive(ctx, in.From, wamsg.NewCouponCard(coupon, true, false))
}

func (d *Dispatcher) loadCoupons(ctx context.Context, userID string) (owned, shared []*storage.Coupon, err error) {
	owned, err = d.db.GetUserCoupons(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	shared, err = d.db.GetSharedCoupons(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return owned, shared, nil
}

// sendCouponList shows the user's coupons: a flat two-section list while
// small enough, the category index beyond the threshold.
func (d *Dispatcher) sendCouponList(ctx context.Context, userID string) error {
	owned, shared, err := d.loadCoupons(ctx, userID)
	if err != nil {
		return err
	}

	if len(owned)+len(shared) <= listThreshold {
		return d.transport.SendInteractive(ctx, userID, wamsg.NewCouponList(owned, shared))
	}
	return d.transport.SendInteractive(ctx, userID, wamsg.NewCategoryIndex(owned, shared))
}

// sendContextualWelcome picks the welcome variant by whether the user has
// stored coupons yet.
func (d *Dispatcher) sendContextualWelcome(ctx context.Context, userID string) error {
	owned, err := d.db.GetUserCoupons(ctx, userID)
	if err != nil {
		return err
	}
	return d.transport.SendInteractive(ctx, userID, wamsg.NewWelcome(len(owned) == 0))
}

// couponSnapshot flattens a coupon into the field map the update parser
// receives as current state.
func couponSnapshot(c *storage.Coupon) map[string]string {
	return map[string]string{
		"store":                c.Store,
		"coupon_code":          c.CouponCode,
		"expiration_date":      c.ExpirationDate,
		"discount_value":       c.DiscountValue,
		"value":                c.Value,
		"cost":                 c.Cost,
		"terms_and_conditions": c.Terms,
		"url":                  c.URL,
		"category":             c.Category,
		"misc":                 c.Misc,
	}
}

func couponRow(c *storage.Coupon) extract.CouponRow {
	return extract.CouponRow{
		ID:       c.CouponID,
		Store:    c.Store,
		Code:     c.CouponCode,
		Expiry:   c.ExpirationDate,
		Discount: c.DiscountValue,
		Value:    c.Value,
		Category: c.Category,
		Terms:    c.Terms,
		Misc:     c.Misc,
	}
}
