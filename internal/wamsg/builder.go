package wamsg

import (
	"fmt"
	"strings"

	"github.com/ckeepapp/ckeep-whatsapp-go/internal/storage"
)

// NewCouponCard builds the interactive card for a single coupon.
//
// isNew selects the button set for a freshly stored coupon (update details,
// cancel, share). Otherwise the card carries the actions for a saved coupon
// (update, mark as used, show original). shared marks a coupon the viewer
// received from a partner rather than one they own.
func NewCouponCard(c *storage.Coupon, isNew, shared bool) *Interactive {
	var lines []string
	if c.CouponCode != "" {
		lines = append(lines, "🔖 *קוד קופון:* "+c.CouponCode)
	}
	if c.ExpirationDate != "" {
		lines = append(lines, "📅 *תוקף:* "+c.ExpirationDate)
	}
	if c.DiscountValue != "" {
		lines = append(lines, "💸 *הנחה:* "+c.DiscountValue)
	}
	if c.Value != "" {
		lines = append(lines, "🎁 *ערך:* "+c.Value)
	}
	if c.Terms != "" {
		lines = append(lines, "📜 *תנאים:* "+c.Terms)
	}
	if c.URL != "" {
		lines = append(lines, "🔗 *URL:* "+c.URL)
	}

	title := "*פרטי הקופון:*"
	if c.Store != "" {
		title = "*קופון ל-" + c.Store + "*"
	}
	if shared {
		title += " 👥 "
	}

	card := &Interactive{
		Type:   "button",
		Body:   &Body{Text: title + "\n\n" + strings.Join(lines, "\n")},
		Action: &Action{Buttons: cardButtons(c, isNew, shared)},
	}
	if c.Misc != "" {
		card.Footer = &Footer{Text: truncateRunes(c.Misc, MaxFooterLength)}
	}
	return card
}

func cardButtons(c *storage.Coupon, isNew, shared bool) []ReplyButton {
	if isNew {
		buttons := []ReplyButton{
			replyButton(Tag(ActionUpdateDetails, c.CouponID), "עדכן פרטים"),
			replyButton(Tag(ActionCancelCoupon, c.CouponID), "בטל קופון"),
		}
		if !shared {
			buttons = append(buttons, sharingButton(c))
		}
		return buttons
	}

	buttons := []ReplyButton{
		replyButton(Tag(ActionUpdateCoupon, c.CouponID), "עדכן קופון"),
		replyButton(Tag(ActionMarkAsUsed, c.OwnerID, c.CouponID), "סמן כנוצל"),
	}
	if !shared {
		buttons = append(buttons, replyButton(Tag(ActionShowCoupon, c.CouponID), "הצג קופון מקורי"))
	}
	return buttons
}

func sharingButton(c *storage.Coupon) ReplyButton {
	if c.SharedWith != "" {
		return replyButton(Tag(ActionCancelShare, c.CouponID), "בטל שיתוף")
	}
	return replyButton(Tag(ActionShareCoupon, c.CouponID), "שתף קופון")
}

// NewUpdateCouponMenu builds the action menu shown when a user taps
// "עדכן קופון" on a saved coupon card.
func NewUpdateCouponMenu(c *storage.Coupon) *Interactive {
	store := strings.TrimSpace(c.Store)
	if store == "" {
		store = unknownStore
	}

	buttons := []ReplyButton{
		replyButton(Tag(ActionUpdateDetails, c.CouponID), "עדכן פרטים"),
		replyButton(Tag(ActionCancelCoupon, c.CouponID), "בטל קופון"),
		sharingButton(c),
	}
	return &Interactive{
		Type:   "button",
		Body:   &Body{Text: "בחר פעולה לביצוע עבור *קופון ל-" + store + "*"},
		Action: &Action{Buttons: buttons},
	}
}

// NewUpdateDetailsPrompt builds the free-text update prompt with a cancel
// button. text defaults to TextUpdatePrompt when empty.
func NewUpdateDetailsPrompt(clientID, couponID, text string) *Interactive {
	if text == "" {
		text = TextUpdatePrompt
	}
	return &Interactive{
		Type: "button",
		Body: &Body{Text: text},
		Action: &Action{
			Buttons: []ReplyButton{
				replyButton(Tag(ActionCancelUpdate, clientID, couponID), "❌ ביטול"),
			},
		},
	}
}

// NewUpdateRejectedPrompt builds the re-prompt shown when an update request
// could not be understood. examples are suggestion lines from the parser;
// when none are given the default examples are used.
func NewUpdateRejectedPrompt(clientID, couponID string, examples []string) *Interactive {
	lines := DefaultUpdateExamples
	if len(examples) > 0 {
		var b strings.Builder
		for _, example := range examples {
			fmt.Fprintf(&b, "- “%s“\n", example)
		}
		lines = b.String()
	}
	return NewUpdateDetailsPrompt(clientID, couponID, fmt.Sprintf(TextUpdateRejected, lines))
}

// NewWelcome builds the onboarding menu. The body text differs for users
// who have no stored coupons yet.
func NewWelcome(newUser bool) *Interactive {
	text := welcomeReturningUser
	if newUser {
		text = welcomeNewUser
	}
	return &Interactive{
		Type:   "button",
		Body:   &Body{Text: text},
		Footer: &Footer{Text: "בחר אפשרות כדי להתחיל"},
		Action: &Action{
			Buttons: []ReplyButton{
				replyButton(ActionListCoupons, "📋 הצג קופונים שמורים"),
				replyButton(ActionShareList, "👥 שיתוף רשימה עם חבר"),
				replyButton(ActionHowToAdd, "➕ איך להוסיף קופון"),
			},
		},
	}
}

// NewPairingConfirmation builds the consent prompt sent to a user another
// user wants to pair with.
func NewPairingConfirmation(phoneNumber string) *Interactive {
	return &Interactive{
		Type: "button",
		Body: &Body{Text: "האם אתה מאשר שיתוף רשימת הקופונים עם מספר טלפון " + phoneNumber + "?"},
		Action: &Action{
			Buttons: []ReplyButton{
				replyButton(Tag(ActionConfirmPair, phoneNumber), "✅ מאשר"),
				replyButton(Tag(ActionDeclinePair, phoneNumber), "❌ לא מאשר"),
			},
		},
	}
}

func replyButton(id, title string) ReplyButton {
	return ReplyButton{
		Type: "reply",
		Reply: ButtonReply{
			ID:    id,
			Title: truncateRunes(title, MaxButtonTitle),
		},
	}
}
