package wamsg

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ckeepapp/ckeep-whatsapp-go/internal/storage"
)

// NewShareCouponCTA builds the message a user forwards to share a single
// coupon. The embedded wa.me link opens a chat with the bot, prefilled
// with the import command for the sharing token.
func NewShareCouponCTA(c *storage.Coupon, token, botNumber string) *Interactive {
	importLink := deepLink(botNumber, "/add_shared_coupon "+token)

	parts := []string{"היי! 👋", "רציתי לשתף אותך בקופון שקיבלתי 💌"}
	if c.Store != "" {
		parts = append(parts, "\n📍 הקופון מיועד ל־"+c.Store)
	}
	if c.Value != "" {
		parts = append(parts, "💸 שווי הקופון: "+c.Value)
	} else if c.DiscountValue != "" {
		parts = append(parts, "💸 "+c.DiscountValue+" הנחה")
	}
	parts = append(parts, "\nכדי להוסיף אותו לרשימת הקופונים שלך, פשוט לחץ על הקישור הבא👇\n"+importLink)

	return &Interactive{
		Type: "cta_url",
		Body: &Body{Text: "*👥 שיתוף קופון בודד*\n\nבחר איש קשר לשיתוף ואז לחץ על כפתור השליחה.\nאיש הקשר יקבל הודעה שבה יוכל להצטרף ולצפות בקופון ששותף"},
		Action: &Action{
			Name: "cta_url",
			Parameters: &CTAParameters{
				DisplayText: "בחר איש קשר",
				URL:         deepLink("", strings.Join(parts, "\n")),
			},
		},
	}
}

// NewShareListCTA builds the message a user forwards to invite a partner
// to a shared coupon list. myNumber is the inviter's own number, embedded
// in the /share_list command the invitee's link sends to the bot.
func NewShareListCTA(myNumber, botNumber string) *Interactive {
	inviteLink := deepLink(botNumber, "/share_list "+myNumber)

	parts := []string{
		"היי! 👋",
		"בוא ננהל רשימת קופונים משותפת ביחד 💌",
		"\nכדי לשתף קופונים יחד, לחץ על הקישור👇\n" + inviteLink,
	}

	text := "*👥 שיתוף עם חבר*\n\n" +
		"בחר חבר מרשימת אנשי הקשר שלך ולחץ על כפתור שליחת ההודעה.\n\n" +
		"החבר יקבל ממני הודעה שמציעה להצטרף אליך לשיתוף קופונים קבוע.\n\n" +
		"ברגע שהוא יאשר – כל קופון או שובר שתשמרו, יהיה גלוי גם לשני.\n" +
		"כך תמיד תהיו מעודכנים, בלי להעביר ידנית כל קופון 😎"

	return &Interactive{
		Type: "cta_url",
		Body: &Body{Text: text},
		Action: &Action{
			Name: "cta_url",
			Parameters: &CTAParameters{
				DisplayText: "בחר איש קשר לשיתוף",
				URL:         deepLink("", strings.Join(parts, "\n")),
			},
		},
	}
}

// deepLink builds a wa.me link that opens a chat with number (or the
// contact picker when number is empty) prefilled with text.
func deepLink(number, text string) string {
	// wa.me does not decode '+' as a space in the text parameter.
	encoded := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return fmt.Sprintf("https://wa.me/%s?text=%s", number, encoded)
}

// NewExpiryReminder builds the reminder text for coupons nearing their
// expiration date.
func NewExpiryReminder(coupons []*storage.Coupon) string {
	var b strings.Builder
	b.WriteString("⏰ תזכורת! לקופונים הבאים עומד לפוג התוקף:\n\n")
	for _, c := range coupons {
		store := c.Store
		if store == "" {
			store = unknownStore
		}
		fmt.Fprintf(&b, "%s🏷️ %s - בתוקף עד %s\n", rtl, store, c.ExpirationDate)
	}
	b.WriteString("\nשלח /list כדי לראות את כל הקופונים שלך 📋")
	return b.String()
}
