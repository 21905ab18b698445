package wamsg

import (
	"fmt"
	"strings"

	"github.com/ckeepapp/ckeep-whatsapp-go/internal/storage"
)

// rtl forces right-to-left rendering of list lines that mix Hebrew with
// latin store names and codes.
const rtl = "‏"

// categoryLabels maps coupon categories to their display labels.
var categoryLabels = map[string]string{
	storage.CategoryFoodAndDrinks:      "🍔 אוכל ושתייה",
	storage.CategoryClothingAndFashion: "👗 ביגוד ואופנה",
	storage.CategoryElectronics:        "📱 אלקטרוניקה",
	storage.CategoryBeautyAndHealth:    "💄 יופי ובריאות",
	storage.CategoryHomeAndGarden:      "🏠 בית וגן",
	storage.CategoryTravel:             "✈️ נסיעות",
	storage.CategoryEntertainment:      "🎬 בילוי ופנאי",
	storage.CategoryKidsAndBabies:      "🧸 ילדים ותינוקות",
	storage.CategorySportsAndOutdoors:  "⚽ ספורט וטיולים",
	storage.CategoryOther:              "📦 אחר",
}

// CategoryLabel returns the display label for a category tag.
func CategoryLabel(category string) string {
	if label, ok := categoryLabels[category]; ok {
		return label
	}
	return categoryLabels[storage.CategoryOther]
}

// NewCouponList builds the interactive list of a user's coupons, with
// coupons shared by a partner in their own section.
func NewCouponList(owned, shared []*storage.Coupon) *Interactive {
	return NewCouponListTitled(owned, shared, listHeader, listFooter)
}

// NewCouponListTitled is NewCouponList with a custom header and footer.
func NewCouponListTitled(owned, shared []*storage.Coupon, header, footer string) *Interactive {
	sections := []Section{{Title: "הקופונים שלי", Rows: couponRows(owned)}}
	if len(shared) > 0 {
		sections = append(sections, Section{
			Title: "קופונים ששותפו איתי",
			Rows:  couponRows(shared),
		})
	}
	return &Interactive{
		Type:   "list",
		Header: &Header{Type: "text", Text: header},
		Body:   &Body{Text: inlineCouponList(owned, shared)},
		Footer: &Footer{Text: footer},
		Action: &Action{Button: "בחר קופון", Sections: sections},
	}
}

func couponRows(coupons []*storage.Coupon) []Row {
	if len(coupons) > MaxSectionRows {
		coupons = coupons[:MaxSectionRows]
	}
	rows := make([]Row, 0, len(coupons))
	for _, c := range coupons {
		store := c.Store
		if store == "" {
			store = unknownStore
		}
		code := c.CouponCode
		if code == "" {
			code = "(ללא קוד קופון)"
		}
		desc := "ללא תאריך תפוגה"
		if c.ExpirationDate != "" {
			desc = fmt.Sprintf("%s - %s - בתוקף עד %s", store, code, c.ExpirationDate)
		}
		rows = append(rows, Row{
			ID:          Tag(ActionCoupon, c.OwnerID, c.CouponID),
			Title:       truncateRunes(store, MaxRowTitleLength),
			Description: desc,
		})
	}
	return rows
}

// inlineCouponList renders the coupons as body text so they stay readable
// before the list is opened.
func inlineCouponList(owned, shared []*storage.Coupon) string {
	var lines []string
	lines = appendInlineLines(lines, owned)

	if len(shared) > 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "👥 קופונים ששותפו איתי:\n")
		lines = appendInlineLines(lines, shared)
	}

	if len(lines) == 0 {
		return "לא נמצאו קופונים 😕"
	}
	return strings.Join(lines, "\n")
}

func appendInlineLines(lines []string, coupons []*storage.Coupon) []string {
	for i, c := range coupons {
		store := c.Store
		if store == "" {
			store = unknownStore
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s%d. 🏷️ %s\n", rtl, i+1, store)
		if c.CouponCode != "" {
			fmt.Fprintf(&b, "%s🔢 קוד קופון: %s\n", rtl, c.CouponCode)
		}
		if c.ExpirationDate != "" {
			fmt.Fprintf(&b, "%s⏳ תוקף: %s\n", rtl, c.ExpirationDate)
		}
		lines = append(lines, b.String())
	}
	return lines
}

// NewCategoryIndex builds the category picker shown when a user has too
// many coupons for a flat list. Only categories that hold coupons get a
// row, in the canonical category order.
func NewCategoryIndex(owned, shared []*storage.Coupon) *Interactive {
	counts := make(map[string]int)
	for _, c := range owned {
		counts[storage.NormalizeCategory(c.Category)]++
	}
	for _, c := range shared {
		counts[storage.NormalizeCategory(c.Category)]++
	}

	rows := make([]Row, 0, len(counts))
	for _, category := range storage.Categories {
		n := counts[category]
		if n == 0 {
			continue
		}
		rows = append(rows, Row{
			ID:          Tag(ActionCategory, category),
			Title:       truncateRunes(CategoryLabel(category), MaxRowTitleLength),
			Description: fmt.Sprintf("%d קופונים", n),
		})
	}

	return &Interactive{
		Type:   "list",
		Header: &Header{Type: "text", Text: listHeader},
		Body:   &Body{Text: "יש לך לא מעט קופונים שמורים 🎉\nבחר קטגוריה כדי לראות את הקופונים שבה"},
		Footer: &Footer{Text: "בחר קטגוריה מהרשימה"},
		Action: &Action{Button: "בחר קטגוריה", Sections: []Section{{Title: "קטגוריות", Rows: rows}}},
	}
}

// NewCategoryCouponList builds the coupon list filtered to one category.
func NewCategoryCouponList(category string, owned, shared []*storage.Coupon) *Interactive {
	return NewCouponListTitled(owned, shared, CategoryLabel(category), listFooter)
}

// FilterByCategory returns the coupons whose normalized category matches.
func FilterByCategory(coupons []*storage.Coupon, category string) []*storage.Coupon {
	var filtered []*storage.Coupon
	for _, c := range coupons {
		if storage.NormalizeCategory(c.Category) == category {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
