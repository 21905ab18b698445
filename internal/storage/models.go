package storage

// Coupon status values
const (
	StatusUnused   = "unused"
	StatusUsed     = "used"
	StatusCanceled = "canceled"
)

// Coupon categories. CategoryOther is the fallback for anything the
// extractor cannot classify.
const (
	CategoryFoodAndDrinks      = "food_and_drinks"
	CategoryClothingAndFashion = "clothing_and_fashion"
	CategoryElectronics        = "electronics"
	CategoryBeautyAndHealth    = "beauty_and_health"
	CategoryHomeAndGarden      = "home_and_garden"
	CategoryTravel             = "travel"
	CategoryEntertainment      = "entertainment"
	CategoryKidsAndBabies      = "kids_and_babies"
	CategorySportsAndOutdoors  = "sports_and_outdoors"
	CategoryOther              = "other"
)

// Categories lists all known coupon categories in display order.
var Categories = []string{
	CategoryFoodAndDrinks,
	CategoryClothingAndFashion,
	CategoryElectronics,
	CategoryBeautyAndHealth,
	CategoryHomeAndGarden,
	CategoryTravel,
	CategoryEntertainment,
	CategoryKidsAndBabies,
	CategorySportsAndOutdoors,
	CategoryOther,
}

// NormalizeCategory maps an arbitrary category string to a known category,
// falling back to CategoryOther.
func NormalizeCategory(category string) string {
	for _, c := range Categories {
		if c == category {
			return c
		}
	}
	return CategoryOther
}

// Coupon represents a stored coupon record.
// Empty strings mark absent optional fields; the original system used a
// "..." sentinel for the same purpose.
type Coupon struct {
	OwnerID        string `json:"owner_id"`
	CouponID       string `json:"coupon_id"`
	OriginMsgID    string `json:"origin_msg_id,omitempty"` // Inbound message that created the coupon
	Store          string `json:"store,omitempty"`
	CouponCode     string `json:"coupon_code,omitempty"`
	ExpirationDate string `json:"expiration_date,omitempty"` // YYYY-MM-DD
	DiscountValue  string `json:"discount_value,omitempty"`
	Value          string `json:"value,omitempty"`
	Cost           string `json:"cost,omitempty"`
	Terms          string `json:"terms,omitempty"`
	URL            string `json:"url,omitempty"`
	Category       string `json:"category"`
	Misc           string `json:"misc,omitempty"`
	Status         string `json:"status"`
	SharedWith     string `json:"shared_with,omitempty"`
	SharingToken   string `json:"sharing_token,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	UsedAt         int64  `json:"used_at,omitempty"`
}

// Pairing represents a directed sharing link: every coupon the client
// stores is visible to the partner.
type Pairing struct {
	ClientID  string `json:"client_id"`
	PartnerID string `json:"partner_id"`
	CreatedAt int64  `json:"created_at"`
}
