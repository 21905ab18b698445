package wamsg

import "strings"

// Action tags carried in interactive button ids and list row ids. Tags
// with parameters append them colon-delimited, e.g. "coupon:<owner>:<id>".
const (
	ActionListCoupons   = "list_coupons"
	ActionShareList     = "share_list"
	ActionHowToAdd      = "how_to_add"
	ActionShowCoupon    = "show_coupon"
	ActionUpdateCoupon  = "update_coupon"
	ActionUpdateDetails = "update_coupon_details"
	ActionCancelUpdate  = "cancel_update_coupon"
	ActionMarkAsUsed    = "mark_as_used"
	ActionCancelCoupon  = "cancel_coupon"
	ActionShareCoupon   = "share_coupon"
	ActionCancelShare   = "cancel_share"
	ActionConfirmPair   = "confirm_pair"
	ActionDeclinePair   = "decline_pair"
	ActionCoupon        = "coupon"
	ActionCategory      = "category"
)

// Tag joins an action with its parameters into a button or row id.
func Tag(action string, params ...string) string {
	if len(params) == 0 {
		return action
	}
	return action + ":" + strings.Join(params, ":")
}

// ParseTag splits a button or row id into its action and parameters.
func ParseTag(id string) (action string, params []string) {
	parts := strings.Split(id, ":")
	return parts[0], parts[1:]
}
