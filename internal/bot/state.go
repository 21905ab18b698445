package bot

import "strings"

// State is a user's conversation state: idle, or editing one coupon. It
// round-trips through the user_states table as "idle" or
// "update_coupon:<coupon id>".
type State struct {
	couponID string
}

const (
	serializedIdle    = "idle"
	stateUpdatePrefix = "update_coupon:"
)

// Idle returns the resting state.
func Idle() State { return State{} }

// UpdatingCoupon returns the state of a user editing the given coupon.
func UpdatingCoupon(couponID string) State { return State{couponID: couponID} }

// ParseState maps a stored string back to a State. Anything unrecognized,
// including an update state missing its coupon id, parses as idle.
func ParseState(s string) State {
	if id := strings.TrimPrefix(s, stateUpdatePrefix); id != s && id != "" {
		return UpdatingCoupon(id)
	}
	return Idle()
}

func (s State) String() string {
	if s.couponID == "" {
		return serializedIdle
	}
	return stateUpdatePrefix + s.couponID
}

// UpdatingCouponID returns the coupon under edit, or false when idle.
func (s State) UpdatingCouponID() (string, bool) {
	return s.couponID, s.couponID != ""
}
