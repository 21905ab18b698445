package storage

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound reports a write that matched no row, either because the
// coupon does not exist or because its status already blocks the change.
var ErrNotFound = errors.New("storage: coupon not found")

const couponColumns = `owner_id, coupon_id, origin_msg_id, store, coupon_code,
	expiration_date, discount_value, value, cost, terms, url, category, misc,
	status, shared_with, sharing_token, created_at, used_at`

// updatableCouponColumns whitelists the columns UpdateCouponFields may touch.
var updatableCouponColumns = map[string]bool{
	"store":           true,
	"coupon_code":     true,
	"expiration_date": true,
	"discount_value":  true,
	"value":           true,
	"cost":            true,
	"terms":           true,
	"url":             true,
	"category":        true,
	"misc":            true,
}

func scanCoupon(row interface{ Scan(...any) error }) (*Coupon, error) {
	var c Coupon
	err := row.Scan(
		&c.OwnerID,
		&c.CouponID,
		&c.OriginMsgID,
		&c.Store,
		&c.CouponCode,
		&c.ExpirationDate,
		&c.DiscountValue,
		&c.Value,
		&c.Cost,
		&c.Terms,
		&c.URL,
		&c.Category,
		&c.Misc,
		&c.Status,
		&c.SharedWith,
		&c.SharingToken,
		&c.CreatedAt,
		&c.UsedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// StoreCoupon inserts a new coupon for its owner. A missing CouponID is
// generated. When the owner has an outgoing pairing link the coupon is
// mirrored to the partner immediately.
func (db *DB) StoreCoupon(ctx context.Context, coupon *Coupon) error {
	if coupon.CouponID == "" {
		coupon.CouponID = uuid.New().String()
	}
	if coupon.Status == "" {
		coupon.Status = StatusUnused
	}
	coupon.Category = NormalizeCategory(coupon.Category)
	if coupon.CreatedAt == 0 {
		coupon.CreatedAt = time.Now().Unix()
	}

	if coupon.SharedWith == "" {
		pairing, err := db.GetPairing(ctx, coupon.OwnerID)
		if err != nil {
			return err
		}
		if pairing != nil {
			coupon.SharedWith = pairing.PartnerID
		}
	}

	query := `
		INSERT INTO coupons (` + couponColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, coupon_id) DO UPDATE SET
			store = excluded.store,
			coupon_code = excluded.coupon_code,
			expiration_date = excluded.expiration_date,
			discount_value = excluded.discount_value,
			value = excluded.value,
			cost = excluded.cost,
			terms = excluded.terms,
			url = excluded.url,
			category = excluded.category,
			misc = excluded.misc
	`
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query,
		coupon.OwnerID, coupon.CouponID, coupon.OriginMsgID, coupon.Store,
		coupon.CouponCode, coupon.ExpirationDate, coupon.DiscountValue,
		coupon.Value, coupon.Cost, coupon.Terms, coupon.URL, coupon.Category,
		coupon.Misc, coupon.Status, coupon.SharedWith, coupon.SharingToken,
		coupon.CreatedAt, coupon.UsedAt)
	if err != nil {
		slog.ErrorContext(ctx, "failed to store coupon",
			"owner_id", coupon.OwnerID,
			"coupon_id", coupon.CouponID,
			"error", err)
		return fmt.Errorf("failed to store coupon: %w", err)
	}

	if duration := time.Since(start); duration > 100*time.Millisecond {
		slog.WarnContext(ctx, "slow database operation",
			"operation", "StoreCoupon",
			"duration_ms", duration.Milliseconds())
	}
	return nil
}

// GetCoupon retrieves a single coupon by owner and id.
// Returns (nil, nil) when the coupon does not exist.
func (db *DB) GetCoupon(ctx context.Context, ownerID, couponID string) (*Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE owner_id = ? AND coupon_id = ?`

	coupon, err := scanCoupon(db.conn.QueryRowContext(ctx, query, ownerID, couponID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query coupon",
			"owner_id", ownerID,
			"coupon_id", couponID,
			"error", err)
		return nil, fmt.Errorf("query coupon: %w", err)
	}

	return coupon, nil
}

// UpdateCouponFields applies a sparse field update to a coupon. Unknown
// field names are skipped; an update with no applicable fields is a no-op.
func (db *DB) UpdateCouponFields(ctx context.Context, ownerID, couponID string, fields map[string]string) error {
	setClauses := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+2)
	for column, value := range fields {
		if !updatableCouponColumns[column] {
			continue
		}
		if column == "category" {
			value = NormalizeCategory(value)
		}
		setClauses = append(setClauses, column+" = ?")
		args = append(args, value)
	}
	if len(setClauses) == 0 {
		return nil
	}
	args = append(args, ownerID, couponID)

	query := `UPDATE coupons SET ` + strings.Join(setClauses, ", ") + ` WHERE owner_id = ? AND coupon_id = ?`
	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		slog.ErrorContext(ctx, "failed to update coupon fields",
			"owner_id", ownerID,
			"coupon_id", couponID,
			"error", err)
		return fmt.Errorf("failed to update coupon fields: %w", err)
	}
	return nil
}

// MarkCouponUsed transitions an unused coupon to the used status. Used and
// canceled are terminal, so a coupon that is missing or already closed
// yields ErrNotFound.
func (db *DB) MarkCouponUsed(ctx context.Context, ownerID, couponID string) error {
	query := `UPDATE coupons SET status = ?, used_at = ? WHERE owner_id = ? AND coupon_id = ? AND status = ?`
	res, err := db.conn.ExecContext(ctx, query, StatusUsed, time.Now().Unix(), ownerID, couponID, StatusUnused)
	if err != nil {
		slog.ErrorContext(ctx, "failed to mark coupon used",
			"owner_id", ownerID,
			"coupon_id", couponID,
			"error", err)
		return fmt.Errorf("failed to mark coupon used: %w", err)
	}
	return notFoundWhenUnaffected(res)
}

// CancelCoupon transitions an unused coupon to the canceled status. Like
// MarkCouponUsed it refuses to touch a coupon that already reached a
// terminal status.
func (db *DB) CancelCoupon(ctx context.Context, ownerID, couponID string) error {
	query := `UPDATE coupons SET status = ? WHERE owner_id = ? AND coupon_id = ? AND status = ?`
	res, err := db.conn.ExecContext(ctx, query, StatusCanceled, ownerID, couponID, StatusUnused)
	if err != nil {
		slog.ErrorContext(ctx, "failed to cancel coupon",
			"owner_id", ownerID,
			"coupon_id", couponID,
			"error", err)
		return fmt.Errorf("failed to cancel coupon: %w", err)
	}
	return notFoundWhenUnaffected(res)
}

// notFoundWhenUnaffected maps an update that matched no row to ErrNotFound.
func notFoundWhenUnaffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUserCoupons returns the user's own unused coupons, oldest first.
func (db *DB) GetUserCoupons(ctx context.Context, ownerID string) ([]*Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons
		WHERE owner_id = ? AND status = ? ORDER BY created_at ASC`
	return db.queryCoupons(ctx, "GetUserCoupons", query, ownerID, StatusUnused)
}

// GetSharedCoupons returns unused coupons other users have shared with the
// given user, oldest first.
func (db *DB) GetSharedCoupons(ctx context.Context, userID string) ([]*Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons
		WHERE shared_with = ? AND status = ? ORDER BY created_at ASC`
	return db.queryCoupons(ctx, "GetSharedCoupons", query, userID, StatusUnused)
}

// GetExpiringCoupons returns all unused coupons whose expiration date falls
// between today and the given cutoff (inclusive), across all owners.
// Dates are ISO formatted strings so lexicographic comparison is safe.
func (db *DB) GetExpiringCoupons(ctx context.Context, today, cutoff string) ([]*Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons
		WHERE status = ? AND expiration_date != '' AND expiration_date >= ? AND expiration_date <= ?
		ORDER BY owner_id, expiration_date ASC`
	return db.queryCoupons(ctx, "GetExpiringCoupons", query, StatusUnused, today, cutoff)
}

func (db *DB) queryCoupons(ctx context.Context, operation, query string, args ...any) ([]*Coupon, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query coupons",
			"operation", operation,
			"error", err)
		return nil, fmt.Errorf("query coupons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var coupons []*Coupon
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, coupon)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupons: %w", err)
	}

	if duration := time.Since(start); duration > 100*time.Millisecond {
		slog.WarnContext(ctx, "slow database operation",
			"operation", operation,
			"duration_ms", duration.Milliseconds())
	}
	return coupons, nil
}

// GetCouponByToken looks up an unused coupon by its sharing token.
// Returns (nil, nil) when the token is empty or matches nothing; the empty
// token is the "not shared" sentinel and must never match.
func (db *DB) GetCouponByToken(ctx context.Context, token string) (*Coupon, error) {
	if token == "" {
		return nil, nil
	}

	query := `SELECT ` + couponColumns + ` FROM coupons
		WHERE sharing_token = ? AND status = ?`
	coupon, err := scanCoupon(db.conn.QueryRowContext(ctx, query, token, StatusUnused))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query coupon by token", "error", err)
		return nil, fmt.Errorf("query coupon by token: %w", err)
	}

	return coupon, nil
}

// GenerateSharingToken assigns a fresh token to a coupon and returns it.
// Re-sharing overwrites any previous token, invalidating old links.
func (db *DB) GenerateSharingToken(ctx context.Context, ownerID, couponID string) (string, error) {
	id := uuid.New()
	token := strings.ToUpper(hex.EncodeToString(id[:4]))

	query := `UPDATE coupons SET sharing_token = ? WHERE owner_id = ? AND coupon_id = ?`
	if _, err := db.conn.ExecContext(ctx, query, token, ownerID, couponID); err != nil {
		slog.ErrorContext(ctx, "failed to set sharing token",
			"owner_id", ownerID,
			"coupon_id", couponID,
			"error", err)
		return "", fmt.Errorf("failed to set sharing token: %w", err)
	}
	return token, nil
}

// ShareCouponWith grants the target visibility of a coupon and consumes its
// sharing token so the link cannot be imported a second time.
func (db *DB) ShareCouponWith(ctx context.Context, ownerID, couponID, targetID string) error {
	query := `UPDATE coupons SET shared_with = ?, sharing_token = '' WHERE owner_id = ? AND coupon_id = ?`
	if _, err := db.conn.ExecContext(ctx, query, targetID, ownerID, couponID); err != nil {
		slog.ErrorContext(ctx, "failed to share coupon",
			"owner_id", ownerID,
			"coupon_id", couponID,
			"error", err)
		return fmt.Errorf("failed to share coupon: %w", err)
	}
	return nil
}

// CancelCouponSharing clears both the shared_with grant and the sharing
// token of a coupon.
func (db *DB) CancelCouponSharing(ctx context.Context, ownerID, couponID string) error {
	query := `UPDATE coupons SET shared_with = '', sharing_token = '' WHERE owner_id = ? AND coupon_id = ?`
	res, err := db.conn.ExecContext(ctx, query, ownerID, couponID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to cancel coupon sharing",
			"owner_id", ownerID,
			"coupon_id", couponID,
			"error", err)
		return fmt.Errorf("failed to cancel coupon sharing: %w", err)
	}
	return notFoundWhenUnaffected(res)
}

// GetPairing returns the user's outgoing pairing link, or (nil, nil) when
// the user shares with nobody.
func (db *DB) GetPairing(ctx context.Context, clientID string) (*Pairing, error) {
	query := `SELECT client_id, partner_id, created_at FROM pairings WHERE client_id = ?`

	var p Pairing
	err := db.conn.QueryRowContext(ctx, query, clientID).Scan(&p.ClientID, &p.PartnerID, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query pairing",
			"client_id", clientID,
			"error", err)
		return nil, fmt.Errorf("query pairing: %w", err)
	}

	return &p, nil
}

// ConfirmPairing records that clientID shares their list with partnerID.
// When the partner already shares back (they invited first), the partner's
// existing unused coupons are mirrored to the confirming client; until then
// an invite exposes no pre-existing coupons.
func (db *DB) ConfirmPairing(ctx context.Context, clientID, partnerID string) error {
	query := `
		INSERT INTO pairings (client_id, partner_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(client_id) DO UPDATE SET
			partner_id = excluded.partner_id,
			created_at = excluded.created_at
	`
	if _, err := db.conn.ExecContext(ctx, query, clientID, partnerID, time.Now().Unix()); err != nil {
		slog.ErrorContext(ctx, "failed to confirm pairing",
			"client_id", clientID,
			"partner_id", partnerID,
			"error", err)
		return fmt.Errorf("failed to confirm pairing: %w", err)
	}

	reverse, err := db.GetPairing(ctx, partnerID)
	if err != nil {
		return err
	}
	if reverse == nil || reverse.PartnerID != clientID {
		return nil
	}

	mirror := `UPDATE coupons SET shared_with = ? WHERE owner_id = ? AND status = ?`
	if _, err := db.conn.ExecContext(ctx, mirror, clientID, partnerID, StatusUnused); err != nil {
		slog.ErrorContext(ctx, "failed to mirror partner coupons",
			"client_id", clientID,
			"partner_id", partnerID,
			"error", err)
		return fmt.Errorf("failed to mirror partner coupons: %w", err)
	}
	return nil
}

// CancelPairing tears down the user's pairing in both directions and clears
// sharing state from both sides' unused coupons. A user with no pairing is
// a no-op; the returned partner id is empty in that case.
func (db *DB) CancelPairing(ctx context.Context, clientID string) (string, error) {
	pairing, err := db.GetPairing(ctx, clientID)
	if err != nil {
		return "", err
	}
	if pairing == nil {
		return "", nil
	}
	partnerID := pairing.PartnerID

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin cancel pairing: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM pairings WHERE client_id IN (?, ?)`, clientID, partnerID); err != nil {
		return "", fmt.Errorf("failed to delete pairings: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE coupons SET shared_with = '', sharing_token = '' WHERE owner_id IN (?, ?) AND status = ?`,
		clientID, partnerID, StatusUnused); err != nil {
		return "", fmt.Errorf("failed to clear shared coupons: %w", err)
	}

	if err := tx.Commit(); err != nil {
		slog.ErrorContext(ctx, "failed to cancel pairing",
			"client_id", clientID,
			"partner_id", partnerID,
			"error", err)
		return "", fmt.Errorf("failed to cancel pairing: %w", err)
	}
	return partnerID, nil
}

// GetUserState returns the user's serialized conversation state, defaulting
// to idle for unknown users.
func (db *DB) GetUserState(ctx context.Context, clientID string) (string, error) {
	query := `SELECT state FROM user_states WHERE client_id = ?`

	var state string
	err := db.conn.QueryRowContext(ctx, query, clientID).Scan(&state)
	if err == sql.ErrNoRows {
		return "idle", nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query user state",
			"client_id", clientID,
			"error", err)
		return "", fmt.Errorf("query user state: %w", err)
	}

	return state, nil
}

// SetUserState stores the user's serialized conversation state.
func (db *DB) SetUserState(ctx context.Context, clientID, state string) error {
	query := `
		INSERT INTO user_states (client_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(client_id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`
	if _, err := db.conn.ExecContext(ctx, query, clientID, state, time.Now().Unix()); err != nil {
		slog.ErrorContext(ctx, "failed to set user state",
			"client_id", clientID,
			"error", err)
		return fmt.Errorf("failed to set user state: %w", err)
	}
	return nil
}
