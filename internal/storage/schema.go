package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go.
func InitSchema(db *sql.DB) error {
	if err := createCouponsTable(db); err != nil {
		return err
	}

	if err := createPairingsTable(db); err != nil {
		return err
	}

	return createUserStatesTable(db)
}

func createCouponsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS coupons (
		owner_id TEXT NOT NULL,
		coupon_id TEXT NOT NULL,
		origin_msg_id TEXT NOT NULL DEFAULT '',
		store TEXT NOT NULL DEFAULT '',
		coupon_code TEXT NOT NULL DEFAULT '',
		expiration_date TEXT NOT NULL DEFAULT '',
		discount_value TEXT NOT NULL DEFAULT '',
		value TEXT NOT NULL DEFAULT '',
		cost TEXT NOT NULL DEFAULT '',
		terms TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT 'other',
		misc TEXT NOT NULL DEFAULT '',
		status TEXT CHECK(status IN ('unused', 'used', 'canceled')) NOT NULL DEFAULT 'unused',
		shared_with TEXT NOT NULL DEFAULT '',
		sharing_token TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		used_at INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (owner_id, coupon_id)
	);
	CREATE INDEX IF NOT EXISTS idx_coupons_status ON coupons(owner_id, status);
	CREATE INDEX IF NOT EXISTS idx_coupons_shared_with ON coupons(shared_with);
	CREATE INDEX IF NOT EXISTS idx_coupons_sharing_token ON coupons(sharing_token);
	CREATE INDEX IF NOT EXISTS idx_coupons_expiration ON coupons(status, expiration_date);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create coupons table: %w", err)
	}

	return nil
}

func createPairingsTable(db *sql.DB) error {
	// One outgoing share link per user; rows are directed
	query := `
	CREATE TABLE IF NOT EXISTS pairings (
		client_id TEXT PRIMARY KEY,
		partner_id TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pairings_partner ON pairings(partner_id);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create pairings table: %w", err)
	}

	return nil
}

func createUserStatesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS user_states (
		client_id TEXT PRIMARY KEY,
		state TEXT NOT NULL DEFAULT 'idle',
		updated_at INTEGER NOT NULL
	);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create user_states table: %w", err)
	}

	return nil
}
