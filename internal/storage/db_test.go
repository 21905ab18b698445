package storage

import (
	"path/filepath"
	"testing"
)

func TestNewCreatesDirectoryAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "coupons.db")

	db, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}

	// Schema should be queryable right away
	for _, table := range []string{"coupons", "pairings", "user_states"} {
		var count int
		if err := db.Conn().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Errorf("table %s not initialized: %v", table, err)
		}
	}
}

func TestCloseIsIdempotentOnNilConn(t *testing.T) {
	db := &DB{}
	if err := db.Close(); err != nil {
		t.Errorf("Close on empty DB returned error: %v", err)
	}
}
