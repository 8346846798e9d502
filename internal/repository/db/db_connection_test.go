package db

import (
	"path/filepath"
	"testing"
)

func TestInitDB_MemoryCreatesSchema(t *testing.T) {
	db, err := InitDB("")
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer db.Close()

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='camera_events'`).Scan(&name)
	if err != nil {
		t.Fatalf("camera_events table missing: %v", err)
	}
}

func TestInitDB_FileIsReopenable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	first, err := InitDB(path)
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	if _, err := first.Exec(`INSERT INTO camera_events (id, occurred_at, type, message) VALUES ('a', '2025-01-01 00:00:00', 'CAMERA_ON', 'x')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := InitDB(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	var n int
	if err := second.QueryRow(`SELECT COUNT(*) FROM camera_events`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 row after reopen, got %d", n)
	}
}
