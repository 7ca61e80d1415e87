package store

import (
	"testing"

	"github.com/avoytenko/steeple/internal/database"
)

func setupDeviceTestDB(t *testing.T) *DeviceStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewDeviceStore(db)
}

func TestDeviceRegisterAllowsDuplicates(t *testing.T) {
	ds := setupDeviceTestDB(t)

	if _, err := ds.Register("tok-1", "ios"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := ds.Register("tok-1", "ios"); err != nil {
		t.Fatalf("duplicate register: %v", err)
	}

	devices, err := ds.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("expected both rows to persist, got %d", len(devices))
	}
}

func TestDeviceDeleteByTokenRemovesAll(t *testing.T) {
	ds := setupDeviceTestDB(t)

	if _, err := ds.Register("tok-1", "ios"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := ds.Register("tok-1", "ios"); err != nil {
		t.Fatalf("register dup: %v", err)
	}
	if _, err := ds.Register("tok-2", "android"); err != nil {
		t.Fatalf("register other: %v", err)
	}

	if err := ds.DeleteByToken("tok-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	devices, err := ds.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(devices) != 1 || devices[0].Token != "tok-2" {
		t.Errorf("remaining = %v", devices)
	}
}
