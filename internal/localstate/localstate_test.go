package localstate

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"pontox/internal/models"
	"pontox/internal/repository/memory"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, path := openTemp(t)

	gid, key := "g-1", "idem-1"
	mem := memory.New(memory.WithCommitHook(s.Save))
	u := &models.User{Email: "ana@example.com", Name: "Ana", PasswordHash: "hash", GoogleID: &gid, FCMToken: "tok"}
	if err := mem.Users().Create(ctx, u); err != nil {
		t.Fatal(err)
	}
	if err := mem.Redemptions().Create(ctx, &models.Redemption{UserID: u.ID, Code: "SX-ABCD1234", IdempotencyKey: &key}); err != nil {
		t.Fatal(err)
	}
	if err := mem.Settings().Set(ctx, "points.checkin", "75"); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	d, err := reopened.Load(ctx, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(d.Users) != 1 {
		t.Fatalf("users = %d, want 1", len(d.Users))
	}
	got := d.Users[0]
	if got.PasswordHash != "hash" || got.GoogleID == nil || *got.GoogleID != gid || got.FCMToken != "tok" {
		t.Errorf("credential fields not persisted: %+v", got)
	}
	if len(d.Redemptions) != 1 || d.Redemptions[0].IdempotencyKey == nil || *d.Redemptions[0].IdempotencyKey != key {
		t.Errorf("redemption idempotency key not persisted: %+v", d.Redemptions)
	}
	if d.Settings["points.checkin"] != "75" {
		t.Errorf("settings = %v", d.Settings)
	}
}

func TestLoadCorruptKey(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)
	if _, err := s.sqlDB.Exec(`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, 0)`, KeyCheckIns, "{not json"); err != nil {
		t.Fatal(err)
	}

	_, err := s.Load(ctx, false)
	var corrupt *CorruptStateError
	if !errors.As(err, &corrupt) {
		t.Fatalf("Load err = %v, want *CorruptStateError", err)
	}
	if corrupt.Key != KeyCheckIns {
		t.Errorf("Key = %q, want %q", corrupt.Key, KeyCheckIns)
	}

	d, err := s.Load(ctx, true)
	if err != nil {
		t.Fatalf("Load with reset: %v", err)
	}
	if len(d.CheckIns) != 0 {
		t.Errorf("checkins = %d after reset", len(d.CheckIns))
	}
	if _, err := s.Load(ctx, false); err != nil {
		t.Errorf("corrupt key still present after reset: %v", err)
	}
}

func TestLoadEmpty(t *testing.T) {
	s, _ := openTemp(t)
	d, err := s.Load(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if d.Settings == nil || len(d.Users) != 0 {
		t.Errorf("unexpected empty state: %+v", d)
	}
}
