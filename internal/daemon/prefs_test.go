package daemon

import (
	"context"
	"testing"
	"time"
)

// TestLoadPrefs_Defaults tests the values used before anything is saved
func TestLoadPrefs_Defaults(t *testing.T) {
	prefs, err := LoadPrefs(context.Background(), newFakeMeta())
	if err != nil {
		t.Fatalf("LoadPrefs() failed: %v", err)
	}
	if !prefs.AutoSyncEnabled {
		t.Error("auto sync disabled by default")
	}
	if prefs.SyncInterval != DefaultSyncInterval {
		t.Errorf("interval = %v, want %v", prefs.SyncInterval, DefaultSyncInterval)
	}
}

// TestLoadPrefs_FloorsInterval tests that stored intervals below the minimum
// are clamped
func TestLoadPrefs_FloorsInterval(t *testing.T) {
	meta := newFakeMeta()
	ctx := context.Background()

	if err := meta.SetMeta(ctx, "sync:interval", "5000"); err != nil {
		t.Fatalf("SetMeta() failed: %v", err)
	}

	prefs, err := LoadPrefs(ctx, meta)
	if err != nil {
		t.Fatalf("LoadPrefs() failed: %v", err)
	}
	if prefs.SyncInterval != MinSyncInterval {
		t.Errorf("interval = %v, want floor %v", prefs.SyncInterval, MinSyncInterval)
	}
}

// TestPrefs_RoundTrip tests save then load
func TestPrefs_RoundTrip(t *testing.T) {
	meta := newFakeMeta()
	ctx := context.Background()

	want := Prefs{AutoSyncEnabled: false, SyncInterval: 10 * time.Minute}
	if err := SavePrefs(ctx, meta, want); err != nil {
		t.Fatalf("SavePrefs() failed: %v", err)
	}

	got, err := LoadPrefs(ctx, meta)
	if err != nil {
		t.Fatalf("LoadPrefs() failed: %v", err)
	}
	if got != want {
		t.Errorf("prefs = %+v, want %+v", got, want)
	}
}

// TestLoadPrefs_CorruptInterval tests that a garbage interval value errors
func TestLoadPrefs_CorruptInterval(t *testing.T) {
	meta := newFakeMeta()
	ctx := context.Background()

	if err := meta.SetMeta(ctx, "sync:interval", "soon"); err != nil {
		t.Fatalf("SetMeta() failed: %v", err)
	}

	if _, err := LoadPrefs(ctx, meta); err == nil {
		t.Error("LoadPrefs() with corrupt interval succeeded")
	}
}
