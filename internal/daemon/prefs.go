package daemon

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Meta keys for the persisted sync preferences.
const (
	prefAutoKey     = "sync:auto"
	prefIntervalKey = "sync:interval"
)

// MinSyncInterval is the floor for the background sync interval.
const MinSyncInterval = time.Minute

// DefaultSyncInterval is used until the user configures one.
const DefaultSyncInterval = 2 * time.Minute

// Prefs are the user-configurable sync preferences. They persist in the
// local store's meta table and survive application restarts.
type Prefs struct {
	// AutoSyncEnabled gates the background interval trigger. Sign-in and
	// connectivity-regain syncs run regardless.
	AutoSyncEnabled bool

	// SyncInterval is the background timer period, floored at
	// MinSyncInterval.
	SyncInterval time.Duration
}

// MetaStore is the key-value persistence port behind preferences.
// *store.Store satisfies it.
type MetaStore interface {
	GetMeta(ctx context.Context, key string) (string, bool, error)
	SetMeta(ctx context.Context, key, value string) error
}

// LoadPrefs reads preferences, applying defaults for anything unset.
func LoadPrefs(ctx context.Context, meta MetaStore) (Prefs, error) {
	prefs := Prefs{AutoSyncEnabled: true, SyncInterval: DefaultSyncInterval}

	if v, ok, err := meta.GetMeta(ctx, prefAutoKey); err != nil {
		return prefs, err
	} else if ok {
		prefs.AutoSyncEnabled = v == "true"
	}

	if v, ok, err := meta.GetMeta(ctx, prefIntervalKey); err != nil {
		return prefs, err
	} else if ok {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return prefs, fmt.Errorf("corrupt sync interval preference: %w", err)
		}
		prefs.SyncInterval = time.Duration(ms) * time.Millisecond
	}

	if prefs.SyncInterval < MinSyncInterval {
		prefs.SyncInterval = MinSyncInterval
	}
	return prefs, nil
}

// SavePrefs persists preferences through the meta port.
func SavePrefs(ctx context.Context, meta MetaStore, prefs Prefs) error {
	if err := meta.SetMeta(ctx, prefAutoKey, strconv.FormatBool(prefs.AutoSyncEnabled)); err != nil {
		return err
	}
	ms := prefs.SyncInterval.Milliseconds()
	return meta.SetMeta(ctx, prefIntervalKey, strconv.FormatInt(ms, 10))
}
