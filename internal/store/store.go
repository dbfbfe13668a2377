// Package store implements the persistent, transactional local database
// behind the invoicing app.
//
// The store is table-oriented and keyed by record id. It owns the record
// lifecycle: upserts assign ids and stamp createdAt/updatedAt, deletes
// append tombstones to an append-only log so the sync engine can propagate
// them to the remote store, and BulkPut writes rows exactly as given so
// pulled remote rows keep their timestamps.
//
// The database runs on embedded SQLite with WAL for concurrency support.
// Conflicting transactions are serialized by the engine, so the store is
// safe for concurrent logical callers; the sync engine's single-flight rule
// is the only application-level lock on top of it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/invoicepro/invoicepro/internal/bus"
	"github.com/invoicepro/invoicepro/internal/model"
)

// Store wraps the SQLite connection with the local-store contract.
type Store struct {
	conn *sql.DB
	path string
	bus  *bus.Bus
	now  func() time.Time
}

// Open creates or opens the database at the given path and prepares it for
// use: schema creation is idempotent, and a default settings row is seeded
// on first open. Subsequent opens never overwrite an existing settings row,
// they only backfill optional fields added by schema evolution.
//
// The notification bus may be nil when nothing listens for settings events.
// The caller MUST call Close() when done.
func Open(path string, notifier *bus.Bus) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{
		conn: conn,
		path: path,
		bus:  notifier,
		now:  time.Now,
	}

	if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := s.initSchema(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := s.seedSettings(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database connection after checkpointing the WAL.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.conn = nil
	return nil
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		tbl TEXT NOT NULL,
		id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (tbl, id)
	);

	-- Append-only deletion log consumed by the sync engine.
	CREATE TABLE IF NOT EXISTS tombstones (
		key TEXT PRIMARY KEY,
		tbl TEXT NOT NULL,
		record_id TEXT NOT NULL,
		deleted_at TEXT NOT NULL
	);

	-- Key-value side table for sync cursors and preferences.
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	-- List scans a whole table ordered by creation time.
	CREATE INDEX IF NOT EXISTS idx_records_created ON records(tbl, created_at);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// seedSettings creates the default settings row if absent, or patches
// missing optional fields on an existing one. Never destructive.
func (s *Store) seedSettings(ctx context.Context) error {
	raw, ok, err := s.Get(ctx, model.TableSettings, model.SettingsID)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := s.Upsert(ctx, model.TableSettings, model.DefaultSettings()); err != nil {
			return fmt.Errorf("failed to seed default settings: %w", err)
		}
		return nil
	}

	var settings model.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return fmt.Errorf("failed to decode settings row: %w", err)
	}
	if settings.PatchDefaults() {
		if _, err := s.Upsert(ctx, model.TableSettings, &settings); err != nil {
			return fmt.Errorf("failed to patch settings: %w", err)
		}
	}
	return nil
}

// List returns the raw JSON rows of a table.
func (s *Store) List(ctx context.Context, table model.Table) ([]json.RawMessage, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT data FROM records WHERE tbl = ? ORDER BY created_at ASC", string(table))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		out = append(out, json.RawMessage(data))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", table, err)
	}
	return out, nil
}

// ListRecords returns a table's rows decoded into their record type.
func (s *Store) ListRecords(ctx context.Context, table model.Table) ([]model.Record, error) {
	raws, err := s.List(ctx, table)
	if err != nil {
		return nil, err
	}

	recs := make([]model.Record, 0, len(raws))
	for _, raw := range raws {
		rec, err := model.Decode(table, raw)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Get returns the raw JSON row for an id, with ok=false when absent.
// A missing id is not an error.
func (s *Store) Get(ctx context.Context, table model.Table, id string) (json.RawMessage, bool, error) {
	var data []byte
	err := s.conn.QueryRowContext(ctx,
		"SELECT data FROM records WHERE tbl = ? AND id = ?", string(table), id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s/%s: %w", table, id, err)
	}
	return json.RawMessage(data), true, nil
}

// Upsert inserts or updates a record and returns the stored form.
//
// A record without an id gets a generated one, except in the settings table
// whose singleton id is fixed. CreatedAt is set once at first insert and
// preserved on updates; UpdatedAt is refreshed on every write.
func (s *Store) Upsert(ctx context.Context, table model.Table, rec model.Record) (model.Record, error) {
	if table == model.TableSettings {
		if id := rec.RecordID(); id != "" && id != model.SettingsID {
			return nil, &model.ValidationError{Field: "id", Reason: "settings id is fixed"}
		}
		rec.SetRecordID(model.SettingsID)
	} else if rec.RecordID() == "" {
		rec.SetRecordID(uuid.NewString())
	}

	now := s.now().UTC()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Preserve the original createdAt if the row already exists.
	createdAt := now
	var existing string
	err = tx.QueryRowContext(ctx,
		"SELECT created_at FROM records WHERE tbl = ? AND id = ?",
		string(table), rec.RecordID()).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		if c, _ := rec.Stamps(); !c.IsZero() {
			createdAt = c
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read existing row: %w", err)
	default:
		if t, perr := time.Parse(time.RFC3339Nano, existing); perr == nil {
			createdAt = t
		}
	}

	rec.SetStamps(createdAt, now)

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s record: %w", table, err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO records (tbl, id, created_at, updated_at, data)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(tbl, id) DO UPDATE SET
		updated_at = excluded.updated_at,
		data = excluded.data
	`,
		string(table),
		rec.RecordID(),
		createdAt.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		string(data),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert %s/%s: %w", table, rec.RecordID(), err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit upsert: %w", err)
	}

	if table == model.TableSettings && s.bus != nil {
		s.bus.Publish(bus.TopicSettingsChanged, nil)
	}

	return rec, nil
}

// Remove deletes a row and appends a tombstone so the deletion propagates
// to the remote store. Removing a nonexistent id is a no-op; removing the
// same id twice does not duplicate the tombstone.
func (s *Store) Remove(ctx context.Context, table model.Table, id string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM records WHERE tbl = ? AND id = ?", string(table), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", table, id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}

	if affected > 0 {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO tombstones (key, tbl, record_id, deleted_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET deleted_at = excluded.deleted_at
		`,
			model.TombstoneKey(table, id),
			string(table),
			id,
			s.now().UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to append tombstone for %s/%s: %w", table, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// BulkPut writes rows exactly as given, preserving their timestamps.
// Used by sync pull and backup restore; re-stamping here would break the
// pull cursor arithmetic.
func (s *Store) BulkPut(ctx context.Context, table model.Table, recs []model.Record) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO records (tbl, id, created_at, updated_at, data)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(tbl, id) DO UPDATE SET
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		data = excluded.data
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare bulk put: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if rec.RecordID() == "" {
			return &model.ValidationError{Field: "id", Reason: "is required for bulk put"}
		}

		createdAt, updatedAt := rec.Stamps()
		if updatedAt.IsZero() {
			updatedAt = createdAt
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal %s record: %w", table, err)
		}

		_, err = stmt.ExecContext(ctx,
			string(table),
			rec.RecordID(),
			createdAt.Format(time.RFC3339Nano),
			updatedAt.Format(time.RFC3339Nano),
			string(data),
		)
		if err != nil {
			return fmt.Errorf("failed to bulk put %s/%s: %w", table, rec.RecordID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bulk put: %w", err)
	}

	if table == model.TableSettings && s.bus != nil {
		s.bus.Publish(bus.TopicSettingsChanged, nil)
	}
	return nil
}

// Clear removes every row of a table. Tombstones are not written; Clear is
// a bulk-load primitive for restore, not a user-facing delete.
func (s *Store) Clear(ctx context.Context, table model.Table) error {
	if _, err := s.conn.ExecContext(ctx,
		"DELETE FROM records WHERE tbl = ?", string(table)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	return nil
}

// ListTombstones returns the pending deletion log.
func (s *Store) ListTombstones(ctx context.Context) ([]model.Tombstone, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT key, tbl, record_id, deleted_at FROM tombstones ORDER BY deleted_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list tombstones: %w", err)
	}
	defer rows.Close()

	var out []model.Tombstone
	for rows.Next() {
		var t model.Tombstone
		var tbl, deletedAt string
		if err := rows.Scan(&t.Key, &tbl, &t.RecordID, &deletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tombstone: %w", err)
		}
		t.Table = model.Table(tbl)
		if ts, perr := time.Parse(time.RFC3339Nano, deletedAt); perr == nil {
			t.DeletedAt = ts
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tombstones: %w", err)
	}
	return out, nil
}

// ClearTombstones removes the given keys from the deletion log, or the
// whole log when no keys are given. The sync engine clears exactly the keys
// it propagated so tombstones appended mid-sync survive.
func (s *Store) ClearTombstones(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		if _, err := s.conn.ExecContext(ctx, "DELETE FROM tombstones"); err != nil {
			return fmt.Errorf("failed to clear tombstones: %w", err)
		}
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM tombstones WHERE key = ?", key); err != nil {
			return fmt.Errorf("failed to clear tombstone %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tombstone clear: %w", err)
	}
	return nil
}

// PutTombstones restores tombstone rows verbatim (backup import).
func (s *Store) PutTombstones(ctx context.Context, tombstones []model.Tombstone) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tombstones {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO tombstones (key, tbl, record_id, deleted_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET deleted_at = excluded.deleted_at
		`, t.Key, string(t.Table), t.RecordID, t.DeletedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("failed to restore tombstone %s: %w", t.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tombstone restore: %w", err)
	}
	return nil
}

// GetMeta reads a key from the meta side table; ok=false when absent.
// This is the key-value persistence port behind sync cursors and
// preferences.
func (s *Store) GetMeta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.conn.QueryRowContext(ctx,
		"SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get meta %s: %w", key, err)
	}
	return value, true, nil
}

// SetMeta writes a key to the meta side table.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.conn.ExecContext(ctx, `
	INSERT INTO meta (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set meta %s: %w", key, err)
	}
	return nil
}

// Settings returns the settings singleton.
func (s *Store) Settings(ctx context.Context) (*model.Settings, error) {
	raw, ok, err := s.Get(ctx, model.TableSettings, model.SettingsID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return model.DefaultSettings(), nil
	}

	var settings model.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &settings, nil
}
