// Package backup implements bulk JSON export and restore of the local
// store: every table's rows exactly as stored, timestamps included, plus
// the pending tombstone log.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/invoicepro/invoicepro/internal/model"
	"github.com/invoicepro/invoicepro/internal/store"
)

// Version is the backup document format version.
const Version = 1

// Document is the backup file layout.
type Document struct {
	Version    int                          `json:"version"`
	ExportedAt time.Time                    `json:"exportedAt"`
	Data       map[string][]json.RawMessage `json:"data"`
	Deletes    []model.Tombstone            `json:"deletes,omitempty"`
}

// Options configures Import.
type Options struct {
	// Replace clears each table before loading. The default merges:
	// rows load over existing data and same-id rows are overwritten.
	Replace bool
}

// Export writes a backup document for the whole store.
func Export(ctx context.Context, st *store.Store, w io.Writer) error {
	doc := Document{
		Version:    Version,
		ExportedAt: time.Now().UTC(),
		Data:       make(map[string][]json.RawMessage, len(model.AllTables)),
	}

	for _, table := range model.AllTables {
		rows, err := st.List(ctx, table)
		if err != nil {
			return err
		}
		if rows == nil {
			rows = []json.RawMessage{}
		}
		doc.Data[string(table)] = rows
	}

	tombstones, err := st.ListTombstones(ctx)
	if err != nil {
		return err
	}
	doc.Deletes = tombstones

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// Import restores a backup document. The whole document is parsed and
// decoded before any write happens, so a malformed or truncated file fails
// fast and leaves existing data untouched.
func Import(ctx context.Context, st *store.Store, r io.Reader, opts Options) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("malformed backup file: %w", err)
	}
	if doc.Version != Version {
		return fmt.Errorf("unsupported backup version %d", doc.Version)
	}

	// Decode everything up front; nothing destructive has happened yet.
	decoded := make(map[model.Table][]model.Record, len(doc.Data))
	for name, raws := range doc.Data {
		table, err := model.ParseTable(name)
		if err != nil {
			return fmt.Errorf("malformed backup file: %w", err)
		}
		recs := make([]model.Record, 0, len(raws))
		for _, raw := range raws {
			rec, err := model.Decode(table, raw)
			if err != nil {
				return fmt.Errorf("malformed backup file: %w", err)
			}
			if rec.RecordID() == "" {
				return fmt.Errorf("malformed backup file: %s row without id", table)
			}
			recs = append(recs, rec)
		}
		decoded[table] = recs
	}

	if opts.Replace {
		for _, table := range model.AllTables {
			if err := st.Clear(ctx, table); err != nil {
				return err
			}
		}
		if err := st.ClearTombstones(ctx); err != nil {
			return err
		}
	}

	for _, table := range model.AllTables {
		recs := decoded[table]
		if len(recs) == 0 {
			continue
		}
		if err := st.BulkPut(ctx, table, recs); err != nil {
			return err
		}
	}

	// Merge mode unions the document's tombstones over the existing log:
	// a pending local delete must survive the import or the record would
	// resurrect from the remote on the next pull.
	if len(doc.Deletes) > 0 {
		if err := st.PutTombstones(ctx, doc.Deletes); err != nil {
			return err
		}
	}
	return nil
}
