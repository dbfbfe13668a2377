package backup

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/invoicepro/invoicepro/internal/model"
	"github.com/invoicepro/invoicepro/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// TestExportImport_RoundTrip tests that a replace import reproduces the
// source database including pending deletes
func TestExportImport_RoundTrip(t *testing.T) {
	src := testStore(t)
	ctx := context.Background()

	saved, err := src.Upsert(ctx, model.TableCustomers, &model.Customer{Name: "Acme"})
	if err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	item, err := src.Upsert(ctx, model.TableItems, &model.Item{Name: "Widget", UnitPrice: 10})
	if err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if err := src.Remove(ctx, model.TableItems, item.RecordID()); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Export(ctx, src, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	dst := testStore(t)
	if err := Import(ctx, dst, &buf, Options{Replace: true}); err != nil {
		t.Fatalf("Import() failed: %v", err)
	}

	recs, err := dst.ListRecords(ctx, model.TableCustomers)
	if err != nil {
		t.Fatalf("ListRecords() failed: %v", err)
	}
	if len(recs) != 1 || recs[0].RecordID() != saved.RecordID() {
		t.Errorf("customers after import = %+v", recs)
	}

	// Timestamps restore exactly as exported.
	wantCreated, wantUpdated := saved.Stamps()
	gotCreated, gotUpdated := recs[0].Stamps()
	if !gotCreated.Equal(wantCreated) || !gotUpdated.Equal(wantUpdated) {
		t.Errorf("stamps = (%v, %v), want (%v, %v)", gotCreated, gotUpdated, wantCreated, wantUpdated)
	}

	tombstones, err := dst.ListTombstones(ctx)
	if err != nil {
		t.Fatalf("ListTombstones() failed: %v", err)
	}
	if len(tombstones) != 1 || tombstones[0].RecordID != item.RecordID() {
		t.Errorf("tombstones after import = %+v", tombstones)
	}
}

// TestImport_Replace tests that replace clears rows absent from the backup
func TestImport_Replace(t *testing.T) {
	src := testStore(t)
	ctx := context.Background()

	if _, err := src.Upsert(ctx, model.TableCustomers, &model.Customer{Name: "Keep"}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Export(ctx, src, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	dst := testStore(t)
	if _, err := dst.Upsert(ctx, model.TableCustomers, &model.Customer{Name: "Gone"}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	if err := Import(ctx, dst, &buf, Options{Replace: true}); err != nil {
		t.Fatalf("Import() failed: %v", err)
	}

	recs, err := dst.ListRecords(ctx, model.TableCustomers)
	if err != nil {
		t.Fatalf("ListRecords() failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("customer count = %d, want 1", len(recs))
	}
	if got := recs[0].(*model.Customer).Name; got != "Keep" {
		t.Errorf("surviving customer = %q, want Keep", got)
	}
}

// TestImport_Merge tests that the default mode keeps rows not in the backup
func TestImport_Merge(t *testing.T) {
	src := testStore(t)
	ctx := context.Background()

	if _, err := src.Upsert(ctx, model.TableCustomers, &model.Customer{Name: "FromBackup"}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Export(ctx, src, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	dst := testStore(t)
	if _, err := dst.Upsert(ctx, model.TableCustomers, &model.Customer{Name: "Existing"}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	if err := Import(ctx, dst, &buf, Options{}); err != nil {
		t.Fatalf("Import() failed: %v", err)
	}

	recs, err := dst.ListRecords(ctx, model.TableCustomers)
	if err != nil {
		t.Fatalf("ListRecords() failed: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("customer count = %d, want 2 (merge keeps both)", len(recs))
	}
}

// TestImport_MergeKeepsPendingTombstones tests that a merge import does not
// drop deletes queued locally but not yet synced
func TestImport_MergeKeepsPendingTombstones(t *testing.T) {
	src := testStore(t)
	ctx := context.Background()

	gone, err := src.Upsert(ctx, model.TableItems, &model.Item{Name: "Exported", UnitPrice: 3})
	if err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if err := src.Remove(ctx, model.TableItems, gone.RecordID()); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Export(ctx, src, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	// The destination has its own unsynced delete.
	dst := testStore(t)
	pending, err := dst.Upsert(ctx, model.TableCustomers, &model.Customer{Name: "Deleted Locally"})
	if err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if err := dst.Remove(ctx, model.TableCustomers, pending.RecordID()); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}

	if err := Import(ctx, dst, &buf, Options{}); err != nil {
		t.Fatalf("Import() failed: %v", err)
	}

	tombstones, err := dst.ListTombstones(ctx)
	if err != nil {
		t.Fatalf("ListTombstones() failed: %v", err)
	}
	keys := make(map[string]bool, len(tombstones))
	for _, ts := range tombstones {
		keys[ts.Key] = true
	}
	if !keys[model.TombstoneKey(model.TableCustomers, pending.RecordID())] {
		t.Error("pending local tombstone lost after merge import")
	}
	if !keys[model.TombstoneKey(model.TableItems, gone.RecordID())] {
		t.Error("backup tombstone missing after merge import")
	}
}

// TestImport_ReplaceDropsPendingTombstones tests that replace restores the
// deletion log exactly as exported
func TestImport_ReplaceDropsPendingTombstones(t *testing.T) {
	src := testStore(t)
	ctx := context.Background()

	var buf bytes.Buffer
	if err := Export(ctx, src, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	dst := testStore(t)
	pending, err := dst.Upsert(ctx, model.TableCustomers, &model.Customer{Name: "Deleted Locally"})
	if err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if err := dst.Remove(ctx, model.TableCustomers, pending.RecordID()); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}

	if err := Import(ctx, dst, &buf, Options{Replace: true}); err != nil {
		t.Fatalf("Import() failed: %v", err)
	}

	tombstones, err := dst.ListTombstones(ctx)
	if err != nil {
		t.Fatalf("ListTombstones() failed: %v", err)
	}
	if len(tombstones) != 0 {
		t.Errorf("tombstones after replace import = %+v, want none", tombstones)
	}
}

// TestImport_MalformedFailsFast tests that a truncated file changes nothing
func TestImport_MalformedFailsFast(t *testing.T) {
	src := testStore(t)
	ctx := context.Background()

	var buf bytes.Buffer
	if err := Export(ctx, src, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	truncated := buf.String()[:buf.Len()/2]

	dst := testStore(t)
	if _, err := dst.Upsert(ctx, model.TableCustomers, &model.Customer{Name: "Survivor"}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	err := Import(ctx, dst, strings.NewReader(truncated), Options{Replace: true})
	if err == nil {
		t.Fatal("Import() of truncated file succeeded")
	}

	recs, err := dst.ListRecords(ctx, model.TableCustomers)
	if err != nil {
		t.Fatalf("ListRecords() failed: %v", err)
	}
	if len(recs) != 1 || recs[0].(*model.Customer).Name != "Survivor" {
		t.Errorf("existing data damaged by failed import: %+v", recs)
	}
}

// TestImport_UnsupportedVersion tests the version gate
func TestImport_UnsupportedVersion(t *testing.T) {
	dst := testStore(t)

	doc := `{"version": 99, "exportedAt": "2026-01-01T00:00:00Z", "data": {}}`
	if err := Import(context.Background(), dst, strings.NewReader(doc), Options{}); err == nil {
		t.Fatal("Import() of unsupported version succeeded")
	}
}

// TestImport_UnknownTable tests that foreign table names are rejected
func TestImport_UnknownTable(t *testing.T) {
	dst := testStore(t)

	doc := `{"version": 1, "exportedAt": "2026-01-01T00:00:00Z", "data": {"widgets": []}}`
	if err := Import(context.Background(), dst, strings.NewReader(doc), Options{}); err == nil {
		t.Fatal("Import() with unknown table succeeded")
	}
}
