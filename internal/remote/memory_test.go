package remote

import (
	"context"
	"testing"
	"time"

	"github.com/invoicepro/invoicepro/internal/model"
)

func row(id, user string, updated time.Time) CustomerRow {
	return CustomerRow{
		Base: Base{ID: id, UserID: user, CreatedAt: updated, UpdatedAt: updated},
		Name: "Customer " + id,
	}
}

// TestMemory_UpsertRejectsForeignOwner tests ownership enforcement
func TestMemory_UpsertRejectsForeignOwner(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	stamp := time.Now().UTC()

	m.Seed("alice", row("c-1", "alice", stamp))

	err := m.Upsert(ctx, model.TableCustomers, []Row{row("c-1", "bob", stamp.Add(time.Hour))})
	if err != ErrNotOwned {
		t.Errorf("Upsert() error = %v, want ErrNotOwned", err)
	}
}

// TestMemory_DeleteScopedToIdentity tests that foreign deletes no-op
func TestMemory_DeleteScopedToIdentity(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Seed("alice", row("c-1", "alice", time.Now().UTC()))

	if err := m.Delete(ctx, "bob", model.TableCustomers, "c-1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, ok := m.Get(model.TableCustomers, "c-1"); !ok {
		t.Error("foreign delete removed the row")
	}

	if err := m.Delete(ctx, "alice", model.TableCustomers, "c-1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, ok := m.Get(model.TableCustomers, "c-1"); ok {
		t.Error("owner delete left the row")
	}
}

// TestMemory_ListSince tests the strictly-after filter and ordering
func TestMemory_ListSince(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	m.Seed("alice", row("c-1", "alice", base))
	m.Seed("alice", row("c-2", "alice", base.Add(2*time.Hour)))
	m.Seed("alice", row("c-3", "alice", base.Add(time.Hour)))
	m.Seed("bob", row("c-4", "bob", base.Add(3*time.Hour)))

	rows, err := m.ListSince(ctx, "alice", model.TableCustomers, base)
	if err != nil {
		t.Fatalf("ListSince() failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("row count = %d, want 2 (strictly after, own rows only)", len(rows))
	}
	if rows[0].RowID() != "c-3" || rows[1].RowID() != "c-2" {
		t.Errorf("order = %s, %s; want c-3, c-2", rows[0].RowID(), rows[1].RowID())
	}

	// Zero since returns everything.
	rows, err = m.ListSince(ctx, "alice", model.TableCustomers, time.Time{})
	if err != nil {
		t.Fatalf("ListSince() failed: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("row count = %d, want 3", len(rows))
	}
}

// TestMemory_Offline tests the simulated outage
func TestMemory_Offline(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.SetOnline(false)
	if err := m.Ping(ctx); err != ErrOffline {
		t.Errorf("Ping() = %v, want ErrOffline", err)
	}
	if _, err := m.ListSince(ctx, "alice", model.TableCustomers, time.Time{}); err != ErrOffline {
		t.Errorf("ListSince() = %v, want ErrOffline", err)
	}

	m.SetOnline(true)
	if err := m.Ping(ctx); err != nil {
		t.Errorf("Ping() after recovery = %v", err)
	}
}
