package model

import (
	"encoding/json"
	"testing"
	"time"
)

// TestParseTable_Known tests that every table name round-trips
func TestParseTable_Known(t *testing.T) {
	for _, table := range AllTables {
		got, err := ParseTable(string(table))
		if err != nil {
			t.Errorf("ParseTable(%q) failed: %v", table, err)
		}
		if got != table {
			t.Errorf("ParseTable(%q) = %q", table, got)
		}
	}

	if _, err := ParseTable("widgets"); err == nil {
		t.Error("ParseTable(widgets) succeeded, want error")
	}
}

// TestSyncable_ExcludesSettings tests that the settings table is local-only
func TestSyncable_ExcludesSettings(t *testing.T) {
	if Syncable(TableSettings) {
		t.Error("settings reported as syncable")
	}
	for _, table := range SyncTables {
		if !Syncable(table) {
			t.Errorf("%s reported as not syncable", table)
		}
	}
}

// TestDecode_RoundTrip tests decoding a stored row back into its type
func TestDecode_RoundTrip(t *testing.T) {
	customer := &Customer{Name: "Acme", Email: "acme@example.com"}
	customer.ID = "c-1"
	customer.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	raw, err := json.Marshal(customer)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	rec, err := Decode(TableCustomers, raw)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	got, ok := rec.(*Customer)
	if !ok {
		t.Fatalf("Decode() returned %T, want *Customer", rec)
	}
	if got.Name != "Acme" || got.ID != "c-1" {
		t.Errorf("decoded customer = %+v", got)
	}
}

// TestPaymentValidate_ExactlyOneTarget tests the invoice/purchase exclusivity
func TestPaymentValidate_ExactlyOneTarget(t *testing.T) {
	cases := []struct {
		name       string
		invoiceID  string
		purchaseID string
		wantErr    bool
	}{
		{"invoice only", "i-1", "", false},
		{"purchase only", "", "p-1", false},
		{"both", "i-1", "p-1", true},
		{"neither", "", "", true},
	}

	for _, tc := range cases {
		p := &Payment{Type: PaymentIn, Amount: 10, InvoiceID: tc.invoiceID, PurchaseID: tc.purchaseID}
		err := p.Validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: Validate() = %v, wantErr=%v", tc.name, err, tc.wantErr)
		}
	}
}

// TestInvoiceValidate_DueDate tests the due date ordering rule
func TestInvoiceValidate_DueDate(t *testing.T) {
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	inv := &Invoice{Number: "INV-1", CustomerID: "c-1", Status: InvoiceDraft,
		Date: date, DueDate: date.AddDate(0, 0, -1)}
	if err := inv.Validate(); err == nil {
		t.Error("due date before issue date passed validation")
	}

	inv.DueDate = date.AddDate(0, 0, 14)
	if err := inv.Validate(); err != nil {
		t.Errorf("valid invoice rejected: %v", err)
	}
}

// TestInvoiceValidate_Status tests the status whitelist
func TestInvoiceValidate_Status(t *testing.T) {
	inv := &Invoice{Number: "INV-1", CustomerID: "c-1", Status: "shipped"}
	if err := inv.Validate(); err == nil {
		t.Error("unknown status passed validation")
	}
}

// TestTombstoneKey_Format tests the table:id key shape
func TestTombstoneKey_Format(t *testing.T) {
	if got := TombstoneKey(TableItems, "abc"); got != "items:abc" {
		t.Errorf("TombstoneKey = %q, want items:abc", got)
	}
}

// TestNew_AllTables tests that every table has a constructible record
func TestNew_AllTables(t *testing.T) {
	for _, table := range AllTables {
		rec, err := New(table)
		if err != nil {
			t.Errorf("New(%s) failed: %v", table, err)
			continue
		}
		if rec == nil {
			t.Errorf("New(%s) returned nil", table)
		}
	}
}
