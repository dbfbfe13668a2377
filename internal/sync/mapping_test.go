package sync

import (
	"testing"
	"time"

	"github.com/invoicepro/invoicepro/internal/model"
	"github.com/invoicepro/invoicepro/internal/remote"
)

// TestToRemote_TruncatesDates tests that calendar dates push as YYYY-MM-DD
func TestToRemote_TruncatesDates(t *testing.T) {
	inv := &model.Invoice{
		Number:     "INV-00001",
		CustomerID: "c-1",
		Date:       time.Date(2026, 3, 15, 14, 30, 45, 0, time.UTC),
		DueDate:    time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
		Status:     model.InvoiceSent,
	}
	inv.ID = "i-1"
	inv.CreatedAt = time.Now().UTC()
	inv.UpdatedAt = inv.CreatedAt

	row, err := toRemote(inv, "user-1")
	if err != nil {
		t.Fatalf("toRemote() failed: %v", err)
	}

	got := row.(remote.InvoiceRow)
	if got.Date != "2026-03-15" {
		t.Errorf("date = %q, want 2026-03-15", got.Date)
	}
	if got.DueDate != "2026-04-01" {
		t.Errorf("dueDate = %q, want 2026-04-01", got.DueDate)
	}
}

// TestRoundTrip_DateLosesTimeOfDay tests the documented lossy normalization:
// time-of-day on calendar dates does not survive a sync round trip
func TestRoundTrip_DateLosesTimeOfDay(t *testing.T) {
	noon := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	payment := &model.Payment{
		Date:      noon,
		Type:      model.PaymentIn,
		Amount:    100,
		InvoiceID: "i-1",
	}
	payment.ID = "p-1"
	payment.CreatedAt = noon
	payment.UpdatedAt = noon

	row, err := toRemote(payment, "user-1")
	if err != nil {
		t.Fatalf("toRemote() failed: %v", err)
	}
	back, err := fromRemote(row)
	if err != nil {
		t.Fatalf("fromRemote() failed: %v", err)
	}

	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if got := back.(*model.Payment).Date; !got.Equal(want) {
		t.Errorf("date after round trip = %v, want midnight %v", got, want)
	}

	// The record timestamps survive untouched.
	if !back.(*model.Payment).UpdatedAt.Equal(noon) {
		t.Errorf("updatedAt after round trip = %v, want %v", back.(*model.Payment).UpdatedAt, noon)
	}
}

// TestRoundTrip_CustomerAddresses tests address and nil-address mapping
func TestRoundTrip_CustomerAddresses(t *testing.T) {
	customer := &model.Customer{
		Name:           "Acme",
		BillingAddress: &model.Address{Line1: "1 Main St", City: "Springfield"},
	}
	customer.ID = "c-1"
	customer.CreatedAt = time.Now().UTC()
	customer.UpdatedAt = customer.CreatedAt

	row, err := toRemote(customer, "user-1")
	if err != nil {
		t.Fatalf("toRemote() failed: %v", err)
	}
	back, err := fromRemote(row)
	if err != nil {
		t.Fatalf("fromRemote() failed: %v", err)
	}

	got := back.(*model.Customer)
	if got.BillingAddress == nil || got.BillingAddress.Line1 != "1 Main St" {
		t.Errorf("billingAddress = %+v, want Line1=1 Main St", got.BillingAddress)
	}
	if got.ShippingAddress != nil {
		t.Errorf("shippingAddress = %+v, want nil", got.ShippingAddress)
	}
}

// TestRoundTrip_PurchaseOptionalDueDate tests nil and set due dates
func TestRoundTrip_PurchaseOptionalDueDate(t *testing.T) {
	stamp := time.Now().UTC()

	noDue := &model.Purchase{Vendor: "Globex", Status: model.PurchaseUnpaid, Lines: []model.PurchaseLine{}}
	noDue.ID = "p-1"
	noDue.SetStamps(stamp, stamp)

	row, err := toRemote(noDue, "user-1")
	if err != nil {
		t.Fatalf("toRemote() failed: %v", err)
	}
	if got := row.(remote.PurchaseRow).DueDate; got != "" {
		t.Errorf("dueDate = %q, want empty", got)
	}
	back, err := fromRemote(row)
	if err != nil {
		t.Fatalf("fromRemote() failed: %v", err)
	}
	if back.(*model.Purchase).DueDate != nil {
		t.Errorf("dueDate = %v, want nil", back.(*model.Purchase).DueDate)
	}

	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	withDue := &model.Purchase{Vendor: "Globex", Status: model.PurchaseUnpaid, DueDate: &due, Lines: []model.PurchaseLine{}}
	withDue.ID = "p-2"
	withDue.SetStamps(stamp, stamp)

	row, err = toRemote(withDue, "user-1")
	if err != nil {
		t.Fatalf("toRemote() failed: %v", err)
	}
	back, err = fromRemote(row)
	if err != nil {
		t.Fatalf("fromRemote() failed: %v", err)
	}
	got := back.(*model.Purchase).DueDate
	if got == nil || !got.Equal(due) {
		t.Errorf("dueDate = %v, want %v", got, due)
	}
}

// TestRoundTrip_InvoiceLines tests that line arrays survive the column mapping
func TestRoundTrip_InvoiceLines(t *testing.T) {
	stamp := time.Now().UTC()
	inv := &model.Invoice{
		Number:     "INV-00002",
		CustomerID: "c-1",
		Status:     model.InvoiceDraft,
		Lines: []model.InvoiceLine{
			{ItemID: "i-1", Description: "Widget", Qty: 2, UnitPrice: 10, TaxRate: 5},
			{Description: "Labor", Qty: 1, UnitPrice: 50},
		},
	}
	inv.ID = "inv-1"
	inv.SetStamps(stamp, stamp)

	row, err := toRemote(inv, "user-1")
	if err != nil {
		t.Fatalf("toRemote() failed: %v", err)
	}
	back, err := fromRemote(row)
	if err != nil {
		t.Fatalf("fromRemote() failed: %v", err)
	}

	lines := back.(*model.Invoice).Lines
	if len(lines) != 2 {
		t.Fatalf("line count = %d, want 2", len(lines))
	}
	if lines[0].ItemID != "i-1" || lines[0].Qty != 2 {
		t.Errorf("lines[0] = %+v", lines[0])
	}
	if lines[1].Description != "Labor" || lines[1].UnitPrice != 50 {
		t.Errorf("lines[1] = %+v", lines[1])
	}
}

// TestFromRemote_EmptyLinesDecode tests that a row with no stored lines
// yields an empty slice, not nil
func TestFromRemote_EmptyLinesDecode(t *testing.T) {
	stamp := time.Now().UTC()
	row := remote.InvoiceRow{
		Base:       remote.Base{ID: "inv-2", UserID: "user-1", CreatedAt: stamp, UpdatedAt: stamp},
		Number:     "INV-00003",
		CustomerID: "c-1",
		Date:       "2026-01-01",
		Status:     model.InvoiceDraft,
	}

	back, err := fromRemote(row)
	if err != nil {
		t.Fatalf("fromRemote() failed: %v", err)
	}
	if back.(*model.Invoice).Lines == nil {
		t.Error("lines = nil, want empty slice")
	}
}
