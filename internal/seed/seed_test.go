package seed

import (
	"context"
	"path/filepath"
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

// TestDemo_Counts tests that the requested record counts are created
func TestDemo_Counts(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	counts := Counts{Items: 5, Customers: 4, Purchases: 3, Invoices: 6}
	if err := Demo(ctx, st, counts); err != nil {
		t.Fatalf("Demo() failed: %v", err)
	}

	for table, want := range map[model.Table]int{
		model.TableItems:     counts.Items,
		model.TableCustomers: counts.Customers,
		model.TablePurchases: counts.Purchases,
		model.TableInvoices:  counts.Invoices,
	} {
		rows, err := st.List(ctx, table)
		if err != nil {
			t.Fatalf("List(%s) failed: %v", table, err)
		}
		if len(rows) != want {
			t.Errorf("%s count = %d, want %d", table, len(rows), want)
		}
	}
}

// TestDemo_PaymentsForPaidDocuments tests that every paid invoice and
// purchase got a settling payment
func TestDemo_PaymentsForPaidDocuments(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := Demo(ctx, st, DefaultCounts()); err != nil {
		t.Fatalf("Demo() failed: %v", err)
	}

	paid := make(map[string]bool)
	invoices, err := st.ListRecords(ctx, model.TableInvoices)
	if err != nil {
		t.Fatalf("ListRecords(invoices) failed: %v", err)
	}
	for _, rec := range invoices {
		if inv := rec.(*model.Invoice); inv.Status == model.InvoicePaid {
			paid["inv:"+inv.ID] = true
		}
	}
	purchases, err := st.ListRecords(ctx, model.TablePurchases)
	if err != nil {
		t.Fatalf("ListRecords(purchases) failed: %v", err)
	}
	for _, rec := range purchases {
		if p := rec.(*model.Purchase); p.Status == model.PurchasePaid {
			paid["pur:"+p.ID] = true
		}
	}

	payments, err := st.ListRecords(ctx, model.TablePayments)
	if err != nil {
		t.Fatalf("ListRecords(payments) failed: %v", err)
	}
	for _, rec := range payments {
		p := rec.(*model.Payment)
		if err := p.Validate(); err != nil {
			t.Errorf("seeded payment invalid: %v", err)
		}
		switch {
		case p.InvoiceID != "":
			delete(paid, "inv:"+p.InvoiceID)
		case p.PurchaseID != "":
			delete(paid, "pur:"+p.PurchaseID)
		}
	}
	if len(paid) != 0 {
		t.Errorf("%d paid documents without a payment", len(paid))
	}
}

// TestDemo_InvoiceNumbersConsumed tests that invoice numbers advance the
// settings counter
func TestDemo_InvoiceNumbersConsumed(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	counts := Counts{Items: 2, Customers: 2, Purchases: 0, Invoices: 4}
	if err := Demo(ctx, st, counts); err != nil {
		t.Fatalf("Demo() failed: %v", err)
	}

	settings, err := st.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() failed: %v", err)
	}
	if settings.InvoiceCounter != counts.Invoices {
		t.Errorf("invoiceCounter = %d, want %d", settings.InvoiceCounter, counts.Invoices)
	}

	seen := make(map[string]bool)
	invoices, err := st.ListRecords(ctx, model.TableInvoices)
	if err != nil {
		t.Fatalf("ListRecords() failed: %v", err)
	}
	for _, rec := range invoices {
		number := rec.(*model.Invoice).Number
		if seen[number] {
			t.Errorf("duplicate invoice number %q", number)
		}
		seen[number] = true
	}
}

// TestDemo_KeepsConfiguredCompany tests that an existing company profile is
// not overwritten
func TestDemo_KeepsConfiguredCompany(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	settings, err := st.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() failed: %v", err)
	}
	settings.CompanyName = "Real Co"
	if _, err := st.Upsert(ctx, model.TableSettings, settings); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	if err := Demo(ctx, st, Counts{Items: 1, Customers: 1}); err != nil {
		t.Fatalf("Demo() failed: %v", err)
	}

	settings, err = st.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() failed: %v", err)
	}
	if settings.CompanyName != "Real Co" {
		t.Errorf("companyName = %q, want Real Co", settings.CompanyName)
	}
}
