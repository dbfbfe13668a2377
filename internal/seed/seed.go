// Package seed populates a store with plausible demo data. It appends to
// whatever is already there; user data is never cleared.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/invoicepro/invoicepro/internal/model"
	"github.com/invoicepro/invoicepro/internal/store"
)

var (
	companies = []string{
		"Acme Co", "Globex", "Initech", "Umbrella", "Soylent", "Wonka",
		"Stark", "Wayne", "Hooli", "Pied Piper", "Aperture", "Gringotts",
		"Cyberdyne", "Oscorp", "Vandelay", "Massive Dynamic", "Tyrell",
		"Dinoco", "Babel", "Vehement",
	}
	firstNames = []string{"Alex", "Taylor", "Jordan", "Riley", "Charlie", "Jamie", "Sam", "Morgan", "Drew", "Avery"}
	lastNames  = []string{"Smith", "Johnson", "Lee", "Patel", "Garcia", "Brown", "Davis", "Miller", "Wilson", "Anderson"}
	suffixes   = []string{"LLC", "Inc", "Ltd", "GmbH", "SARL"}
	categories = []string{"Hardware", "Software", "Services", "Accessories", "Office", "Maintenance"}
	taxRates   = []float64{0, 5, 12, 18}
	discounts  = []float64{0, 0, 0, 5, 10}
)

// Counts controls how many records Demo creates.
type Counts struct {
	Items     int
	Customers int
	Purchases int
	Invoices  int
}

// DefaultCounts matches the stock demo dataset.
func DefaultCounts() Counts {
	return Counts{Items: 20, Customers: 20, Purchases: 20, Invoices: 30}
}

// Demo writes a demo dataset: a company profile if none is configured,
// items, customers, purchases and invoices, with payments recorded for
// everything already marked paid.
func Demo(ctx context.Context, st *store.Store, counts Counts) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if err := seedSettings(ctx, st); err != nil {
		return err
	}

	items, err := seedItems(ctx, st, rng, counts.Items)
	if err != nil {
		return err
	}
	customers, err := seedCustomers(ctx, st, rng, counts.Customers)
	if err != nil {
		return err
	}
	if err := seedPurchases(ctx, st, rng, counts.Purchases); err != nil {
		return err
	}
	return seedInvoices(ctx, st, rng, counts.Invoices, customers, items)
}

func seedSettings(ctx context.Context, st *store.Store) error {
	settings, err := st.Settings(ctx)
	if err != nil {
		return err
	}
	if settings.CompanyName != "" {
		return nil
	}
	settings.CompanyName = "Demo Labs LLC"
	settings.Address = "1 Infinite Loop, Cupertino, CA 95014"
	settings.TaxID = "DEMO-TAX-12345"
	settings.ContactName = "Ava Stone"
	settings.ContactEmail = "ava@demolabs.test"
	settings.ContactPhone = "+1 (555) 010-2000"
	settings.Website = "https://demo.example"
	_, err = st.Upsert(ctx, model.TableSettings, settings)
	return err
}

func seedItems(ctx context.Context, st *store.Store, rng *rand.Rand, n int) ([]*model.Item, error) {
	items := make([]*model.Item, 0, n)
	for i := 0; i < n; i++ {
		purchasePrice := float64(between(rng, 5, 80))
		item := &model.Item{
			SKU:           fmt.Sprintf("SKU-%d", between(rng, 1000, 9999)),
			Name:          fmt.Sprintf("%s %d", pick(rng, categories), i+1),
			Description:   "Demo item",
			StockQty:      float64(between(rng, 5, 100)),
			UnitPrice:     purchasePrice + float64(between(rng, 10, 100)),
			PurchasePrice: purchasePrice,
			TaxRate:       pick(rng, taxRates),
			Category:      pick(rng, categories),
		}
		saved, err := st.Upsert(ctx, model.TableItems, item)
		if err != nil {
			return nil, err
		}
		items = append(items, saved.(*model.Item))
	}
	return items, nil
}

func seedCustomers(ctx context.Context, st *store.Store, rng *rand.Rand, n int) ([]*model.Customer, error) {
	customers := make([]*model.Customer, 0, n)
	for i := 0; i < n; i++ {
		email := fmt.Sprintf("%s.%s@example.com",
			strings.ToLower(pick(rng, firstNames)), strings.ToLower(pick(rng, lastNames)))
		customer := &model.Customer{
			Name:            pick(rng, companies) + " " + pick(rng, suffixes),
			Email:           email,
			Phone:           fmt.Sprintf("+1-555-%d-%d", between(rng, 100, 999), between(rng, 1000, 9999)),
			TaxID:           fmt.Sprintf("TIN%d", between(rng, 100000, 999999)),
			BillingAddress:  &model.Address{Line1: fmt.Sprintf("%d Market St", between(rng, 100, 999))},
			ShippingAddress: &model.Address{Line1: fmt.Sprintf("%d Market St", between(rng, 100, 999))},
		}
		saved, err := st.Upsert(ctx, model.TableCustomers, customer)
		if err != nil {
			return nil, err
		}
		customers = append(customers, saved.(*model.Customer))
	}
	return customers, nil
}

func seedPurchases(ctx context.Context, st *store.Store, rng *rand.Rand, n int) error {
	for i := 0; i < n; i++ {
		lines := make([]model.PurchaseLine, between(rng, 1, 3))
		total := 0.0
		for j := range lines {
			lines[j] = model.PurchaseLine{
				Description: fmt.Sprintf("Expense %d", between(rng, 1, 999)),
				Amount:      float64(between(rng, 20, 300)),
			}
			total += lines[j].Amount
		}

		date := daysAgo(rng, 180)
		due := date.AddDate(0, 0, between(rng, 7, 30))
		status := pick(rng, []string{model.PurchaseUnpaid, model.PurchasePaid})

		purchase := &model.Purchase{
			Vendor:   pick(rng, companies),
			Date:     date,
			DueDate:  &due,
			Category: pick(rng, categories),
			Lines:    lines,
			Total:    total,
			Status:   status,
		}
		saved, err := st.Upsert(ctx, model.TablePurchases, purchase)
		if err != nil {
			return err
		}
		if status == model.PurchasePaid {
			payment := &model.Payment{
				Date:       time.Now().UTC(),
				Type:       model.PaymentOut,
				Amount:     total,
				Method:     "bank",
				PurchaseID: saved.RecordID(),
			}
			if _, err := st.Upsert(ctx, model.TablePayments, payment); err != nil {
				return err
			}
		}
	}
	return nil
}

func seedInvoices(ctx context.Context, st *store.Store, rng *rand.Rand, n int, customers []*model.Customer, items []*model.Item) error {
	if len(customers) == 0 || len(items) == 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		customer := customers[rng.Intn(len(customers))]

		lines := make([]model.InvoiceLine, between(rng, 1, 4))
		subtotal, taxTotal := 0.0, 0.0
		for j := range lines {
			item := items[rng.Intn(len(items))]
			qty := float64(between(rng, 1, 5))
			lines[j] = model.InvoiceLine{
				ItemID:      item.ID,
				Description: item.Name,
				Qty:         qty,
				UnitPrice:   item.UnitPrice,
				TaxRate:     item.TaxRate,
			}
			subtotal += qty * item.UnitPrice
			taxTotal += qty * item.UnitPrice * item.TaxRate / 100
		}
		discount := pick(rng, discounts)
		total := subtotal + taxTotal - discount
		if total < 0 {
			total = 0
		}

		number, err := st.NextInvoiceNumber(ctx)
		if err != nil {
			return err
		}

		date := daysAgo(rng, 180)
		status := pick(rng, []string{model.InvoiceDraft, model.InvoiceSent, model.InvoicePaid})
		invoice := &model.Invoice{
			Number:        number,
			CustomerID:    customer.ID,
			CustomerName:  customer.Name,
			CustomerTaxID: customer.TaxID,
			Date:          date,
			DueDate:       date.AddDate(0, 0, between(rng, 7, 30)),
			Status:        status,
			Lines:         lines,
			Subtotal:      subtotal,
			TaxTotal:      taxTotal,
			Discount:      discount,
			Total:         total,
			Notes:         "Demo invoice",
		}
		saved, err := st.Upsert(ctx, model.TableInvoices, invoice)
		if err != nil {
			return err
		}
		if status == model.InvoicePaid {
			payment := &model.Payment{
				Date:      time.Now().UTC(),
				Type:      model.PaymentIn,
				Amount:    total,
				Method:    "bank",
				InvoiceID: saved.RecordID(),
			}
			if _, err := st.Upsert(ctx, model.TablePayments, payment); err != nil {
				return err
			}
		}
	}
	return nil
}

func between(rng *rand.Rand, min, max int) int {
	return min + rng.Intn(max-min+1)
}

func pick[T any](rng *rand.Rand, options []T) T {
	return options[rng.Intn(len(options))]
}

func daysAgo(rng *rand.Rand, max int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -between(rng, 0, max))
}
