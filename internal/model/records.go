package model

import "time"

// Address is a free-form postal address attached to customers.
type Address struct {
	Line1   string `json:"line1,omitempty"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

// Customer is a billable party.
type Customer struct {
	Meta
	Name            string   `json:"name"`
	Email           string   `json:"email,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	BillingAddress  *Address `json:"billingAddress,omitempty"`
	ShippingAddress *Address `json:"shippingAddress,omitempty"`
	TaxID           string   `json:"taxId,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// Validate checks caller-level constraints before the record reaches the store.
func (c *Customer) Validate() error {
	if c.Name == "" {
		return invalid("name", "is required")
	}
	return nil
}

// Item is a sellable product or service.
type Item struct {
	Meta
	SKU           string  `json:"sku,omitempty"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	StockQty      float64 `json:"stockQty,omitempty"`
	UnitPrice     float64 `json:"unitPrice"`
	PurchasePrice float64 `json:"purchasePrice,omitempty"`
	TaxRate       float64 `json:"taxRate,omitempty"`
	Category      string  `json:"category,omitempty"`
}

func (i *Item) Validate() error {
	if i.Name == "" {
		return invalid("name", "is required")
	}
	if i.UnitPrice <= 0 {
		return invalid("unitPrice", "must be greater than zero")
	}
	if i.PurchasePrice < 0 {
		return invalid("purchasePrice", "must not be negative")
	}
	if i.StockQty < 0 {
		return invalid("stockQty", "must not be negative")
	}
	if i.TaxRate < 0 {
		return invalid("taxRate", "must not be negative")
	}
	return nil
}

// InvoiceLine is one ordered line on an invoice.
type InvoiceLine struct {
	ItemID      string  `json:"itemId,omitempty"`
	Description string  `json:"description"`
	Qty         float64 `json:"qty"`
	UnitPrice   float64 `json:"unitPrice"`
	TaxRate     float64 `json:"taxRate,omitempty"`
}

// InvoiceStatus values.
const (
	InvoiceDraft   = "draft"
	InvoiceSent    = "sent"
	InvoicePaid    = "paid"
	InvoiceOverdue = "overdue"
	InvoiceVoid    = "void"
)

// Invoice is a sales document. CustomerName and CustomerTaxID are snapshots
// taken at save time; they do not follow later edits to the customer record.
// Subtotal, TaxTotal and Total are computed when the invoice is saved, not
// recomputed lazily.
type Invoice struct {
	Meta
	Number        string        `json:"number"`
	CustomerID    string        `json:"customerId"`
	CustomerName  string        `json:"customerName,omitempty"`
	CustomerTaxID string        `json:"customerTaxId,omitempty"`
	Date          time.Time     `json:"date"`
	DueDate       time.Time     `json:"dueDate"`
	Status        string        `json:"status"`
	Lines         []InvoiceLine `json:"lines"`
	Subtotal      float64       `json:"subtotal"`
	TaxTotal      float64       `json:"taxTotal"`
	Discount      float64       `json:"discount"`
	Total         float64       `json:"total"`
	Notes         string        `json:"notes,omitempty"`
}

func (inv *Invoice) Validate() error {
	if inv.Number == "" {
		return invalid("number", "is required")
	}
	if inv.CustomerID == "" {
		return invalid("customerId", "is required")
	}
	if !inv.DueDate.IsZero() && inv.DueDate.Before(inv.Date) {
		return invalid("dueDate", "must not be earlier than the issue date")
	}
	switch inv.Status {
	case InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue, InvoiceVoid:
	default:
		return invalid("status", "must be one of draft, sent, paid, overdue, void")
	}
	return nil
}

// PurchaseLine is one (description, amount) expense line.
type PurchaseLine struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// PurchaseStatus values.
const (
	PurchaseUnpaid  = "unpaid"
	PurchasePartial = "partial"
	PurchasePaid    = "paid"
	PurchaseOverdue = "overdue"
)

// Purchase is a vendor expense document with a derived total.
type Purchase struct {
	Meta
	Vendor   string         `json:"vendor"`
	Date     time.Time      `json:"date"`
	DueDate  *time.Time     `json:"dueDate,omitempty"`
	Category string         `json:"category,omitempty"`
	Lines    []PurchaseLine `json:"lines"`
	Total    float64        `json:"total"`
	Status   string         `json:"status"`
	Notes    string         `json:"notes,omitempty"`
}

func (p *Purchase) Validate() error {
	if p.Vendor == "" {
		return invalid("vendor", "is required")
	}
	switch p.Status {
	case PurchaseUnpaid, PurchasePartial, PurchasePaid, PurchaseOverdue:
	default:
		return invalid("status", "must be one of unpaid, partial, paid, overdue")
	}
	return nil
}

// Payment direction values.
const (
	PaymentIn  = "in"
	PaymentOut = "out"
)

// Payment settles exactly one invoice or one purchase. Payments are created
// automatically when an invoice is marked paid, and manually in report flows.
type Payment struct {
	Meta
	Date       time.Time `json:"date"`
	Type       string    `json:"type"` // in, out
	Amount     float64   `json:"amount"`
	Method     string    `json:"method,omitempty"`
	InvoiceID  string    `json:"invoiceId,omitempty"`
	PurchaseID string    `json:"purchaseId,omitempty"`
}

func (p *Payment) Validate() error {
	if p.Type != PaymentIn && p.Type != PaymentOut {
		return invalid("type", "must be in or out")
	}
	if p.Amount <= 0 {
		return invalid("amount", "must be greater than zero")
	}
	if (p.InvoiceID == "") == (p.PurchaseID == "") {
		return invalid("invoiceId/purchaseId", "exactly one must be set")
	}
	return nil
}

// Tombstone records a local deletion until it has been propagated to the
// remote store. Its key is "<table>:<record id>".
type Tombstone struct {
	Key       string    `json:"key"`
	Table     Table     `json:"table"`
	RecordID  string    `json:"id"`
	DeletedAt time.Time `json:"deletedAt"`
}

// TombstoneKey builds the canonical tombstone key for a (table, id) pair.
func TombstoneKey(table Table, id string) string {
	return string(table) + ":" + id
}
