package remote

import (
	"time"

	"github.com/invoicepro/invoicepro/internal/model"
)

// Row is one remote table row. The concrete type is determined by the
// table it belongs to; RowTable ties the two together so implementations
// can reject mismatched writes.
//
// Remote rows use snake_case field names and carry the owning identity in
// UserID. Calendar dates (invoice/purchase/payment date and due date) are
// day-precision strings; the mapping layer documents that truncation.
type Row interface {
	RowID() string
	RowTable() model.Table
	RowUpdatedAt() time.Time
}

// Base holds the columns shared by every remote table.
type Base struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b Base) RowID() string           { return b.ID }
func (b Base) RowUpdatedAt() time.Time { return b.UpdatedAt }

// CustomerRow is a row in the remote customers table.
type CustomerRow struct {
	Base
	Name            string `json:"name"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	BillingAddress  []byte `json:"billing_address,omitempty"`
	ShippingAddress []byte `json:"shipping_address,omitempty"`
	TaxID           string `json:"tax_id,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

func (CustomerRow) RowTable() model.Table { return model.TableCustomers }

// ItemRow is a row in the remote items table.
type ItemRow struct {
	Base
	SKU           string  `json:"sku,omitempty"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	StockQty      float64 `json:"stock_qty"`
	UnitPrice     float64 `json:"unit_price"`
	PurchasePrice float64 `json:"purchase_price,omitempty"`
	TaxRate       float64 `json:"tax_rate,omitempty"`
	Category      string  `json:"category,omitempty"`
}

func (ItemRow) RowTable() model.Table { return model.TableItems }

// InvoiceRow is a row in the remote invoices table. Date and DueDate are
// day-precision YYYY-MM-DD strings; Lines is the serialized line array.
type InvoiceRow struct {
	Base
	Number        string  `json:"number"`
	CustomerID    string  `json:"customer_id,omitempty"`
	CustomerName  string  `json:"customer_name,omitempty"`
	CustomerTaxID string  `json:"customer_tax_id,omitempty"`
	Date          string  `json:"date,omitempty"`
	DueDate       string  `json:"due_date,omitempty"`
	Status        string  `json:"status"`
	Lines         []byte  `json:"lines"`
	Subtotal      float64 `json:"subtotal"`
	TaxTotal      float64 `json:"tax_total"`
	Discount      float64 `json:"discount"`
	Total         float64 `json:"total"`
	Notes         string  `json:"notes,omitempty"`
}

func (InvoiceRow) RowTable() model.Table { return model.TableInvoices }

// PurchaseRow is a row in the remote purchases table.
type PurchaseRow struct {
	Base
	Vendor   string  `json:"vendor"`
	Date     string  `json:"date,omitempty"`
	DueDate  string  `json:"due_date,omitempty"`
	Category string  `json:"category,omitempty"`
	Lines    []byte  `json:"lines"`
	Total    float64 `json:"total"`
	Status   string  `json:"status"`
	Notes    string  `json:"notes,omitempty"`
}

func (PurchaseRow) RowTable() model.Table { return model.TablePurchases }

// PaymentRow is a row in the remote payments table.
type PaymentRow struct {
	Base
	Date       string  `json:"date,omitempty"`
	Type       string  `json:"type"`
	Amount     float64 `json:"amount"`
	Method     string  `json:"method,omitempty"`
	InvoiceID  string  `json:"invoice_id,omitempty"`
	PurchaseID string  `json:"purchase_id,omitempty"`
}

func (PaymentRow) RowTable() model.Table { return model.TablePayments }
