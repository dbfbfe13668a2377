package sync

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/invoicepro/invoicepro/internal/model"
	"github.com/invoicepro/invoicepro/internal/remote"
)

// The mapping layer translates between the local record shape (flat
// camelCase JSON, full RFC 3339 timestamps) and the remote row shape
// (snake_case columns, owning identity, day-precision calendar dates).
//
// Calendar dates on invoices, purchases and payments truncate to
// YYYY-MM-DD on push and re-expand to midnight UTC on pull. This is a
// deliberate, lossy normalization: time-of-day on those dates does not
// survive a sync round trip. Everything else maps losslessly.

const dayFormat = "2006-01-02"

func toDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dayFormat)
}

func toDayPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return toDay(*t)
}

func fromDay(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dayFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func fromDayPtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	t := fromDay(s)
	return &t
}

func baseOf(rec model.Record, identity string) remote.Base {
	createdAt, updatedAt := rec.Stamps()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	return remote.Base{
		ID:        rec.RecordID(),
		UserID:    identity,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// toRemote translates a local record into the remote row for its table.
// The switch is exhaustive over the five syncable record kinds.
func toRemote(rec model.Record, identity string) (remote.Row, error) {
	switch r := rec.(type) {
	case *model.Customer:
		row := remote.CustomerRow{
			Base:  baseOf(r, identity),
			Name:  r.Name,
			Email: r.Email,
			Phone: r.Phone,
			TaxID: r.TaxID,
			Notes: r.Notes,
		}
		var err error
		if row.BillingAddress, err = marshalOpt(r.BillingAddress); err != nil {
			return nil, err
		}
		if row.ShippingAddress, err = marshalOpt(r.ShippingAddress); err != nil {
			return nil, err
		}
		return row, nil

	case *model.Item:
		return remote.ItemRow{
			Base:          baseOf(r, identity),
			SKU:           r.SKU,
			Name:          r.Name,
			Description:   r.Description,
			StockQty:      r.StockQty,
			UnitPrice:     r.UnitPrice,
			PurchasePrice: r.PurchasePrice,
			TaxRate:       r.TaxRate,
			Category:      r.Category,
		}, nil

	case *model.Invoice:
		lines, err := json.Marshal(r.Lines)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal invoice lines: %w", err)
		}
		return remote.InvoiceRow{
			Base:          baseOf(r, identity),
			Number:        r.Number,
			CustomerID:    r.CustomerID,
			CustomerName:  r.CustomerName,
			CustomerTaxID: r.CustomerTaxID,
			Date:          toDay(r.Date),
			DueDate:       toDay(r.DueDate),
			Status:        r.Status,
			Lines:         lines,
			Subtotal:      r.Subtotal,
			TaxTotal:      r.TaxTotal,
			Discount:      r.Discount,
			Total:         r.Total,
			Notes:         r.Notes,
		}, nil

	case *model.Purchase:
		lines, err := json.Marshal(r.Lines)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal purchase lines: %w", err)
		}
		return remote.PurchaseRow{
			Base:     baseOf(r, identity),
			Vendor:   r.Vendor,
			Date:     toDay(r.Date),
			DueDate:  toDayPtr(r.DueDate),
			Category: r.Category,
			Lines:    lines,
			Total:    r.Total,
			Status:   r.Status,
			Notes:    r.Notes,
		}, nil

	case *model.Payment:
		return remote.PaymentRow{
			Base:       baseOf(r, identity),
			Date:       toDay(r.Date),
			Type:       r.Type,
			Amount:     r.Amount,
			Method:     r.Method,
			InvoiceID:  r.InvoiceID,
			PurchaseID: r.PurchaseID,
		}, nil
	}
	return nil, fmt.Errorf("record type %T does not sync", rec)
}

// fromRemote translates a remote row back into its local record shape.
func fromRemote(row remote.Row) (model.Record, error) {
	switch r := row.(type) {
	case remote.CustomerRow:
		rec := &model.Customer{
			Meta:  metaOf(r.Base),
			Name:  r.Name,
			Email: r.Email,
			Phone: r.Phone,
			TaxID: r.TaxID,
			Notes: r.Notes,
		}
		var err error
		if rec.BillingAddress, err = unmarshalAddr(r.BillingAddress); err != nil {
			return nil, err
		}
		if rec.ShippingAddress, err = unmarshalAddr(r.ShippingAddress); err != nil {
			return nil, err
		}
		return rec, nil

	case remote.ItemRow:
		return &model.Item{
			Meta:          metaOf(r.Base),
			SKU:           r.SKU,
			Name:          r.Name,
			Description:   r.Description,
			StockQty:      r.StockQty,
			UnitPrice:     r.UnitPrice,
			PurchasePrice: r.PurchasePrice,
			TaxRate:       r.TaxRate,
			Category:      r.Category,
		}, nil

	case remote.InvoiceRow:
		rec := &model.Invoice{
			Meta:          metaOf(r.Base),
			Number:        r.Number,
			CustomerID:    r.CustomerID,
			CustomerName:  r.CustomerName,
			CustomerTaxID: r.CustomerTaxID,
			Date:          fromDay(r.Date),
			DueDate:       fromDay(r.DueDate),
			Status:        r.Status,
			Subtotal:      r.Subtotal,
			TaxTotal:      r.TaxTotal,
			Discount:      r.Discount,
			Total:         r.Total,
			Notes:         r.Notes,
		}
		rec.Lines = []model.InvoiceLine{}
		if len(r.Lines) > 0 {
			if err := json.Unmarshal(r.Lines, &rec.Lines); err != nil {
				return nil, fmt.Errorf("failed to decode invoice lines: %w", err)
			}
		}
		return rec, nil

	case remote.PurchaseRow:
		rec := &model.Purchase{
			Meta:     metaOf(r.Base),
			Vendor:   r.Vendor,
			Date:     fromDay(r.Date),
			DueDate:  fromDayPtr(r.DueDate),
			Category: r.Category,
			Total:    r.Total,
			Status:   r.Status,
			Notes:    r.Notes,
		}
		rec.Lines = []model.PurchaseLine{}
		if len(r.Lines) > 0 {
			if err := json.Unmarshal(r.Lines, &rec.Lines); err != nil {
				return nil, fmt.Errorf("failed to decode purchase lines: %w", err)
			}
		}
		return rec, nil

	case remote.PaymentRow:
		return &model.Payment{
			Meta:       metaOf(r.Base),
			Date:       fromDay(r.Date),
			Type:       r.Type,
			Amount:     r.Amount,
			Method:     r.Method,
			InvoiceID:  r.InvoiceID,
			PurchaseID: r.PurchaseID,
		}, nil
	}
	return nil, fmt.Errorf("unknown remote row type %T", row)
}

func metaOf(b remote.Base) model.Meta {
	return model.Meta{
		ID:        b.ID,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func marshalOpt(a *model.Address) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal address: %w", err)
	}
	return data, nil
}

func unmarshalAddr(data []byte) (*model.Address, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var a model.Address
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode address: %w", err)
	}
	return &a, nil
}
