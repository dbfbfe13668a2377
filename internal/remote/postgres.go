package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicepro/invoicepro/internal/model"
)

// Postgres implements Store against a Postgres backend, one table per
// record kind. Ownership is enforced in SQL: every write predicates on
// user_id, and a conflicting upsert against a row owned by another
// identity affects zero rows and surfaces ErrNotOwned.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to the backend using a pgx connection string.
// The caller MUST call Close() when done.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping remote: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() { p.pool.Close() }

// Ping implements Store.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Delete implements Store. Rows not owned by the identity are invisible to
// the predicate, so foreign and missing ids both no-op.
func (p *Postgres) Delete(ctx context.Context, identity string, table model.Table, id string) error {
	if !model.Syncable(table) {
		return fmt.Errorf("table %s does not sync", table)
	}
	_, err := p.pool.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = $1 AND user_id = $2", table), id, identity)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", table, id, err)
	}
	return nil
}

// Upsert implements Store.
func (p *Postgres) Upsert(ctx context.Context, table model.Table, rows []Row) error {
	batch := &pgx.Batch{}
	for _, row := range rows {
		if row.RowTable() != table {
			return fmt.Errorf("row %s belongs to table %s, not %s", row.RowID(), row.RowTable(), table)
		}
		sql, args, err := upsertSQL(row)
		if err != nil {
			return err
		}
		batch.Queue(sql, args...)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()

	for _, row := range rows {
		tag, err := results.Exec()
		if err != nil {
			return fmt.Errorf("failed to upsert %s/%s: %w", table, row.RowID(), err)
		}
		// The DO UPDATE clause predicates on matching user_id; zero rows
		// affected means the id is held by another identity.
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("upsert %s/%s: %w", table, row.RowID(), ErrNotOwned)
		}
	}
	return nil
}

func upsertSQL(row Row) (string, []any, error) {
	switch r := row.(type) {
	case CustomerRow:
		return `
		INSERT INTO customers (id, user_id, created_at, updated_at,
			name, email, phone, billing_address, shipping_address, tax_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			updated_at = excluded.updated_at,
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			billing_address = excluded.billing_address,
			shipping_address = excluded.shipping_address,
			tax_id = excluded.tax_id,
			notes = excluded.notes
		WHERE customers.user_id = excluded.user_id
		`, []any{
				r.ID, r.UserID, r.CreatedAt, r.UpdatedAt,
				r.Name, nullStr(r.Email), nullStr(r.Phone),
				nullBytes(r.BillingAddress), nullBytes(r.ShippingAddress),
				nullStr(r.TaxID), nullStr(r.Notes),
			}, nil
	case ItemRow:
		return `
		INSERT INTO items (id, user_id, created_at, updated_at,
			sku, name, description, stock_qty, unit_price, purchase_price, tax_rate, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			updated_at = excluded.updated_at,
			sku = excluded.sku,
			name = excluded.name,
			description = excluded.description,
			stock_qty = excluded.stock_qty,
			unit_price = excluded.unit_price,
			purchase_price = excluded.purchase_price,
			tax_rate = excluded.tax_rate,
			category = excluded.category
		WHERE items.user_id = excluded.user_id
		`, []any{
				r.ID, r.UserID, r.CreatedAt, r.UpdatedAt,
				nullStr(r.SKU), r.Name, nullStr(r.Description),
				r.StockQty, r.UnitPrice, r.PurchasePrice, r.TaxRate, nullStr(r.Category),
			}, nil
	case InvoiceRow:
		return `
		INSERT INTO invoices (id, user_id, created_at, updated_at,
			number, customer_id, customer_name, customer_tax_id, date, due_date,
			status, lines, subtotal, tax_total, discount, total, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			updated_at = excluded.updated_at,
			number = excluded.number,
			customer_id = excluded.customer_id,
			customer_name = excluded.customer_name,
			customer_tax_id = excluded.customer_tax_id,
			date = excluded.date,
			due_date = excluded.due_date,
			status = excluded.status,
			lines = excluded.lines,
			subtotal = excluded.subtotal,
			tax_total = excluded.tax_total,
			discount = excluded.discount,
			total = excluded.total,
			notes = excluded.notes
		WHERE invoices.user_id = excluded.user_id
		`, []any{
				r.ID, r.UserID, r.CreatedAt, r.UpdatedAt,
				r.Number, nullStr(r.CustomerID), nullStr(r.CustomerName), nullStr(r.CustomerTaxID),
				nullStr(r.Date), nullStr(r.DueDate), r.Status, r.Lines,
				r.Subtotal, r.TaxTotal, r.Discount, r.Total, nullStr(r.Notes),
			}, nil
	case PurchaseRow:
		return `
		INSERT INTO purchases (id, user_id, created_at, updated_at,
			vendor, date, due_date, category, lines, total, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			updated_at = excluded.updated_at,
			vendor = excluded.vendor,
			date = excluded.date,
			due_date = excluded.due_date,
			category = excluded.category,
			lines = excluded.lines,
			total = excluded.total,
			status = excluded.status,
			notes = excluded.notes
		WHERE purchases.user_id = excluded.user_id
		`, []any{
				r.ID, r.UserID, r.CreatedAt, r.UpdatedAt,
				r.Vendor, nullStr(r.Date), nullStr(r.DueDate), nullStr(r.Category),
				r.Lines, r.Total, r.Status, nullStr(r.Notes),
			}, nil
	case PaymentRow:
		return `
		INSERT INTO payments (id, user_id, created_at, updated_at,
			date, type, amount, method, invoice_id, purchase_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			updated_at = excluded.updated_at,
			date = excluded.date,
			type = excluded.type,
			amount = excluded.amount,
			method = excluded.method,
			invoice_id = excluded.invoice_id,
			purchase_id = excluded.purchase_id
		WHERE payments.user_id = excluded.user_id
		`, []any{
				r.ID, r.UserID, r.CreatedAt, r.UpdatedAt,
				nullStr(r.Date), r.Type, r.Amount, nullStr(r.Method),
				nullStr(r.InvoiceID), nullStr(r.PurchaseID),
			}, nil
	}
	return "", nil, fmt.Errorf("unknown row type %T", row)
}

// ListSince implements Store.
func (p *Postgres) ListSince(ctx context.Context, identity string, table model.Table, since time.Time) ([]Row, error) {
	sql, scan, err := selectSQL(table)
	if err != nil {
		return nil, err
	}

	args := []any{identity}
	if !since.IsZero() {
		sql += " AND updated_at > $2"
		args = append(args, since)
	}
	sql += " ORDER BY updated_at ASC"

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		row, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", table, err)
	}
	return out, nil
}

type rowScanner func(rows pgx.Rows) (Row, error)

func selectSQL(table model.Table) (string, rowScanner, error) {
	switch table {
	case model.TableCustomers:
		return `SELECT id, user_id, created_at, updated_at,
			name, email, phone, billing_address, shipping_address, tax_id, notes
			FROM customers WHERE user_id = $1`,
			func(rows pgx.Rows) (Row, error) {
				var r CustomerRow
				var email, phone, taxID, notes *string
				err := rows.Scan(&r.ID, &r.UserID, &r.CreatedAt, &r.UpdatedAt,
					&r.Name, &email, &phone, &r.BillingAddress, &r.ShippingAddress, &taxID, &notes)
				r.Email, r.Phone, r.TaxID, r.Notes = deref(email), deref(phone), deref(taxID), deref(notes)
				return r, err
			}, nil
	case model.TableItems:
		return `SELECT id, user_id, created_at, updated_at,
			sku, name, description, stock_qty, unit_price,
			COALESCE(purchase_price, 0), COALESCE(tax_rate, 0), category
			FROM items WHERE user_id = $1`,
			func(rows pgx.Rows) (Row, error) {
				var r ItemRow
				var sku, description, category *string
				err := rows.Scan(&r.ID, &r.UserID, &r.CreatedAt, &r.UpdatedAt,
					&sku, &r.Name, &description, &r.StockQty, &r.UnitPrice,
					&r.PurchasePrice, &r.TaxRate, &category)
				r.SKU, r.Description, r.Category = deref(sku), deref(description), deref(category)
				return r, err
			}, nil
	case model.TableInvoices:
		return `SELECT id, user_id, created_at, updated_at,
			number, customer_id, customer_name, customer_tax_id, date::text, due_date::text,
			status, lines, subtotal, tax_total, discount, total, notes
			FROM invoices WHERE user_id = $1`,
			func(rows pgx.Rows) (Row, error) {
				var r InvoiceRow
				var customerID, customerName, customerTaxID, date, dueDate, notes *string
				err := rows.Scan(&r.ID, &r.UserID, &r.CreatedAt, &r.UpdatedAt,
					&r.Number, &customerID, &customerName, &customerTaxID, &date, &dueDate,
					&r.Status, &r.Lines, &r.Subtotal, &r.TaxTotal, &r.Discount, &r.Total, &notes)
				r.CustomerID, r.CustomerName, r.CustomerTaxID = deref(customerID), deref(customerName), deref(customerTaxID)
				r.Date, r.DueDate, r.Notes = deref(date), deref(dueDate), deref(notes)
				return r, err
			}, nil
	case model.TablePurchases:
		return `SELECT id, user_id, created_at, updated_at,
			vendor, date::text, due_date::text, category, lines, total, status, notes
			FROM purchases WHERE user_id = $1`,
			func(rows pgx.Rows) (Row, error) {
				var r PurchaseRow
				var date, dueDate, category, notes *string
				err := rows.Scan(&r.ID, &r.UserID, &r.CreatedAt, &r.UpdatedAt,
					&r.Vendor, &date, &dueDate, &category, &r.Lines, &r.Total, &r.Status, &notes)
				r.Date, r.DueDate, r.Category, r.Notes = deref(date), deref(dueDate), deref(category), deref(notes)
				return r, err
			}, nil
	case model.TablePayments:
		return `SELECT id, user_id, created_at, updated_at,
			date::text, type, amount, method, invoice_id, purchase_id
			FROM payments WHERE user_id = $1`,
			func(rows pgx.Rows) (Row, error) {
				var r PaymentRow
				var date, method, invoiceID, purchaseID *string
				err := rows.Scan(&r.ID, &r.UserID, &r.CreatedAt, &r.UpdatedAt,
					&date, &r.Type, &r.Amount, &method, &invoiceID, &purchaseID)
				r.Date, r.Method, r.InvoiceID, r.PurchaseID = deref(date), deref(method), deref(invoiceID), deref(purchaseID)
				return r, err
			}, nil
	}
	return "", nil, fmt.Errorf("table %s does not sync", table)
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
