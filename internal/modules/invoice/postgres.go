package invoice

import (
	"context"
	"database/sql"
	"time"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const invoiceColumns = `id, owner_id, invoice_number, subscription_id, customer_id,
	issue_date, due_date, status, subtotal, tax_total, discount_total, grand_total,
	payment_method, paid_date, created_at`

func (r *postgresRepo) GetInvoiceByID(ctx context.Context, ownerID, id string) (*Invoice, error) {
	inv, err := r.scanInvoice(r.db.QueryRowContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices WHERE id=$1 AND owner_id=$2`, id, ownerID))
	if err != nil {
		return nil, err
	}
	inv.Lines, err = r.listLines(ctx, inv.ID.String())
	return inv, err
}

func (r *postgresRepo) ListInvoices(ctx context.Context, ownerID string) ([]*Invoice, error) {
	return r.queryInvoices(ctx, `
		SELECT `+invoiceColumns+` FROM invoices WHERE owner_id=$1 ORDER BY created_at DESC`, ownerID)
}

func (r *postgresRepo) ListInvoicesBySubscription(ctx context.Context, ownerID, subscriptionID string) ([]*Invoice, error) {
	return r.queryInvoices(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE subscription_id=$1 AND owner_id=$2 ORDER BY created_at DESC`, subscriptionID, ownerID)
}

func (r *postgresRepo) ListInvoicesByCustomer(ctx context.Context, customerID string) ([]*Invoice, error) {
	return r.queryInvoices(ctx, `
		SELECT `+invoiceColumns+` FROM invoices WHERE customer_id=$1 ORDER BY created_at DESC`, customerID)
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, ownerID, id string, status Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET status=$1 WHERE id=$2 AND owner_id=$3`, status, id, ownerID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *postgresRepo) MarkPaid(ctx context.Context, ownerID, id, paymentMethod string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invoices SET status='paid', payment_method=$1, paid_date=$2
		WHERE id=$3 AND owner_id=$4`,
		paymentMethod, time.Now().UTC(), id, ownerID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ── scanners ──────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanInvoice(row rowScanner) (*Invoice, error) {
	inv := &Invoice{}
	var paymentMethod sql.NullString
	var paidDate sql.NullTime
	err := row.Scan(&inv.ID, &inv.OwnerID, &inv.InvoiceNumber, &inv.SubscriptionID,
		&inv.CustomerID, &inv.IssueDate, &inv.DueDate, &inv.Status,
		&inv.Subtotal, &inv.TaxTotal, &inv.DiscountTotal, &inv.GrandTotal,
		&paymentMethod, &paidDate, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	if paymentMethod.Valid {
		inv.PaymentMethod = paymentMethod.String
	}
	if paidDate.Valid {
		inv.PaidDate = &paidDate.Time
	}
	if inv.Lines == nil {
		inv.Lines = []*Line{}
	}
	return inv, nil
}

func (r *postgresRepo) queryInvoices(ctx context.Context, query string, args ...interface{}) ([]*Invoice, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var invoices []*Invoice
	for rows.Next() {
		inv, err := r.scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		inv.Lines, err = r.listLines(ctx, inv.ID.String())
		if err != nil {
			return nil, err
		}
	}
	return invoices, nil
}

func (r *postgresRepo) listLines(ctx context.Context, invoiceID string) ([]*Line, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, invoice_id, product_name, unit_price, quantity, tax_percent, discount_percent, line_total
		FROM invoice_lines WHERE invoice_id=$1 ORDER BY id ASC`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := []*Line{}
	for rows.Next() {
		l := &Line{}
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.ProductName, &l.UnitPrice,
			&l.Quantity, &l.TaxPercent, &l.DiscountPercent, &l.LineTotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
