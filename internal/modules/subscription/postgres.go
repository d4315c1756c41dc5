package subscription

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/subtrackhq/subtrack-backend/internal/modules/invoice"
	"github.com/subtrackhq/subtrack-backend/internal/modules/plan"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const subscriptionColumns = `id, owner_id, subscription_number, customer_id, plan_id, status,
	start_date, end_date, next_billing_date, payment_terms,
	subtotal, tax_total, discount_total, grand_total,
	created_at, confirmed_at, closed_at`

// ── Creation ──────────────────────────────────────────────────────────────────

// CreateWithLines inserts the subscription and all its lines inside a
// single transaction.
func (r *postgresRepo) CreateWithLines(ctx context.Context, sub *Subscription) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO subscriptions
		  (id, owner_id, subscription_number, customer_id, plan_id, status,
		   start_date, end_date, next_billing_date, payment_terms,
		   subtotal, tax_total, discount_total, grand_total)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		sub.ID, sub.OwnerID, sub.SubscriptionNumber, sub.CustomerID, sub.PlanID, sub.Status,
		sub.StartDate, sub.EndDate, sub.NextBillingDate, nullableString(sub.PaymentTerms),
		sub.Subtotal, sub.TaxTotal, sub.DiscountTotal, sub.GrandTotal)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}

	for _, line := range sub.Lines {
		if err := insertSubscriptionLine(ctx, tx, line); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertSubscriptionLine(ctx context.Context, tx *sql.Tx, line *Line) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO subscription_lines
		  (id, subscription_id, product_id, product_name_snapshot, unit_price_snapshot,
		   quantity, tax_percent, discount_percent, line_total)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		line.ID, line.SubscriptionID, line.ProductID, line.ProductNameSnapshot,
		line.UnitPriceSnapshot, line.Quantity, line.TaxPercent, line.DiscountPercent, line.LineTotal)
	if err != nil {
		return fmt.Errorf("insert subscription_line: %w", err)
	}
	return nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (r *postgresRepo) GetByID(ctx context.Context, ownerID, id string) (*Subscription, error) {
	sub, err := r.scanSub(r.db.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE id=$1 AND owner_id=$2`, id, ownerID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	sub.Lines, err = r.listLines(ctx, sub.ID.String())
	return sub, err
}

func (r *postgresRepo) List(ctx context.Context, ownerID string) ([]*Subscription, error) {
	return r.querySubs(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE owner_id=$1 ORDER BY created_at DESC`, ownerID)
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string) ([]*Subscription, error) {
	return r.querySubs(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE customer_id=$1 ORDER BY created_at DESC`, customerID)
}

func (r *postgresRepo) GetPlanPeriod(ctx context.Context, ownerID, planID string) (plan.BillingPeriod, error) {
	var period plan.BillingPeriod
	err := r.db.QueryRowContext(ctx,
		`SELECT billing_period FROM plans WHERE id=$1 AND owner_id=$2`, planID, ownerID).
		Scan(&period)
	return period, err
}

// ── Confirmation ──────────────────────────────────────────────────────────────

// Confirm commits the whole confirmation atomically. The subscription
// row is locked first so a concurrent confirm on the same id blocks
// and then fails the status re-check instead of double-invoicing.
func (r *postgresRepo) Confirm(ctx context.Context, sub *Subscription, inv *invoice.Invoice) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current Status
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM subscriptions WHERE id=$1 FOR UPDATE`, sub.ID).Scan(&current)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if current != StatusDraft && current != StatusQuotation {
		return fmt.Errorf("%w: subscription is %q", ErrInvalidStateTransition, current)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE subscriptions
		SET status=$1, subtotal=$2, tax_total=$3, discount_total=$4, grand_total=$5,
		    confirmed_at=$6, next_billing_date=$7
		WHERE id=$8`,
		sub.Status, sub.Subtotal, sub.TaxTotal, sub.DiscountTotal, sub.GrandTotal,
		sub.ConfirmedAt, sub.NextBillingDate, sub.ID)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}

	// Persist the recomputed line totals so the stored snapshot matches
	// the totals frozen onto the invoice.
	for _, line := range sub.Lines {
		_, err = tx.ExecContext(ctx,
			`UPDATE subscription_lines SET line_total=$1 WHERE id=$2`,
			line.LineTotal, line.ID)
		if err != nil {
			return fmt.Errorf("update subscription_line: %w", err)
		}
	}

	if err := insertInvoice(ctx, tx, inv); err != nil {
		return err
	}

	return tx.Commit()
}

// ── Cancellation ──────────────────────────────────────────────────────────────

// Cancel guards the transition inside the UPDATE itself: a concurrent
// state change makes the row count come back zero.
func (r *postgresRepo) Cancel(ctx context.Context, ownerID, id string, closedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions SET status=$1, closed_at=$2, next_billing_date=NULL
		WHERE id=$3 AND owner_id=$4 AND status=$5`,
		StatusCancelled, closedAt, id, ownerID, StatusActive)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidStateTransition
	}
	return nil
}

// ── Renewal ───────────────────────────────────────────────────────────────────

func (r *postgresRepo) ListDueForRenewal(ctx context.Context, ownerID string, asOf time.Time) ([]*Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.owner_id, s.subscription_number, s.customer_id, s.plan_id, s.status,
		       s.start_date, s.end_date, s.next_billing_date, s.payment_terms,
		       s.subtotal, s.tax_total, s.discount_total, s.grand_total,
		       s.created_at, s.confirmed_at, s.closed_at, p.billing_period
		FROM subscriptions s
		JOIN plans p ON p.id = s.plan_id
		WHERE s.owner_id=$1 AND s.status=$2 AND s.next_billing_date <= $3
		ORDER BY s.next_billing_date ASC`,
		ownerID, StatusActive, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*Subscription
	for rows.Next() {
		sub, err := r.scanSubWithPeriod(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, sub := range subs {
		sub.Lines, err = r.listLines(ctx, sub.ID.String())
		if err != nil {
			return nil, err
		}
	}
	return subs, nil
}

func (r *postgresRepo) ListOwnersDue(ctx context.Context, asOf time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT owner_id FROM subscriptions
		WHERE status=$1 AND next_billing_date <= $2`, StatusActive, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, err
		}
		owners = append(owners, owner)
	}
	return owners, rows.Err()
}

func (r *postgresRepo) Close(ctx context.Context, id string, closedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions SET status=$1, closed_at=$2, next_billing_date=NULL
		WHERE id=$3 AND status=$4`,
		StatusClosed, closedAt, id, StatusActive)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidStateTransition
	}
	return nil
}

// Renew commits one subscription's follow-on invoice and advanced
// billing date inside a single transaction.
func (r *postgresRepo) Renew(ctx context.Context, subscriptionID string, nextBillingDate time.Time, inv *invoice.Invoice) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertInvoice(ctx, tx, inv); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE subscriptions SET next_billing_date=$1 WHERE id=$2 AND status=$3`,
		nextBillingDate, subscriptionID, StatusActive)
	if err != nil {
		return fmt.Errorf("advance billing date: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidStateTransition
	}

	return tx.Commit()
}

func insertInvoice(ctx context.Context, tx *sql.Tx, inv *invoice.Invoice) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO invoices
		  (id, owner_id, invoice_number, subscription_id, customer_id,
		   issue_date, due_date, status, subtotal, tax_total, discount_total, grand_total)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		inv.ID, inv.OwnerID, inv.InvoiceNumber, inv.SubscriptionID, inv.CustomerID,
		inv.IssueDate, inv.DueDate, inv.Status,
		inv.Subtotal, inv.TaxTotal, inv.DiscountTotal, inv.GrandTotal)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}

	for _, line := range inv.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO invoice_lines
			  (id, invoice_id, product_name, unit_price, quantity, tax_percent, discount_percent, line_total)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			line.ID, line.InvoiceID, line.ProductName, line.UnitPrice,
			line.Quantity, line.TaxPercent, line.DiscountPercent, line.LineTotal)
		if err != nil {
			return fmt.Errorf("insert invoice_line: %w", err)
		}
	}
	return nil
}

// ── Scanners ──────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanSub(row rowScanner) (*Subscription, error) {
	sub := &Subscription{}
	err := row.Scan(subDests(sub)...)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *postgresRepo) scanSubWithPeriod(row rowScanner) (*Subscription, error) {
	sub := &Subscription{}
	dests := append(subDests(sub), &sub.PlanPeriod)
	if err := row.Scan(dests...); err != nil {
		return nil, err
	}
	return sub, nil
}

// subDests builds scan targets for the fixed subscription column
// order, routing nullable columns through intermediates.
func subDests(sub *Subscription) []interface{} {
	return []interface{}{
		&sub.ID, &sub.OwnerID, &sub.SubscriptionNumber, &sub.CustomerID, &sub.PlanID, &sub.Status,
		&sub.StartDate,
		nullTime(&sub.EndDate),
		nullTime(&sub.NextBillingDate),
		nullString(&sub.PaymentTerms),
		&sub.Subtotal, &sub.TaxTotal, &sub.DiscountTotal, &sub.GrandTotal,
		&sub.CreatedAt,
		nullTime(&sub.ConfirmedAt),
		nullTime(&sub.ClosedAt),
	}
}

func (r *postgresRepo) querySubs(ctx context.Context, query string, args ...interface{}) ([]*Subscription, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []*Subscription
	for rows.Next() {
		sub, err := r.scanSub(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, sub := range subs {
		sub.Lines, err = r.listLines(ctx, sub.ID.String())
		if err != nil {
			return nil, err
		}
	}
	return subs, nil
}

func (r *postgresRepo) listLines(ctx context.Context, subscriptionID string) ([]*Line, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, subscription_id, product_id, product_name_snapshot, unit_price_snapshot,
		       quantity, tax_percent, discount_percent, line_total
		FROM subscription_lines WHERE subscription_id=$1 ORDER BY id ASC`, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := []*Line{}
	for rows.Next() {
		line := &Line{}
		var productID sql.NullString
		if err := rows.Scan(&line.ID, &line.SubscriptionID, &productID,
			&line.ProductNameSnapshot, &line.UnitPriceSnapshot,
			&line.Quantity, &line.TaxPercent, &line.DiscountPercent, &line.LineTotal); err != nil {
			return nil, err
		}
		if productID.Valid {
			if uid, err := uuid.Parse(productID.String); err == nil {
				line.ProductID = &uid
			}
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// ── Null helpers ──────────────────────────────────────────────────────────────

type nullTimeScanner struct{ dest **time.Time }

func nullTime(dest **time.Time) *nullTimeScanner { return &nullTimeScanner{dest: dest} }

func (n *nullTimeScanner) Scan(value interface{}) error {
	var nt sql.NullTime
	if err := nt.Scan(value); err != nil {
		return err
	}
	if nt.Valid {
		t := nt.Time
		*n.dest = &t
	} else {
		*n.dest = nil
	}
	return nil
}

type nullStringScanner struct{ dest *string }

func nullString(dest *string) *nullStringScanner { return &nullStringScanner{dest: dest} }

func (n *nullStringScanner) Scan(value interface{}) error {
	var ns sql.NullString
	if err := ns.Scan(value); err != nil {
		return err
	}
	*n.dest = ns.String
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
