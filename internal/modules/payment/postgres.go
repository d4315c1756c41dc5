package payment

import (
	"context"
	"database/sql"
	"time"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const paymentColumns = `id, owner_id, invoice_id, provider, provider_ref, provider_status,
	status, amount, currency, description, idempotency_key, payment_date, created_at`

func (r *postgresRepo) Create(ctx context.Context, p *Payment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments
		  (id, owner_id, invoice_id, provider, provider_ref, provider_status,
		   status, amount, currency, description, idempotency_key, payment_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.OwnerID, p.InvoiceID, p.Provider, p.ProviderRef, p.ProviderStatus,
		p.Status, p.Amount, p.Currency, p.Description, nullIfEmpty(p.IdempotencyKey), p.PaymentDate)
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, ownerID, id string) (*Payment, error) {
	return r.scanPayment(r.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE id=$1 AND owner_id=$2`, id, ownerID))
}

func (r *postgresRepo) GetByIdempotencyKey(ctx context.Context, ownerID, key string) (*Payment, error) {
	return r.scanPayment(r.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE idempotency_key=$1 AND owner_id=$2`, key, ownerID))
}

func (r *postgresRepo) ListByInvoice(ctx context.Context, ownerID, invoiceID string) ([]*Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE invoice_id=$1 AND owner_id=$2 ORDER BY created_at DESC`, invoiceID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *postgresRepo) UpdateProviderRef(ctx context.Context, id, providerRef, providerStatus string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payments SET provider_ref=$1, provider_status=$2 WHERE id=$3`,
		providerRef, providerStatus, id)
	return err
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status TxStatus, providerStatus string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status=$1, provider_status=$2 WHERE id=$3`,
		status, providerStatus, id)
	return err
}

func (r *postgresRepo) MarkCompleted(ctx context.Context, id string, providerStatus string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status=$1, provider_status=$2, payment_date=$3 WHERE id=$4`,
		TxCompleted, providerStatus, time.Now().UTC(), id)
	return err
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanPayment(row rowScanner) (*Payment, error) {
	p := &Payment{}
	var (
		providerRef    sql.NullString
		providerStatus sql.NullString
		description    sql.NullString
		idempotencyKey sql.NullString
		paymentDate    sql.NullTime
	)
	err := row.Scan(&p.ID, &p.OwnerID, &p.InvoiceID, &p.Provider, &providerRef, &providerStatus,
		&p.Status, &p.Amount, &p.Currency, &description, &idempotencyKey, &paymentDate, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.ProviderRef = providerRef.String
	p.ProviderStatus = providerStatus.String
	p.Description = description.String
	p.IdempotencyKey = idempotencyKey.String
	if paymentDate.Valid {
		t := paymentDate.Time
		p.PaymentDate = &t
	}
	return p, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
