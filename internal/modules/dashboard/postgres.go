package dashboard

import (
	"context"
	"database/sql"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) StatsForOwner(ctx context.Context, ownerID string) (*TenantStats, error) {
	stats := &TenantStats{}

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM customers WHERE owner_id=$1`, ownerID).
		Scan(&stats.CustomerCount)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT
		  COUNT(*) FILTER (WHERE status = 'active'),
		  COUNT(*) FILTER (WHERE status IN ('draft', 'quotation'))
		FROM subscriptions WHERE owner_id=$1`, ownerID).
		Scan(&stats.ActiveSubscriptions, &stats.DraftSubscriptions)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT
		  COALESCE(SUM(grand_total) FILTER (WHERE status = 'paid'), 0),
		  COUNT(*) FILTER (WHERE status = 'pending'),
		  COALESCE(SUM(grand_total) FILTER (WHERE status = 'pending'), 0)
		FROM invoices WHERE owner_id=$1`, ownerID).
		Scan(&stats.PaidRevenue, &stats.UnpaidInvoices, &stats.UnpaidAmount)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
