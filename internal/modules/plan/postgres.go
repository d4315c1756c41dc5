package plan

import (
	"context"
	"database/sql"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CreatePlan(ctx context.Context, p *Plan) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO plans
		  (id, owner_id, product_id, name, billing_period, price, min_quantity,
		   auto_close, pausable, renewable, start_date, end_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.OwnerID, p.ProductID, p.Name, p.Period, p.Price, p.MinQuantity,
		p.AutoClose, p.Pausable, p.Renewable, p.StartDate, p.EndDate)
	return err
}

func (r *postgresRepo) GetPlanByID(ctx context.Context, ownerID, id string) (*Plan, error) {
	return r.scanPlan(r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, product_id, name, billing_period, price, min_quantity,
		       auto_close, pausable, renewable, start_date, end_date, created_at
		FROM plans WHERE id=$1 AND owner_id=$2`, id, ownerID))
}

func (r *postgresRepo) ListPlans(ctx context.Context, ownerID string) ([]*Plan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, product_id, name, billing_period, price, min_quantity,
		       auto_close, pausable, renewable, start_date, end_date, created_at
		FROM plans WHERE owner_id=$1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var plans []*Plan
	for rows.Next() {
		p, err := r.scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanPlan(row rowScanner) (*Plan, error) {
	p := &Plan{}
	var startDate, endDate sql.NullTime
	err := row.Scan(&p.ID, &p.OwnerID, &p.ProductID, &p.Name, &p.Period, &p.Price,
		&p.MinQuantity, &p.AutoClose, &p.Pausable, &p.Renewable,
		&startDate, &endDate, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if startDate.Valid {
		p.StartDate = &startDate.Time
	}
	if endDate.Valid {
		p.EndDate = &endDate.Time
	}
	return p, nil
}
