package catalog

import (
	"context"
	"database/sql"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// ── Products ──────────────────────────────────────────────────────────────────

func (r *postgresRepo) CreateProduct(ctx context.Context, p *Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, owner_id, name, base_price, type, description, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.OwnerID, p.Name, p.BasePrice, p.Type, p.Description, p.IsActive)
	return err
}

func (r *postgresRepo) GetProductByID(ctx context.Context, ownerID, id string) (*Product, error) {
	p := &Product{}
	var pType, description sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, base_price, type, description, is_active, created_at, updated_at
		FROM products WHERE id=$1 AND owner_id=$2`, id, ownerID).Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.BasePrice, &pType, &description,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Type = pType.String
	p.Description = description.String
	return p, nil
}

func (r *postgresRepo) ListProducts(ctx context.Context, ownerID string) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, base_price, type, description, is_active, created_at, updated_at
		FROM products WHERE owner_id=$1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []*Product
	for rows.Next() {
		p := &Product{}
		var pType, description sql.NullString
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.BasePrice, &pType, &description,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Type = pType.String
		p.Description = description.String
		products = append(products, p)
	}
	return products, rows.Err()
}

// ── Taxes ─────────────────────────────────────────────────────────────────────

func (r *postgresRepo) CreateTax(ctx context.Context, t *Tax) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO taxes (id, owner_id, name, percent, is_active)
		VALUES ($1,$2,$3,$4,$5)`,
		t.ID, t.OwnerID, t.Name, t.Percent, t.IsActive)
	return err
}

func (r *postgresRepo) ListTaxes(ctx context.Context, ownerID string) ([]*Tax, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, percent, is_active
		FROM taxes WHERE owner_id=$1 ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var taxes []*Tax
	for rows.Next() {
		t := &Tax{}
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Percent, &t.IsActive); err != nil {
			return nil, err
		}
		taxes = append(taxes, t)
	}
	return taxes, rows.Err()
}

// ── Discounts ─────────────────────────────────────────────────────────────────

func (r *postgresRepo) CreateDiscount(ctx context.Context, d *Discount) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO discounts (id, owner_id, name, type, value, start_date, end_date, usage_limit)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, d.OwnerID, d.Name, d.Type, d.Value, d.StartDate, d.EndDate, d.UsageLimit)
	return err
}

func (r *postgresRepo) ListDiscounts(ctx context.Context, ownerID string) ([]*Discount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, type, value, start_date, end_date, usage_limit
		FROM discounts WHERE owner_id=$1 ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var discounts []*Discount
	for rows.Next() {
		d := &Discount{}
		var startDate, endDate sql.NullTime
		var usageLimit sql.NullInt64
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Name, &d.Type, &d.Value,
			&startDate, &endDate, &usageLimit); err != nil {
			return nil, err
		}
		if startDate.Valid {
			d.StartDate = &startDate.Time
		}
		if endDate.Valid {
			d.EndDate = &endDate.Time
		}
		if usageLimit.Valid {
			limit := int(usageLimit.Int64)
			d.UsageLimit = &limit
		}
		discounts = append(discounts, d)
	}
	return discounts, rows.Err()
}
