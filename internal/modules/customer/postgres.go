package customer

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CreateCustomer(ctx context.Context, c *Customer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (id, owner_id, name, email, portal_user_id)
		VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.OwnerID, c.Name, c.Email, c.PortalUserID)
	return err
}

func (r *postgresRepo) GetCustomerByID(ctx context.Context, ownerID, id string) (*Customer, error) {
	return r.scanCustomer(r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, email, portal_user_id, created_at
		FROM customers WHERE id=$1 AND owner_id=$2`, id, ownerID))
}

func (r *postgresRepo) GetCustomerByPortalUser(ctx context.Context, portalUserID string) (*Customer, error) {
	return r.scanCustomer(r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, email, portal_user_id, created_at
		FROM customers WHERE portal_user_id=$1`, portalUserID))
}

func (r *postgresRepo) ListCustomers(ctx context.Context, ownerID string) ([]*Customer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, email, portal_user_id, created_at
		FROM customers WHERE owner_id=$1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var customers []*Customer
	for rows.Next() {
		c, err := r.scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *postgresRepo) LinkPortalUser(ctx context.Context, id, portalUserID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE customers SET portal_user_id=$1 WHERE id=$2`, portalUserID, id)
	return err
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanCustomer(row rowScanner) (*Customer, error) {
	c := &Customer{}
	var portalUserID sql.NullString
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &portalUserID, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if portalUserID.Valid {
		uid, err := uuid.Parse(portalUserID.String)
		if err == nil {
			c.PortalUserID = &uid
		}
	}
	return c, nil
}
