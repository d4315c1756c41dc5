package customer

import "context"

// Repository defines data access for customers.
type Repository interface {
	CreateCustomer(ctx context.Context, c *Customer) error
	GetCustomerByID(ctx context.Context, ownerID, id string) (*Customer, error)
	GetCustomerByPortalUser(ctx context.Context, portalUserID string) (*Customer, error)
	ListCustomers(ctx context.Context, ownerID string) ([]*Customer, error)
	LinkPortalUser(ctx context.Context, id, portalUserID string) error
}
