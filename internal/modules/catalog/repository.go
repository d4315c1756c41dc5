package catalog

import "context"

// Repository defines data access for the tenant catalog.
type Repository interface {
	// Products
	CreateProduct(ctx context.Context, p *Product) error
	GetProductByID(ctx context.Context, ownerID, id string) (*Product, error)
	ListProducts(ctx context.Context, ownerID string) ([]*Product, error)

	// Taxes
	CreateTax(ctx context.Context, t *Tax) error
	ListTaxes(ctx context.Context, ownerID string) ([]*Tax, error)

	// Discounts
	CreateDiscount(ctx context.Context, d *Discount) error
	ListDiscounts(ctx context.Context, ownerID string) ([]*Discount, error)
}
