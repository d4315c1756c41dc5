package invoice

import "context"

// Repository defines data access for invoices. Invoices are inserted
// only by the subscription engine; this repository reads and applies
// settlement updates.
type Repository interface {
	GetInvoiceByID(ctx context.Context, ownerID, id string) (*Invoice, error)
	ListInvoices(ctx context.Context, ownerID string) ([]*Invoice, error)
	ListInvoicesBySubscription(ctx context.Context, ownerID, subscriptionID string) ([]*Invoice, error)
	ListInvoicesByCustomer(ctx context.Context, customerID string) ([]*Invoice, error)
	UpdateStatus(ctx context.Context, ownerID, id string, status Status) error
	MarkPaid(ctx context.Context, ownerID, id, paymentMethod string) error
}
