package payment

import "context"

// Repository defines data access for payment records.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, ownerID, id string) (*Payment, error)
	GetByIdempotencyKey(ctx context.Context, ownerID, key string) (*Payment, error)
	ListByInvoice(ctx context.Context, ownerID, invoiceID string) ([]*Payment, error)
	UpdateProviderRef(ctx context.Context, id, providerRef, providerStatus string) error
	UpdateStatus(ctx context.Context, id string, status TxStatus, providerStatus string) error
	MarkCompleted(ctx context.Context, id string, providerStatus string) error
}
