package invoice

import (
	"context"
	"fmt"
)

// Service defines invoice business logic. Creation is owned by the
// subscription engine; this service covers reads and settlement.
type Service interface {
	GetInvoice(ctx context.Context, ownerID, id string) (*Invoice, error)
	ListInvoices(ctx context.Context, ownerID string) ([]*Invoice, error)
	ListBySubscription(ctx context.Context, ownerID, subscriptionID string) ([]*Invoice, error)
	UpdateStatus(ctx context.Context, ownerID, id string, req UpdateStatusRequest) (*Invoice, error)
	MarkPaid(ctx context.Context, ownerID, id string, req PayRequest) (*Invoice, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) GetInvoice(ctx context.Context, ownerID, id string) (*Invoice, error) {
	return s.repo.GetInvoiceByID(ctx, ownerID, id)
}

func (s *service) ListInvoices(ctx context.Context, ownerID string) ([]*Invoice, error) {
	return s.repo.ListInvoices(ctx, ownerID)
}

func (s *service) ListBySubscription(ctx context.Context, ownerID, subscriptionID string) ([]*Invoice, error) {
	return s.repo.ListInvoicesBySubscription(ctx, ownerID, subscriptionID)
}

func (s *service) UpdateStatus(ctx context.Context, ownerID, id string, req UpdateStatusRequest) (*Invoice, error) {
	next := Status(req.Status)
	if !next.Valid() {
		return nil, fmt.Errorf("invalid status %q", req.Status)
	}

	inv, err := s.repo.GetInvoiceByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("invoice not found: %w", err)
	}
	// A paid invoice is immutable except for payment-audit fields.
	if inv.Status == StatusPaid {
		return nil, fmt.Errorf("invoice is already paid and cannot change status")
	}

	if err := s.repo.UpdateStatus(ctx, ownerID, id, next); err != nil {
		return nil, err
	}
	return s.repo.GetInvoiceByID(ctx, ownerID, id)
}

func (s *service) MarkPaid(ctx context.Context, ownerID, id string, req PayRequest) (*Invoice, error) {
	if req.PaymentMethod == "" {
		return nil, fmt.Errorf("payment_method is required")
	}

	inv, err := s.repo.GetInvoiceByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("invoice not found: %w", err)
	}
	if inv.Status == StatusPaid {
		return nil, fmt.Errorf("invoice is already paid")
	}
	if inv.Status == StatusVoid || inv.Status == StatusCancelled {
		return nil, fmt.Errorf("cannot pay a %s invoice", inv.Status)
	}

	if err := s.repo.MarkPaid(ctx, ownerID, id, req.PaymentMethod); err != nil {
		return nil, err
	}
	return s.repo.GetInvoiceByID(ctx, ownerID, id)
}
