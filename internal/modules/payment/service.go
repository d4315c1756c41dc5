package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/subtrackhq/subtrack-backend/internal/modules/invoice"
)

// Service defines payment business logic.
type Service interface {
	Initiate(ctx context.Context, ownerID string, req InitiatePaymentRequest) (*Payment, error)
	GetByID(ctx context.Context, ownerID, id string) (*Payment, error)
	Verify(ctx context.Context, ownerID, id string) (*Payment, error)
	ListByInvoice(ctx context.Context, ownerID, invoiceID string) ([]*Payment, error)
}

type service struct {
	repo     Repository
	invoices invoice.Service
	gateways GatewayRegistry
	log      logrus.FieldLogger
}

func NewService(repo Repository, invoices invoice.Service, gateways GatewayRegistry, log logrus.FieldLogger) Service {
	return &service{repo: repo, invoices: invoices, gateways: gateways, log: log}
}

func (s *service) Initiate(ctx context.Context, ownerID string, req InitiatePaymentRequest) (*Payment, error) {
	provider := Provider(strings.ToUpper(req.Provider))
	if provider == "" {
		return nil, fmt.Errorf("provider is required")
	}
	if req.InvoiceID == "" {
		return nil, fmt.Errorf("invoice_id is required")
	}

	// Idempotency: the same key always returns the original attempt.
	if req.IdempotencyKey != "" {
		existing, err := s.repo.GetByIdempotencyKey(ctx, ownerID, req.IdempotencyKey)
		if err == nil && existing != nil {
			return existing, nil
		}
	}

	inv, err := s.invoices.GetInvoice(ctx, ownerID, req.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("invoice not found: %w", err)
	}
	if inv.Status == invoice.StatusPaid {
		return nil, fmt.Errorf("invoice is already paid")
	}
	if inv.Status == invoice.StatusVoid || inv.Status == invoice.StatusCancelled {
		return nil, fmt.Errorf("cannot pay a %s invoice", inv.Status)
	}

	amount := req.Amount
	if amount == 0 {
		amount = inv.GrandTotal
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be greater than 0")
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}

	p := &Payment{
		ID:             uuid.New(),
		OwnerID:        owner,
		InvoiceID:      inv.ID,
		Provider:       provider,
		Status:         TxPending,
		Amount:         amount,
		Currency:       currency,
		Description:    req.Description,
		IdempotencyKey: req.IdempotencyKey,
	}

	// Cash is recorded manually; no gateway round trip.
	if provider == ProviderCash {
		now := time.Now().UTC()
		p.Status = TxCompleted
		p.ProviderStatus = "COMPLETED"
		p.PaymentDate = &now
		if err := s.repo.Create(ctx, p); err != nil {
			return nil, err
		}
		if err := s.settleInvoice(ctx, ownerID, p, inv); err != nil {
			return nil, err
		}
		return s.repo.GetByID(ctx, ownerID, p.ID.String())
	}

	// Persist as PENDING before the gateway call so a crash mid-flight
	// still leaves an auditable record.
	if err := s.repo.Create(ctx, p); err != nil {
		if strings.Contains(err.Error(), "unique") || strings.Contains(err.Error(), "duplicate") {
			return nil, fmt.Errorf("duplicate payment request (idempotency key already used)")
		}
		return nil, err
	}

	gw, ok := s.gateways[provider]
	if !ok {
		_ = s.repo.UpdateStatus(ctx, p.ID.String(), TxFailed, "NO_GATEWAY")
		return nil, fmt.Errorf("no gateway registered for provider: %s", provider)
	}

	resp, err := gw.Initiate(ctx, &req)
	if err != nil {
		_ = s.repo.UpdateStatus(ctx, p.ID.String(), TxFailed, "GATEWAY_ERROR")
		return nil, fmt.Errorf("gateway initiation failed: %w", err)
	}

	if err := s.repo.UpdateProviderRef(ctx, p.ID.String(), resp.ProviderRef, resp.ProviderStatus); err != nil {
		return nil, err
	}

	if err := s.applyStatus(ctx, ownerID, p, inv, NormaliseStatus(provider, resp.ProviderStatus), resp.ProviderStatus); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, ownerID, p.ID.String())
}

func (s *service) GetByID(ctx context.Context, ownerID, id string) (*Payment, error) {
	p, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("payment not found: %w", err)
	}
	return p, nil
}

// Verify re-queries the provider for a non-terminal payment and
// settles the invoice if the funds have landed.
func (s *service) Verify(ctx context.Context, ownerID, id string) (*Payment, error) {
	p, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("payment not found: %w", err)
	}
	if p.Status.Terminal() {
		return p, nil
	}

	gw, ok := s.gateways[p.Provider]
	if !ok {
		return nil, fmt.Errorf("no gateway registered for provider: %s", p.Provider)
	}

	resp, err := gw.Verify(ctx, p.ProviderRef)
	if err != nil {
		return nil, fmt.Errorf("gateway verification failed: %w", err)
	}

	inv, err := s.invoices.GetInvoice(ctx, ownerID, p.InvoiceID.String())
	if err != nil {
		return nil, fmt.Errorf("invoice not found: %w", err)
	}

	if err := s.applyStatus(ctx, ownerID, p, inv, NormaliseStatus(p.Provider, resp.ProviderStatus), resp.ProviderStatus); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, ownerID, id)
}

func (s *service) ListByInvoice(ctx context.Context, ownerID, invoiceID string) ([]*Payment, error) {
	return s.repo.ListByInvoice(ctx, ownerID, invoiceID)
}

func (s *service) applyStatus(ctx context.Context, ownerID string, p *Payment, inv *invoice.Invoice, status TxStatus, providerStatus string) error {
	if status == TxCompleted {
		if err := s.repo.MarkCompleted(ctx, p.ID.String(), providerStatus); err != nil {
			return err
		}
		return s.settleInvoice(ctx, ownerID, p, inv)
	}
	return s.repo.UpdateStatus(ctx, p.ID.String(), status, providerStatus)
}

// settleInvoice marks the invoice paid once a completed payment covers
// its grand total. Partial payments leave the invoice open.
func (s *service) settleInvoice(ctx context.Context, ownerID string, p *Payment, inv *invoice.Invoice) error {
	if p.Amount < inv.GrandTotal {
		s.log.WithFields(logrus.Fields{
			"payment_id": p.ID,
			"invoice_id": inv.ID,
			"amount":     p.Amount,
			"due":        inv.GrandTotal,
		}).Info("partial payment recorded")
		return nil
	}

	if _, err := s.invoices.MarkPaid(ctx, ownerID, inv.ID.String(),
		invoice.PayRequest{PaymentMethod: string(p.Provider)}); err != nil {
		return fmt.Errorf("mark invoice paid: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"payment_id": p.ID,
		"invoice_id": inv.ID,
		"amount":     p.Amount,
	}).Info("invoice settled")
	return nil
}
