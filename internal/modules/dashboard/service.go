package dashboard

import (
	"context"
	"fmt"

	"github.com/subtrackhq/subtrack-backend/internal/modules/customer"
	"github.com/subtrackhq/subtrack-backend/internal/modules/invoice"
	"github.com/subtrackhq/subtrack-backend/internal/modules/subscription"
)

// Service serves the owner dashboard and the customer portal views.
// Portal reads are scoped by the customer linked to the portal user,
// never by owner, so a portal account can only ever see its own data.
type Service interface {
	Stats(ctx context.Context, ownerID string) (*TenantStats, error)

	PortalOverview(ctx context.Context, portalUserID string) (*PortalOverview, error)
	PortalSubscriptions(ctx context.Context, portalUserID string) ([]*subscription.Subscription, error)
	PortalInvoices(ctx context.Context, portalUserID string) ([]*invoice.Invoice, error)
}

type service struct {
	repo          Repository
	customers     customer.Repository
	subscriptions subscription.Repository
	invoices      invoice.Repository
}

func NewService(repo Repository, customers customer.Repository, subscriptions subscription.Repository, invoices invoice.Repository) Service {
	return &service{repo: repo, customers: customers, subscriptions: subscriptions, invoices: invoices}
}

func (s *service) Stats(ctx context.Context, ownerID string) (*TenantStats, error) {
	return s.repo.StatsForOwner(ctx, ownerID)
}

func (s *service) PortalOverview(ctx context.Context, portalUserID string) (*PortalOverview, error) {
	cust, err := s.customerFor(ctx, portalUserID)
	if err != nil {
		return nil, err
	}

	subs, err := s.subscriptions.ListByCustomer(ctx, cust.ID.String())
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoices.ListInvoicesByCustomer(ctx, cust.ID.String())
	if err != nil {
		return nil, err
	}

	overview := &PortalOverview{Customer: cust}
	for _, sub := range subs {
		if sub.Status == subscription.StatusActive {
			overview.ActiveSubscriptions++
		}
	}
	for _, inv := range invoices {
		if inv.Status == invoice.StatusPending {
			overview.OpenInvoices++
			overview.OutstandingAmount += inv.GrandTotal
		}
	}
	return overview, nil
}

func (s *service) PortalSubscriptions(ctx context.Context, portalUserID string) ([]*subscription.Subscription, error) {
	cust, err := s.customerFor(ctx, portalUserID)
	if err != nil {
		return nil, err
	}
	return s.subscriptions.ListByCustomer(ctx, cust.ID.String())
}

func (s *service) PortalInvoices(ctx context.Context, portalUserID string) ([]*invoice.Invoice, error) {
	cust, err := s.customerFor(ctx, portalUserID)
	if err != nil {
		return nil, err
	}
	return s.invoices.ListInvoicesByCustomer(ctx, cust.ID.String())
}

func (s *service) customerFor(ctx context.Context, portalUserID string) (*customer.Customer, error) {
	cust, err := s.customers.GetCustomerByPortalUser(ctx, portalUserID)
	if err != nil {
		return nil, fmt.Errorf("no customer linked to portal account: %w", err)
	}
	return cust, nil
}
