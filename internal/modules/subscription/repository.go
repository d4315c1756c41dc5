package subscription

import (
	"context"
	"time"

	"github.com/subtrackhq/subtrack-backend/internal/modules/invoice"
	"github.com/subtrackhq/subtrack-backend/internal/modules/plan"
)

// Repository defines data access for subscriptions and the writes the
// billing engine performs. Confirm and Renew are atomic: every write
// lands or none does.
type Repository interface {
	// CreateWithLines inserts the subscription and all its lines in one
	// transaction.
	CreateWithLines(ctx context.Context, sub *Subscription) error

	// GetByID loads a subscription with its lines, scoped to the owner.
	// Returns ErrNotFound for a missing or foreign-tenant id.
	GetByID(ctx context.Context, ownerID, id string) (*Subscription, error)

	List(ctx context.Context, ownerID string) ([]*Subscription, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*Subscription, error)

	// GetPlanPeriod resolves the billing period of a plan owned by the
	// tenant.
	GetPlanPeriod(ctx context.Context, ownerID, planID string) (plan.BillingPeriod, error)

	// Confirm commits the confirmation as one unit: subscription status,
	// totals and recomputed line totals, plus the first invoice and its
	// lines. The subscription row is locked for the duration so two
	// concurrent confirms cannot both generate an invoice.
	Confirm(ctx context.Context, sub *Subscription, inv *invoice.Invoice) error

	// Cancel moves an active subscription to cancelled. The status guard
	// runs inside the UPDATE so a concurrent transition loses cleanly.
	Cancel(ctx context.Context, ownerID, id string, closedAt time.Time) error

	// ListDueForRenewal returns active subscriptions with
	// next_billing_date <= asOf, lines loaded and PlanPeriod joined.
	ListDueForRenewal(ctx context.Context, ownerID string, asOf time.Time) ([]*Subscription, error)

	// ListOwnersDue returns the distinct tenants that have at least one
	// subscription due for renewal, for the scheduled sweep.
	ListOwnersDue(ctx context.Context, asOf time.Time) ([]string, error)

	// Close terminates a subscription whose validity window has elapsed.
	Close(ctx context.Context, id string, closedAt time.Time) error

	// Renew commits one renewal as one unit: the follow-on invoice with
	// its lines and the advanced next_billing_date.
	Renew(ctx context.Context, subscriptionID string, nextBillingDate time.Time, inv *invoice.Invoice) error
}
