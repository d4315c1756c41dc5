package subscription

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/subtrackhq/subtrack-backend/internal/modules/catalog"
	"github.com/subtrackhq/subtrack-backend/internal/modules/invoice"
	"github.com/subtrackhq/subtrack-backend/internal/observability"
)

// dueGracePeriodDays is how long after issue an invoice is payable.
const dueGracePeriodDays = 30

// Service defines the subscription lifecycle and billing engine.
type Service interface {
	Create(ctx context.Context, ownerID string, req CreateSubscriptionRequest) (*Subscription, error)
	Get(ctx context.Context, ownerID, id string) (*Subscription, error)
	List(ctx context.Context, ownerID string) ([]*Subscription, error)

	// Confirm moves a draft or quotation subscription to active:
	// totals are recomputed from the current lines, the first billing
	// date is scheduled and the first invoice is generated, all
	// atomically.
	Confirm(ctx context.Context, ownerID, id string) (*ConfirmResult, error)

	// Cancel moves an active subscription to cancelled.
	Cancel(ctx context.Context, ownerID, id string) (*Subscription, error)

	// ProcessRenewals generates follow-on invoices for every active
	// subscription of the tenant whose billing date has arrived, and
	// closes those past their end date. Failures are isolated per
	// subscription.
	ProcessRenewals(ctx context.Context, ownerID string) (*RenewalSummary, error)

	// ProcessAllRenewals runs the renewal batch for every tenant with
	// due subscriptions. This is what the scheduler calls.
	ProcessAllRenewals(ctx context.Context) (*RenewalSummary, error)
}

type service struct {
	repo    Repository
	catalog catalog.Repository
	log     logrus.FieldLogger
}

func NewService(repo Repository, catalogRepo catalog.Repository, log logrus.FieldLogger) Service {
	return &service{repo: repo, catalog: catalogRepo, log: log}
}

// ── Creation ──────────────────────────────────────────────────────────────────

func (s *service) Create(ctx context.Context, ownerID string, req CreateSubscriptionRequest) (*Subscription, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("invalid customer_id: %w", err)
	}
	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		return nil, fmt.Errorf("invalid plan_id: %w", err)
	}
	if req.StartDate.IsZero() {
		return nil, fmt.Errorf("start_date is required")
	}

	// The plan must exist and belong to the caller before any line is
	// snapshotted against it.
	if _, err := s.repo.GetPlanPeriod(ctx, ownerID, req.PlanID); err != nil {
		return nil, fmt.Errorf("plan not found: %w", ErrNotFound)
	}

	sub := &Subscription{
		ID:                 uuid.New(),
		OwnerID:            owner,
		SubscriptionNumber: req.SubscriptionNumber,
		CustomerID:         customerID,
		PlanID:             planID,
		Status:             StatusDraft,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		PaymentTerms:       req.PaymentTerms,
	}
	if sub.SubscriptionNumber == "" {
		sub.SubscriptionNumber = generateSubscriptionNumber(time.Now().UTC())
	}

	for _, lr := range req.Lines {
		line, err := s.snapshotLine(ctx, ownerID, lr)
		if err != nil {
			return nil, err
		}
		line.SubscriptionID = sub.ID
		sub.Lines = append(sub.Lines, line)
	}

	totals := ComputeTotals(sub.Lines)
	sub.Subtotal = totals.Subtotal
	sub.TaxTotal = totals.TaxTotal
	sub.DiscountTotal = totals.DiscountTotal
	sub.GrandTotal = totals.GrandTotal

	if err := s.repo.CreateWithLines(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return s.repo.GetByID(ctx, ownerID, sub.ID.String())
}

// snapshotLine freezes pricing for one requested line. When only a
// product id is given the snapshot is taken from the catalog;
// otherwise the caller-supplied snapshot values are validated as-is.
func (s *service) snapshotLine(ctx context.Context, ownerID string, lr CreateLineRequest) (*Line, error) {
	if lr.ProductID != "" && lr.ProductNameSnapshot == "" {
		product, err := s.catalog.GetProductByID(ctx, ownerID, lr.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return NewLineSnapshot(product, lr.Quantity, lr.TaxPercent, lr.DiscountPercent)
	}

	line, err := newLine(lr.ProductNameSnapshot, lr.UnitPriceSnapshot, lr.Quantity, lr.TaxPercent, lr.DiscountPercent)
	if err != nil {
		return nil, err
	}
	if lr.ProductID != "" {
		productID, err := uuid.Parse(lr.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product_id: %w", err)
		}
		line.ProductID = &productID
	}
	return line, nil
}

func (s *service) Get(ctx context.Context, ownerID, id string) (*Subscription, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

func (s *service) List(ctx context.Context, ownerID string) ([]*Subscription, error) {
	return s.repo.List(ctx, ownerID)
}

// ── Confirmation engine ───────────────────────────────────────────────────────

func (s *service) Confirm(ctx context.Context, ownerID, id string) (*ConfirmResult, error) {
	sub, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if sub.Status != StatusDraft && sub.Status != StatusQuotation {
		return nil, fmt.Errorf("%w: cannot confirm from status %q", ErrInvalidStateTransition, sub.Status)
	}
	if len(sub.Lines) == 0 {
		return nil, ErrEmptySubscription
	}

	// Recompute from current lines; the cached totals are never
	// trusted, in case lines were edited after draft creation.
	totals := ComputeTotals(sub.Lines)
	sub.Subtotal = totals.Subtotal
	sub.TaxTotal = totals.TaxTotal
	sub.DiscountTotal = totals.DiscountTotal
	sub.GrandTotal = totals.GrandTotal

	period, err := s.repo.GetPlanPeriod(ctx, ownerID, sub.PlanID.String())
	if err != nil {
		return nil, fmt.Errorf("plan not found: %w", ErrNotFound)
	}
	nextBillingDate, err := period.Advance(sub.StartDate)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub.Status = StatusActive
	sub.ConfirmedAt = &now
	sub.NextBillingDate = &nextBillingDate

	inv := s.buildInvoice(sub, now)

	if err := s.repo.Confirm(ctx, sub, inv); err != nil {
		return nil, fmt.Errorf("confirm subscription %s: %w", sub.ID, err)
	}

	s.log.WithFields(logrus.Fields{
		"subscription_id": sub.ID,
		"invoice_id":      inv.ID,
		"grand_total":     sub.GrandTotal,
	}).Info("subscription confirmed")

	return &ConfirmResult{
		Status:          sub.Status,
		InvoiceID:       inv.ID,
		NextBillingDate: nextBillingDate,
		ConfirmedAt:     now,
		Subtotal:        sub.Subtotal,
		TaxTotal:        sub.TaxTotal,
		DiscountTotal:   sub.DiscountTotal,
		GrandTotal:      sub.GrandTotal,
	}, nil
}

// ── Cancellation ──────────────────────────────────────────────────────────────

func (s *service) Cancel(ctx context.Context, ownerID, id string) (*Subscription, error) {
	sub, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(sub.Status, StatusCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel from status %q", ErrInvalidStateTransition, sub.Status)
	}

	if err := s.repo.Cancel(ctx, ownerID, id, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, ownerID, id)
}

// ── Renewal processor ─────────────────────────────────────────────────────────

func (s *service) ProcessRenewals(ctx context.Context, ownerID string) (*RenewalSummary, error) {
	started := time.Now()
	defer func() {
		observability.RenewalBatchDuration.Observe(time.Since(started).Seconds())
	}()

	now := time.Now().UTC()
	due, err := s.repo.ListDueForRenewal(ctx, ownerID, now)
	if err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}

	summary := &RenewalSummary{Errors: []string{}}
	for _, sub := range due {
		if err := s.renewOne(ctx, sub, now, summary); err != nil {
			observability.RenewalsFailed.Inc()
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("failed to renew subscription %s: %v", sub.ID, err))
			s.log.WithError(err).WithField("subscription_id", sub.ID).Warn("renewal failed")
		}
	}

	s.log.WithFields(logrus.Fields{
		"owner_id":  ownerID,
		"due":       len(due),
		"processed": summary.ProcessedCount,
		"errors":    len(summary.Errors),
	}).Info("renewal batch finished")

	return summary, nil
}

func (s *service) ProcessAllRenewals(ctx context.Context) (*RenewalSummary, error) {
	owners, err := s.repo.ListOwnersDue(ctx, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list tenants with due subscriptions: %w", err)
	}

	total := &RenewalSummary{Errors: []string{}}
	for _, owner := range owners {
		summary, err := s.ProcessRenewals(ctx, owner)
		if err != nil {
			total.Errors = append(total.Errors, fmt.Sprintf("tenant %s: %v", owner, err))
			continue
		}
		total.ProcessedCount += summary.ProcessedCount
		total.Errors = append(total.Errors, summary.Errors...)
	}
	return total, nil
}

// renewOne commits a single subscription's renewal in its own
// transaction so one failure cannot poison the rest of the batch.
func (s *service) renewOne(ctx context.Context, sub *Subscription, now time.Time, summary *RenewalSummary) error {
	if sub.NextBillingDate == nil {
		return fmt.Errorf("active subscription has no next_billing_date")
	}

	// Past the validity window: close instead of billing.
	if sub.EndDate != nil && sub.NextBillingDate.After(*sub.EndDate) {
		if err := s.repo.Close(ctx, sub.ID.String(), now); err != nil {
			return err
		}
		observability.RenewalsClosed.Inc()
		s.log.WithField("subscription_id", sub.ID).Info("subscription closed past end date")
		return nil
	}

	// Follow-on invoices reuse the cached totals; recomputation is the
	// confirmation engine's job.
	inv := s.buildInvoice(sub, now)

	// Roll forward from the current billing date, not the start date.
	next, err := sub.PlanPeriod.Advance(*sub.NextBillingDate)
	if err != nil {
		return err
	}

	if err := s.repo.Renew(ctx, sub.ID.String(), next, inv); err != nil {
		return err
	}

	summary.ProcessedCount++
	observability.RenewalsProcessed.Inc()
	return nil
}

// ── Invoice construction ──────────────────────────────────────────────────────

// buildInvoice freezes the subscription's totals and lines into a new
// invoice due in dueGracePeriodDays.
func (s *service) buildInvoice(sub *Subscription, now time.Time) *invoice.Invoice {
	issueDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	inv := &invoice.Invoice{
		ID:             uuid.New(),
		OwnerID:        sub.OwnerID,
		InvoiceNumber:  generateInvoiceNumber(now, sub.ID),
		SubscriptionID: sub.ID,
		CustomerID:     sub.CustomerID,
		IssueDate:      issueDate,
		DueDate:        issueDate.AddDate(0, 0, dueGracePeriodDays),
		Status:         invoice.StatusPending,
		Subtotal:       sub.Subtotal,
		TaxTotal:       sub.TaxTotal,
		DiscountTotal:  sub.DiscountTotal,
		GrandTotal:     sub.GrandTotal,
	}
	for _, line := range sub.Lines {
		inv.Lines = append(inv.Lines, &invoice.Line{
			ID:              uuid.New(),
			InvoiceID:       inv.ID,
			ProductName:     line.ProductNameSnapshot,
			UnitPrice:       line.UnitPriceSnapshot,
			Quantity:        line.Quantity,
			TaxPercent:      line.TaxPercent,
			DiscountPercent: line.DiscountPercent,
			LineTotal:       line.LineTotal,
		})
	}
	return inv
}

// generateInvoiceNumber builds INV-YYYYMMDD-<sub-prefix>-<suffix>.
// The random suffix keeps same-day collisions unlikely; the unique
// constraint on invoice_number is what actually enforces uniqueness.
func generateInvoiceNumber(t time.Time, subscriptionID uuid.UUID) string {
	return fmt.Sprintf("INV-%s-%s-%03d",
		t.Format("20060102"), subscriptionID.String()[:8], 100+rand.Intn(900))
}

func generateSubscriptionNumber(t time.Time) string {
	return fmt.Sprintf("SUB-%s-%04d", t.Format("20060102"), rand.Intn(10000))
}
