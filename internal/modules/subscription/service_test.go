package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subtrackhq/subtrack-backend/internal/modules/catalog"
	"github.com/subtrackhq/subtrack-backend/internal/modules/invoice"
	"github.com/subtrackhq/subtrack-backend/internal/modules/plan"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	subs    map[string]*Subscription
	periods map[string]plan.BillingPeriod // planID -> period

	invoices    []*invoice.Invoice
	confirmErr  error
	renewErr    map[string]error // subscriptionID -> error
	closedIDs   []string
	renewedNext map[string]time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		subs:        map[string]*Subscription{},
		periods:     map[string]plan.BillingPeriod{},
		renewErr:    map[string]error{},
		renewedNext: map[string]time.Time{},
	}
}

func (f *fakeRepo) CreateWithLines(ctx context.Context, sub *Subscription) error {
	f.subs[sub.ID.String()] = sub
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, ownerID, id string) (*Subscription, error) {
	sub, ok := f.subs[id]
	if !ok || sub.OwnerID.String() != ownerID {
		return nil, ErrNotFound
	}
	return sub, nil
}

func (f *fakeRepo) List(ctx context.Context, ownerID string) ([]*Subscription, error) {
	var out []*Subscription
	for _, sub := range f.subs {
		if sub.OwnerID.String() == ownerID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListByCustomer(ctx context.Context, customerID string) ([]*Subscription, error) {
	var out []*Subscription
	for _, sub := range f.subs {
		if sub.CustomerID.String() == customerID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetPlanPeriod(ctx context.Context, ownerID, planID string) (plan.BillingPeriod, error) {
	period, ok := f.periods[planID]
	if !ok {
		return "", errors.New("no rows")
	}
	return period, nil
}

func (f *fakeRepo) Confirm(ctx context.Context, sub *Subscription, inv *invoice.Invoice) error {
	if f.confirmErr != nil {
		return f.confirmErr
	}
	f.subs[sub.ID.String()] = sub
	f.invoices = append(f.invoices, inv)
	return nil
}

func (f *fakeRepo) Cancel(ctx context.Context, ownerID, id string, closedAt time.Time) error {
	sub, ok := f.subs[id]
	if !ok || sub.Status != StatusActive {
		return ErrInvalidStateTransition
	}
	sub.Status = StatusCancelled
	sub.ClosedAt = &closedAt
	sub.NextBillingDate = nil
	return nil
}

func (f *fakeRepo) ListDueForRenewal(ctx context.Context, ownerID string, asOf time.Time) ([]*Subscription, error) {
	var due []*Subscription
	for _, sub := range f.subs {
		if sub.OwnerID.String() != ownerID || sub.Status != StatusActive {
			continue
		}
		if sub.NextBillingDate != nil && !sub.NextBillingDate.After(asOf) {
			due = append(due, sub)
		}
	}
	return due, nil
}

func (f *fakeRepo) ListOwnersDue(ctx context.Context, asOf time.Time) ([]string, error) {
	seen := map[string]bool{}
	var owners []string
	for _, sub := range f.subs {
		if sub.Status == StatusActive && sub.NextBillingDate != nil && !sub.NextBillingDate.After(asOf) {
			if !seen[sub.OwnerID.String()] {
				seen[sub.OwnerID.String()] = true
				owners = append(owners, sub.OwnerID.String())
			}
		}
	}
	return owners, nil
}

func (f *fakeRepo) Close(ctx context.Context, id string, closedAt time.Time) error {
	sub, ok := f.subs[id]
	if !ok || sub.Status != StatusActive {
		return ErrInvalidStateTransition
	}
	sub.Status = StatusClosed
	sub.ClosedAt = &closedAt
	sub.NextBillingDate = nil
	f.closedIDs = append(f.closedIDs, id)
	return nil
}

func (f *fakeRepo) Renew(ctx context.Context, subscriptionID string, nextBillingDate time.Time, inv *invoice.Invoice) error {
	if err := f.renewErr[subscriptionID]; err != nil {
		return err
	}
	sub, ok := f.subs[subscriptionID]
	if !ok || sub.Status != StatusActive {
		return ErrInvalidStateTransition
	}
	sub.NextBillingDate = &nextBillingDate
	f.invoices = append(f.invoices, inv)
	f.renewedNext[subscriptionID] = nextBillingDate
	return nil
}

// fakeCatalog serves product lookups for snapshot tests.
type fakeCatalog struct {
	products map[string]*catalog.Product
}

func (f *fakeCatalog) CreateProduct(ctx context.Context, p *catalog.Product) error { return nil }
func (f *fakeCatalog) GetProductByID(ctx context.Context, ownerID, id string) (*catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	return p, nil
}
func (f *fakeCatalog) ListProducts(ctx context.Context, ownerID string) ([]*catalog.Product, error) {
	return nil, nil
}
func (f *fakeCatalog) CreateTax(ctx context.Context, t *catalog.Tax) error { return nil }
func (f *fakeCatalog) ListTaxes(ctx context.Context, ownerID string) ([]*catalog.Tax, error) {
	return nil, nil
}
func (f *fakeCatalog) CreateDiscount(ctx context.Context, d *catalog.Discount) error { return nil }
func (f *fakeCatalog) ListDiscounts(ctx context.Context, ownerID string) ([]*catalog.Discount, error) {
	return nil, nil
}

func newTestService(repo *fakeRepo) Service {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewService(repo, &fakeCatalog{products: map[string]*catalog.Product{}}, log)
}

func seedSubscription(repo *fakeRepo, status Status, period plan.BillingPeriod, lines ...*Line) *Subscription {
	sub := &Subscription{
		ID:                 uuid.New(),
		OwnerID:            uuid.New(),
		SubscriptionNumber: "SUB-20240101-0001",
		CustomerID:         uuid.New(),
		PlanID:             uuid.New(),
		Status:             status,
		StartDate:          time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Lines:              lines,
		PlanPeriod:         period,
	}
	for _, line := range lines {
		line.SubscriptionID = sub.ID
	}
	repo.subs[sub.ID.String()] = sub
	repo.periods[sub.PlanID.String()] = period
	return sub
}

func testLine(price float64, quantity int, taxPercent, discountPercent float64) *Line {
	return &Line{
		ID:                  uuid.New(),
		ProductNameSnapshot: "Seat",
		UnitPriceSnapshot:   price,
		Quantity:            quantity,
		TaxPercent:          taxPercent,
		DiscountPercent:     discountPercent,
	}
}

// ── Confirm ──────────────────────────────────────────────────────────────────

func TestConfirmActivatesAndInvoices(t *testing.T) {
	repo := newFakeRepo()
	sub := seedSubscription(repo, StatusDraft, plan.PeriodMonthly, testLine(90, 1, 10, 0))
	svc := newTestService(repo)

	result, err := svc.Confirm(context.Background(), sub.OwnerID.String(), sub.ID.String())
	require.NoError(t, err)

	assert.Equal(t, StatusActive, result.Status)
	assert.InDelta(t, 99.0, result.GrandTotal, 1e-9)
	assert.Equal(t, time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC), result.NextBillingDate)

	require.Len(t, repo.invoices, 1)
	inv := repo.invoices[0]
	assert.Equal(t, invoice.StatusPending, inv.Status)
	assert.Equal(t, sub.ID, inv.SubscriptionID)
	assert.InDelta(t, result.GrandTotal, inv.GrandTotal, 1e-6)
	assert.Equal(t, inv.IssueDate.AddDate(0, 0, 30), inv.DueDate)
	assert.Contains(t, inv.InvoiceNumber, "INV-")

	// Invoice lines sum to the invoice grand total.
	var sum float64
	for _, line := range inv.Lines {
		sum += line.LineTotal
	}
	assert.InDelta(t, inv.GrandTotal, sum, 1e-6)
}

func TestConfirmFromQuotation(t *testing.T) {
	repo := newFakeRepo()
	sub := seedSubscription(repo, StatusQuotation, plan.PeriodYearly, testLine(1200, 1, 0, 0))
	svc := newTestService(repo)

	result, err := svc.Confirm(context.Background(), sub.OwnerID.String(), sub.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusActive, result.Status)
	assert.Equal(t, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), result.NextBillingDate)
}

func TestConfirmRejectsEmptySubscription(t *testing.T) {
	repo := newFakeRepo()
	sub := seedSubscription(repo, StatusDraft, plan.PeriodMonthly)
	svc := newTestService(repo)

	_, err := svc.Confirm(context.Background(), sub.OwnerID.String(), sub.ID.String())
	assert.ErrorIs(t, err, ErrEmptySubscription)
	assert.Empty(t, repo.invoices)
	assert.Equal(t, StatusDraft, repo.subs[sub.ID.String()].Status)
}

func TestConfirmRejectsDoubleConfirm(t *testing.T) {
	repo := newFakeRepo()
	sub := seedSubscription(repo, StatusDraft, plan.PeriodMonthly, testLine(10, 1, 0, 0))
	svc := newTestService(repo)

	_, err := svc.Confirm(context.Background(), sub.OwnerID.String(), sub.ID.String())
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), sub.OwnerID.String(), sub.ID.String())
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.Len(t, repo.invoices, 1, "second confirm must not produce another invoice")
}

func TestConfirmUnknownSubscription(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.Confirm(context.Background(), uuid.NewString(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConfirmRecomputesStaleTotals(t *testing.T) {
	repo := newFakeRepo()
	line := testLine(100, 2, 0, 0)
	line.LineTotal = 1 // stale cached value
	sub := seedSubscription(repo, StatusDraft, plan.PeriodMonthly, line)
	sub.GrandTotal = 1 // stale aggregate
	svc := newTestService(repo)

	result, err := svc.Confirm(context.Background(), sub.OwnerID.String(), sub.ID.String())
	require.NoError(t, err)
	assert.InDelta(t, 200.0, result.GrandTotal, 1e-9)
	assert.InDelta(t, 200.0, line.LineTotal, 1e-9)
}

// ── Cancel ───────────────────────────────────────────────────────────────────

func TestCancelActiveSubscription(t *testing.T) {
	repo := newFakeRepo()
	sub := seedSubscription(repo, StatusActive, plan.PeriodMonthly, testLine(10, 1, 0, 0))
	svc := newTestService(repo)

	got, err := svc.Cancel(context.Background(), sub.OwnerID.String(), sub.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.NotNil(t, got.ClosedAt)
}

func TestCancelRejectsNonActive(t *testing.T) {
	for _, status := range []Status{StatusDraft, StatusQuotation, StatusCancelled, StatusClosed} {
		repo := newFakeRepo()
		sub := seedSubscription(repo, status, plan.PeriodMonthly, testLine(10, 1, 0, 0))
		svc := newTestService(repo)

		_, err := svc.Cancel(context.Background(), sub.OwnerID.String(), sub.ID.String())
		assert.ErrorIs(t, err, ErrInvalidStateTransition, "status %s", status)
		assert.Equal(t, status, repo.subs[sub.ID.String()].Status, "status %s must be unchanged", status)
	}
}

// ── Renewals ─────────────────────────────────────────────────────────────────

func activateAt(sub *Subscription, next time.Time) {
	sub.Status = StatusActive
	sub.NextBillingDate = &next
	sub.Subtotal = 100
	sub.GrandTotal = 100
}

func TestProcessRenewalsGeneratesInvoiceAndAdvances(t *testing.T) {
	repo := newFakeRepo()
	sub := seedSubscription(repo, StatusActive, plan.PeriodMonthly, testLine(100, 1, 0, 0))
	due := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	activateAt(sub, due)
	svc := newTestService(repo)

	summary, err := svc.ProcessRenewals(context.Background(), sub.OwnerID.String())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ProcessedCount)
	assert.Empty(t, summary.Errors)
	require.Len(t, repo.invoices, 1)

	// Advanced from the due date, not from today: Jan 31 -> Feb 29 (2024).
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
		repo.renewedNext[sub.ID.String()])
}

func TestProcessRenewalsSkipsFutureBillingDates(t *testing.T) {
	repo := newFakeRepo()
	sub := seedSubscription(repo, StatusActive, plan.PeriodMonthly, testLine(100, 1, 0, 0))
	future := time.Now().UTC().AddDate(0, 1, 0)
	activateAt(sub, future)
	svc := newTestService(repo)

	summary, err := svc.ProcessRenewals(context.Background(), sub.OwnerID.String())
	require.NoError(t, err)
	assert.Zero(t, summary.ProcessedCount)
	assert.Empty(t, repo.invoices)
}

func TestProcessRenewalsClosesPastEndDate(t *testing.T) {
	repo := newFakeRepo()
	sub := seedSubscription(repo, StatusActive, plan.PeriodMonthly, testLine(100, 1, 0, 0))
	due := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	activateAt(sub, due)
	sub.EndDate = &end
	svc := newTestService(repo)

	summary, err := svc.ProcessRenewals(context.Background(), sub.OwnerID.String())
	require.NoError(t, err)

	assert.Zero(t, summary.ProcessedCount, "a closed subscription is not a renewal")
	assert.Empty(t, summary.Errors)
	assert.Empty(t, repo.invoices, "no invoice past the end date")
	assert.Equal(t, StatusClosed, repo.subs[sub.ID.String()].Status)
}

func TestProcessRenewalsIsolatesFailures(t *testing.T) {
	repo := newFakeRepo()
	owner := uuid.New()

	bad := seedSubscription(repo, StatusActive, plan.PeriodMonthly, testLine(100, 1, 0, 0))
	bad.OwnerID = owner
	activateAt(bad, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	repo.renewErr[bad.ID.String()] = errors.New("connection reset")

	good := seedSubscription(repo, StatusActive, plan.PeriodMonthly, testLine(50, 1, 0, 0))
	good.OwnerID = owner
	activateAt(good, time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC))

	svc := newTestService(repo)
	summary, err := svc.ProcessRenewals(context.Background(), owner.String())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ProcessedCount)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], bad.ID.String())
	assert.Len(t, repo.invoices, 1)
}

func TestProcessAllRenewalsSweepsEveryTenant(t *testing.T) {
	repo := newFakeRepo()
	due := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	first := seedSubscription(repo, StatusActive, plan.PeriodMonthly, testLine(10, 1, 0, 0))
	activateAt(first, due)
	second := seedSubscription(repo, StatusActive, plan.PeriodQuarterly, testLine(20, 1, 0, 0))
	activateAt(second, due)

	svc := newTestService(repo)
	summary, err := svc.ProcessAllRenewals(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ProcessedCount)
	assert.Empty(t, summary.Errors)
	assert.Len(t, repo.invoices, 2)
}

// ── Create ───────────────────────────────────────────────────────────────────

func TestCreateSnapshotsLinesAndTotals(t *testing.T) {
	repo := newFakeRepo()
	owner := uuid.New()
	planID := uuid.New()
	repo.periods[planID.String()] = plan.PeriodMonthly
	svc := newTestService(repo)

	sub, err := svc.Create(context.Background(), owner.String(), CreateSubscriptionRequest{
		CustomerID: uuid.NewString(),
		PlanID:     planID.String(),
		StartDate:  time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		Lines: []CreateLineRequest{
			{ProductNameSnapshot: "Seat", UnitPriceSnapshot: 25, Quantity: 4, TaxPercent: 10},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, sub.Status)
	assert.NotEmpty(t, sub.SubscriptionNumber)
	assert.Nil(t, sub.NextBillingDate, "billing is not scheduled before confirmation")
	require.Len(t, sub.Lines, 1)
	assert.InDelta(t, 110.0, sub.GrandTotal, 1e-9)
}

func TestCreateRejectsUnknownPlan(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), uuid.NewString(), CreateSubscriptionRequest{
		CustomerID: uuid.NewString(),
		PlanID:     uuid.NewString(),
		StartDate:  time.Now(),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRejectsInvalidLine(t *testing.T) {
	repo := newFakeRepo()
	planID := uuid.New()
	repo.periods[planID.String()] = plan.PeriodMonthly
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), uuid.NewString(), CreateSubscriptionRequest{
		CustomerID: uuid.NewString(),
		PlanID:     planID.String(),
		StartDate:  time.Now(),
		Lines: []CreateLineRequest{
			{ProductNameSnapshot: "Seat", UnitPriceSnapshot: 25, Quantity: 0},
		},
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}
