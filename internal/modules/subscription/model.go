package subscription

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/subtrackhq/subtrack-backend/internal/modules/plan"
)

// Stable sentinel errors so callers and handlers can branch on the
// exact failure instead of matching message strings.
var (
	// ErrNotFound covers both a missing subscription and one owned by
	// another tenant; the two are indistinguishable on purpose.
	ErrNotFound = errors.New("subscription not found")

	// ErrInvalidStateTransition is returned when an operation is
	// attempted from a status that does not allow it. State is left
	// unchanged, never silently no-opped.
	ErrInvalidStateTransition = errors.New("invalid subscription state transition")

	// ErrEmptySubscription is returned when confirming a subscription
	// with zero lines.
	ErrEmptySubscription = errors.New("subscription has no lines")

	// ErrInvalidPercent is returned for tax or discount percentages
	// outside [0,100]. Out-of-range values are rejected, not clamped.
	ErrInvalidPercent = errors.New("percent must be between 0 and 100")

	// ErrInvalidQuantity is returned for line quantities below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Status represents the lifecycle state of a subscription.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusQuotation Status = "quotation"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusClosed    Status = "closed"
)

// validTransitions defines the allowed subscription state machine
// transitions. cancelled and closed are terminal.
var validTransitions = map[Status][]Status{
	StatusDraft:     {StatusQuotation, StatusActive},
	StatusQuotation: {StatusActive},
	StatusActive:    {StatusCancelled, StatusClosed},
	StatusCancelled: {},
	StatusClosed:    {},
}

// CanTransition returns true if moving from current to next is valid.
// Unknown statuses never transition anywhere.
func CanTransition(current, next Status) bool {
	allowed, ok := validTransitions[current]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == next {
			return true
		}
	}
	return false
}

// Line is a priced snapshot frozen at line-creation time. Catalog
// edits never touch it; only the confirmation engine recomputes its
// total.
type Line struct {
	ID                  uuid.UUID  `json:"id"`
	SubscriptionID      uuid.UUID  `json:"subscription_id"`
	ProductID           *uuid.UUID `json:"product_id,omitempty"`
	ProductNameSnapshot string     `json:"product_name_snapshot"`
	UnitPriceSnapshot   float64    `json:"unit_price_snapshot"`
	Quantity            int        `json:"quantity"`
	TaxPercent          float64    `json:"tax_percent"`
	DiscountPercent     float64    `json:"discount_percent"`
	LineTotal           float64    `json:"line_total"`
}

// Subscription is a recurring agreement between a tenant and one of
// its customers. The four totals are derived caches recomputed by the
// confirmation engine, never trusted as ground truth elsewhere.
type Subscription struct {
	ID                 uuid.UUID  `json:"id"`
	OwnerID            uuid.UUID  `json:"owner_id"`
	SubscriptionNumber string     `json:"subscription_number"`
	CustomerID         uuid.UUID  `json:"customer_id"`
	PlanID             uuid.UUID  `json:"plan_id"`
	Status             Status     `json:"status"`
	StartDate          time.Time  `json:"start_date"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	NextBillingDate    *time.Time `json:"next_billing_date,omitempty"`
	PaymentTerms       string     `json:"payment_terms,omitempty"`
	Subtotal           float64    `json:"subtotal"`
	TaxTotal           float64    `json:"tax_total"`
	DiscountTotal      float64    `json:"discount_total"`
	GrandTotal         float64    `json:"grand_total"`
	Lines              []*Line    `json:"subscription_lines"`
	CreatedAt          time.Time  `json:"created_at"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	ClosedAt           *time.Time `json:"closed_at,omitempty"`

	// PlanPeriod is denormalized from the plan on reads that join it;
	// it is not a column on the subscriptions table.
	PlanPeriod plan.BillingPeriod `json:"billing_period,omitempty"`
}

// CreateLineRequest is one snapshot line in a create payload.
type CreateLineRequest struct {
	ProductID           string  `json:"product_id,omitempty"`
	ProductNameSnapshot string  `json:"product_name_snapshot"`
	UnitPriceSnapshot   float64 `json:"unit_price_snapshot"`
	Quantity            int     `json:"quantity"`
	TaxPercent          float64 `json:"tax_percent,omitempty"`
	DiscountPercent     float64 `json:"discount_percent,omitempty"`
}

// CreateSubscriptionRequest is the payload for creating a draft
// subscription with its snapshot lines.
type CreateSubscriptionRequest struct {
	SubscriptionNumber string              `json:"subscription_number,omitempty"` // generated when empty
	CustomerID         string              `json:"customer_id"`
	PlanID             string              `json:"plan_id"`
	StartDate          time.Time           `json:"start_date"`
	EndDate            *time.Time          `json:"end_date,omitempty"`
	PaymentTerms       string              `json:"payment_terms,omitempty"`
	Lines              []CreateLineRequest `json:"subscription_lines"`
}

// ConfirmResult is returned by the confirmation engine.
type ConfirmResult struct {
	Status          Status    `json:"status"`
	InvoiceID       uuid.UUID `json:"invoice_id"`
	NextBillingDate time.Time `json:"next_billing_date"`
	ConfirmedAt     time.Time `json:"confirmed_at"`
	Subtotal        float64   `json:"subtotal"`
	TaxTotal        float64   `json:"tax_total"`
	DiscountTotal   float64   `json:"discount_total"`
	GrandTotal      float64   `json:"grand_total"`
}

// RenewalSummary reports one renewal batch run. Errors are recorded
// per subscription; a failure never aborts the rest of the batch.
type RenewalSummary struct {
	ProcessedCount int      `json:"processed_count"`
	Errors         []string `json:"errors"`
}
