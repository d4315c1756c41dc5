package invoice

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an invoice.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
	StatusVoid      Status = "void"
)

// Valid reports whether the status is one of the closed set.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusPaid, StatusCancelled, StatusVoid:
		return true
	}
	return false
}

// Line is a priced row cloned from a subscription line at generation
// time. Lines are never recomputed after the invoice is issued.
type Line struct {
	ID              uuid.UUID `json:"id"`
	InvoiceID       uuid.UUID `json:"invoice_id"`
	ProductName     string    `json:"product_name"`
	UnitPrice       float64   `json:"unit_price"`
	Quantity        int       `json:"quantity"`
	TaxPercent      float64   `json:"tax_percent"`
	DiscountPercent float64   `json:"discount_percent"`
	LineTotal       float64   `json:"line_total"`
}

// Invoice is one billing cycle's demand for payment. Totals are frozen
// at issue time; only payment-audit fields change once paid.
type Invoice struct {
	ID             uuid.UUID  `json:"id"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	InvoiceNumber  string     `json:"invoice_number"`
	SubscriptionID uuid.UUID  `json:"subscription_id"`
	CustomerID     uuid.UUID  `json:"customer_id"`
	IssueDate      time.Time  `json:"issue_date"`
	DueDate        time.Time  `json:"due_date"`
	Status         Status     `json:"status"`
	Subtotal       float64    `json:"subtotal"`
	TaxTotal       float64    `json:"tax_total"`
	DiscountTotal  float64    `json:"discount_total"`
	GrandTotal     float64    `json:"grand_total"`
	PaymentMethod  string     `json:"payment_method,omitempty"`
	PaidDate       *time.Time `json:"paid_date,omitempty"`
	Lines          []*Line    `json:"invoice_lines"`
	CreatedAt      time.Time  `json:"created_at"`
}

// UpdateStatusRequest is the payload for patching an invoice status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// PayRequest is the payload for marking an invoice paid.
type PayRequest struct {
	PaymentMethod string `json:"payment_method"`
}
