package payment

import (
	"time"

	"github.com/google/uuid"
)

// Provider represents a supported payment method.
type Provider string

const (
	ProviderCard Provider = "CARD"
	ProviderBank Provider = "BANK_TRANSFER"
	ProviderCash Provider = "CASH"
)

// TxStatus represents the internal lifecycle of a payment attempt.
type TxStatus string

const (
	TxPending    TxStatus = "PENDING"
	TxProcessing TxStatus = "PROCESSING"
	TxCompleted  TxStatus = "COMPLETED"
	TxFailed     TxStatus = "FAILED"
	TxRefunded   TxStatus = "REFUNDED"
)

// Terminal reports whether no further provider updates are expected.
func (s TxStatus) Terminal() bool {
	return s == TxCompleted || s == TxFailed || s == TxRefunded
}

// Payment is the provider-agnostic record of one payment attempt
// against an invoice.
type Payment struct {
	ID             uuid.UUID  `json:"id"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	InvoiceID      uuid.UUID  `json:"invoice_id"`
	Provider       Provider   `json:"provider"`
	ProviderRef    string     `json:"provider_ref,omitempty"`
	ProviderStatus string     `json:"provider_status,omitempty"`
	Status         TxStatus   `json:"status"`
	Amount         float64    `json:"amount"`
	Currency       string     `json:"currency"`
	Description    string     `json:"description,omitempty"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
	PaymentDate    *time.Time `json:"payment_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// InitiatePaymentRequest is the payload to start a new payment.
type InitiatePaymentRequest struct {
	Provider       string  `json:"provider"` // CARD | BANK_TRANSFER | CASH
	InvoiceID      string  `json:"invoice_id"`
	Amount         float64 `json:"amount,omitempty"` // defaults to the invoice grand total
	Currency       string  `json:"currency,omitempty"`
	Description    string  `json:"description,omitempty"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
}

// ProviderInitResponse is what a gateway adapter returns after
// initiating or verifying a payment.
type ProviderInitResponse struct {
	ProviderRef    string `json:"provider_ref"`
	ProviderStatus string `json:"provider_status"`
	Message        string `json:"message,omitempty"`
}
