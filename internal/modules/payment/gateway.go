package payment

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Gateway is the provider-agnostic interface every payment adapter
// must implement. To add a real processor (Stripe, Adyen, ...),
// implement this interface and register it.
type Gateway interface {
	// Initiate sends a payment request to the provider and returns the
	// provider reference.
	Initiate(ctx context.Context, req *InitiatePaymentRequest) (*ProviderInitResponse, error)
	// Verify queries the provider for the current status of a
	// transaction.
	Verify(ctx context.Context, providerRef string) (*ProviderInitResponse, error)
}

// GatewayRegistry maps provider names to their Gateway implementations.
type GatewayRegistry map[Provider]Gateway

// ── Simulated card gateway ────────────────────────────────────────────────────
// Stands in for a real card processor. Charges settle synchronously.

type simulatedCardGateway struct {
	env string // sandbox | production
}

func NewSimulatedCardGateway(env string) Gateway {
	return &simulatedCardGateway{env: env}
}

func (g *simulatedCardGateway) Initiate(ctx context.Context, req *InitiatePaymentRequest) (*ProviderInitResponse, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be greater than 0")
	}
	ref := fmt.Sprintf("CARD-%s-%04d", time.Now().Format("20060102150405"), rand.Intn(10000))
	return &ProviderInitResponse{
		ProviderRef:    ref,
		ProviderStatus: "CAPTURED",
		Message:        "Card charge captured",
	}, nil
}

func (g *simulatedCardGateway) Verify(ctx context.Context, providerRef string) (*ProviderInitResponse, error) {
	return &ProviderInitResponse{
		ProviderRef:    providerRef,
		ProviderStatus: "CAPTURED",
		Message:        "Charge settled",
	}, nil
}

// ── Bank transfer gateway ─────────────────────────────────────────────────────
// Transfers clear asynchronously; Initiate only registers the expected
// payment and Verify reports whether the funds have landed.

type bankTransferGateway struct {
	env string
}

func NewBankTransferGateway(env string) Gateway {
	return &bankTransferGateway{env: env}
}

func (g *bankTransferGateway) Initiate(ctx context.Context, req *InitiatePaymentRequest) (*ProviderInitResponse, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be greater than 0")
	}
	ref := fmt.Sprintf("BANK-%s-%04d", time.Now().Format("20060102150405"), rand.Intn(10000))
	return &ProviderInitResponse{
		ProviderRef:    ref,
		ProviderStatus: "AWAITING_FUNDS",
		Message:        "Transfer registered. Awaiting bank settlement.",
	}, nil
}

func (g *bankTransferGateway) Verify(ctx context.Context, providerRef string) (*ProviderInitResponse, error) {
	return &ProviderInitResponse{
		ProviderRef:    providerRef,
		ProviderStatus: "SETTLED",
		Message:        "Funds received",
	}, nil
}

// NormaliseStatus maps provider-specific status strings to the
// internal TxStatus.
func NormaliseStatus(provider Provider, providerStatus string) TxStatus {
	s := strings.ToUpper(providerStatus)
	switch provider {
	case ProviderCard:
		switch s {
		case "CAPTURED", "SETTLED":
			return TxCompleted
		case "DECLINED":
			return TxFailed
		default:
			return TxProcessing
		}
	case ProviderBank:
		switch s {
		case "SETTLED":
			return TxCompleted
		case "RETURNED":
			return TxFailed
		case "AWAITING_FUNDS":
			return TxProcessing
		default:
			return TxProcessing
		}
	default:
		return TxProcessing
	}
}
