package dashboard

import (
	"github.com/subtrackhq/subtrack-backend/internal/modules/customer"
	"github.com/subtrackhq/subtrack-backend/internal/modules/invoice"
	"github.com/subtrackhq/subtrack-backend/internal/modules/subscription"
)

// TenantStats is the business-owner overview.
type TenantStats struct {
	CustomerCount       int     `json:"customer_count"`
	ActiveSubscriptions int     `json:"active_subscriptions"`
	DraftSubscriptions  int     `json:"draft_subscriptions"`
	PaidRevenue         float64 `json:"paid_revenue"`
	UnpaidInvoices      int     `json:"unpaid_invoices"`
	UnpaidAmount        float64 `json:"unpaid_amount"`
}

// PortalOverview is what a portal customer sees on login: their own
// record plus open balances.
type PortalOverview struct {
	Customer            *customer.Customer `json:"customer"`
	ActiveSubscriptions int                `json:"active_subscriptions"`
	OpenInvoices        int                `json:"open_invoices"`
	OutstandingAmount   float64            `json:"outstanding_amount"`
}

// PortalSubscriptions wraps the customer-scoped subscription list.
type PortalSubscriptions struct {
	Subscriptions []*subscription.Subscription `json:"subscriptions"`
}

// PortalInvoices wraps the customer-scoped invoice list.
type PortalInvoices struct {
	Invoices []*invoice.Invoice `json:"invoices"`
}
