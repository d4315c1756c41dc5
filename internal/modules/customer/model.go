package customer

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a billable party owned by a tenant. A customer may be
// linked to a portal user account for self-service access.
type Customer struct {
	ID           uuid.UUID  `json:"id"`
	OwnerID      uuid.UUID  `json:"owner_id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PortalUserID *uuid.UUID `json:"portal_user_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// CreateCustomerRequest is the payload for creating a customer.
type CreateCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// InviteResponse carries the generated portal credentials. The
// password is returned exactly once and stored only as a hash.
type InviteResponse struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	PortalURL string `json:"portal_url"`
}
