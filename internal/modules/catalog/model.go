package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Product is a sellable item owned by a tenant. Plans reference it and
// subscription lines snapshot its name and price at line creation.
type Product struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	BasePrice   float64   `json:"base_price"`
	Type        string    `json:"type,omitempty"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Tax is a named tax rate a tenant can apply to subscription lines.
type Tax struct {
	ID       uuid.UUID `json:"id"`
	OwnerID  uuid.UUID `json:"owner_id"`
	Name     string    `json:"name"`
	Percent  float64   `json:"percent"`
	IsActive bool      `json:"is_active"`
}

// DiscountType distinguishes percentage discounts from fixed amounts.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// Discount is a named reduction a tenant can apply to subscription lines.
type Discount struct {
	ID         uuid.UUID    `json:"id"`
	OwnerID    uuid.UUID    `json:"owner_id"`
	Name       string       `json:"name"`
	Type       DiscountType `json:"type"`
	Value      float64      `json:"value"`
	StartDate  *time.Time   `json:"start_date,omitempty"`
	EndDate    *time.Time   `json:"end_date,omitempty"`
	UsageLimit *int         `json:"usage_limit,omitempty"`
}

// CreateProductRequest is the payload for creating a product.
type CreateProductRequest struct {
	Name        string  `json:"name"`
	BasePrice   float64 `json:"base_price"`
	Type        string  `json:"type,omitempty"`
	Description string  `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"` // defaults to true
}

// CreateTaxRequest is the payload for creating a tax rate.
type CreateTaxRequest struct {
	Name     string  `json:"name"`
	Percent  float64 `json:"percent"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// CreateDiscountRequest is the payload for creating a discount.
type CreateDiscountRequest struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Value      float64    `json:"value"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	UsageLimit *int       `json:"usage_limit,omitempty"`
}
