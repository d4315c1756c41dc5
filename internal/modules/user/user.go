package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Mode separates business accounts (tenants owning catalog and billing
// data) from portal accounts (customers reading their own invoices).
type Mode string

const (
	ModeBusiness Mode = "business"
	ModePortal   Mode = "portal"
)

// User represents an account in the system.
// @Description User information
// @Description with id, username, email, mode, created_at, and updated_at
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Mode         Mode      `json:"mode"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Repository defines data access for users.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}
