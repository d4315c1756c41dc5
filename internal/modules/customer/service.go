package customer

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/subtrackhq/subtrack-backend/internal/modules/user"
)

// Service defines customer business logic.
type Service interface {
	CreateCustomer(ctx context.Context, ownerID string, req CreateCustomerRequest) (*Customer, error)
	GetCustomer(ctx context.Context, ownerID, id string) (*Customer, error)
	ListCustomers(ctx context.Context, ownerID string) ([]*Customer, error)
	// InvitePortalUser provisions a portal account for the customer and
	// returns the one-time credentials.
	InvitePortalUser(ctx context.Context, ownerID, id string) (*InviteResponse, error)
}

type service struct {
	repo      Repository
	users     user.Service
	portalURL string
}

func NewService(repo Repository, users user.Service, portalURL string) Service {
	return &service{repo: repo, users: users, portalURL: portalURL}
}

func (s *service) CreateCustomer(ctx context.Context, ownerID string, req CreateCustomerRequest) (*Customer, error) {
	if req.Name == "" || req.Email == "" {
		return nil, fmt.Errorf("name and email are required")
	}
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}

	c := &Customer{
		ID:      uuid.New(),
		OwnerID: owner,
		Name:    req.Name,
		Email:   strings.ToLower(req.Email),
	}
	if err := s.repo.CreateCustomer(ctx, c); err != nil {
		return nil, err
	}
	return s.repo.GetCustomerByID(ctx, ownerID, c.ID.String())
}

func (s *service) GetCustomer(ctx context.Context, ownerID, id string) (*Customer, error) {
	return s.repo.GetCustomerByID(ctx, ownerID, id)
}

func (s *service) ListCustomers(ctx context.Context, ownerID string) ([]*Customer, error) {
	return s.repo.ListCustomers(ctx, ownerID)
}

func (s *service) InvitePortalUser(ctx context.Context, ownerID, id string) (*InviteResponse, error) {
	c, err := s.repo.GetCustomerByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("customer not found: %w", err)
	}
	if c.PortalUserID != nil {
		return nil, fmt.Errorf("customer already has a portal account")
	}

	password, err := generatePassword(12)
	if err != nil {
		return nil, err
	}

	// Derive a username from the email local part; the short random
	// suffix avoids collisions with existing accounts.
	local := c.Email
	if at := strings.Index(local, "@"); at > 0 {
		local = local[:at]
	}
	suffix, err := generatePassword(4)
	if err != nil {
		return nil, err
	}
	username := fmt.Sprintf("%s-%s", local, strings.ToLower(suffix))

	portalUser, err := s.users.RegisterUser(ctx, username, c.Email, password, user.ModePortal)
	if err != nil {
		return nil, fmt.Errorf("create portal user: %w", err)
	}

	if err := s.repo.LinkPortalUser(ctx, c.ID.String(), portalUser.ID.String()); err != nil {
		return nil, err
	}

	return &InviteResponse{
		Username:  portalUser.Username,
		Password:  password,
		PortalURL: s.portalURL,
	}, nil
}

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generatePassword(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = passwordAlphabet[n.Int64()]
	}
	return string(b), nil
}
