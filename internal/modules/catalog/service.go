package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Service defines catalog business logic.
type Service interface {
	CreateProduct(ctx context.Context, ownerID string, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, ownerID, id string) (*Product, error)
	ListProducts(ctx context.Context, ownerID string) ([]*Product, error)

	CreateTax(ctx context.Context, ownerID string, req CreateTaxRequest) (*Tax, error)
	ListTaxes(ctx context.Context, ownerID string) ([]*Tax, error)

	CreateDiscount(ctx context.Context, ownerID string, req CreateDiscountRequest) (*Discount, error)
	ListDiscounts(ctx context.Context, ownerID string) ([]*Discount, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) CreateProduct(ctx context.Context, ownerID string, req CreateProductRequest) (*Product, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if req.BasePrice < 0 {
		return nil, fmt.Errorf("base_price must not be negative")
	}
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	p := &Product{
		ID:          uuid.New(),
		OwnerID:     owner,
		Name:        req.Name,
		BasePrice:   req.BasePrice,
		Type:        req.Type,
		Description: req.Description,
		IsActive:    isActive,
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.GetProductByID(ctx, ownerID, p.ID.String())
}

func (s *service) GetProduct(ctx context.Context, ownerID, id string) (*Product, error) {
	return s.repo.GetProductByID(ctx, ownerID, id)
}

func (s *service) ListProducts(ctx context.Context, ownerID string) ([]*Product, error) {
	return s.repo.ListProducts(ctx, ownerID)
}

func (s *service) CreateTax(ctx context.Context, ownerID string, req CreateTaxRequest) (*Tax, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if req.Percent < 0 || req.Percent > 100 {
		return nil, fmt.Errorf("percent must be between 0 and 100")
	}
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	t := &Tax{
		ID:       uuid.New(),
		OwnerID:  owner,
		Name:     req.Name,
		Percent:  req.Percent,
		IsActive: isActive,
	}
	if err := s.repo.CreateTax(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) ListTaxes(ctx context.Context, ownerID string) ([]*Tax, error) {
	return s.repo.ListTaxes(ctx, ownerID)
}

func (s *service) CreateDiscount(ctx context.Context, ownerID string, req CreateDiscountRequest) (*Discount, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	dType := DiscountType(req.Type)
	if dType != DiscountPercent && dType != DiscountFixed {
		return nil, fmt.Errorf("type must be percent or fixed")
	}
	if dType == DiscountPercent && (req.Value < 0 || req.Value > 100) {
		return nil, fmt.Errorf("percent discount value must be between 0 and 100")
	}
	if req.Value < 0 {
		return nil, fmt.Errorf("value must not be negative")
	}
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}

	d := &Discount{
		ID:         uuid.New(),
		OwnerID:    owner,
		Name:       req.Name,
		Type:       dType,
		Value:      req.Value,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		UsageLimit: req.UsageLimit,
	}
	if err := s.repo.CreateDiscount(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) ListDiscounts(ctx context.Context, ownerID string) ([]*Discount, error) {
	return s.repo.ListDiscounts(ctx, ownerID)
}
