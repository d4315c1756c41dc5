package plan

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Service defines plan business logic.
type Service interface {
	CreatePlan(ctx context.Context, ownerID string, req CreatePlanRequest) (*Plan, error)
	GetPlan(ctx context.Context, ownerID, id string) (*Plan, error)
	ListPlans(ctx context.Context, ownerID string) ([]*Plan, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) CreatePlan(ctx context.Context, ownerID string, req CreatePlanRequest) (*Plan, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	period := BillingPeriod(req.Period)
	if !period.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBillingPeriod, req.Period)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("price must not be negative")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, fmt.Errorf("end_date must not precede start_date")
	}
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product_id: %w", err)
	}

	minQty := req.MinQuantity
	if minQty < 1 {
		minQty = 1
	}
	renewable := true
	if req.Renewable != nil {
		renewable = *req.Renewable
	}

	p := &Plan{
		ID:          uuid.New(),
		OwnerID:     owner,
		ProductID:   productID,
		Name:        req.Name,
		Period:      period,
		Price:       req.Price,
		MinQuantity: minQty,
		AutoClose:   req.AutoClose,
		Pausable:    req.Pausable,
		Renewable:   renewable,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := s.repo.CreatePlan(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.GetPlanByID(ctx, ownerID, p.ID.String())
}

func (s *service) GetPlan(ctx context.Context, ownerID, id string) (*Plan, error) {
	return s.repo.GetPlanByID(ctx, ownerID, id)
}

func (s *service) ListPlans(ctx context.Context, ownerID string) ([]*Plan, error) {
	return s.repo.ListPlans(ctx, ownerID)
}
