package plan

import "context"

// Repository defines data access for plans.
type Repository interface {
	CreatePlan(ctx context.Context, p *Plan) error
	GetPlanByID(ctx context.Context, ownerID, id string) (*Plan, error)
	ListPlans(ctx context.Context, ownerID string) ([]*Plan, error)
}
