package dashboard

import "context"

// Repository runs the aggregate queries behind the owner dashboard.
type Repository interface {
	StatsForOwner(ctx context.Context, ownerID string) (*TenantStats, error)
}
