package ports

import (
	"context"
	"fleet-tracking-service/internal/domain"
)

// Port: persistence for routes and their ordered waypoints.
type RouteRepository interface {
	CreateRoute(ctx context.Context, r *domain.Route) error
	// Return the route with waypoints in path order, or domain.ErrNotFound.
	GetRoute(ctx context.Context, id string) (*domain.Route, error)
	// Replace the full waypoint sequence of an existing route. The write is
	// refused with domain.ErrConflict while an active assignment references
	// the route.
	ReplaceWaypoints(ctx context.Context, r *domain.Route) error
}
