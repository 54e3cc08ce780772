package services

import (
	"context"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/platform/keylock"
	"fleet-tracking-service/internal/ports"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RouteService owns route creation and the waypoint editing operations.
//
// Edits hold the route's lock from routeLocks, which must be the same Locker
// the AssignmentService uses, so an edit never interleaves with a schedule or
// start on the same route.
type RouteService struct {
	Routes      ports.RouteRepository
	Assignments ports.AssignmentRepository
	Clock       ports.Clock

	routeLocks *keylock.Locker
}

func NewRouteService(
	routes ports.RouteRepository,
	assignments ports.AssignmentRepository,
	clock ports.Clock,
	routeLocks *keylock.Locker,
) *RouteService {
	if routeLocks == nil {
		routeLocks = keylock.New()
	}
	return &RouteService{Routes: routes, Assignments: assignments, Clock: clock, routeLocks: routeLocks}
}

// CreateRouteRequest carries a new route. An empty Status defaults to active.
type CreateRouteRequest struct {
	Name        string
	Description *string
	Status      domain.RouteStatus
	Waypoints   []domain.Waypoint
}

func (s *RouteService) CreateRoute(ctx context.Context, actor domain.Actor, req CreateRouteRequest) (*domain.Route, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("create route: role %q may not manage routes: %w", actor.Role, domain.ErrForbidden)
	}

	status := req.Status
	if status == "" {
		status = domain.RouteActive
	}

	now := s.Clock.Now()
	r := &domain.Route{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Status:      status,
		Waypoints:   append([]domain.Waypoint(nil), req.Waypoints...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("create route: %w", err)
	}

	if err := s.Routes.CreateRoute(ctx, r); err != nil {
		return nil, fmt.Errorf("create route: %w", err)
	}
	return r, nil
}

func (s *RouteService) GetRoute(ctx context.Context, id string) (*domain.Route, error) {
	r, err := s.Routes.GetRoute(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get route: %w", err)
	}
	return r, nil
}

// ReorderWaypoints applies newOrder, a permutation of the current waypoint
// positions, and renumbers the sequence.
func (s *RouteService) ReorderWaypoints(ctx context.Context, actor domain.Actor, routeID string, newOrder []int) (*domain.Route, error) {
	return s.edit(ctx, actor, "reorder waypoints", routeID, func(r *domain.Route) error {
		return r.ReorderWaypoints(newOrder)
	})
}

// AddWaypoint inserts wp at position (0 = first).
func (s *RouteService) AddWaypoint(ctx context.Context, actor domain.Actor, routeID string, position int, wp domain.Waypoint) (*domain.Route, error) {
	return s.edit(ctx, actor, "add waypoint", routeID, func(r *domain.Route) error {
		return r.InsertWaypoint(position, wp)
	})
}

func (s *RouteService) RemoveWaypoint(ctx context.Context, actor domain.Actor, routeID string, sequenceOrder int) (*domain.Route, error) {
	return s.edit(ctx, actor, "remove waypoint", routeID, func(r *domain.Route) error {
		return r.RemoveWaypoint(sequenceOrder)
	})
}

// edit loads the route, refuses while an active assignment follows it, applies
// change and persists the whole waypoint sequence. A change that leaves the
// route unassignable is refused while any scheduled or active assignment still
// references it.
func (s *RouteService) edit(
	ctx context.Context,
	actor domain.Actor,
	op string,
	routeID string,
	change func(r *domain.Route) error,
) (*domain.Route, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%s: role %q may not manage routes: %w", op, actor.Role, domain.ErrForbidden)
	}

	unlock := s.routeLocks.Lock(routeID)
	defer unlock()

	r, err := s.Routes.GetRoute(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	active, err := s.Assignments.HasActiveForRoute(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if active {
		return nil, fmt.Errorf("%s: route %s is followed by an active assignment: %w", op, routeID, domain.ErrConflict)
	}

	if err := change(r); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if reason := r.Assignable(); reason != nil {
		open, err := s.Assignments.HasOpenForRoute(ctx, routeID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if open {
			return nil, fmt.Errorf(
				"%s: route %s has scheduled assignments and would become unassignable (%v): %w",
				op, routeID, reason, domain.ErrConflict,
			)
		}
	}
	r.UpdatedAt = s.Clock.Now()

	if err := s.Routes.ReplaceWaypoints(ctx, r); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}
