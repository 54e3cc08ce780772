package domain

import (
	"fmt"
	"strings"
	"time"
)

type RouteStatus string

const (
	RouteDraft    RouteStatus = "draft"
	RouteActive   RouteStatus = "active"
	RouteInactive RouteStatus = "inactive"
)

func (s RouteStatus) Valid() bool {
	switch s {
	case RouteDraft, RouteActive, RouteInactive:
		return true
	}
	return false
}

// MinAssignableWaypoints is the smallest path an assignment can follow.
const MinAssignableWaypoints = 2

// Represents a single point on a route's planned path.
// SequenceOrder is unique within its route and strictly increasing in path order.
type Waypoint struct {
	Lat           float64
	Lng           float64
	SequenceOrder int
	StreetName    *string
}

func (w Waypoint) Coordinates() Coordinates { return Coordinates{Lat: w.Lat, Lng: w.Lng} }

// Represents a planned collection path. Waypoints are kept in path order.
type Route struct {
	ID          string
	Name        string
	Description *string
	Status      RouteStatus
	Waypoints   []Waypoint
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the route header and the waypoint ordering invariant:
// sequence orders start at 0 or 1 and strictly increase, and an active
// route has at least MinAssignableWaypoints waypoints.
func (r *Route) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("route name must not be empty: %w", ErrValidation)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("route status %q is not one of draft, active, inactive: %w", r.Status, ErrValidation)
	}
	return validateWaypoints(r.Waypoints, r.Status)
}

// Assignable reports whether an assignment may be bound to the route.
func (r *Route) Assignable() error {
	if r.Status == RouteInactive {
		return fmt.Errorf("route %s is inactive: %w", r.ID, ErrValidation)
	}
	if len(r.Waypoints) < MinAssignableWaypoints {
		return fmt.Errorf(
			"route %s has %d waypoints, need at least %d: %w",
			r.ID, len(r.Waypoints), MinAssignableWaypoints, ErrValidation,
		)
	}
	return nil
}

// Path returns the waypoint coordinates in path order.
func (r *Route) Path() []Coordinates {
	out := make([]Coordinates, 0, len(r.Waypoints))
	for _, w := range r.Waypoints {
		out = append(out, w.Coordinates())
	}
	return out
}

// ReorderWaypoints rearranges the waypoints so that position i holds the
// waypoint previously at newOrder[i]. newOrder must be a permutation of the
// current positions. Sequence orders are renumbered from the route's base.
func (r *Route) ReorderWaypoints(newOrder []int) error {
	n := len(r.Waypoints)
	if len(newOrder) != n {
		return fmt.Errorf("reorder: got %d indices for %d waypoints: %w", len(newOrder), n, ErrValidation)
	}

	seen := make([]bool, n)
	reordered := make([]Waypoint, 0, n)
	for i, idx := range newOrder {
		if idx < 0 || idx >= n {
			return fmt.Errorf("reorder: index %d at position %d out of range: %w", idx, i, ErrValidation)
		}
		if seen[idx] {
			return fmt.Errorf("reorder: duplicate index %d: %w", idx, ErrValidation)
		}
		seen[idx] = true
		reordered = append(reordered, r.Waypoints[idx])
	}

	renumber(reordered, r.sequenceBase())
	r.Waypoints = reordered
	return nil
}

// InsertWaypoint places wp at position (0 = first, len = last).
func (r *Route) InsertWaypoint(position int, wp Waypoint) error {
	if position < 0 || position > len(r.Waypoints) {
		return fmt.Errorf("insert waypoint: position %d out of range [0, %d]: %w", position, len(r.Waypoints), ErrValidation)
	}
	if err := wp.Coordinates().Validate(); err != nil {
		return fmt.Errorf("insert waypoint: %w", err)
	}

	base := r.sequenceBase()
	next := make([]Waypoint, 0, len(r.Waypoints)+1)
	next = append(next, r.Waypoints[:position]...)
	next = append(next, wp)
	next = append(next, r.Waypoints[position:]...)
	renumber(next, base)

	if err := validateWaypoints(next, r.Status); err != nil {
		return fmt.Errorf("insert waypoint: %w", err)
	}
	r.Waypoints = next
	return nil
}

// RemoveWaypoint drops the waypoint with the given sequence order.
func (r *Route) RemoveWaypoint(sequenceOrder int) error {
	idx := -1
	for i, w := range r.Waypoints {
		if w.SequenceOrder == sequenceOrder {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("remove waypoint: sequence order %d on route %s: %w", sequenceOrder, r.ID, ErrNotFound)
	}

	base := r.sequenceBase()
	next := make([]Waypoint, 0, len(r.Waypoints)-1)
	next = append(next, r.Waypoints[:idx]...)
	next = append(next, r.Waypoints[idx+1:]...)
	renumber(next, base)

	if err := validateWaypoints(next, r.Status); err != nil {
		return fmt.Errorf("remove waypoint: %w", err)
	}
	r.Waypoints = next
	return nil
}

func (r *Route) sequenceBase() int {
	if len(r.Waypoints) == 0 {
		return 1
	}
	return r.Waypoints[0].SequenceOrder
}

func renumber(ws []Waypoint, base int) {
	for i := range ws {
		ws[i].SequenceOrder = base + i
	}
}

func validateWaypoints(ws []Waypoint, status RouteStatus) error {
	if status == RouteActive && len(ws) < MinAssignableWaypoints {
		return fmt.Errorf(
			"active route needs at least %d waypoints, got %d: %w",
			MinAssignableWaypoints, len(ws), ErrValidation,
		)
	}

	for i, w := range ws {
		if err := w.Coordinates().Validate(); err != nil {
			return fmt.Errorf("waypoint %d: %w", i, err)
		}
		if i == 0 {
			if w.SequenceOrder != 0 && w.SequenceOrder != 1 {
				return fmt.Errorf("first sequence order must be 0 or 1, got %d: %w", w.SequenceOrder, ErrValidation)
			}
			continue
		}
		if prev := ws[i-1].SequenceOrder; w.SequenceOrder <= prev {
			return fmt.Errorf(
				"waypoint %d: sequence order %d does not follow %d: %w",
				i, w.SequenceOrder, prev, ErrValidation,
			)
		}
	}

	return nil
}
