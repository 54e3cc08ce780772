package services

import (
	"context"
	"errors"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/platform/keylock"
	"fleet-tracking-service/internal/platform/obs"
	"fleet-tracking-service/internal/ports"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssignmentService is the only writer of assignment status.
//
// Every transition is persisted as a compare-and-set on the previous status,
// so two callers racing on the same assignment cannot both succeed. Schedule
// and the transitions hold the route's lock from routeLocks while they read
// the route and write the assignment.
type AssignmentService struct {
	Routes      ports.RouteRepository
	Assignments ports.AssignmentRepository
	Clock       ports.Clock

	routeLocks *keylock.Locker
}

func NewAssignmentService(
	routes ports.RouteRepository,
	assignments ports.AssignmentRepository,
	clock ports.Clock,
	routeLocks *keylock.Locker,
) *AssignmentService {
	if routeLocks == nil {
		routeLocks = keylock.New()
	}
	return &AssignmentService{Routes: routes, Assignments: assignments, Clock: clock, routeLocks: routeLocks}
}

type ScheduleRequest struct {
	RouteID        string
	TruckID        string
	DriverID       string
	ScheduledStart time.Time
	ScheduledEnd   *time.Time
	Notes          *string
}

func (r ScheduleRequest) validate() error {
	switch {
	case strings.TrimSpace(r.RouteID) == "":
		return fmt.Errorf("route id must not be empty: %w", domain.ErrValidation)
	case strings.TrimSpace(r.TruckID) == "":
		return fmt.Errorf("truck id must not be empty: %w", domain.ErrValidation)
	case strings.TrimSpace(r.DriverID) == "":
		return fmt.Errorf("driver id must not be empty: %w", domain.ErrValidation)
	case r.ScheduledStart.IsZero():
		return fmt.Errorf("scheduled start must be set: %w", domain.ErrValidation)
	case r.ScheduledEnd != nil && !r.ScheduledEnd.After(r.ScheduledStart):
		return fmt.Errorf("scheduled end must be after scheduled start: %w", domain.ErrValidation)
	}
	return nil
}

// Schedule binds a truck and driver to a route. A truck or driver that already
// holds a scheduled or active assignment cannot be booked again, whatever the
// window.
func (s *AssignmentService) Schedule(ctx context.Context, actor domain.Actor, req ScheduleRequest) (*domain.Assignment, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("schedule assignment: role %q may not schedule: %w", actor.Role, domain.ErrForbidden)
	}
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("schedule assignment: %w", err)
	}

	unlock := s.routeLocks.Lock(req.RouteID)
	defer unlock()

	route, err := s.Routes.GetRoute(ctx, req.RouteID)
	if err != nil {
		return nil, fmt.Errorf("schedule assignment: %w", err)
	}
	if err := route.Assignable(); err != nil {
		return nil, fmt.Errorf("schedule assignment: %w", err)
	}

	if err := s.ensureFree(ctx, "truck", req.TruckID, s.Assignments.FindCurrentByTruck); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, "driver", req.DriverID, s.Assignments.FindCurrentByDriver); err != nil {
		return nil, err
	}

	a := &domain.Assignment{
		ID:             uuid.NewString(),
		RouteID:        route.ID,
		TruckID:        req.TruckID,
		DriverID:       req.DriverID,
		Status:         domain.AssignmentScheduled,
		ScheduledStart: req.ScheduledStart.UTC(),
		ScheduledEnd:   req.ScheduledEnd,
		Notes:          req.Notes,
		AssignedBy:     actor.UserID,
		CreatedAt:      s.Clock.Now(),
	}
	if a.ScheduledEnd != nil {
		end := a.ScheduledEnd.UTC()
		a.ScheduledEnd = &end
	}

	if err := s.Assignments.CreateAssignment(ctx, a); err != nil {
		return nil, fmt.Errorf("schedule assignment: %w", err)
	}

	obs.Logger(ctx).Info("assignment scheduled",
		zap.String("assignment_id", a.ID),
		zap.String("truck_id", a.TruckID),
		zap.String("driver_id", a.DriverID),
		zap.Time("scheduled_start", a.ScheduledStart),
	)
	return a, nil
}

func (s *AssignmentService) ensureFree(
	ctx context.Context,
	kind, id string,
	find func(context.Context, string) (*domain.Assignment, error),
) error {
	cur, err := find(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("schedule assignment: %w", err)
	default:
		return fmt.Errorf(
			"schedule assignment: %s %s already holds %s assignment %s: %w",
			kind, id, cur.Status, cur.ID, domain.ErrConflict,
		)
	}
}

func (s *AssignmentService) Get(ctx context.Context, id string) (*domain.Assignment, error) {
	a, err := s.Assignments.GetAssignment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

// Start moves a scheduled assignment to active. Staff and the assigned driver
// may start it; ingestion starts it as domain.SystemActor. The route is read
// again so an assignment never goes active on a route that lost its path after
// scheduling.
func (s *AssignmentService) Start(ctx context.Context, actor domain.Actor, id string) (*domain.Assignment, error) {
	return s.transition(ctx, actor, "start assignment", id, func(a *domain.Assignment, now time.Time) error {
		if err := a.Start(now); err != nil {
			return err
		}
		r, err := s.Routes.GetRoute(ctx, a.RouteID)
		if err != nil {
			return err
		}
		return r.Assignable()
	})
}

// Complete moves an active assignment to completed.
func (s *AssignmentService) Complete(ctx context.Context, actor domain.Actor, id string) (*domain.Assignment, error) {
	return s.transition(ctx, actor, "complete assignment", id, func(a *domain.Assignment, now time.Time) error {
		return a.Complete(now)
	})
}

func (s *AssignmentService) transition(
	ctx context.Context,
	actor domain.Actor,
	op string,
	id string,
	apply func(a *domain.Assignment, now time.Time) error,
) (*domain.Assignment, error) {
	a, err := s.Assignments.GetAssignment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !a.CanOperate(actor) {
		return nil, fmt.Errorf("%s %s: actor %s is not allowed: %w", op, id, actor.UserID, domain.ErrForbidden)
	}

	unlock := s.routeLocks.Lock(a.RouteID)
	defer unlock()

	from := a.Status
	if err := apply(a, s.Clock.Now()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ok, err := s.Assignments.UpdateAssignmentStatus(ctx, a, from)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s %s: status changed concurrently from %s: %w", op, id, from, domain.ErrInvalidState)
	}

	obs.Logger(ctx).Info("assignment transition",
		zap.String("op", op),
		zap.String("assignment_id", a.ID),
		zap.String("from", string(from)),
		zap.String("to", string(a.Status)),
		zap.String("actor", actor.UserID),
	)
	return a, nil
}

// Cancel is idempotent: cancelling a cancelled assignment returns it
// unchanged. A start that lands between our read and write is retried once so
// the cancel still wins.
func (s *AssignmentService) Cancel(ctx context.Context, actor domain.Actor, id string) (*domain.Assignment, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("cancel assignment: role %q may not cancel: %w", actor.Role, domain.ErrForbidden)
	}

	for attempt := 0; attempt < 2; attempt++ {
		a, err := s.Assignments.GetAssignment(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("cancel assignment: %w", err)
		}

		from := a.Status
		changed, err := a.Cancel(s.Clock.Now())
		if err != nil {
			return nil, fmt.Errorf("cancel assignment: %w", err)
		}
		if !changed {
			return a, nil
		}

		ok, err := s.Assignments.UpdateAssignmentStatus(ctx, a, from)
		if err != nil {
			return nil, fmt.Errorf("cancel assignment: %w", err)
		}
		if ok {
			obs.Logger(ctx).Info("assignment cancelled",
				zap.String("assignment_id", a.ID),
				zap.String("from", string(from)),
				zap.String("actor", actor.UserID),
			)
			return a, nil
		}
	}

	return nil, fmt.Errorf("cancel assignment %s: status keeps changing concurrently: %w", id, domain.ErrConflict)
}

// CurrentForDriver returns the driver's earliest scheduled or active
// assignment with its route. Drivers may only ask about themselves.
func (s *AssignmentService) CurrentForDriver(
	ctx context.Context,
	actor domain.Actor,
	driverID string,
) (*domain.Assignment, *domain.Route, error) {
	if !actor.IsStaff() && !(actor.Role == domain.RoleDriver && actor.UserID == driverID) {
		return nil, nil, fmt.Errorf("current assignment for driver %s: %w", driverID, domain.ErrForbidden)
	}

	a, err := s.Assignments.FindCurrentByDriver(ctx, driverID)
	if err != nil {
		return nil, nil, fmt.Errorf("current assignment: %w", err)
	}
	r, err := s.Routes.GetRoute(ctx, a.RouteID)
	if err != nil {
		return nil, nil, fmt.Errorf("current assignment %s: %w", a.ID, err)
	}
	return a, r, nil
}
