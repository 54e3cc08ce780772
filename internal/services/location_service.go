package services

import (
	"cmp"
	"context"
	"errors"
	"fleet-tracking-service/internal/config"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/geo"
	"fleet-tracking-service/internal/platform/keylock"
	"fleet-tracking-service/internal/platform/obs"
	"fleet-tracking-service/internal/ports"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
)

// LocationService ingests GPS pings, keeps each truck's current position and
// hands detected anomalies to the alert service.
//
// Pings for one truck are processed one at a time and must arrive in
// non-decreasing recordedAt order; an older ping is rejected, never buffered.
// Pings for different trucks run in parallel.
type LocationService struct {
	Routes      ports.RouteRepository
	Assignments ports.AssignmentRepository
	Lifecycle   *AssignmentService
	History     ports.LocationHistoryRepository
	Positions   ports.PositionStore
	Alerts      *AlertService
	Clock       ports.Clock
	Evaluator   Evaluator

	trucks *keylock.Locker
}

type LocationDeps struct {
	Routes      ports.RouteRepository
	Assignments ports.AssignmentRepository
	Lifecycle   *AssignmentService
	History     ports.LocationHistoryRepository
	Positions   ports.PositionStore
	Alerts      *AlertService
	Clock       ports.Clock
}

func NewLocationService(deps LocationDeps, policy config.Tracking) *LocationService {
	return &LocationService{
		Routes:      deps.Routes,
		Assignments: deps.Assignments,
		Lifecycle:   deps.Lifecycle,
		History:     deps.History,
		Positions:   deps.Positions,
		Alerts:      deps.Alerts,
		Clock:       deps.Clock,
		Evaluator:   Evaluator{Policy: policy},
		trucks:      keylock.New(),
	}
}

type PingRequest struct {
	TruckID    string
	Lat        float64
	Lng        float64
	Speed      *float64
	Heading    *float64
	RecordedAt time.Time
}

// IngestResult describes what a single ping caused.
type IngestResult struct {
	// Nil when the truck holds no scheduled or active assignment.
	Assignment *domain.Assignment
	Started    bool
	Alerts     []RaisedAlert
}

type RaisedAlert struct {
	Alert   *domain.SystemAlert
	Outcome RaiseOutcome
}

func (s *LocationService) Ingest(ctx context.Context, req PingRequest) (*IngestResult, error) {
	ping := domain.LocationPing{
		TruckID:    req.TruckID,
		Lat:        req.Lat,
		Lng:        req.Lng,
		Speed:      req.Speed,
		Heading:    req.Heading,
		RecordedAt: req.RecordedAt.UTC(),
	}
	if err := ping.Validate(); err != nil {
		return nil, fmt.Errorf("ingest ping: %w", err)
	}

	unlock := s.trucks.Lock(ping.TruckID)
	defer unlock()

	log := obs.Logger(ctx).With(zap.String("truck_id", ping.TruckID), zap.Time("recorded_at", ping.RecordedAt))

	a, err := s.Assignments.FindCurrentByTruck(ctx, ping.TruckID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("ingest ping: %w", err)
	}
	if a != nil {
		ping.AssignmentID = &a.ID
	}

	if err := s.Positions.SetPosition(ctx, domain.TruckPosition{LocationPing: ping, UpdatedAt: s.Clock.Now()}); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			log.Info("ping rejected as out of order")
		}
		return nil, fmt.Errorf("ingest ping: %w", err)
	}
	if err := s.History.AppendPing(ctx, ping); err != nil {
		return nil, fmt.Errorf("ingest ping: %w", err)
	}

	res := &IngestResult{Assignment: a}
	if a == nil {
		return res, nil
	}

	if a.Status == domain.AssignmentScheduled {
		switch s.Evaluator.startWindow(a, ping.RecordedAt) {
		case beforeWindow:
			return res, nil
		case late:
			if err := s.raise(ctx, res, a, s.Evaluator.lateStart(a, ping.RecordedAt)); err != nil {
				return nil, err
			}
			return res, nil
		case inGraceWindow:
			started, err := s.Lifecycle.Start(ctx, domain.SystemActor, a.ID)
			switch {
			case err == nil:
				a = started
				res.Started = true
				log.Info("assignment started by first ping", zap.String("assignment_id", a.ID))
			case errors.Is(err, domain.ErrInvalidState):
				// Someone else moved it first; evaluate against what is stored now.
				if a, err = s.Assignments.GetAssignment(ctx, a.ID); err != nil {
					return nil, fmt.Errorf("ingest ping: %w", err)
				}
			case errors.Is(err, domain.ErrValidation):
				// The route can no longer be followed. The ping is kept and the
				// assignment stays scheduled until staff fix or cancel it.
				log.Warn("assignment not started: route is unassignable",
					zap.String("assignment_id", a.ID),
					zap.Error(err),
				)
				return res, nil
			default:
				return nil, fmt.Errorf("ingest ping: %w", err)
			}
			res.Assignment = a
		}
	}

	if a.Status != domain.AssignmentActive {
		return res, nil
	}
	if err := s.evaluateActive(ctx, res, a, ping); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *LocationService) evaluateActive(ctx context.Context, res *IngestResult, a *domain.Assignment, ping domain.LocationPing) error {
	r, err := s.Routes.GetRoute(ctx, a.RouteID)
	if err != nil {
		return fmt.Errorf("ingest ping: %w", err)
	}
	if c, ok := s.Evaluator.deviation(a, r, ping); ok {
		if err := s.raise(ctx, res, a, c); err != nil {
			return err
		}
	}

	// Only pings since the assignment went active count towards a stop.
	since := ping.RecordedAt.Add(-s.Evaluator.Policy.PingHorizon)
	if a.ActualStart != nil && a.ActualStart.After(since) {
		since = *a.ActualStart
	}
	history, err := s.History.ListPingsSince(ctx, a.ID, since)
	if err != nil {
		return fmt.Errorf("ingest ping: %w", err)
	}
	if c, ok := s.Evaluator.prolongedStop(a, history, ping); ok {
		if err := s.raise(ctx, res, a, c); err != nil {
			return err
		}
	}
	return nil
}

func (s *LocationService) raise(ctx context.Context, res *IngestResult, a *domain.Assignment, c condition) error {
	alert, outcome, err := s.Alerts.Raise(ctx, a.ID, c.Type, c.Message)
	if err != nil {
		return fmt.Errorf("ingest ping: %w", err)
	}
	res.Alerts = append(res.Alerts, RaisedAlert{Alert: alert, Outcome: outcome})
	return nil
}

func (s *LocationService) CurrentPosition(ctx context.Context, truckID string) (*domain.TruckPosition, error) {
	pos, err := s.Positions.GetPosition(ctx, truckID)
	if err != nil {
		return nil, fmt.Errorf("current position: %w", err)
	}
	return pos, nil
}

type NearbyTruck struct {
	Position       domain.TruckPosition
	Assignment     *domain.Assignment
	DistanceMeters float64
}

// NearbyTruck returns the closest truck on an active assignment whose last
// ping is recent enough and inside the nearby radius.
func (s *LocationService) NearbyTruck(ctx context.Context, at domain.Coordinates) (*NearbyTruck, error) {
	if err := at.Validate(); err != nil {
		return nil, fmt.Errorf("nearby truck: %w", err)
	}

	positions, err := s.Positions.ListPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("nearby truck: %w", err)
	}

	now := s.Clock.Now()
	policy := s.Evaluator.Policy
	candidates := make([]NearbyTruck, 0, len(positions))
	for _, p := range positions {
		if now.Sub(p.RecordedAt) > policy.NearbyFreshness {
			continue
		}
		d := geo.HaversineMeters(at, p.Coordinates())
		if d > policy.NearbyRadiusMeters {
			continue
		}
		candidates = append(candidates, NearbyTruck{Position: p, DistanceMeters: d})
	}
	slices.SortFunc(candidates, func(a, b NearbyTruck) int {
		if c := cmp.Compare(a.DistanceMeters, b.DistanceMeters); c != 0 {
			return c
		}
		return cmp.Compare(a.Position.TruckID, b.Position.TruckID)
	})

	for _, c := range candidates {
		a, err := s.Assignments.FindCurrentByTruck(ctx, c.Position.TruckID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("nearby truck: %w", err)
		}
		if a.Status != domain.AssignmentActive {
			continue
		}
		c.Assignment = a
		return &c, nil
	}

	return nil, fmt.Errorf("nearby truck: no active truck within %.0f m: %w", policy.NearbyRadiusMeters, domain.ErrNotFound)
}
