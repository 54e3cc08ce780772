package services

import (
	"fleet-tracking-service/internal/config"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/geo"
	"fmt"
	"time"
)

// condition is a detected anomaly waiting to be handed to the alert service.
type condition struct {
	Type    domain.AlertType
	Message string
}

// Evaluator holds the pure geofence and timing checks. It never touches
// storage; LocationService feeds it the current state.
type Evaluator struct {
	Policy config.Tracking
}

type lateness int

const (
	beforeWindow lateness = iota
	inGraceWindow
	late
)

// startWindow classifies a ping against a scheduled assignment.
func (e Evaluator) startWindow(a *domain.Assignment, at time.Time) lateness {
	switch {
	case at.Before(a.ScheduledStart):
		return beforeWindow
	case at.Before(a.ScheduledStart.Add(e.Policy.LateStartGrace)):
		return inGraceWindow
	default:
		return late
	}
}

func (e Evaluator) lateStart(a *domain.Assignment, at time.Time) condition {
	return condition{
		Type: domain.AlertLateStart,
		Message: fmt.Sprintf(
			"Truck %s has not started route %s: scheduled %s, still not started %s later",
			a.TruckID, a.RouteID, a.ScheduledStart.Format(time.RFC3339), at.Sub(a.ScheduledStart).Round(time.Second),
		),
	}
}

// deviation reports a condition when p is farther than the threshold from
// every segment of the route's path.
func (e Evaluator) deviation(a *domain.Assignment, r *domain.Route, p domain.LocationPing) (condition, bool) {
	dist, ok := geo.DistanceToPathMeters(p.Coordinates(), r.Path())
	if !ok || dist <= e.Policy.DeviationThresholdMeters {
		return condition{}, false
	}
	return condition{
		Type: domain.AlertRouteDeviation,
		Message: fmt.Sprintf(
			"Truck %s is %.0f m off route %s (threshold %.0f m)",
			a.TruckID, dist, r.Name, e.Policy.DeviationThresholdMeters,
		),
	}, true
}

// stoppedSince walks back from the latest ping while earlier pings stay
// within the stop radius of it, and returns the earliest such timestamp.
// history must be ordered oldest first and end with latest.
func (e Evaluator) stoppedSince(history []domain.LocationPing, latest domain.LocationPing) time.Time {
	since := latest.RecordedAt
	for i := len(history) - 1; i >= 0; i-- {
		p := history[i]
		if p.RecordedAt.After(latest.RecordedAt) {
			continue
		}
		if geo.HaversineMeters(p.Coordinates(), latest.Coordinates()) > e.Policy.StopRadiusMeters {
			break
		}
		since = p.RecordedAt
	}
	return since
}

func (e Evaluator) prolongedStop(a *domain.Assignment, history []domain.LocationPing, latest domain.LocationPing) (condition, bool) {
	stopped := latest.RecordedAt.Sub(e.stoppedSince(history, latest))
	if stopped <= e.Policy.StopDuration {
		return condition{}, false
	}
	return condition{
		Type: domain.AlertProlongedStop,
		Message: fmt.Sprintf(
			"Truck %s has not moved more than %.0f m for %s",
			a.TruckID, e.Policy.StopRadiusMeters, stopped.Round(time.Second),
		),
	}, true
}
