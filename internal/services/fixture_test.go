package services

import (
	"context"
	"fleet-tracking-service/internal/adapters/memory"
	"fleet-tracking-service/internal/config"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/geo"
	"fleet-tracking-service/internal/platform/keylock"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	staff = domain.Actor{UserID: "sup-1", Role: domain.RoleSupervisor}
	t10am = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	// West to east along one latitude, roughly 1.1 km per segment.
	pathPoints = []domain.Coordinates{
		{Lat: -12.05, Lng: -77.05},
		{Lat: -12.05, Lng: -77.04},
		{Lat: -12.05, Lng: -77.03},
	}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	ctx         context.Context
	store       *memory.Store
	clock       *fakeClock
	routes      *RouteService
	assignments *AssignmentService
	alerts      *AlertService
	locations   *LocationService
	issues      *IssueService
}

func newFixture(t *testing.T, mutate ...func(p *config.Tracking)) *fixture {
	t.Helper()

	policy := config.DefaultTracking()
	for _, m := range mutate {
		m(&policy)
	}
	require.NoError(t, policy.Validate())

	store := memory.NewStore()
	clock := &fakeClock{now: t10am.Add(-time.Hour)}

	routeLocks := keylock.New()
	assignments := NewAssignmentService(store, store, clock, routeLocks)
	alerts := NewAlertService(store, store, clock, policy.AlertCooldown)
	return &fixture{
		ctx:         context.Background(),
		store:       store,
		clock:       clock,
		routes:      NewRouteService(store, store, clock, routeLocks),
		assignments: assignments,
		alerts:      alerts,
		locations: NewLocationService(LocationDeps{
			Routes:      store,
			Assignments: store,
			Lifecycle:   assignments,
			History:     store,
			Positions:   store,
			Alerts:      alerts,
			Clock:       clock,
		}, policy),
		issues: NewIssueService(store, store, store, clock),
	}
}

func waypointsFor(path []domain.Coordinates) []domain.Waypoint {
	out := make([]domain.Waypoint, 0, len(path))
	for i, c := range path {
		out = append(out, domain.Waypoint{Lat: c.Lat, Lng: c.Lng, SequenceOrder: i + 1})
	}
	return out
}

func (f *fixture) route(t *testing.T) *domain.Route {
	t.Helper()
	r, err := f.routes.CreateRoute(f.ctx, staff, CreateRouteRequest{Name: "Centro", Waypoints: waypointsFor(pathPoints)})
	require.NoError(t, err)
	return r
}

func (f *fixture) schedule(t *testing.T, routeID, truck, driver string, start time.Time) *domain.Assignment {
	t.Helper()
	a, err := f.assignments.Schedule(f.ctx, staff, ScheduleRequest{
		RouteID: routeID, TruckID: truck, DriverID: driver, ScheduledStart: start,
	})
	require.NoError(t, err)
	return a
}

// activeAssignment schedules truck on a fresh route and starts it at t10am.
func (f *fixture) activeAssignment(t *testing.T, truck, driver string) *domain.Assignment {
	t.Helper()
	r := f.route(t)
	a := f.schedule(t, r.ID, truck, driver, t10am)
	f.clock.Set(t10am)
	a, err := f.assignments.Start(f.ctx, staff, a.ID)
	require.NoError(t, err)
	return a
}

// ping ingests at the given time and advances the clock to it.
func (f *fixture) ping(truck string, c domain.Coordinates, at time.Time) (*IngestResult, error) {
	f.clock.Set(at)
	return f.locations.Ingest(f.ctx, PingRequest{TruckID: truck, Lat: c.Lat, Lng: c.Lng, RecordedAt: at})
}

func onPath() domain.Coordinates { return pathPoints[1] }

func offPath(meters float64) domain.Coordinates { return geo.OffsetNorth(pathPoints[1], meters) }

func (f *fixture) unreadAlerts(t *testing.T) []domain.SystemAlert {
	t.Helper()
	alerts, err := f.alerts.ListUnread(f.ctx, staff)
	require.NoError(t, err)
	return alerts
}
