package services

import (
	"fleet-tracking-service/internal/domain"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequenceOrders(r *domain.Route) []int {
	out := make([]int, 0, len(r.Waypoints))
	for _, w := range r.Waypoints {
		out = append(out, w.SequenceOrder)
	}
	return out
}

func assertStrictlyIncreasing(t *testing.T, r *domain.Route) {
	t.Helper()
	for i := 1; i < len(r.Waypoints); i++ {
		assert.Greater(t, r.Waypoints[i].SequenceOrder, r.Waypoints[i-1].SequenceOrder)
	}
}

func TestRouteServiceCreateRoute(t *testing.T) {
	f := newFixture(t)

	r := f.route(t)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, domain.RouteActive, r.Status)
	assertStrictlyIncreasing(t, r)

	stored, err := f.routes.GetRoute(f.ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Waypoints, stored.Waypoints)

	_, err = f.routes.CreateRoute(f.ctx, staff, CreateRouteRequest{Name: "One stop", Waypoints: waypointsFor(pathPoints[:1])})
	assert.ErrorIs(t, err, domain.ErrValidation, "active route needs two waypoints")

	draft, err := f.routes.CreateRoute(f.ctx, staff, CreateRouteRequest{
		Name: "One stop", Status: domain.RouteDraft, Waypoints: waypointsFor(pathPoints[:1]),
	})
	require.NoError(t, err)
	assert.Len(t, draft.Waypoints, 1)

	_, err = f.routes.CreateRoute(f.ctx, staff, CreateRouteRequest{Name: "Bad", Waypoints: []domain.Waypoint{
		{Lat: 1, Lng: 1, SequenceOrder: 1}, {Lat: 1, Lng: 2, SequenceOrder: 1},
	}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.routes.CreateRoute(f.ctx, domain.Actor{UserID: "d1", Role: domain.RoleDriver}, CreateRouteRequest{
		Name: "Nope", Waypoints: waypointsFor(pathPoints),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.routes.GetRoute(f.ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRouteServiceReorderWaypoints(t *testing.T) {
	f := newFixture(t)
	r := f.route(t)

	got, err := f.routes.ReorderWaypoints(f.ctx, staff, r.ID, []int{2, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, sequenceOrders(got))
	assert.Equal(t, pathPoints[2].Lng, got.Waypoints[0].Lng)
	assert.Equal(t, pathPoints[0].Lng, got.Waypoints[1].Lng)

	stored, err := f.routes.GetRoute(f.ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Waypoints, stored.Waypoints)

	for _, order := range [][]int{{0, 0, 1}, {0, 1}, {0, 1, 2, 3}, {0, 1, 5}} {
		_, err := f.routes.ReorderWaypoints(f.ctx, staff, r.ID, order)
		assert.ErrorIs(t, err, domain.ErrValidation, "order %v", order)
	}

	unchanged, err := f.routes.GetRoute(f.ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.Waypoints, unchanged.Waypoints)

	_, err = f.routes.ReorderWaypoints(f.ctx, staff, "missing", []int{0})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRouteServiceAddAndRemoveWaypoint(t *testing.T) {
	f := newFixture(t)
	r := f.route(t)

	street := "Jr. Lampa"
	got, err := f.routes.AddWaypoint(f.ctx, staff, r.ID, 0, domain.Waypoint{Lat: -12.06, Lng: -77.06, StreetName: &street})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, sequenceOrders(got))
	assert.Equal(t, "Jr. Lampa", *got.Waypoints[0].StreetName)

	got, err = f.routes.RemoveWaypoint(f.ctx, staff, r.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, sequenceOrders(got))
	assert.Equal(t, -12.06, got.Waypoints[0].Lat)
	assert.Equal(t, pathPoints[1].Lng, got.Waypoints[1].Lng)

	_, err = f.routes.RemoveWaypoint(f.ctx, staff, r.ID, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.routes.AddWaypoint(f.ctx, staff, r.ID, 1, domain.Waypoint{Lat: 95, Lng: 0})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRouteServiceRefusesEditWhileAssignmentActive(t *testing.T) {
	f := newFixture(t)
	a := f.activeAssignment(t, "t1", "d1")

	_, err := f.routes.ReorderWaypoints(f.ctx, staff, a.RouteID, []int{2, 1, 0})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.routes.RemoveWaypoint(f.ctx, staff, a.RouteID, 1)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.assignments.Complete(f.ctx, staff, a.ID)
	require.NoError(t, err)

	_, err = f.routes.ReorderWaypoints(f.ctx, staff, a.RouteID, []int{2, 1, 0})
	assert.NoError(t, err, "completed assignments no longer pin the route")
}

func TestRouteServiceKeepsScheduledRouteAssignable(t *testing.T) {
	f := newFixture(t)
	r, err := f.routes.CreateRoute(f.ctx, staff, CreateRouteRequest{
		Name:      "Borrador",
		Status:    domain.RouteDraft,
		Waypoints: waypointsFor(pathPoints[:2]),
	})
	require.NoError(t, err)
	a := f.schedule(t, r.ID, "t1", "d1", t10am)

	_, err = f.routes.RemoveWaypoint(f.ctx, staff, r.ID, 1)
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, err := f.routes.GetRoute(f.ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Waypoints, 2)

	_, err = f.routes.ReorderWaypoints(f.ctx, staff, r.ID, []int{1, 0})
	require.NoError(t, err, "edits that keep the route assignable are allowed")

	f.clock.Set(t10am)
	started, err := f.assignments.Start(f.ctx, staff, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentActive, started.Status)

	_, err = f.assignments.Cancel(f.ctx, staff, a.ID)
	require.NoError(t, err)

	got, err := f.routes.RemoveWaypoint(f.ctx, staff, r.ID, 1)
	require.NoError(t, err, "no open assignment references the route any more")
	assert.Len(t, got.Waypoints, 1)
}

func TestRouteServiceEditsRaceWithStart(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t)
		r, err := f.routes.CreateRoute(f.ctx, staff, CreateRouteRequest{
			Name:      "Borrador",
			Status:    domain.RouteDraft,
			Waypoints: waypointsFor(pathPoints[:2]),
		})
		require.NoError(t, err)
		a := f.schedule(t, r.ID, "t1", "d1", t10am)
		f.clock.Set(t10am)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.assignments.Start(f.ctx, staff, a.ID)
		}()
		go func() {
			defer wg.Done()
			_, _ = f.routes.RemoveWaypoint(f.ctx, staff, r.ID, 1)
		}()
		wg.Wait()

		stored, err := f.assignments.Get(f.ctx, a.ID)
		require.NoError(t, err)
		route, err := f.routes.GetRoute(f.ctx, r.ID)
		require.NoError(t, err)
		if stored.Status == domain.AssignmentActive {
			assert.NoError(t, route.Assignable(), "an active assignment always follows an assignable route")
		}
	}
}
