package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waypoints(base int, n int) []Waypoint {
	ws := make([]Waypoint, 0, n)
	for i := 0; i < n; i++ {
		ws = append(ws, Waypoint{Lat: -12.04 + float64(i)*0.001, Lng: -77.03, SequenceOrder: base + i})
	}
	return ws
}

func sequenceOrders(r *Route) []int {
	out := make([]int, 0, len(r.Waypoints))
	for _, w := range r.Waypoints {
		out = append(out, w.SequenceOrder)
	}
	return out
}

func TestRouteValidate(t *testing.T) {
	tests := []struct {
		name    string
		route   Route
		wantErr bool
	}{
		{name: "active two waypoints from zero", route: Route{Name: "A", Status: RouteActive, Waypoints: waypoints(0, 2)}},
		{name: "active gaps allowed", route: Route{Name: "A", Status: RouteActive, Waypoints: []Waypoint{
			{Lat: 1, Lng: 1, SequenceOrder: 1}, {Lat: 2, Lng: 2, SequenceOrder: 5},
		}}},
		{name: "draft single waypoint", route: Route{Name: "A", Status: RouteDraft, Waypoints: waypoints(1, 1)}},
		{name: "active single waypoint", route: Route{Name: "A", Status: RouteActive, Waypoints: waypoints(1, 1)}, wantErr: true},
		{name: "starts at two", route: Route{Name: "A", Status: RouteDraft, Waypoints: waypoints(2, 3)}, wantErr: true},
		{name: "duplicate order", route: Route{Name: "A", Status: RouteDraft, Waypoints: []Waypoint{
			{Lat: 1, Lng: 1, SequenceOrder: 1}, {Lat: 2, Lng: 2, SequenceOrder: 1},
		}}, wantErr: true},
		{name: "decreasing order", route: Route{Name: "A", Status: RouteDraft, Waypoints: []Waypoint{
			{Lat: 1, Lng: 1, SequenceOrder: 1}, {Lat: 2, Lng: 2, SequenceOrder: 3}, {Lat: 2, Lng: 2, SequenceOrder: 2},
		}}, wantErr: true},
		{name: "latitude out of range", route: Route{Name: "A", Status: RouteDraft, Waypoints: []Waypoint{
			{Lat: 91, Lng: 1, SequenceOrder: 0},
		}}, wantErr: true},
		{name: "empty name", route: Route{Name: " ", Status: RouteDraft}, wantErr: true},
		{name: "unknown status", route: Route{Name: "A", Status: "paused"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.route.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRouteReorderWaypoints(t *testing.T) {
	r := &Route{ID: "r1", Name: "A", Status: RouteActive, Waypoints: waypoints(1, 3)}
	first, last := r.Waypoints[0], r.Waypoints[2]

	require.NoError(t, r.ReorderWaypoints([]int{2, 0, 1}))

	assert.Equal(t, []int{1, 2, 3}, sequenceOrders(r))
	assert.Equal(t, last.Lat, r.Waypoints[0].Lat)
	assert.Equal(t, first.Lat, r.Waypoints[1].Lat)
}

func TestRouteReorderWaypointsRejectsNonBijection(t *testing.T) {
	for name, order := range map[string][]int{
		"duplicate":    {0, 0, 1},
		"missing":      {0, 1},
		"extra":        {0, 1, 2, 3},
		"out of range": {0, 1, 3},
		"negative":     {-1, 0, 1},
	} {
		t.Run(name, func(t *testing.T) {
			r := &Route{ID: "r1", Name: "A", Status: RouteActive, Waypoints: waypoints(0, 3)}
			before := append([]Waypoint(nil), r.Waypoints...)

			err := r.ReorderWaypoints(order)

			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, before, r.Waypoints)
		})
	}
}

func TestRouteInsertAndRemoveWaypoint(t *testing.T) {
	r := &Route{ID: "r1", Name: "A", Status: RouteActive, Waypoints: waypoints(0, 2)}

	require.NoError(t, r.InsertWaypoint(1, Waypoint{Lat: 5, Lng: 5}))
	assert.Equal(t, []int{0, 1, 2}, sequenceOrders(r))
	assert.Equal(t, 5.0, r.Waypoints[1].Lat)

	require.NoError(t, r.RemoveWaypoint(0))
	assert.Equal(t, []int{0, 1}, sequenceOrders(r))
	assert.Equal(t, 5.0, r.Waypoints[0].Lat)

	err := r.RemoveWaypoint(1)
	assert.ErrorIs(t, err, ErrValidation, "active route must keep two waypoints")
	assert.Len(t, r.Waypoints, 2)

	assert.ErrorIs(t, r.RemoveWaypoint(42), ErrNotFound)
	assert.ErrorIs(t, r.InsertWaypoint(5, Waypoint{Lat: 1, Lng: 1}), ErrValidation)
	assert.ErrorIs(t, r.InsertWaypoint(0, Waypoint{Lat: 1, Lng: 200}), ErrValidation)
}

func TestRouteAssignable(t *testing.T) {
	assert.NoError(t, (&Route{Status: RouteActive, Waypoints: waypoints(0, 2)}).Assignable())
	assert.NoError(t, (&Route{Status: RouteDraft, Waypoints: waypoints(0, 2)}).Assignable())
	assert.ErrorIs(t, (&Route{Status: RouteDraft, Waypoints: waypoints(0, 1)}).Assignable(), ErrValidation)
	assert.ErrorIs(t, (&Route{Status: RouteInactive, Waypoints: waypoints(0, 3)}).Assignable(), ErrValidation)
}
