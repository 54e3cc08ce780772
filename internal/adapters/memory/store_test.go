package memory

import (
	"context"
	"fleet-tracking-service/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRoute(t *testing.T, s *Store) {
	t.Helper()
	require.NoError(t, s.CreateRoute(context.Background(), &domain.Route{
		ID: "r1", Name: "North", Status: domain.RouteActive,
		Waypoints: []domain.Waypoint{{Lat: 1, Lng: 1, SequenceOrder: 1}, {Lat: 2, Lng: 2, SequenceOrder: 2}},
	}))
}

func TestStoreRejectsDoubleBooking(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedRoute(t, s)

	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateAssignment(ctx, &domain.Assignment{ID: "a1", RouteID: "r1", TruckID: "t1", DriverID: "d1", Status: domain.AssignmentScheduled, ScheduledStart: start}))

	err := s.CreateAssignment(ctx, &domain.Assignment{ID: "a2", RouteID: "r1", TruckID: "t1", DriverID: "d2", Status: domain.AssignmentScheduled, ScheduledStart: start.Add(24 * time.Hour)})
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = s.CreateAssignment(ctx, &domain.Assignment{ID: "a3", RouteID: "r1", TruckID: "t2", DriverID: "d1", Status: domain.AssignmentScheduled, ScheduledStart: start})
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = s.CreateAssignment(ctx, &domain.Assignment{ID: "a4", RouteID: "nope", TruckID: "t3", DriverID: "d3", Status: domain.AssignmentScheduled, ScheduledStart: start})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreUpdateAssignmentStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedRoute(t, s)

	a := &domain.Assignment{ID: "a1", RouteID: "r1", TruckID: "t1", DriverID: "d1", Status: domain.AssignmentScheduled}
	require.NoError(t, s.CreateAssignment(ctx, a))

	started := *a
	require.NoError(t, started.Start(time.Now()))
	ok, err := s.UpdateAssignmentStatus(ctx, &started, domain.AssignmentScheduled)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UpdateAssignmentStatus(ctx, &started, domain.AssignmentScheduled)
	require.NoError(t, err)
	assert.False(t, ok, "stored status already moved on")
}

func TestStoreSetPositionRejectsOlderPing(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SetPosition(ctx, domain.TruckPosition{LocationPing: domain.LocationPing{TruckID: "t1", Lat: 1, RecordedAt: t0}}))
	err := s.SetPosition(ctx, domain.TruckPosition{LocationPing: domain.LocationPing{TruckID: "t1", Lat: 2, RecordedAt: t0.Add(-time.Second)}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	pos, err := s.GetPosition(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, pos.Lat)
}

func TestStoreSingleUnreadAlertPerKey(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedRoute(t, s)
	require.NoError(t, s.CreateAssignment(ctx, &domain.Assignment{ID: "a1", RouteID: "r1", TruckID: "t1", DriverID: "d1", Status: domain.AssignmentActive}))

	require.NoError(t, s.CreateAlert(ctx, &domain.SystemAlert{ID: "al1", AssignmentID: "a1", Type: domain.AlertLateStart, Status: domain.AlertUnread}))
	err := s.CreateAlert(ctx, &domain.SystemAlert{ID: "al2", AssignmentID: "a1", Type: domain.AlertLateStart, Status: domain.AlertUnread})
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, s.CreateAlert(ctx, &domain.SystemAlert{ID: "al3", AssignmentID: "a1", Type: domain.AlertRouteDeviation, Status: domain.AlertUnread}))

	unread, err := s.ListUnread(ctx)
	require.NoError(t, err)
	assert.Len(t, unread, 2)
}

func TestStoreReplaceWaypointsRefusedWhileRouteActive(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedRoute(t, s)

	a := &domain.Assignment{ID: "a1", RouteID: "r1", TruckID: "t1", DriverID: "d1", Status: domain.AssignmentScheduled}
	require.NoError(t, s.CreateAssignment(ctx, a))

	open, err := s.HasOpenForRoute(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, open)
	active, err := s.HasActiveForRoute(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, active)

	r, err := s.GetRoute(ctx, "r1")
	require.NoError(t, err)
	require.NoError(t, s.ReplaceWaypoints(ctx, r), "a scheduled assignment does not pin the stored path")

	started := *a
	require.NoError(t, started.Start(time.Now()))
	ok, err := s.UpdateAssignmentStatus(ctx, &started, domain.AssignmentScheduled)
	require.NoError(t, err)
	require.True(t, ok)

	r.Waypoints = r.Waypoints[:1]
	assert.ErrorIs(t, s.ReplaceWaypoints(ctx, r), domain.ErrConflict)

	stored, err := s.GetRoute(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, stored.Waypoints, 2)

	assert.ErrorIs(t, s.ReplaceWaypoints(ctx, &domain.Route{ID: "nope"}), domain.ErrNotFound)
}
