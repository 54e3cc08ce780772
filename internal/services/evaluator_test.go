package services

import (
	"fleet-tracking-service/internal/config"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/geo"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluatorStartWindowBoundaries(t *testing.T) {
	e := Evaluator{Policy: config.DefaultTracking()}
	a := &domain.Assignment{ScheduledStart: t10am}

	tests := []struct {
		at   time.Time
		want lateness
	}{
		{t10am.Add(-time.Second), beforeWindow},
		{t10am, inGraceWindow},
		{t10am.Add(5*time.Minute - time.Second), inGraceWindow},
		{t10am.Add(5 * time.Minute), late},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.startWindow(a, tt.at), tt.at.Format(time.TimeOnly))
	}
}

func TestEvaluatorDeviationThresholdIsExclusive(t *testing.T) {
	e := Evaluator{Policy: config.DefaultTracking()}
	a := &domain.Assignment{TruckID: "t1"}
	r := &domain.Route{Name: "Centro", Waypoints: waypointsFor(pathPoints)}

	_, raised := e.deviation(a, r, domain.LocationPing{Lat: offPath(149).Lat, Lng: offPath(149).Lng})
	assert.False(t, raised)

	c, raised := e.deviation(a, r, domain.LocationPing{Lat: offPath(151).Lat, Lng: offPath(151).Lng})
	assert.True(t, raised)
	assert.Equal(t, domain.AlertRouteDeviation, c.Type)

	// Beyond the last waypoint the distance is to the endpoint, not the extended line.
	east := domain.Coordinates{Lat: pathPoints[2].Lat, Lng: pathPoints[2].Lng + 0.01}
	_, raised = e.deviation(a, r, domain.LocationPing{Lat: east.Lat, Lng: east.Lng})
	assert.True(t, raised)
}

func TestEvaluatorStoppedSince(t *testing.T) {
	e := Evaluator{Policy: config.DefaultTracking()}
	at := func(m int, c domain.Coordinates) domain.LocationPing {
		return domain.LocationPing{Lat: c.Lat, Lng: c.Lng, RecordedAt: t10am.Add(time.Duration(m) * time.Minute)}
	}
	here := onPath()
	near := geo.OffsetNorth(here, 15)

	history := []domain.LocationPing{
		at(0, pathPoints[0]),
		at(2, here),
		at(6, near),
		at(9, here),
	}
	latest := history[len(history)-1]

	assert.True(t, e.stoppedSince(history, latest).Equal(t10am.Add(2*time.Minute)))

	_, raised := e.prolongedStop(&domain.Assignment{}, history, latest)
	assert.False(t, raised, "7 minutes is under the stop duration")

	history = append(history, at(13, here))
	c, raised := e.prolongedStop(&domain.Assignment{TruckID: "t1"}, history, history[len(history)-1])
	assert.True(t, raised)
	assert.Contains(t, c.Message, "t1")
}
