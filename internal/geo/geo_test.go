package geo

import (
	"fleet-tracking-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineMeters(t *testing.T) {
	// One degree of latitude on a 6371 km sphere.
	d := HaversineMeters(domain.Coordinates{Lat: 0, Lng: 0}, domain.Coordinates{Lat: 1, Lng: 0})
	assert.InDelta(t, 111194.9, d, 1)

	assert.Zero(t, HaversineMeters(domain.Coordinates{Lat: -12, Lng: -77}, domain.Coordinates{Lat: -12, Lng: -77}))
}

func TestDistanceToPathMeters(t *testing.T) {
	start := domain.Coordinates{Lat: -12.05, Lng: -77.05}
	end := domain.Coordinates{Lat: -12.05, Lng: -77.04}
	corner := domain.Coordinates{Lat: -12.04, Lng: -77.04}
	path := []domain.Coordinates{start, end, corner}

	mid := domain.Coordinates{Lat: -12.05, Lng: -77.045}

	tests := []struct {
		name string
		p    domain.Coordinates
		want float64
	}{
		{name: "on the path", p: mid, want: 0},
		{name: "50m north of first segment", p: OffsetNorth(mid, 50), want: 50},
		{name: "500m south of first segment", p: OffsetNorth(mid, -500), want: 500},
		{name: "beyond the first endpoint", p: OffsetNorth(start, -300), want: 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DistanceToPathMeters(tt.p, path)
			assert.True(t, ok)
			assert.InDelta(t, tt.want, got, 1)
		})
	}
}

func TestDistanceToPathMetersDegenerate(t *testing.T) {
	_, ok := DistanceToPathMeters(domain.Coordinates{}, nil)
	assert.False(t, ok)

	p := domain.Coordinates{Lat: 10, Lng: 10}
	d, ok := DistanceToPathMeters(OffsetNorth(p, 100), []domain.Coordinates{p})
	assert.True(t, ok)
	assert.InDelta(t, 100, d, 0.5)

	d = DistanceToSegmentMeters(OffsetNorth(p, 20), p, p)
	assert.InDelta(t, 20, d, 0.5)
}
