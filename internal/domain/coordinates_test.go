package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoordinatesValidate(t *testing.T) {
	tests := []struct {
		name string
		c    Coordinates
		ok   bool
	}{
		{"origin", Coordinates{Lat: 0, Lng: 0}, true},
		{"lima", Coordinates{Lat: -12.05, Lng: -77.04}, true},
		{"corners", Coordinates{Lat: 90, Lng: -180}, true},
		{"opposite corners", Coordinates{Lat: -90, Lng: 180}, true},
		{"latitude too high", Coordinates{Lat: 90.0001, Lng: 0}, false},
		{"longitude too low", Coordinates{Lat: 0, Lng: -180.0001}, false},
		{"NaN latitude", Coordinates{Lat: math.NaN(), Lng: 0}, false},
		{"NaN longitude", Coordinates{Lat: 0, Lng: math.NaN()}, false},
		{"infinite latitude", Coordinates{Lat: math.Inf(1), Lng: 0}, false},
		{"negative infinite longitude", Coordinates{Lat: 0, Lng: math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestLocationPingValidate(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ptr := func(v float64) *float64 { return &v }

	valid := LocationPing{TruckID: "t1", Lat: -12.05, Lng: -77.04, Speed: ptr(30), Heading: ptr(360), RecordedAt: at}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(p *LocationPing)
	}{
		{"NaN latitude", func(p *LocationPing) { p.Lat = math.NaN() }},
		{"NaN longitude", func(p *LocationPing) { p.Lng = math.NaN() }},
		{"NaN heading", func(p *LocationPing) { p.Heading = ptr(math.NaN()) }},
		{"heading past north", func(p *LocationPing) { p.Heading = ptr(360.5) }},
		{"NaN speed", func(p *LocationPing) { p.Speed = ptr(math.NaN()) }},
		{"infinite speed", func(p *LocationPing) { p.Speed = ptr(math.Inf(1)) }},
		{"negative speed", func(p *LocationPing) { p.Speed = ptr(-1) }},
		{"missing truck", func(p *LocationPing) { p.TruckID = " " }},
		{"missing timestamp", func(p *LocationPing) { p.RecordedAt = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrValidation)
		})
	}
}
