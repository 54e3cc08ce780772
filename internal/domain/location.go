package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// A single GPS report from a truck. AssignmentID is set once ingestion has
// resolved the truck's current assignment.
type LocationPing struct {
	TruckID      string
	AssignmentID *string
	Lat          float64
	Lng          float64
	Speed        *float64
	Heading      *float64
	RecordedAt   time.Time
}

func (p LocationPing) Coordinates() Coordinates { return Coordinates{Lat: p.Lat, Lng: p.Lng} }

func (p LocationPing) Validate() error {
	if strings.TrimSpace(p.TruckID) == "" {
		return fmt.Errorf("truck id must not be empty: %w", ErrValidation)
	}
	if p.RecordedAt.IsZero() {
		return fmt.Errorf("recorded_at must be set: %w", ErrValidation)
	}
	if p.Heading != nil && !inRange(*p.Heading, 0, 360) {
		return fmt.Errorf("heading %v out of range [0, 360]: %w", *p.Heading, ErrValidation)
	}
	if p.Speed != nil && !inRange(*p.Speed, 0, math.MaxFloat64) {
		return fmt.Errorf("speed %v must be a finite non-negative number: %w", *p.Speed, ErrValidation)
	}
	return p.Coordinates().Validate()
}

// TruckPosition is the latest accepted ping for a truck.
type TruckPosition struct {
	LocationPing
	UpdatedAt time.Time
}
