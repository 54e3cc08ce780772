package domain

import "fmt"

// Immutable geographic coordinates (latitude, longitude) in WGS 84 degrees.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Validate rejects coordinates outside lat [-90,90] and lng [-180,180]. The
// comparisons are written so NaN fails them.
func (c Coordinates) Validate() error {
	if !inRange(c.Lat, -90, 90) {
		return fmt.Errorf("latitude %v out of range [-90, 90]: %w", c.Lat, ErrValidation)
	}
	if !inRange(c.Lng, -180, 180) {
		return fmt.Errorf("longitude %v out of range [-180, 180]: %w", c.Lng, ErrValidation)
	}
	return nil
}

func inRange(v, lo, hi float64) bool { return v >= lo && v <= hi }
