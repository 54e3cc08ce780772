// Package geo provides the small amount of spherical geometry the geofence
// evaluator needs. Distances are in meters on a spherical earth.
package geo

import (
	"fleet-tracking-service/internal/domain"
	"math"
)

const earthRadiusMeters = 6371000.0

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// HaversineMeters returns the great-circle distance between a and b.
func HaversineMeters(a, b domain.Coordinates) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// project maps c onto a local plane centered at origin (equirectangular).
// Accurate to well under a meter at street scale, which is all a
// deviation threshold needs.
func project(origin, c domain.Coordinates) (x, y float64) {
	dLng := c.Lng - origin.Lng
	if dLng > 180 {
		dLng -= 360
	} else if dLng < -180 {
		dLng += 360
	}
	x = toRad(dLng) * math.Cos(toRad(origin.Lat)) * earthRadiusMeters
	y = toRad(c.Lat-origin.Lat) * earthRadiusMeters
	return x, y
}

// DistanceToSegmentMeters returns the distance from p to the closest point of
// the segment a-b.
func DistanceToSegmentMeters(p, a, b domain.Coordinates) float64 {
	ax, ay := project(p, a)
	bx, by := project(p, b)

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(ax, ay)
	}

	// p sits at the origin of the local plane.
	t := -(ax*dx + ay*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	return math.Hypot(ax+t*dx, ay+t*dy)
}

// DistanceToPathMeters returns the minimum distance from p to the polyline
// formed by consecutive points of path. ok is false for an empty path.
func DistanceToPathMeters(p domain.Coordinates, path []domain.Coordinates) (dist float64, ok bool) {
	switch len(path) {
	case 0:
		return 0, false
	case 1:
		return HaversineMeters(p, path[0]), true
	}

	dist = math.Inf(1)
	for i := 1; i < len(path); i++ {
		if d := DistanceToSegmentMeters(p, path[i-1], path[i]); d < dist {
			dist = d
		}
	}
	return dist, true
}

// OffsetNorth returns c moved meters due north. Used to build fixtures and
// seeds at a known distance from a path.
func OffsetNorth(c domain.Coordinates, meters float64) domain.Coordinates {
	return domain.Coordinates{Lat: c.Lat + meters/earthRadiusMeters*180/math.Pi, Lng: c.Lng}
}
