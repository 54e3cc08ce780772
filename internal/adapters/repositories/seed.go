package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/ports"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

type WaypointSeed struct {
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	StreetName *string `json:"street_name"`
}

type RouteSeed struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	Status      string         `json:"status"`
	Waypoints   []WaypointSeed `json:"waypoints"`
}

// SeedRoutesFromJSON populates the route store from a JSON file. Routes that
// already exist are left untouched, so the seed can be re-run safely. It
// returns the number of routes created.
func SeedRoutesFromJSON(ctx context.Context, repo ports.RouteRepository, jsonPath string, now time.Time) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed routes: read %q: %w", jsonPath, err)
	}

	var data []RouteSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed routes: parse json: %w", err)
	}

	routes := make([]*domain.Route, 0, len(data))
	for i, item := range data {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			id = uuid.NewString()
		}
		status := domain.RouteStatus(item.Status)
		if status == "" {
			status = domain.RouteActive
		}

		r := &domain.Route{
			ID:          id,
			Name:        strings.TrimSpace(item.Name),
			Description: item.Description,
			Status:      status,
			Waypoints:   make([]domain.Waypoint, 0, len(item.Waypoints)),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		for j, w := range item.Waypoints {
			r.Waypoints = append(r.Waypoints, domain.Waypoint{Lat: w.Lat, Lng: w.Lng, SequenceOrder: j + 1, StreetName: w.StreetName})
		}
		if err := r.Validate(); err != nil {
			return 0, fmt.Errorf("seed routes: route at index %d: %w", i+1, err)
		}
		routes = append(routes, r)
	}

	created := 0
	for _, r := range routes {
		err := repo.CreateRoute(ctx, r)
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed routes: insert route %s: %w", r.ID, err)
		}
		created++
	}

	return created, nil
}
