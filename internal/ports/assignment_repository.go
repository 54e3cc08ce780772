package ports

import (
	"context"
	"fleet-tracking-service/internal/domain"
	"time"
)

// Port: persistence for assignments. Implementations must reject a second
// non-terminal assignment for the same truck with domain.ErrConflict.
type AssignmentRepository interface {
	CreateAssignment(ctx context.Context, a *domain.Assignment) error
	GetAssignment(ctx context.Context, id string) (*domain.Assignment, error)
	// Return the truck's scheduled or active assignment, or domain.ErrNotFound.
	FindCurrentByTruck(ctx context.Context, truckID string) (*domain.Assignment, error)
	// Return the driver's earliest scheduled or active assignment, or domain.ErrNotFound.
	FindCurrentByDriver(ctx context.Context, driverID string) (*domain.Assignment, error)
	// Report whether any active assignment references the route.
	HasActiveForRoute(ctx context.Context, routeID string) (bool, error)
	// Report whether any scheduled or active assignment references the route.
	HasOpenForRoute(ctx context.Context, routeID string) (bool, error)
	// Persist a transition of a, applied only while the stored status is still
	// from. Returns false when another writer moved the assignment first.
	UpdateAssignmentStatus(ctx context.Context, a *domain.Assignment, from domain.AssignmentStatus) (bool, error)
}

// Port: append-only history of accepted pings.
type LocationHistoryRepository interface {
	AppendPing(ctx context.Context, p domain.LocationPing) error
	// Return the assignment's pings recorded at or after since, oldest first.
	ListPingsSince(ctx context.Context, assignmentID string, since time.Time) ([]domain.LocationPing, error)
}

// Port: latest position per truck.
type PositionStore interface {
	// Return the truck's latest position, or domain.ErrNotFound.
	GetPosition(ctx context.Context, truckID string) (*domain.TruckPosition, error)
	// Store pos unless a newer position is already stored, in which case it
	// returns domain.ErrValidation.
	SetPosition(ctx context.Context, pos domain.TruckPosition) error
	ListPositions(ctx context.Context) ([]domain.TruckPosition, error)
}
