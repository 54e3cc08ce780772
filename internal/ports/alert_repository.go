package ports

import (
	"context"
	"fleet-tracking-service/internal/domain"
)

// Port: persistence for system alerts. CreateAlert must fail with
// domain.ErrConflict when an unread alert of the same (assignment, type)
// already exists.
type AlertRepository interface {
	CreateAlert(ctx context.Context, a *domain.SystemAlert) error
	GetAlert(ctx context.Context, id string) (*domain.SystemAlert, error)
	// Return the unread alert for (assignmentID, typ), or domain.ErrNotFound.
	FindUnread(ctx context.Context, assignmentID string, typ domain.AlertType) (*domain.SystemAlert, error)
	// Return the most recently acknowledged alert for (assignmentID, typ), or domain.ErrNotFound.
	FindLastAcknowledged(ctx context.Context, assignmentID string, typ domain.AlertType) (*domain.SystemAlert, error)
	// Persist message, occurrences, status and timestamps of an existing alert.
	UpdateAlert(ctx context.Context, a *domain.SystemAlert) error
	// Return unread alerts, newest first.
	ListUnread(ctx context.Context) ([]domain.SystemAlert, error)
}
