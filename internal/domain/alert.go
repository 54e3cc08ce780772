package domain

import (
	"fmt"
	"time"
)

type AlertType string

const (
	AlertRouteDeviation AlertType = "route_deviation"
	AlertProlongedStop  AlertType = "prolonged_stop"
	AlertLateStart      AlertType = "late_start"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertRouteDeviation, AlertProlongedStop, AlertLateStart:
		return true
	}
	return false
}

type AlertStatus string

const (
	AlertUnread   AlertStatus = "unread"
	AlertRead     AlertStatus = "read"
	AlertArchived AlertStatus = "archived"
)

// System-generated anomaly alert. At most one unread alert exists per
// (AssignmentID, Type); repeated occurrences refresh it instead.
type SystemAlert struct {
	ID             string
	AssignmentID   string
	TruckID        string
	DriverID       string
	Type           AlertType
	Status         AlertStatus
	Message        string
	Occurrences    int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	AcknowledgedAt *time.Time
}

// Refresh records another occurrence of the same open condition.
func (a *SystemAlert) Refresh(message string, now time.Time) {
	a.Message = message
	a.Occurrences++
	a.UpdatedAt = now
}

// Acknowledge moves the alert to read or archived. Archived alerts are final.
func (a *SystemAlert) Acknowledge(status AlertStatus, now time.Time) error {
	if status != AlertRead && status != AlertArchived {
		return fmt.Errorf("acknowledge alert %s: target status %q must be read or archived: %w", a.ID, status, ErrValidation)
	}
	if a.Status == AlertArchived {
		return fmt.Errorf("acknowledge alert %s: already archived: %w", a.ID, ErrInvalidState)
	}
	if a.Status == status {
		return nil
	}
	if a.AcknowledgedAt == nil {
		a.AcknowledgedAt = &now
	}
	a.Status = status
	a.UpdatedAt = now
	return nil
}
