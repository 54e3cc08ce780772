package services

import (
	"context"
	"errors"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/platform/keylock"
	"fleet-tracking-service/internal/platform/obs"
	"fleet-tracking-service/internal/ports"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RaiseOutcome int

const (
	AlertCreated RaiseOutcome = iota
	AlertRefreshed
	// AlertSuppressed means the condition re-fired inside the cooldown that
	// follows an acknowledgement.
	AlertSuppressed
)

func (o RaiseOutcome) String() string {
	switch o {
	case AlertCreated:
		return "created"
	case AlertRefreshed:
		return "refreshed"
	default:
		return "suppressed"
	}
}

// AlertService turns evaluator conditions into persisted alerts and keeps at
// most one unread alert per (assignment, type).
//
// Work on one assignment is serialized through a keylock; the storage layer's
// unique index on unread alerts backs this up across processes.
type AlertService struct {
	Alerts      ports.AlertRepository
	Assignments ports.AssignmentRepository
	Clock       ports.Clock
	Cooldown    time.Duration

	locks *keylock.Locker
}

func NewAlertService(alerts ports.AlertRepository, assignments ports.AssignmentRepository, clock ports.Clock, cooldown time.Duration) *AlertService {
	return &AlertService{
		Alerts:      alerts,
		Assignments: assignments,
		Clock:       clock,
		Cooldown:    cooldown,
		locks:       keylock.New(),
	}
}

func (s *AlertService) Raise(
	ctx context.Context,
	assignmentID string,
	typ domain.AlertType,
	message string,
) (*domain.SystemAlert, RaiseOutcome, error) {
	if !typ.Valid() {
		return nil, 0, fmt.Errorf("raise alert: unknown type %q: %w", typ, domain.ErrValidation)
	}

	unlock := s.locks.Lock(assignmentID)
	defer unlock()

	a, err := s.Assignments.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, 0, fmt.Errorf("raise %s alert: %w", typ, err)
	}
	now := s.Clock.Now()
	log := obs.Logger(ctx).With(zap.String("assignment_id", assignmentID), zap.String("type", string(typ)))

	refreshed, err := s.refreshUnread(ctx, assignmentID, typ, message, now)
	if err != nil {
		return nil, 0, err
	}
	if refreshed != nil {
		log.Debug("alert refreshed", zap.String("alert_id", refreshed.ID), zap.Int("occurrences", refreshed.Occurrences))
		return refreshed, AlertRefreshed, nil
	}

	if s.Cooldown > 0 {
		last, err := s.Alerts.FindLastAcknowledged(ctx, assignmentID, typ)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return nil, 0, fmt.Errorf("raise %s alert: %w", typ, err)
		case last.AcknowledgedAt.Add(s.Cooldown).After(now):
			log.Debug("alert suppressed by cooldown", zap.Time("acknowledged_at", *last.AcknowledgedAt))
			return last, AlertSuppressed, nil
		}
	}

	alert := &domain.SystemAlert{
		ID:           uuid.NewString(),
		AssignmentID: assignmentID,
		TruckID:      a.TruckID,
		DriverID:     a.DriverID,
		Type:         typ,
		Status:       domain.AlertUnread,
		Message:      message,
		Occurrences:  1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.Alerts.CreateAlert(ctx, alert)
	if errors.Is(err, domain.ErrConflict) {
		// Another process created it between our read and write.
		refreshed, err := s.refreshUnread(ctx, assignmentID, typ, message, now)
		if err != nil {
			return nil, 0, err
		}
		if refreshed != nil {
			return refreshed, AlertRefreshed, nil
		}
		return nil, 0, fmt.Errorf("raise %s alert for %s: unread alert vanished during create: %w", typ, assignmentID, domain.ErrConflict)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("raise %s alert: %w", typ, err)
	}

	log.Info("alert raised", zap.String("alert_id", alert.ID), zap.String("message", message))
	return alert, AlertCreated, nil
}

// refreshUnread returns nil, nil when no unread alert exists.
func (s *AlertService) refreshUnread(
	ctx context.Context,
	assignmentID string,
	typ domain.AlertType,
	message string,
	now time.Time,
) (*domain.SystemAlert, error) {
	existing, err := s.Alerts.FindUnread(ctx, assignmentID, typ)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("raise %s alert: %w", typ, err)
	}

	existing.Refresh(message, now)
	if err := s.Alerts.UpdateAlert(ctx, existing); err != nil {
		return nil, fmt.Errorf("raise %s alert: refresh %s: %w", typ, existing.ID, err)
	}
	return existing, nil
}

// Acknowledge moves an alert to read or archived.
func (s *AlertService) Acknowledge(
	ctx context.Context,
	actor domain.Actor,
	alertID string,
	status domain.AlertStatus,
) (*domain.SystemAlert, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("acknowledge alert: role %q may not acknowledge: %w", actor.Role, domain.ErrForbidden)
	}

	alert, err := s.Alerts.GetAlert(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("acknowledge alert: %w", err)
	}

	unlock := s.locks.Lock(alert.AssignmentID)
	defer unlock()

	// Re-read under the lock; a concurrent Raise may have refreshed it.
	alert, err = s.Alerts.GetAlert(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("acknowledge alert: %w", err)
	}

	before := alert.Status
	if err := alert.Acknowledge(status, s.Clock.Now()); err != nil {
		return nil, err
	}
	if alert.Status == before {
		return alert, nil
	}

	if err := s.Alerts.UpdateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("acknowledge alert: %w", err)
	}

	obs.Logger(ctx).Info("alert acknowledged",
		zap.String("alert_id", alert.ID),
		zap.String("status", string(alert.Status)),
		zap.String("actor", actor.UserID),
	)
	return alert, nil
}

// ListUnread returns unread alerts, newest first.
func (s *AlertService) ListUnread(ctx context.Context, actor domain.Actor) ([]domain.SystemAlert, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("list alerts: %w", domain.ErrForbidden)
	}

	alerts, err := s.Alerts.ListUnread(ctx)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}
