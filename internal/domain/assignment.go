package domain

import (
	"fmt"
	"time"
)

type AssignmentStatus string

const (
	AssignmentScheduled AssignmentStatus = "scheduled"
	AssignmentActive    AssignmentStatus = "active"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentCancelled AssignmentStatus = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s AssignmentStatus) Terminal() bool {
	return s == AssignmentCompleted || s == AssignmentCancelled
}

// Binds one truck and one driver to one route for one operational window.
//
// Status only changes through Start, Complete and Cancel:
//
//	scheduled -> active -> completed
//	scheduled | active -> cancelled
type Assignment struct {
	ID             string
	RouteID        string
	TruckID        string
	DriverID       string
	Status         AssignmentStatus
	ScheduledStart time.Time
	ScheduledEnd   *time.Time
	ActualStart    *time.Time
	CompletedAt    *time.Time
	CancelledAt    *time.Time
	Notes          *string
	AssignedBy     string
	CreatedAt      time.Time
}

// Start moves a scheduled assignment to active.
func (a *Assignment) Start(now time.Time) error {
	if a.Status != AssignmentScheduled {
		return fmt.Errorf("start assignment %s: status is %s, want scheduled: %w", a.ID, a.Status, ErrInvalidState)
	}
	a.Status = AssignmentActive
	a.ActualStart = &now
	return nil
}

// Complete moves an active assignment to completed.
func (a *Assignment) Complete(now time.Time) error {
	if a.Status != AssignmentActive {
		return fmt.Errorf("complete assignment %s: status is %s, want active: %w", a.ID, a.Status, ErrInvalidState)
	}
	a.Status = AssignmentCompleted
	a.CompletedAt = &now
	return nil
}

// Cancel moves a scheduled or active assignment to cancelled. Cancelling an
// already cancelled assignment is a no-op and returns changed=false.
func (a *Assignment) Cancel(now time.Time) (changed bool, err error) {
	switch a.Status {
	case AssignmentCancelled:
		return false, nil
	case AssignmentScheduled, AssignmentActive:
		a.Status = AssignmentCancelled
		a.CancelledAt = &now
		return true, nil
	default:
		return false, fmt.Errorf("cancel assignment %s: status is %s: %w", a.ID, a.Status, ErrInvalidState)
	}
}

// CanOperate reports whether actor may start or complete the assignment.
func (a *Assignment) CanOperate(actor Actor) bool {
	if actor.IsStaff() {
		return true
	}
	return actor.Role == RoleDriver && actor.UserID == a.DriverID
}
