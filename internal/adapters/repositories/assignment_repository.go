package repositories

import (
	"context"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/platform/obs"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQL-backed implementation of the AssignmentRepository port. The partial
// unique indexes on truck_id and driver_id turn a double booking into
// domain.ErrConflict even when two schedulers race.
type SQLAssignmentRepository struct{ DB *sqlx.DB }

func NewSQLAssignmentRepository(db *sqlx.DB) *SQLAssignmentRepository {
	return &SQLAssignmentRepository{DB: db}
}

type assignmentRow struct {
	ID             string     `db:"id"`
	RouteID        string     `db:"route_id"`
	TruckID        string     `db:"truck_id"`
	DriverID       string     `db:"driver_id"`
	Status         string     `db:"status"`
	ScheduledStart time.Time  `db:"scheduled_start_time"`
	ScheduledEnd   *time.Time `db:"scheduled_end_time"`
	ActualStart    *time.Time `db:"actual_start_time"`
	CompletedAt    *time.Time `db:"actual_end_time"`
	CancelledAt    *time.Time `db:"cancelled_at"`
	Notes          *string    `db:"notes"`
	AssignedBy     string     `db:"assigned_by"`
	CreatedAt      time.Time  `db:"created_at"`
}

func (r assignmentRow) toDomain() *domain.Assignment {
	return &domain.Assignment{
		ID:             r.ID,
		RouteID:        r.RouteID,
		TruckID:        r.TruckID,
		DriverID:       r.DriverID,
		Status:         domain.AssignmentStatus(r.Status),
		ScheduledStart: r.ScheduledStart,
		ScheduledEnd:   r.ScheduledEnd,
		ActualStart:    r.ActualStart,
		CompletedAt:    r.CompletedAt,
		CancelledAt:    r.CancelledAt,
		Notes:          r.Notes,
		AssignedBy:     r.AssignedBy,
		CreatedAt:      r.CreatedAt,
	}
}

const assignmentColumns = `
	id, route_id, truck_id, driver_id, status,
	scheduled_start_time, scheduled_end_time, actual_start_time, actual_end_time, cancelled_at,
	notes, assigned_by, created_at
`

func (s *SQLAssignmentRepository) CreateAssignment(ctx context.Context, a *domain.Assignment) (err error) {
	defer obs.Time(ctx, "assignment.repo.CreateAssignment")(&err)

	q := s.DB.Rebind(`
	INSERT INTO route_assignment (` + assignmentColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	_, err = s.DB.ExecContext(ctx, q,
		a.ID, a.RouteID, a.TruckID, a.DriverID, string(a.Status),
		utc(a.ScheduledStart), utcPtr(a.ScheduledEnd), utcPtr(a.ActualStart), utcPtr(a.CompletedAt), utcPtr(a.CancelledAt),
		a.Notes, a.AssignedBy, utc(a.CreatedAt),
	)
	if err != nil {
		return mapErr(fmt.Sprintf("create assignment for truck %s driver %s", a.TruckID, a.DriverID), err)
	}
	return nil
}

func (s *SQLAssignmentRepository) GetAssignment(ctx context.Context, id string) (_ *domain.Assignment, err error) {
	defer obs.Time(ctx, "assignment.repo.GetAssignment")(&err)

	var row assignmentRow
	q := s.DB.Rebind(`SELECT ` + assignmentColumns + ` FROM route_assignment WHERE id = ?;`)
	if err := s.DB.GetContext(ctx, &row, q, id); err != nil {
		return nil, mapErr("get assignment "+id, err)
	}
	return row.toDomain(), nil
}

func (s *SQLAssignmentRepository) findCurrent(ctx context.Context, column, value string) (*domain.Assignment, error) {
	var row assignmentRow
	q := s.DB.Rebind(`
	SELECT ` + assignmentColumns + `
	FROM route_assignment
	WHERE ` + column + ` = ? AND status IN ('scheduled', 'active')
	ORDER BY scheduled_start_time
	LIMIT 1;
	`)
	if err := s.DB.GetContext(ctx, &row, q, value); err != nil {
		return nil, mapErr(fmt.Sprintf("current assignment for %s %s", column, value), err)
	}
	return row.toDomain(), nil
}

func (s *SQLAssignmentRepository) FindCurrentByTruck(ctx context.Context, truckID string) (_ *domain.Assignment, err error) {
	defer obs.Time(ctx, "assignment.repo.FindCurrentByTruck")(&err)
	return s.findCurrent(ctx, "truck_id", truckID)
}

func (s *SQLAssignmentRepository) FindCurrentByDriver(ctx context.Context, driverID string) (_ *domain.Assignment, err error) {
	defer obs.Time(ctx, "assignment.repo.FindCurrentByDriver")(&err)
	return s.findCurrent(ctx, "driver_id", driverID)
}

func (s *SQLAssignmentRepository) HasActiveForRoute(ctx context.Context, routeID string) (_ bool, err error) {
	defer obs.Time(ctx, "assignment.repo.HasActiveForRoute")(&err)

	var n int
	q := s.DB.Rebind(`SELECT COUNT(*) FROM route_assignment WHERE route_id = ? AND status = 'active';`)
	if err := s.DB.GetContext(ctx, &n, q, routeID); err != nil {
		return false, mapErr("active assignments for route "+routeID, err)
	}
	return n > 0, nil
}

func (s *SQLAssignmentRepository) HasOpenForRoute(ctx context.Context, routeID string) (_ bool, err error) {
	defer obs.Time(ctx, "assignment.repo.HasOpenForRoute")(&err)

	var n int
	q := s.DB.Rebind(`SELECT COUNT(*) FROM route_assignment WHERE route_id = ? AND status IN ('scheduled', 'active');`)
	if err := s.DB.GetContext(ctx, &n, q, routeID); err != nil {
		return false, mapErr("open assignments for route "+routeID, err)
	}
	return n > 0, nil
}

// UpdateAssignmentStatus is a compare-and-set on status: the row only changes
// while it still holds from.
func (s *SQLAssignmentRepository) UpdateAssignmentStatus(
	ctx context.Context,
	a *domain.Assignment,
	from domain.AssignmentStatus,
) (_ bool, err error) {
	defer obs.Time(ctx, "assignment.repo.UpdateAssignmentStatus")(&err)

	q := s.DB.Rebind(`
	UPDATE route_assignment
	SET status = ?, actual_start_time = ?, actual_end_time = ?, cancelled_at = ?
	WHERE id = ? AND status = ?;
	`)
	res, err := s.DB.ExecContext(ctx, q,
		string(a.Status), utcPtr(a.ActualStart), utcPtr(a.CompletedAt), utcPtr(a.CancelledAt),
		a.ID, string(from),
	)
	if err != nil {
		return false, mapErr("update assignment "+a.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update assignment %s: rows affected: %w", a.ID, err)
	}
	if n > 0 {
		return true, nil
	}

	// Nothing matched: either the id is unknown or another writer won.
	if _, err := s.GetAssignment(ctx, a.ID); err != nil {
		return false, err
	}
	return false, nil
}
