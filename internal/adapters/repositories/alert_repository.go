package repositories

import (
	"context"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/platform/obs"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQL-backed implementation of the AlertRepository port. The partial unique
// index system_alert_unread_idx is what makes CreateAlert fail with
// domain.ErrConflict on a duplicate unread alert.
type SQLAlertRepository struct{ DB *sqlx.DB }

func NewSQLAlertRepository(db *sqlx.DB) *SQLAlertRepository {
	return &SQLAlertRepository{DB: db}
}

type alertRow struct {
	ID             string     `db:"id"`
	AssignmentID   string     `db:"route_assignment_id"`
	TruckID        string     `db:"truck_id"`
	DriverID       string     `db:"driver_id"`
	Type           string     `db:"type"`
	Status         string     `db:"status"`
	Message        string     `db:"message"`
	Occurrences    int        `db:"occurrences"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	AcknowledgedAt *time.Time `db:"acknowledged_at"`
}

func (r alertRow) toDomain() *domain.SystemAlert {
	return &domain.SystemAlert{
		ID:             r.ID,
		AssignmentID:   r.AssignmentID,
		TruckID:        r.TruckID,
		DriverID:       r.DriverID,
		Type:           domain.AlertType(r.Type),
		Status:         domain.AlertStatus(r.Status),
		Message:        r.Message,
		Occurrences:    r.Occurrences,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		AcknowledgedAt: r.AcknowledgedAt,
	}
}

const alertColumns = `
	id, route_assignment_id, truck_id, driver_id, type, status, message,
	occurrences, created_at, updated_at, acknowledged_at
`

func (s *SQLAlertRepository) CreateAlert(ctx context.Context, a *domain.SystemAlert) (err error) {
	defer obs.Time(ctx, "alert.repo.CreateAlert")(&err)

	q := s.DB.Rebind(`
	INSERT INTO system_alert (` + alertColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	_, err = s.DB.ExecContext(ctx, q,
		a.ID, a.AssignmentID, a.TruckID, a.DriverID, string(a.Type), string(a.Status), a.Message,
		a.Occurrences, utc(a.CreatedAt), utc(a.UpdatedAt), utcPtr(a.AcknowledgedAt),
	)
	if err != nil {
		return mapErr(fmt.Sprintf("create %s alert for assignment %s", a.Type, a.AssignmentID), err)
	}
	return nil
}

func (s *SQLAlertRepository) getOne(ctx context.Context, op, where string, args ...any) (*domain.SystemAlert, error) {
	var row alertRow
	q := s.DB.Rebind(`SELECT ` + alertColumns + ` FROM system_alert WHERE ` + where + `;`)
	if err := s.DB.GetContext(ctx, &row, q, args...); err != nil {
		return nil, mapErr(op, err)
	}
	return row.toDomain(), nil
}

func (s *SQLAlertRepository) GetAlert(ctx context.Context, id string) (_ *domain.SystemAlert, err error) {
	defer obs.Time(ctx, "alert.repo.GetAlert")(&err)
	return s.getOne(ctx, "get alert "+id, "id = ?", id)
}

func (s *SQLAlertRepository) FindUnread(
	ctx context.Context,
	assignmentID string,
	typ domain.AlertType,
) (_ *domain.SystemAlert, err error) {
	defer obs.Time(ctx, "alert.repo.FindUnread")(&err)
	return s.getOne(ctx,
		fmt.Sprintf("unread %s alert for assignment %s", typ, assignmentID),
		"route_assignment_id = ? AND type = ? AND status = 'unread'",
		assignmentID, string(typ),
	)
}

func (s *SQLAlertRepository) FindLastAcknowledged(
	ctx context.Context,
	assignmentID string,
	typ domain.AlertType,
) (_ *domain.SystemAlert, err error) {
	defer obs.Time(ctx, "alert.repo.FindLastAcknowledged")(&err)
	return s.getOne(ctx,
		fmt.Sprintf("acknowledged %s alert for assignment %s", typ, assignmentID),
		"route_assignment_id = ? AND type = ? AND acknowledged_at IS NOT NULL ORDER BY acknowledged_at DESC LIMIT 1",
		assignmentID, string(typ),
	)
}

func (s *SQLAlertRepository) UpdateAlert(ctx context.Context, a *domain.SystemAlert) (err error) {
	defer obs.Time(ctx, "alert.repo.UpdateAlert")(&err)

	q := s.DB.Rebind(`
	UPDATE system_alert
	SET message = ?, status = ?, occurrences = ?, updated_at = ?, acknowledged_at = ?
	WHERE id = ?;
	`)
	res, err := s.DB.ExecContext(ctx, q, a.Message, string(a.Status), a.Occurrences, utc(a.UpdatedAt), utcPtr(a.AcknowledgedAt), a.ID)
	if err != nil {
		return mapErr("update alert "+a.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update alert %s: rows affected: %w", a.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update alert %s: %w", a.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *SQLAlertRepository) ListUnread(ctx context.Context) (_ []domain.SystemAlert, err error) {
	defer obs.Time(ctx, "alert.repo.ListUnread")(&err)

	var rows []alertRow
	q := `SELECT ` + alertColumns + ` FROM system_alert WHERE status = 'unread' ORDER BY created_at DESC, id;`
	if err := s.DB.SelectContext(ctx, &rows, q); err != nil {
		return nil, mapErr("list unread alerts", err)
	}

	out := make([]domain.SystemAlert, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r.toDomain())
	}
	return out, nil
}
