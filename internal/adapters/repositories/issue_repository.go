package repositories

import (
	"context"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/platform/obs"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLIssueRepository serves both issue ports from their separate tables.
type SQLIssueRepository struct{ DB *sqlx.DB }

func NewSQLIssueRepository(db *sqlx.DB) *SQLIssueRepository {
	return &SQLIssueRepository{DB: db}
}

type driverIssueRow struct {
	ID           string     `db:"id"`
	DriverID     string     `db:"driver_id"`
	AssignmentID string     `db:"route_assignment_id"`
	Type         string     `db:"type"`
	Status       string     `db:"status"`
	Notes        *string    `db:"notes"`
	Lat          float64    `db:"lat"`
	Lng          float64    `db:"lng"`
	CreatedAt    time.Time  `db:"created_at"`
	ResolvedAt   *time.Time `db:"resolved_at"`
}

type citizenIssueRow struct {
	ID          string     `db:"id"`
	UserID      string     `db:"user_id"`
	Type        string     `db:"type"`
	Status      string     `db:"status"`
	Description *string    `db:"description"`
	PhotoURL    *string    `db:"photo_url"`
	Lat         float64    `db:"lat"`
	Lng         float64    `db:"lng"`
	CreatedAt   time.Time  `db:"created_at"`
	ResolvedAt  *time.Time `db:"resolved_at"`
}

func (s *SQLIssueRepository) CreateDriverIssue(ctx context.Context, r *domain.IssueReport) (err error) {
	defer obs.Time(ctx, "issue.repo.CreateDriverIssue")(&err)

	q := s.DB.Rebind(`
	INSERT INTO driver_issue_report (id, driver_id, route_assignment_id, type, status, notes, lat, lng, created_at, resolved_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	_, err = s.DB.ExecContext(ctx, q,
		r.ID, r.ReporterID, r.AssignmentID, r.Type, string(r.Status), r.Description,
		r.Lat, r.Lng, utc(r.CreatedAt), utcPtr(r.ResolvedAt),
	)
	if err != nil {
		return mapErr("create driver issue "+r.ID, err)
	}
	return nil
}

func (s *SQLIssueRepository) CreateCitizenIssue(ctx context.Context, r *domain.IssueReport) (err error) {
	defer obs.Time(ctx, "issue.repo.CreateCitizenIssue")(&err)

	q := s.DB.Rebind(`
	INSERT INTO citizen_issue_report (id, user_id, type, status, description, photo_url, lat, lng, created_at, updated_at, resolved_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	_, err = s.DB.ExecContext(ctx, q,
		r.ID, r.ReporterID, r.Type, string(r.Status), r.Description, r.PhotoURL,
		r.Lat, r.Lng, utc(r.CreatedAt), utc(r.CreatedAt), utcPtr(r.ResolvedAt),
	)
	if err != nil {
		return mapErr("create citizen issue "+r.ID, err)
	}
	return nil
}

func (s *SQLIssueRepository) ListOpenDriverIssues(ctx context.Context) (_ []domain.IssueReport, err error) {
	defer obs.Time(ctx, "issue.repo.ListOpenDriverIssues")(&err)

	var rows []driverIssueRow
	q := `
	SELECT id, driver_id, route_assignment_id, type, status, notes, lat, lng, created_at, resolved_at
	FROM driver_issue_report
	WHERE status = 'open';
	`
	if err := s.DB.SelectContext(ctx, &rows, q); err != nil {
		return nil, mapErr("list open driver issues", err)
	}

	out := make([]domain.IssueReport, 0, len(rows))
	for _, r := range rows {
		assignmentID := r.AssignmentID
		out = append(out, domain.IssueReport{
			Source:       domain.IssueSourceDriver,
			ID:           r.ID,
			ReporterID:   r.DriverID,
			AssignmentID: &assignmentID,
			Type:         r.Type,
			Status:       domain.IssueStatus(r.Status),
			Description:  r.Notes,
			Lat:          r.Lat,
			Lng:          r.Lng,
			CreatedAt:    r.CreatedAt,
			ResolvedAt:   r.ResolvedAt,
		})
	}
	return out, nil
}

func (s *SQLIssueRepository) ListOpenCitizenIssues(ctx context.Context) (_ []domain.IssueReport, err error) {
	defer obs.Time(ctx, "issue.repo.ListOpenCitizenIssues")(&err)

	var rows []citizenIssueRow
	q := `
	SELECT id, user_id, type, status, description, photo_url, lat, lng, created_at, resolved_at
	FROM citizen_issue_report
	WHERE status = 'open';
	`
	if err := s.DB.SelectContext(ctx, &rows, q); err != nil {
		return nil, mapErr("list open citizen issues", err)
	}

	out := make([]domain.IssueReport, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.IssueReport{
			Source:      domain.IssueSourceCitizen,
			ID:          r.ID,
			ReporterID:  r.UserID,
			Type:        r.Type,
			Status:      domain.IssueStatus(r.Status),
			Description: r.Description,
			PhotoURL:    r.PhotoURL,
			Lat:         r.Lat,
			Lng:         r.Lng,
			CreatedAt:   r.CreatedAt,
			ResolvedAt:  r.ResolvedAt,
		})
	}
	return out, nil
}

func (s *SQLIssueRepository) UpdateDriverIssueStatus(
	ctx context.Context,
	id string,
	status domain.IssueStatus,
	at time.Time,
) (err error) {
	defer obs.Time(ctx, "issue.repo.UpdateDriverIssueStatus")(&err)

	q := s.DB.Rebind(`UPDATE driver_issue_report SET status = ?, resolved_at = ? WHERE id = ?;`)
	return s.execUpdate(ctx, "update driver issue "+id, q, string(status), resolvedAt(status, at), id)
}

func (s *SQLIssueRepository) UpdateCitizenIssueStatus(
	ctx context.Context,
	id string,
	status domain.IssueStatus,
	at time.Time,
) (err error) {
	defer obs.Time(ctx, "issue.repo.UpdateCitizenIssueStatus")(&err)

	q := s.DB.Rebind(`UPDATE citizen_issue_report SET status = ?, resolved_at = ?, updated_at = ? WHERE id = ?;`)
	return s.execUpdate(ctx, "update citizen issue "+id, q, string(status), resolvedAt(status, at), utc(at), id)
}

func resolvedAt(status domain.IssueStatus, at time.Time) *time.Time {
	if status != domain.IssueResolved {
		return nil
	}
	u := at.UTC()
	return &u
}

func (s *SQLIssueRepository) execUpdate(ctx context.Context, op, q string, args ...any) error {
	res, err := s.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return mapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}
