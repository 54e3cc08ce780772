package repositories

import (
	"context"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/platform/obs"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Append-only ping history, read back per assignment for stop detection.
type SQLLocationHistoryRepository struct{ DB *sqlx.DB }

func NewSQLLocationHistoryRepository(db *sqlx.DB) *SQLLocationHistoryRepository {
	return &SQLLocationHistoryRepository{DB: db}
}

type pingRow struct {
	TruckID      string    `db:"truck_id"`
	AssignmentID *string   `db:"route_assignment_id"`
	Lat          float64   `db:"lat"`
	Lng          float64   `db:"lng"`
	Speed        *float64  `db:"speed"`
	Heading      *float64  `db:"heading"`
	RecordedAt   time.Time `db:"recorded_at"`
}

func (r pingRow) toDomain() domain.LocationPing {
	return domain.LocationPing{
		TruckID:      r.TruckID,
		AssignmentID: r.AssignmentID,
		Lat:          r.Lat,
		Lng:          r.Lng,
		Speed:        r.Speed,
		Heading:      r.Heading,
		RecordedAt:   r.RecordedAt,
	}
}

func (s *SQLLocationHistoryRepository) AppendPing(ctx context.Context, p domain.LocationPing) (err error) {
	defer obs.Time(ctx, "history.repo.AppendPing")(&err)

	q := s.DB.Rebind(`
	INSERT INTO truck_location_history (id, truck_id, route_assignment_id, lat, lng, speed, heading, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if _, err := s.DB.ExecContext(ctx, q, uuid.NewString(), p.TruckID, p.AssignmentID, p.Lat, p.Lng, p.Speed, p.Heading, utc(p.RecordedAt)); err != nil {
		return mapErr("append ping for truck "+p.TruckID, err)
	}
	return nil
}

func (s *SQLLocationHistoryRepository) ListPingsSince(
	ctx context.Context,
	assignmentID string,
	since time.Time,
) (_ []domain.LocationPing, err error) {
	defer obs.Time(ctx, "history.repo.ListPingsSince")(&err)

	var rows []pingRow
	q := s.DB.Rebind(`
	SELECT truck_id, route_assignment_id, lat, lng, speed, heading, recorded_at
	FROM truck_location_history
	WHERE route_assignment_id = ? AND recorded_at >= ?
	ORDER BY recorded_at;
	`)
	if err := s.DB.SelectContext(ctx, &rows, q, assignmentID, utc(since)); err != nil {
		return nil, mapErr("list pings for assignment "+assignmentID, err)
	}

	out := make([]domain.LocationPing, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
