package positions

import (
	"context"
	"database/sql"
	"errors"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/platform/obs"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLPositionStore keeps the latest accepted ping per truck in
// truck_current_location.
type SQLPositionStore struct {
	DB *sqlx.DB
}

func NewSQLPositionStore(db *sqlx.DB) *SQLPositionStore {
	return &SQLPositionStore{DB: db}
}

type positionRow struct {
	TruckID      string    `db:"truck_id"`
	AssignmentID *string   `db:"route_assignment_id"`
	Lat          float64   `db:"lat"`
	Lng          float64   `db:"lng"`
	Speed        *float64  `db:"speed"`
	Heading      *float64  `db:"heading"`
	RecordedAt   time.Time `db:"recorded_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r positionRow) toDomain() domain.TruckPosition {
	return domain.TruckPosition{
		LocationPing: domain.LocationPing{
			TruckID:      r.TruckID,
			AssignmentID: r.AssignmentID,
			Lat:          r.Lat,
			Lng:          r.Lng,
			Speed:        r.Speed,
			Heading:      r.Heading,
			RecordedAt:   r.RecordedAt,
		},
		UpdatedAt: r.UpdatedAt,
	}
}

func (s *SQLPositionStore) GetPosition(ctx context.Context, truckID string) (_ *domain.TruckPosition, err error) {
	defer obs.Time(ctx, "position.sql.GetPosition")(&err)

	if s.DB == nil {
		return nil, errors.New("position store: db is nil")
	}

	var row positionRow
	q := s.DB.Rebind(`
	SELECT truck_id, route_assignment_id, lat, lng, speed, heading, recorded_at, updated_at
	FROM truck_current_location
	WHERE truck_id = ?;
	`)
	if err := s.DB.GetContext(ctx, &row, q, truckID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get position of truck %s: %w", truckID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get position of truck %s: %w", truckID, err)
	}

	pos := row.toDomain()
	return &pos, nil
}

// SetPosition upserts the row only when the stored ping is not newer, so two
// racing writers can never move a truck's position backwards.
func (s *SQLPositionStore) SetPosition(ctx context.Context, pos domain.TruckPosition) (err error) {
	defer obs.Time(ctx, "position.sql.SetPosition")(&err)

	if s.DB == nil {
		return errors.New("position store: db is nil")
	}

	q := s.DB.Rebind(`
	INSERT INTO truck_current_location (truck_id, route_assignment_id, lat, lng, speed, heading, recorded_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (truck_id) DO UPDATE
	SET route_assignment_id = excluded.route_assignment_id,
		lat = excluded.lat,
		lng = excluded.lng,
		speed = excluded.speed,
		heading = excluded.heading,
		recorded_at = excluded.recorded_at,
		updated_at = excluded.updated_at
	WHERE truck_current_location.recorded_at <= excluded.recorded_at;
	`)
	res, err := s.DB.ExecContext(ctx, q,
		pos.TruckID, pos.AssignmentID, pos.Lat, pos.Lng, pos.Speed, pos.Heading,
		pos.RecordedAt.UTC(), pos.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("set position of truck %s: %w", pos.TruckID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set position of truck %s: rows affected: %w", pos.TruckID, err)
	}
	if n == 0 {
		return fmt.Errorf(
			"set position of truck %s: ping at %s is older than the stored position: %w",
			pos.TruckID, pos.RecordedAt.Format(time.RFC3339Nano), domain.ErrValidation,
		)
	}
	return nil
}

func (s *SQLPositionStore) ListPositions(ctx context.Context) (_ []domain.TruckPosition, err error) {
	defer obs.Time(ctx, "position.sql.ListPositions")(&err)

	var rows []positionRow
	q := `
	SELECT truck_id, route_assignment_id, lat, lng, speed, heading, recorded_at, updated_at
	FROM truck_current_location
	ORDER BY truck_id;
	`
	if err := s.DB.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}

	out := make([]domain.TruckPosition, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
