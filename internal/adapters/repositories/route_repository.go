package repositories

import (
	"context"
	"errors"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/platform/obs"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQL-backed implementation of the RouteRepository port. Queries are written
// with ? placeholders and rebound for the connected driver.
type SQLRouteRepository struct{ DB *sqlx.DB }

func NewSQLRouteRepository(db *sqlx.DB) *SQLRouteRepository {
	return &SQLRouteRepository{DB: db}
}

type routeRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type waypointRow struct {
	SequenceOrder int     `db:"sequence_order"`
	Lat           float64 `db:"lat"`
	Lng           float64 `db:"lng"`
	StreetName    *string `db:"street_name"`
}

func (s *SQLRouteRepository) CreateRoute(ctx context.Context, r *domain.Route) (err error) {
	defer obs.Time(ctx, "route.repo.CreateRoute")(&err)

	if s.DB == nil {
		return errors.New("route repository: DB is nil")
	}

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create route: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := tx.Rebind(`
	INSERT INTO route (id, name, description, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?);
	`)
	if _, err := tx.ExecContext(ctx, q, r.ID, r.Name, r.Description, string(r.Status), utc(r.CreatedAt), utc(r.UpdatedAt)); err != nil {
		return mapErr("create route "+r.ID, err)
	}

	if err := insertWaypoints(ctx, tx, r); err != nil {
		return fmt.Errorf("create route %s: %w", r.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create route %s: commit tx: %w", r.ID, err)
	}
	return nil
}

func insertWaypoints(ctx context.Context, tx *sqlx.Tx, r *domain.Route) error {
	if len(r.Waypoints) == 0 {
		return nil
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
	INSERT INTO route_waypoint (route_id, sequence_order, lat, lng, street_name)
	VALUES (?, ?, ?, ?, ?);
	`))
	if err != nil {
		return fmt.Errorf("prepare waypoint insert: %w", err)
	}
	defer stmt.Close()

	for _, w := range r.Waypoints {
		if _, err := stmt.ExecContext(ctx, r.ID, w.SequenceOrder, w.Lat, w.Lng, w.StreetName); err != nil {
			return mapErr(fmt.Sprintf("insert waypoint %d", w.SequenceOrder), err)
		}
	}
	return nil
}

func (s *SQLRouteRepository) GetRoute(ctx context.Context, id string) (_ *domain.Route, err error) {
	defer obs.Time(ctx, "route.repo.GetRoute")(&err)

	var row routeRow
	q := s.DB.Rebind(`
	SELECT id, name, description, status, created_at, updated_at
	FROM route
	WHERE id = ?;
	`)
	if err := s.DB.GetContext(ctx, &row, q, id); err != nil {
		return nil, mapErr("get route "+id, err)
	}

	var wps []waypointRow
	q = s.DB.Rebind(`
	SELECT sequence_order, lat, lng, street_name
	FROM route_waypoint
	WHERE route_id = ?
	ORDER BY sequence_order;
	`)
	if err := s.DB.SelectContext(ctx, &wps, q, id); err != nil {
		return nil, mapErr("get route "+id+": list waypoints", err)
	}

	r := &domain.Route{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Status:      domain.RouteStatus(row.Status),
		Waypoints:   make([]domain.Waypoint, 0, len(wps)),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	for _, w := range wps {
		r.Waypoints = append(r.Waypoints, domain.Waypoint{
			Lat:           w.Lat,
			Lng:           w.Lng,
			SequenceOrder: w.SequenceOrder,
			StreetName:    w.StreetName,
		})
	}
	return r, nil
}

// ReplaceWaypoints rewrites the whole sequence in one transaction so readers
// never observe a partially renumbered route.
func (s *SQLRouteRepository) ReplaceWaypoints(ctx context.Context, r *domain.Route) (err error) {
	defer obs.Time(ctx, "route.repo.ReplaceWaypoints")(&err)

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace waypoints: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The route row is only touched while no active assignment follows it; the
	// update also takes the row lock that serializes concurrent editors.
	const touch = `
	UPDATE route SET updated_at = ?
	WHERE id = ?
	  AND NOT EXISTS (
		SELECT 1 FROM route_assignment
		WHERE route_assignment.route_id = route.id AND route_assignment.status = 'active'
	  );`
	res, err := tx.ExecContext(ctx, tx.Rebind(touch), utc(r.UpdatedAt), r.ID)
	if err != nil {
		return mapErr("replace waypoints of route "+r.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace waypoints of route %s: rows affected: %w", r.ID, err)
	}
	if n == 0 {
		var exists int
		if err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(*) FROM route WHERE id = ?;`), r.ID); err != nil {
			return mapErr("replace waypoints of route "+r.ID, err)
		}
		if exists == 0 {
			return fmt.Errorf("replace waypoints of route %s: %w", r.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("replace waypoints of route %s: an active assignment follows it: %w", r.ID, domain.ErrConflict)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM route_waypoint WHERE route_id = ?;`), r.ID); err != nil {
		return mapErr("replace waypoints of route "+r.ID+": delete", err)
	}
	if err := insertWaypoints(ctx, tx, r); err != nil {
		return fmt.Errorf("replace waypoints of route %s: %w", r.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace waypoints of route %s: commit tx: %w", r.ID, err)
	}
	return nil
}
