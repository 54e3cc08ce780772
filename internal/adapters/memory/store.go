// Package memory implements every persistence port in process. It keeps the
// same uniqueness guarantees as the SQL schema so services behave identically
// on either backend.
package memory

import (
	"cmp"
	"context"
	"fleet-tracking-service/internal/domain"
	"fmt"
	"slices"
	"sync"
	"time"
)

type Store struct {
	mu sync.RWMutex

	routes        map[string]domain.Route
	assignments   map[string]domain.Assignment
	pings         []domain.LocationPing
	positions     map[string]domain.TruckPosition
	alerts        map[string]domain.SystemAlert
	driverIssues  map[string]domain.IssueReport
	citizenIssues map[string]domain.IssueReport
}

func NewStore() *Store {
	return &Store{
		routes:        make(map[string]domain.Route),
		assignments:   make(map[string]domain.Assignment),
		positions:     make(map[string]domain.TruckPosition),
		alerts:        make(map[string]domain.SystemAlert),
		driverIssues:  make(map[string]domain.IssueReport),
		citizenIssues: make(map[string]domain.IssueReport),
	}
}

func cloneRoute(r domain.Route) *domain.Route {
	r.Waypoints = slices.Clone(r.Waypoints)
	return &r
}

// Routes

func (s *Store) CreateRoute(_ context.Context, r *domain.Route) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.routes[r.ID]; ok {
		return fmt.Errorf("create route %s: %w", r.ID, domain.ErrConflict)
	}
	s.routes[r.ID] = *cloneRoute(*r)
	return nil
}

func (s *Store) GetRoute(_ context.Context, id string) (*domain.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.routes[id]
	if !ok {
		return nil, fmt.Errorf("get route %s: %w", id, domain.ErrNotFound)
	}
	return cloneRoute(r), nil
}

func (s *Store) ReplaceWaypoints(_ context.Context, r *domain.Route) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.routes[r.ID]
	if !ok {
		return fmt.Errorf("replace waypoints of route %s: %w", r.ID, domain.ErrNotFound)
	}
	if s.routeInUse(r.ID, domain.AssignmentActive) {
		return fmt.Errorf("replace waypoints of route %s: an active assignment follows it: %w", r.ID, domain.ErrConflict)
	}
	stored.Waypoints = slices.Clone(r.Waypoints)
	stored.UpdatedAt = r.UpdatedAt
	s.routes[r.ID] = stored
	return nil
}

// Assignments

func (s *Store) CreateAssignment(_ context.Context, a *domain.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.routes[a.RouteID]; !ok {
		return fmt.Errorf("create assignment: route %s: %w", a.RouteID, domain.ErrNotFound)
	}
	for _, other := range s.assignments {
		if other.Status.Terminal() {
			continue
		}
		if other.TruckID == a.TruckID {
			return fmt.Errorf("create assignment: truck %s already holds assignment %s: %w", a.TruckID, other.ID, domain.ErrConflict)
		}
		if other.DriverID == a.DriverID {
			return fmt.Errorf("create assignment: driver %s already holds assignment %s: %w", a.DriverID, other.ID, domain.ErrConflict)
		}
	}
	s.assignments[a.ID] = *a
	return nil
}

func (s *Store) GetAssignment(_ context.Context, id string) (*domain.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assignments[id]
	if !ok {
		return nil, fmt.Errorf("get assignment %s: %w", id, domain.ErrNotFound)
	}
	return &a, nil
}

func (s *Store) findCurrent(match func(domain.Assignment) bool) *domain.Assignment {
	var best *domain.Assignment
	for _, a := range s.assignments {
		if a.Status.Terminal() || !match(a) {
			continue
		}
		if best == nil || a.ScheduledStart.Before(best.ScheduledStart) {
			found := a
			best = &found
		}
	}
	return best
}

func (s *Store) FindCurrentByTruck(_ context.Context, truckID string) (*domain.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a := s.findCurrent(func(a domain.Assignment) bool { return a.TruckID == truckID })
	if a == nil {
		return nil, fmt.Errorf("current assignment for truck %s: %w", truckID, domain.ErrNotFound)
	}
	return a, nil
}

func (s *Store) FindCurrentByDriver(_ context.Context, driverID string) (*domain.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a := s.findCurrent(func(a domain.Assignment) bool { return a.DriverID == driverID })
	if a == nil {
		return nil, fmt.Errorf("current assignment for driver %s: %w", driverID, domain.ErrNotFound)
	}
	return a, nil
}

func (s *Store) routeInUse(routeID string, statuses ...domain.AssignmentStatus) bool {
	for _, a := range s.assignments {
		if a.RouteID == routeID && slices.Contains(statuses, a.Status) {
			return true
		}
	}
	return false
}

func (s *Store) HasActiveForRoute(_ context.Context, routeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.routeInUse(routeID, domain.AssignmentActive), nil
}

func (s *Store) HasOpenForRoute(_ context.Context, routeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.routeInUse(routeID, domain.AssignmentScheduled, domain.AssignmentActive), nil
}

func (s *Store) UpdateAssignmentStatus(_ context.Context, a *domain.Assignment, from domain.AssignmentStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.assignments[a.ID]
	if !ok {
		return false, fmt.Errorf("update assignment %s: %w", a.ID, domain.ErrNotFound)
	}
	if stored.Status != from {
		return false, nil
	}
	s.assignments[a.ID] = *a
	return true, nil
}

// Location history

func (s *Store) AppendPing(_ context.Context, p domain.LocationPing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pings = append(s.pings, p)
	return nil
}

func (s *Store) ListPingsSince(_ context.Context, assignmentID string, since time.Time) ([]domain.LocationPing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.LocationPing, 0)
	for _, p := range s.pings {
		if p.AssignmentID == nil || *p.AssignmentID != assignmentID || p.RecordedAt.Before(since) {
			continue
		}
		out = append(out, p)
	}
	slices.SortStableFunc(out, func(a, b domain.LocationPing) int { return a.RecordedAt.Compare(b.RecordedAt) })
	return out, nil
}

// Positions

func (s *Store) GetPosition(_ context.Context, truckID string) (*domain.TruckPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[truckID]
	if !ok {
		return nil, fmt.Errorf("get position of truck %s: %w", truckID, domain.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) SetPosition(_ context.Context, pos domain.TruckPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.positions[pos.TruckID]; ok && cur.RecordedAt.After(pos.RecordedAt) {
		return fmt.Errorf(
			"set position of truck %s: ping at %s is older than %s: %w",
			pos.TruckID, pos.RecordedAt.Format(time.RFC3339), cur.RecordedAt.Format(time.RFC3339), domain.ErrValidation,
		)
	}
	s.positions[pos.TruckID] = pos
	return nil
}

func (s *Store) ListPositions(_ context.Context) ([]domain.TruckPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TruckPosition, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.TruckPosition) int { return cmp.Compare(a.TruckID, b.TruckID) })
	return out, nil
}

// Alerts

func (s *Store) CreateAlert(_ context.Context, a *domain.SystemAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assignments[a.AssignmentID]; !ok {
		return fmt.Errorf("create alert: assignment %s: %w", a.AssignmentID, domain.ErrNotFound)
	}
	if a.Status == domain.AlertUnread {
		if dup := s.unreadAlert(a.AssignmentID, a.Type); dup != nil {
			return fmt.Errorf("create alert: unread %s alert %s exists for assignment %s: %w", a.Type, dup.ID, a.AssignmentID, domain.ErrConflict)
		}
	}
	s.alerts[a.ID] = *a
	return nil
}

func (s *Store) unreadAlert(assignmentID string, typ domain.AlertType) *domain.SystemAlert {
	for _, a := range s.alerts {
		if a.AssignmentID == assignmentID && a.Type == typ && a.Status == domain.AlertUnread {
			return &a
		}
	}
	return nil
}

func (s *Store) GetAlert(_ context.Context, id string) (*domain.SystemAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.alerts[id]
	if !ok {
		return nil, fmt.Errorf("get alert %s: %w", id, domain.ErrNotFound)
	}
	return &a, nil
}

func (s *Store) FindUnread(_ context.Context, assignmentID string, typ domain.AlertType) (*domain.SystemAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a := s.unreadAlert(assignmentID, typ); a != nil {
		return a, nil
	}
	return nil, fmt.Errorf("unread %s alert for assignment %s: %w", typ, assignmentID, domain.ErrNotFound)
}

func (s *Store) FindLastAcknowledged(_ context.Context, assignmentID string, typ domain.AlertType) (*domain.SystemAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last *domain.SystemAlert
	for _, a := range s.alerts {
		if a.AssignmentID != assignmentID || a.Type != typ || a.AcknowledgedAt == nil {
			continue
		}
		if last == nil || a.AcknowledgedAt.After(*last.AcknowledgedAt) {
			found := a
			last = &found
		}
	}
	if last == nil {
		return nil, fmt.Errorf("acknowledged %s alert for assignment %s: %w", typ, assignmentID, domain.ErrNotFound)
	}
	return last, nil
}

func (s *Store) UpdateAlert(_ context.Context, a *domain.SystemAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.alerts[a.ID]; !ok {
		return fmt.Errorf("update alert %s: %w", a.ID, domain.ErrNotFound)
	}
	s.alerts[a.ID] = *a
	return nil
}

func (s *Store) ListUnread(_ context.Context) ([]domain.SystemAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SystemAlert, 0)
	for _, a := range s.alerts {
		if a.Status == domain.AlertUnread {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b domain.SystemAlert) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Issues

func (s *Store) CreateDriverIssue(_ context.Context, r *domain.IssueReport) error {
	return s.createIssue(s.driverIssues, r)
}

func (s *Store) CreateCitizenIssue(_ context.Context, r *domain.IssueReport) error {
	return s.createIssue(s.citizenIssues, r)
}

func (s *Store) ListOpenDriverIssues(_ context.Context) ([]domain.IssueReport, error) {
	return s.listOpen(s.driverIssues), nil
}

func (s *Store) ListOpenCitizenIssues(_ context.Context) ([]domain.IssueReport, error) {
	return s.listOpen(s.citizenIssues), nil
}

func (s *Store) UpdateDriverIssueStatus(_ context.Context, id string, status domain.IssueStatus, at time.Time) error {
	return s.updateIssueStatus(s.driverIssues, id, status, at)
}

func (s *Store) UpdateCitizenIssueStatus(_ context.Context, id string, status domain.IssueStatus, at time.Time) error {
	return s.updateIssueStatus(s.citizenIssues, id, status, at)
}

func (s *Store) createIssue(m map[string]domain.IssueReport, r *domain.IssueReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := m[r.ID]; ok {
		return fmt.Errorf("create %s issue %s: %w", r.Source, r.ID, domain.ErrConflict)
	}
	m[r.ID] = *r
	return nil
}

func (s *Store) listOpen(m map[string]domain.IssueReport) []domain.IssueReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.IssueReport, 0)
	for _, r := range m {
		if r.Status == domain.IssueOpen {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) updateIssueStatus(m map[string]domain.IssueReport, id string, status domain.IssueStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := m[id]
	if !ok {
		return fmt.Errorf("update issue %s: %w", id, domain.ErrNotFound)
	}
	r.Status = status
	if status == domain.IssueResolved {
		r.ResolvedAt = &at
	} else {
		r.ResolvedAt = nil
	}
	m[id] = r
	return nil
}
