package services

import (
	"context"
	"errors"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/platform/obs"
	"fleet-tracking-service/internal/ports"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// IssueService accepts field reports and serves the merged open-issue feed.
type IssueService struct {
	Drivers     ports.DriverIssueRepository
	Citizens    ports.CitizenIssueRepository
	Assignments ports.AssignmentRepository
	Clock       ports.Clock
}

func NewIssueService(
	drivers ports.DriverIssueRepository,
	citizens ports.CitizenIssueRepository,
	assignments ports.AssignmentRepository,
	clock ports.Clock,
) *IssueService {
	return &IssueService{Drivers: drivers, Citizens: citizens, Assignments: assignments, Clock: clock}
}

// ListOpenIssues reads both sources concurrently and merges them newest
// first, driver reports before citizen reports on equal timestamps, then by
// id. If either read fails the whole call fails and no partial list is
// returned.
func (s *IssueService) ListOpenIssues(ctx context.Context) ([]domain.IssueReport, error) {
	var drivers, citizens []domain.IssueReport

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		drivers, err = s.Drivers.ListOpenDriverIssues(gctx)
		if err != nil {
			return fmt.Errorf("driver issues: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		citizens, err = s.Citizens.ListOpenCitizenIssues(gctx)
		if err != nil {
			return fmt.Errorf("citizen issues: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list open issues: %w", err)
	}

	merged := make([]domain.IssueReport, 0, len(drivers)+len(citizens))
	merged = append(merged, drivers...)
	merged = append(merged, citizens...)
	domain.SortIssues(merged)
	return merged, nil
}

type DriverIssueRequest struct {
	Type  string
	Notes *string
	Lat   float64
	Lng   float64
}

// ReportDriverIssue files a report against the driver's active assignment.
func (s *IssueService) ReportDriverIssue(ctx context.Context, actor domain.Actor, req DriverIssueRequest) (*domain.IssueReport, error) {
	if actor.Role != domain.RoleDriver {
		return nil, fmt.Errorf("report driver issue: role %q is not a driver: %w", actor.Role, domain.ErrForbidden)
	}

	a, err := s.Assignments.FindCurrentByDriver(ctx, actor.UserID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && a.Status != domain.AssignmentActive) {
		return nil, fmt.Errorf("report driver issue: driver %s has no active assignment: %w", actor.UserID, domain.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("report driver issue: %w", err)
	}

	r := &domain.IssueReport{
		Source:       domain.IssueSourceDriver,
		ID:           uuid.NewString(),
		ReporterID:   actor.UserID,
		AssignmentID: &a.ID,
		Type:         req.Type,
		Status:       domain.IssueOpen,
		Description:  req.Notes,
		Lat:          req.Lat,
		Lng:          req.Lng,
		CreatedAt:    s.Clock.Now(),
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("report driver issue: %w", err)
	}
	if err := s.Drivers.CreateDriverIssue(ctx, r); err != nil {
		return nil, fmt.Errorf("report driver issue: %w", err)
	}

	obs.Logger(ctx).Info("driver issue reported",
		zap.String("issue_id", r.ID),
		zap.String("assignment_id", a.ID),
		zap.String("type", r.Type),
	)
	return r, nil
}

type CitizenIssueRequest struct {
	Type        string
	Description *string
	PhotoURL    *string
	Lat         float64
	Lng         float64
}

func (s *IssueService) ReportCitizenIssue(ctx context.Context, actor domain.Actor, req CitizenIssueRequest) (*domain.IssueReport, error) {
	if actor.Role != domain.RoleCitizen {
		return nil, fmt.Errorf("report citizen issue: role %q is not a citizen: %w", actor.Role, domain.ErrForbidden)
	}

	r := &domain.IssueReport{
		Source:      domain.IssueSourceCitizen,
		ID:          uuid.NewString(),
		ReporterID:  actor.UserID,
		Type:        req.Type,
		Status:      domain.IssueOpen,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
		Lat:         req.Lat,
		Lng:         req.Lng,
		CreatedAt:   s.Clock.Now(),
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("report citizen issue: %w", err)
	}
	if err := s.Citizens.CreateCitizenIssue(ctx, r); err != nil {
		return nil, fmt.Errorf("report citizen issue: %w", err)
	}
	return r, nil
}

func (s *IssueService) UpdateIssueStatus(
	ctx context.Context,
	actor domain.Actor,
	source domain.IssueSource,
	id string,
	status domain.IssueStatus,
) error {
	if !actor.IsStaff() {
		return fmt.Errorf("update issue status: role %q may not triage issues: %w", actor.Role, domain.ErrForbidden)
	}
	if !status.Valid() {
		return fmt.Errorf("update issue status: unknown status %q: %w", status, domain.ErrValidation)
	}

	now := s.Clock.Now()
	var err error
	switch source {
	case domain.IssueSourceDriver:
		err = s.Drivers.UpdateDriverIssueStatus(ctx, id, status, now)
	case domain.IssueSourceCitizen:
		err = s.Citizens.UpdateCitizenIssueStatus(ctx, id, status, now)
	default:
		return fmt.Errorf("update issue status: unknown source %q: %w", source, domain.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("update issue status: %w", err)
	}
	return nil
}
