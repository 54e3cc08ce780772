package ports

import (
	"context"
	"fleet-tracking-service/internal/domain"
	"time"
)

// Port: driver-reported issues.
type DriverIssueRepository interface {
	CreateDriverIssue(ctx context.Context, r *domain.IssueReport) error
	ListOpenDriverIssues(ctx context.Context) ([]domain.IssueReport, error)
	// Set the status; resolving also stamps resolved_at with at.
	UpdateDriverIssueStatus(ctx context.Context, id string, status domain.IssueStatus, at time.Time) error
}

// Port: citizen-reported issues.
type CitizenIssueRepository interface {
	CreateCitizenIssue(ctx context.Context, r *domain.IssueReport) error
	ListOpenCitizenIssues(ctx context.Context) ([]domain.IssueReport, error)
	UpdateCitizenIssueStatus(ctx context.Context, id string, status domain.IssueStatus, at time.Time) error
}
