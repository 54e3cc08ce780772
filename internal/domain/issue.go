package domain

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

type IssueSource string

const (
	IssueSourceDriver  IssueSource = "driver"
	IssueSourceCitizen IssueSource = "citizen"
)

// rank fixes the tie-break between sources with equal timestamps.
func (s IssueSource) rank() int {
	if s == IssueSourceDriver {
		return 0
	}
	return 1
}

type IssueStatus string

const (
	IssueOpen       IssueStatus = "open"
	IssueInProgress IssueStatus = "in_progress"
	IssueResolved   IssueStatus = "resolved"
)

func (s IssueStatus) Valid() bool {
	switch s {
	case IssueOpen, IssueInProgress, IssueResolved:
		return true
	}
	return false
}

var (
	driverIssueTypes  = []string{"mechanical_failure", "road_blocked", "truck_full", "other"}
	citizenIssueTypes = []string{"missed_collection", "illegal_dumping"}
)

// ValidIssueType reports whether typ is allowed for reports from source.
func ValidIssueType(source IssueSource, typ string) bool {
	switch source {
	case IssueSourceDriver:
		return slices.Contains(driverIssueTypes, typ)
	case IssueSourceCitizen:
		return slices.Contains(citizenIssueTypes, typ)
	}
	return false
}

// A field-reported problem, either from a driver on shift or from a citizen.
// AssignmentID is only set for driver reports.
type IssueReport struct {
	Source       IssueSource
	ID           string
	ReporterID   string
	AssignmentID *string
	Type         string
	Status       IssueStatus
	Description  *string
	PhotoURL     *string
	Lat          float64
	Lng          float64
	CreatedAt    time.Time
	ResolvedAt   *time.Time
}

func (r IssueReport) Validate() error {
	if !ValidIssueType(r.Source, r.Type) {
		return fmt.Errorf("issue type %q is not valid for %s reports: %w", r.Type, r.Source, ErrValidation)
	}
	if r.Source == IssueSourceDriver && (r.AssignmentID == nil || *r.AssignmentID == "") {
		return fmt.Errorf("driver issue must reference an assignment: %w", ErrValidation)
	}
	return Coordinates{Lat: r.Lat, Lng: r.Lng}.Validate()
}

// SortIssues orders reports newest first. Equal timestamps put driver reports
// before citizen reports, then order by id.
func SortIssues(issues []IssueReport) {
	slices.SortStableFunc(issues, func(a, b IssueReport) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Source.rank(), b.Source.rank()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
