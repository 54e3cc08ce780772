package services

import (
	"context"
	"errors"
	"fleet-tracking-service/internal/adapters/memory"
	"fleet-tracking-service/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDriverIssues struct {
	mock.Mock
}

func (m *mockDriverIssues) CreateDriverIssue(ctx context.Context, r *domain.IssueReport) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockDriverIssues) ListOpenDriverIssues(ctx context.Context) ([]domain.IssueReport, error) {
	args := m.Called(ctx)
	issues, _ := args.Get(0).([]domain.IssueReport)
	return issues, args.Error(1)
}

func (m *mockDriverIssues) UpdateDriverIssueStatus(ctx context.Context, id string, status domain.IssueStatus, at time.Time) error {
	return m.Called(ctx, id, status, at).Error(0)
}

func seedIssue(t *testing.T, store *memory.Store, source domain.IssueSource, id string, at time.Time) {
	t.Helper()
	r := &domain.IssueReport{Source: source, ID: id, ReporterID: "u", Status: domain.IssueOpen, CreatedAt: at}
	if source == domain.IssueSourceDriver {
		r.Type = "road_blocked"
		r.AssignmentID = &id
		require.NoError(t, store.CreateDriverIssue(context.Background(), r))
		return
	}
	r.Type = "missed_collection"
	require.NoError(t, store.CreateCitizenIssue(context.Background(), r))
}

func TestIssueServiceListOpenIssuesOrdering(t *testing.T) {
	f := newFixture(t)
	seedIssue(t, f.store, domain.IssueSourceCitizen, "c-b", t10am)
	seedIssue(t, f.store, domain.IssueSourceDriver, "d-z", t10am)
	seedIssue(t, f.store, domain.IssueSourceCitizen, "c-a", t10am)
	seedIssue(t, f.store, domain.IssueSourceDriver, "d-old", t10am.Add(-time.Hour))
	seedIssue(t, f.store, domain.IssueSourceCitizen, "c-new", t10am.Add(time.Minute))
	seedIssue(t, f.store, domain.IssueSourceDriver, "d-done", t10am.Add(time.Hour))
	require.NoError(t, f.store.UpdateDriverIssueStatus(f.ctx, "d-done", domain.IssueResolved, t10am))

	want := []string{"c-new", "d-z", "c-a", "c-b", "d-old"}
	for i := 0; i < 5; i++ {
		issues, err := f.issues.ListOpenIssues(f.ctx)
		require.NoError(t, err)

		got := make([]string, 0, len(issues))
		for _, is := range issues {
			got = append(got, is.ID)
		}
		assert.Equal(t, want, got)
	}
}

func TestIssueServiceListOpenIssuesFailsWhole(t *testing.T) {
	store := memory.NewStore()
	seedIssue(t, store, domain.IssueSourceCitizen, "c-1", t10am)

	drivers := new(mockDriverIssues)
	drivers.On("ListOpenDriverIssues", mock.Anything).Return(nil, errors.New("connection reset"))

	svc := NewIssueService(drivers, store, store, &fakeClock{now: t10am})
	issues, err := svc.ListOpenIssues(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Nil(t, issues, "no partial list")
	drivers.AssertExpectations(t)
}

func TestIssueServiceReportDriverIssue(t *testing.T) {
	f := newFixture(t)
	driver := domain.Actor{UserID: "d1", Role: domain.RoleDriver}
	req := DriverIssueRequest{Type: "truck_full", Lat: onPath().Lat, Lng: onPath().Lng}

	_, err := f.issues.ReportDriverIssue(f.ctx, driver, req)
	assert.ErrorIs(t, err, domain.ErrValidation, "no assignment at all")

	r := f.route(t)
	a := f.schedule(t, r.ID, "t1", "d1", t10am)
	_, err = f.issues.ReportDriverIssue(f.ctx, driver, req)
	assert.ErrorIs(t, err, domain.ErrValidation, "assignment not yet active")

	f.clock.Set(t10am)
	_, err = f.assignments.Start(f.ctx, driver, a.ID)
	require.NoError(t, err)

	_, err = f.issues.ReportDriverIssue(f.ctx, staff, req)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.issues.ReportDriverIssue(f.ctx, driver, DriverIssueRequest{Type: "illegal_dumping"})
	assert.ErrorIs(t, err, domain.ErrValidation, "citizen type from a driver")

	got, err := f.issues.ReportDriverIssue(f.ctx, driver, req)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueSourceDriver, got.Source)
	assert.Equal(t, domain.IssueOpen, got.Status)
	require.NotNil(t, got.AssignmentID)
	assert.Equal(t, a.ID, *got.AssignmentID)

	open, err := f.issues.ListOpenIssues(f.ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, got.ID, open[0].ID)
}

func TestIssueServiceReportCitizenIssue(t *testing.T) {
	f := newFixture(t)
	citizen := domain.Actor{UserID: "c1", Role: domain.RoleCitizen}
	photo := "https://example.org/p.jpg"

	_, err := f.issues.ReportCitizenIssue(f.ctx, domain.Actor{UserID: "d1", Role: domain.RoleDriver}, CitizenIssueRequest{Type: "missed_collection"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.issues.ReportCitizenIssue(f.ctx, citizen, CitizenIssueRequest{Type: "truck_full"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.issues.ReportCitizenIssue(f.ctx, citizen, CitizenIssueRequest{Type: "missed_collection", Lat: -100})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := f.issues.ReportCitizenIssue(f.ctx, citizen, CitizenIssueRequest{
		Type: "illegal_dumping", PhotoURL: &photo, Lat: -12.05, Lng: -77.04,
	})
	require.NoError(t, err)
	assert.Nil(t, got.AssignmentID)
	assert.Equal(t, &photo, got.PhotoURL)
	assert.Equal(t, "c1", got.ReporterID)
}

func TestIssueServiceUpdateIssueStatus(t *testing.T) {
	f := newFixture(t)
	seedIssue(t, f.store, domain.IssueSourceCitizen, "c-1", t10am)
	seedIssue(t, f.store, domain.IssueSourceDriver, "d-1", t10am)

	require.NoError(t, f.issues.UpdateIssueStatus(f.ctx, staff, domain.IssueSourceCitizen, "c-1", domain.IssueInProgress))
	require.NoError(t, f.issues.UpdateIssueStatus(f.ctx, staff, domain.IssueSourceDriver, "d-1", domain.IssueResolved))

	open, err := f.issues.ListOpenIssues(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, open, "only status open counts as open")

	assert.ErrorIs(t, f.issues.UpdateIssueStatus(f.ctx, staff, domain.IssueSourceDriver, "missing", domain.IssueResolved), domain.ErrNotFound)
	assert.ErrorIs(t, f.issues.UpdateIssueStatus(f.ctx, staff, "radio", "d-1", domain.IssueResolved), domain.ErrValidation)
	assert.ErrorIs(t, f.issues.UpdateIssueStatus(f.ctx, staff, domain.IssueSourceDriver, "d-1", "closed"), domain.ErrValidation)
	assert.ErrorIs(t, f.issues.UpdateIssueStatus(f.ctx, domain.Actor{UserID: "c1", Role: domain.RoleCitizen}, domain.IssueSourceCitizen, "c-1", domain.IssueResolved), domain.ErrForbidden)
}
