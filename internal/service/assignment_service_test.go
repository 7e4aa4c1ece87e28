package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/case-service/internal/domain"
)

func seedOfficer(repo *fakeOfficerRepo, id, department string, opts ...func(*domain.Officer)) {
	officer := domain.Officer{
		ID:             id,
		Name:           id,
		Email:          id + "@gov.example",
		Role:           domain.OfficerRoleOfficer,
		Department:     department,
		HierarchyLevel: 1,
		Active:         true,
		CreatedAt:      time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(&officer)
	}
	repo.add(officer)
}

func withWorkload(apps *fakeApplicationRepo, officerID string, count int) {
	for i := 0; i < count; i++ {
		id := officerID
		apps.add(domain.Application{
			ID:        officerID + "-load-" + string(rune('a'+i)),
			CitizenID: "cit-1",
			Status:    domain.ApplicationStatusAssigned,
			OfficerID: &id,
		})
	}
}

func TestSelectOfficerPrefersLowestWorkload(t *testing.T) {
	officers := newFakeOfficerRepo()
	apps := newFakeApplicationRepo(officers)
	selector := NewAssignmentService(officers, apps)

	seedOfficer(officers, "busy", "Health")
	seedOfficer(officers, "idle", "Health")
	withWorkload(apps, "busy", 2)

	selected, err := selector.SelectOfficer(context.Background(), "Health - Public Health Directorate", nil)
	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, "idle", selected.ID)
}

func TestSelectOfficerTieBreaksDeterministically(t *testing.T) {
	officers := newFakeOfficerRepo()
	apps := newFakeApplicationRepo(officers)
	selector := NewAssignmentService(officers, apps)

	earlier := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	// Equal workload: fewest lifetime assignments wins.
	seedOfficer(officers, "veteran", "Tax", func(o *domain.Officer) { o.TotalAssignedCount = 40 })
	seedOfficer(officers, "fresh", "Tax", func(o *domain.Officer) { o.TotalAssignedCount = 2 })

	selected, err := selector.SelectOfficer(context.Background(), "Tax", nil)
	require.NoError(t, err)
	assert.Equal(t, "fresh", selected.ID)

	// Full tie on workload and lifetime count: earliest createdAt wins.
	seedOfficer(officers, "older", "Tax", func(o *domain.Officer) {
		o.TotalAssignedCount = 2
		o.CreatedAt = earlier
	})
	selected, err = selector.SelectOfficer(context.Background(), "Tax", nil)
	require.NoError(t, err)
	assert.Equal(t, "older", selected.ID)

	// Identical everything: lowest id wins.
	seedOfficer(officers, "aaa", "Tax", func(o *domain.Officer) {
		o.TotalAssignedCount = 2
		o.CreatedAt = earlier
	})
	selected, err = selector.SelectOfficer(context.Background(), "Tax", nil)
	require.NoError(t, err)
	assert.Equal(t, "aaa", selected.ID)
}

func TestSelectOfficerSubDepartmentPreference(t *testing.T) {
	officers := newFakeOfficerRepo()
	apps := newFakeApplicationRepo(officers)
	selector := NewAssignmentService(officers, apps)

	seedOfficer(officers, "generalist", "Health")
	seedOfficer(officers, "specialist", "Health", func(o *domain.Officer) {
		o.SubDepartment = strPtr("Vaccination")
		o.TotalAssignedCount = 99
	})

	// Specialist wins despite the worse lifetime count: sub-department match
	// narrows the pool first.
	selected, err := selector.SelectOfficer(context.Background(), "Health", strPtr("Vaccination"))
	require.NoError(t, err)
	assert.Equal(t, "specialist", selected.ID)

	// No specialist for the requested sub-department: full pool stands.
	selected, err = selector.SelectOfficer(context.Background(), "Health", strPtr("Radiology"))
	require.NoError(t, err)
	assert.Equal(t, "generalist", selected.ID)
}

func TestSelectOfficerMatchesShortFormPrefix(t *testing.T) {
	officers := newFakeOfficerRepo()
	apps := newFakeApplicationRepo(officers)
	selector := NewAssignmentService(officers, apps)

	seedOfficer(officers, "health-officer", "Health")
	seedOfficer(officers, "lowercase", "health")

	selected, err := selector.SelectOfficer(context.Background(), "Health - Public Health Directorate", nil)
	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, "health-officer", selected.ID, "matching is case-sensitive on the short-form prefix")
}

func TestSelectOfficerNoneEligible(t *testing.T) {
	officers := newFakeOfficerRepo()
	apps := newFakeApplicationRepo(officers)
	selector := NewAssignmentService(officers, apps)

	seedOfficer(officers, "inactive", "Health", func(o *domain.Officer) { o.Active = false })
	seedOfficer(officers, "wrong-dept", "Tax")

	selected, err := selector.SelectOfficer(context.Background(), "Health", nil)
	require.NoError(t, err)
	assert.Nil(t, selected, "an unstaffed department is a normal outcome, not an error")
}

func TestSelectEscalationOfficerPicksLowestSufficientTier(t *testing.T) {
	officers := newFakeOfficerRepo()
	apps := newFakeApplicationRepo(officers)
	selector := NewAssignmentService(officers, apps)

	seedOfficer(officers, "peer", "Health", func(o *domain.Officer) { o.HierarchyLevel = 1 })
	seedOfficer(officers, "supervisor", "Health", func(o *domain.Officer) { o.HierarchyLevel = 2 })
	seedOfficer(officers, "director", "Health", func(o *domain.Officer) { o.HierarchyLevel = 3 })

	selected, err := selector.SelectEscalationOfficer(context.Background(), "Health", 1)
	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, "supervisor", selected.ID, "promotion goes to the lowest sufficient tier")
}

func TestSelectEscalationOfficerNoHigherTier(t *testing.T) {
	officers := newFakeOfficerRepo()
	apps := newFakeApplicationRepo(officers)
	selector := NewAssignmentService(officers, apps)

	seedOfficer(officers, "director", "Health", func(o *domain.Officer) { o.HierarchyLevel = 3 })

	selected, err := selector.SelectEscalationOfficer(context.Background(), "Health", 3)
	require.NoError(t, err)
	assert.Nil(t, selected)
}

func TestSelectEscalationOfficerTierTieBreaksOnWorkload(t *testing.T) {
	officers := newFakeOfficerRepo()
	apps := newFakeApplicationRepo(officers)
	selector := NewAssignmentService(officers, apps)

	seedOfficer(officers, "busy-supervisor", "Health", func(o *domain.Officer) { o.HierarchyLevel = 2 })
	seedOfficer(officers, "idle-supervisor", "Health", func(o *domain.Officer) { o.HierarchyLevel = 2 })
	withWorkload(apps, "busy-supervisor", 3)

	selected, err := selector.SelectEscalationOfficer(context.Background(), "Health", 1)
	require.NoError(t, err)
	assert.Equal(t, "idle-supervisor", selected.ID)
}

func TestSelectOfficerPagesThroughLargeRegistry(t *testing.T) {
	officers := newFakeOfficerRepo()
	apps := newFakeApplicationRepo(officers)
	selector := NewAssignmentService(officers, apps)

	// Fill more than one registry page with other departments; the only
	// matching officer sorts after all of them.
	for i := 0; i < officerPoolPageSize+50; i++ {
		seedOfficer(officers, fmt.Sprintf("bulk-%04d", i), "Transport")
	}
	seedOfficer(officers, "zzz-health", "Health")

	selected, err := selector.SelectOfficer(context.Background(), "Health - Public Health Directorate", nil)
	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, "zzz-health", selected.ID)
}
