package service

import (
	"context"
	"sort"
	"strings"

	"github.com/spec-kit/case-service/internal/repository"

	"github.com/spec-kit/case-service/internal/domain"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// departmentSeparator splits the short-form department prefix from the
// long-form suffix ("Health - Public Health Directorate").
const departmentSeparator = "-"

// departmentKey returns the short-form prefix used for matching: the portion
// before the separator, trimmed. Comparison is case-sensitive.
func departmentKey(department string) string {
	prefix, _, _ := strings.Cut(department, departmentSeparator)
	return strings.TrimSpace(prefix)
}

// officerCandidate pairs an officer with its freshly counted workload.
type officerCandidate struct {
	officer  domain.Officer
	workload int
}

// AssignmentService selects the best officer for an application.
type AssignmentService struct {
	officers     repository.OfficerRepository
	applications repository.ApplicationRepository
}

// NewAssignmentService creates the service.
func NewAssignmentService(officerRepo repository.OfficerRepository, applicationRepo repository.ApplicationRepository) *AssignmentService {
	return &AssignmentService{officers: officerRepo, applications: applicationRepo}
}

// SelectOfficer returns the single best active officer for the department,
// or nil when no officer is eligible. An empty result is a normal outcome
// (department not staffed yet), not an error.
//
// Ordering is deterministic and total: least current workload first, then
// fewest lifetime assignments, then earliest created, then id. A fresh
// officer with no history is deliberately preferred over a long-tenured one
// with an equally empty queue, spreading lifetime load.
func (s *AssignmentService) SelectOfficer(ctx context.Context, department string, subDepartment *string) (*domain.Officer, error) {
	pool, err := s.listDepartmentPool(ctx, department)
	if err != nil {
		return nil, err
	}
	pool = preferSubDepartment(pool, subDepartment)
	if len(pool) == 0 {
		return nil, nil
	}

	candidates, err := s.withWorkloads(ctx, pool)
	if err != nil {
		return nil, err
	}
	sortCandidates(candidates)
	selected := candidates[0].officer
	return &selected, nil
}

// SelectEscalationOfficer returns the best officer of a strictly higher
// hierarchy tier in the same department, or nil when the department has no
// higher tier. Promotion goes to the lowest sufficient tier, not straight to
// the top; ties inside a tier break on current workload.
func (s *AssignmentService) SelectEscalationOfficer(ctx context.Context, department string, currentTier int) (*domain.Officer, error) {
	pool, err := s.listDepartmentPool(ctx, department)
	if err != nil {
		return nil, err
	}
	higher := pool[:0]
	for _, officer := range pool {
		if officer.HierarchyLevel > currentTier {
			higher = append(higher, officer)
		}
	}
	if len(higher) == 0 {
		return nil, nil
	}

	candidates, err := s.withWorkloads(ctx, higher)
	if err != nil {
		return nil, err
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.officer.HierarchyLevel != b.officer.HierarchyLevel {
			return a.officer.HierarchyLevel < b.officer.HierarchyLevel
		}
		if a.workload != b.workload {
			return a.workload < b.workload
		}
		return a.officer.ID < b.officer.ID
	})
	selected := candidates[0].officer
	return &selected, nil
}

// officerPoolPageSize is the batch size for walking the officer registry.
const officerPoolPageSize = 200

func (s *AssignmentService) listDepartmentPool(ctx context.Context, department string) ([]domain.Officer, error) {
	active := true
	key := departmentKey(department)
	var matched []domain.Officer
	for offset := 0; ; offset += officerPoolPageSize {
		batch, err := s.officers.List(ctx, repository.OfficerFilter{
			Active: &active,
			Limit:  officerPoolPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		for _, officer := range batch {
			if departmentKey(officer.Department) == key {
				matched = append(matched, officer)
			}
		}
		if len(batch) < officerPoolPageSize {
			return matched, nil
		}
	}
}

// preferSubDepartment narrows the pool to exact sub-department matches when
// any exist; otherwise the full pool stands. The sub-department is a
// preference, not a hard filter.
func preferSubDepartment(pool []domain.Officer, subDepartment *string) []domain.Officer {
	if subDepartment == nil || *subDepartment == "" {
		return pool
	}
	matched := make([]domain.Officer, 0, len(pool))
	for _, officer := range pool {
		if officer.SubDepartment != nil && *officer.SubDepartment == *subDepartment {
			matched = append(matched, officer)
		}
	}
	if len(matched) == 0 {
		return pool
	}
	return matched
}

func (s *AssignmentService) withWorkloads(ctx context.Context, pool []domain.Officer) ([]officerCandidate, error) {
	candidates := make([]officerCandidate, 0, len(pool))
	for _, officer := range pool {
		workload, err := s.applications.CountActiveByOfficer(ctx, officer.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		candidates = append(candidates, officerCandidate{officer: officer, workload: workload})
	}
	return candidates, nil
}

func sortCandidates(candidates []officerCandidate) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.workload != b.workload {
			return a.workload < b.workload
		}
		if a.officer.TotalAssignedCount != b.officer.TotalAssignedCount {
			return a.officer.TotalAssignedCount < b.officer.TotalAssignedCount
		}
		if !a.officer.CreatedAt.Equal(b.officer.CreatedAt) {
			return a.officer.CreatedAt.Before(b.officer.CreatedAt)
		}
		return a.officer.ID < b.officer.ID
	})
}
