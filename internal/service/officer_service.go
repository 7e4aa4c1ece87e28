package service

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/case-service/internal/auth"
	"github.com/spec-kit/case-service/internal/config"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/repository"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// OfficerService manages the department registry and officer accounts.
type OfficerService struct {
	departments repository.DepartmentRepository
	officers    repository.OfficerRepository
	bcryptCost  int
}

// OfficerListFilters define listing parameters.
type OfficerListFilters struct {
	Role              *domain.OfficerRole
	Department        *string
	MinHierarchyLevel *int
	Active            *bool
	Limit             int
	Offset            int
}

// CreateOfficerInput describes an officer provisioning request.
type CreateOfficerInput struct {
	Name           string
	Email          string
	Password       string
	Role           domain.OfficerRole
	Department     string
	SubDepartment  *string
	HierarchyLevel int
}

// OrgDependencies encapsulates repositories required for org management.
type OrgDependencies struct {
	DepartmentRepo repository.DepartmentRepository
	OfficerRepo    repository.OfficerRepository
}

// NewOfficerService constructs the service.
func NewOfficerService(cfg config.Config, deps OrgDependencies) *OfficerService {
	return &OfficerService{
		departments: deps.DepartmentRepo,
		officers:    deps.OfficerRepo,
		bcryptCost:  cfg.Auth.BcryptCost,
	}
}

func requireAdmin(actor *domain.Officer) error {
	if actor == nil || actor.Role != domain.OfficerRoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// CreateDepartment registers a new department.
func (s *OfficerService) CreateDepartment(ctx context.Context, actor *domain.Officer, name, description string) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("department name required", nil)
	}
	if existing, err := s.departments.GetByName(ctx, name); err == nil && existing != nil {
		return nil, apperrors.NewConflict("department already exists", map[string]any{"name": name})
	} else if err != nil && err != pgx.ErrNoRows {
		return nil, apperrors.MapError(err)
	}
	dept := &domain.Department{
		Name:        name,
		Description: description,
		IsActive:    true,
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// ListDepartments returns departments (optionally inactive).
func (s *OfficerService) ListDepartments(ctx context.Context, includeInactive bool) ([]domain.Department, error) {
	return s.departments.List(ctx, !includeInactive)
}

// UpdateDepartment modifies department metadata.
func (s *OfficerService) UpdateDepartment(ctx context.Context, actor *domain.Officer, dept *domain.Department) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// CreateOfficer provisions a new officer account.
func (s *OfficerService) CreateOfficer(ctx context.Context, actor *domain.Officer, input CreateOfficerInput) (*domain.Officer, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Department) == "" {
		return nil, apperrors.NewValidationError("department required", nil)
	}
	if input.HierarchyLevel < 1 {
		return nil, apperrors.NewValidationError("hierarchy level must be at least 1", map[string]any{"hierarchy_level": input.HierarchyLevel})
	}
	if existing, err := s.officers.GetByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("officer email already exists", map[string]any{"email": input.Email})
	} else if err != nil && err != pgx.ErrNoRows {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	officer := &domain.Officer{
		Name:           input.Name,
		Email:          input.Email,
		PasswordHash:   hash,
		Role:           input.Role,
		Department:     strings.TrimSpace(input.Department),
		SubDepartment:  input.SubDepartment,
		HierarchyLevel: input.HierarchyLevel,
		Active:         true,
	}
	if err := s.officers.Create(ctx, officer); err != nil {
		return nil, apperrors.MapError(err)
	}
	return officer, nil
}

// ListOfficers lists officers with filters.
func (s *OfficerService) ListOfficers(ctx context.Context, actor *domain.Officer, filters OfficerListFilters) ([]domain.Officer, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.officers.List(ctx, repository.OfficerFilter{
		Role:              filters.Role,
		Department:        filters.Department,
		MinHierarchyLevel: filters.MinHierarchyLevel,
		Active:            filters.Active,
		Limit:             filters.Limit,
		Offset:            filters.Offset,
	})
}

// GetOfficerByID fetches an officer account.
func (s *OfficerService) GetOfficerByID(ctx context.Context, actor *domain.Officer, id string) (*domain.Officer, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	officer, err := s.officers.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return officer, nil
}

// UpdateOfficer updates account details. The assignment counter is owned by
// the assignment path and never touched here.
func (s *OfficerService) UpdateOfficer(ctx context.Context, actor *domain.Officer, officerID string, input CreateOfficerInput, active bool) (*domain.Officer, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	officer, err := s.officers.GetByID(ctx, officerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if input.Email != "" && input.Email != officer.Email {
		if existing, err := s.officers.GetByEmail(ctx, input.Email); err == nil && existing != nil && existing.ID != officer.ID {
			return nil, apperrors.NewConflict("officer email already exists", map[string]any{"email": input.Email})
		} else if err != nil && err != pgx.ErrNoRows {
			return nil, apperrors.MapError(err)
		}
		officer.Email = input.Email
	}
	if input.Name != "" {
		officer.Name = input.Name
	}
	if input.Role != "" {
		officer.Role = input.Role
	}
	if input.Department != "" {
		officer.Department = strings.TrimSpace(input.Department)
	}
	if input.SubDepartment != nil {
		officer.SubDepartment = input.SubDepartment
	}
	if input.HierarchyLevel > 0 {
		officer.HierarchyLevel = input.HierarchyLevel
	}
	officer.Active = active

	if err := s.officers.Update(ctx, officer); err != nil {
		return nil, apperrors.MapError(err)
	}
	return officer, nil
}
