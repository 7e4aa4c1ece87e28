package service

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/case-service/internal/config"
	"github.com/spec-kit/case-service/internal/domain"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// fakeDepartmentRepo is an in-memory DepartmentRepository.
type fakeDepartmentRepo struct {
	mu          sync.Mutex
	departments map[string]*domain.Department
}

func newFakeDepartmentRepo() *fakeDepartmentRepo {
	return &fakeDepartmentRepo{departments: make(map[string]*domain.Department)}
}

func (r *fakeDepartmentRepo) Create(_ context.Context, dept *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if dept.ID == "" {
		dept.ID = "dept-1"
	}
	copied := *dept
	r.departments[dept.ID] = &copied
	return nil
}

func (r *fakeDepartmentRepo) Update(_ context.Context, dept *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.departments[dept.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *dept
	r.departments[dept.ID] = &copied
	return nil
}

func (r *fakeDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dept, ok := r.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *dept
	return &copied, nil
}

func (r *fakeDepartmentRepo) GetByName(_ context.Context, name string) (*domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dept := range r.departments {
		if dept.Name == name {
			copied := *dept
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeDepartmentRepo) List(_ context.Context, activeOnly bool) ([]domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Department
	for _, dept := range r.departments {
		if activeOnly && !dept.IsActive {
			continue
		}
		result = append(result, *dept)
	}
	return result, nil
}

func newOfficerServiceFixture() (*fakeOfficerRepo, *fakeDepartmentRepo, *OfficerService) {
	officers := newFakeOfficerRepo()
	departments := newFakeDepartmentRepo()
	cfg := config.Config{Auth: config.AuthConfig{BcryptCost: bcrypt.MinCost}}
	svc := NewOfficerService(cfg, OrgDependencies{
		DepartmentRepo: departments,
		OfficerRepo:    officers,
	})
	return officers, departments, svc
}

func adminActor() *domain.Officer {
	return &domain.Officer{ID: "adm-1", Role: domain.OfficerRoleAdmin, Department: "Health"}
}

func TestGetOfficerByIDMissingIsNotFound(t *testing.T) {
	_, _, svc := newOfficerServiceFixture()

	_, err := svc.GetOfficerByID(context.Background(), adminActor(), "off-missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"), "missing id must map to NOT_FOUND, got %v", err)
}

func TestUpdateOfficerMissingIsNotFound(t *testing.T) {
	_, _, svc := newOfficerServiceFixture()

	_, err := svc.UpdateOfficer(context.Background(), adminActor(), "off-missing", CreateOfficerInput{Name: "x"}, true)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestUpdateDepartmentMissingIsNotFound(t *testing.T) {
	_, _, svc := newOfficerServiceFixture()

	_, err := svc.UpdateDepartment(context.Background(), adminActor(), &domain.Department{ID: "dept-missing", Name: "Tax"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestCreateOfficerHashesPasswordAndDefaultsActive(t *testing.T) {
	officers, _, svc := newOfficerServiceFixture()

	created, err := svc.CreateOfficer(context.Background(), adminActor(), CreateOfficerInput{
		Name:           "Case Officer",
		Email:          "officer@gov.example",
		Password:       "s3cret",
		Role:           domain.OfficerRoleOfficer,
		Department:     "Health",
		HierarchyLevel: 1,
	})
	require.NoError(t, err)
	assert.True(t, created.Active)
	assert.NotEqual(t, "s3cret", created.PasswordHash)

	stored, err := officers.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret")))
}
