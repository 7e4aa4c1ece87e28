package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-service/internal/domain"
)

// DepartmentRepository handles persistence for the department registry.
type DepartmentRepository interface {
	Create(ctx context.Context, department *domain.Department) error
	Update(ctx context.Context, department *domain.Department) error
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	GetByName(ctx context.Context, name string) (*domain.Department, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Department, error)
}

type departmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository instantiates the repository.
func NewDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{pool: pool}
}

func (r *departmentRepository) Create(ctx context.Context, department *domain.Department) error {
	const query = `
        INSERT INTO departments (name, description, is_active)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		department.Name,
		department.Description,
		department.IsActive,
	).Scan(&department.ID, &department.CreatedAt, &department.UpdatedAt)
}

func (r *departmentRepository) Update(ctx context.Context, department *domain.Department) error {
	const query = `
        UPDATE departments SET name=$1, description=$2, is_active=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		department.Name,
		department.Description,
		department.IsActive,
		department.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	const query = `
        SELECT id, name, description, is_active, created_at, updated_at
        FROM departments WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *departmentRepository) GetByName(ctx context.Context, name string) (*domain.Department, error) {
	const query = `
        SELECT id, name, description, is_active, created_at, updated_at
        FROM departments WHERE name=$1`
	return r.fetchSingle(ctx, query, name)
}

func (r *departmentRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Department, error) {
	var department domain.Department
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&department.ID,
		&department.Name,
		&department.Description,
		&department.IsActive,
		&department.CreatedAt,
		&department.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &department, nil
}

func (r *departmentRepository) List(ctx context.Context, activeOnly bool) ([]domain.Department, error) {
	query := `
        SELECT id, name, description, is_active, created_at, updated_at
        FROM departments`
	if activeOnly {
		query += ` WHERE is_active=TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var department domain.Department
		if err := rows.Scan(
			&department.ID,
			&department.Name,
			&department.Description,
			&department.IsActive,
			&department.CreatedAt,
			&department.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, department)
	}
	return result, rows.Err()
}
