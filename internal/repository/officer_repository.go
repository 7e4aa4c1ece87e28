package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-service/internal/domain"
)

// OfficerRepository handles persistence for case officers.
type OfficerRepository interface {
	Create(ctx context.Context, officer *domain.Officer) error
	Update(ctx context.Context, officer *domain.Officer) error
	GetByID(ctx context.Context, id string) (*domain.Officer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Officer, error)
	List(ctx context.Context, filter OfficerFilter) ([]domain.Officer, error)
}

// OfficerFilter defines query params for officer listing.
type OfficerFilter struct {
	Role              *domain.OfficerRole
	Department        *string
	MinHierarchyLevel *int
	Active            *bool
	Limit             int
	Offset            int
}

const officerColumns = `id, name, email, password_hash, role, department, sub_department,
        hierarchy_level, rating, total_assigned_count, active_flag, created_at, updated_at`

type officerRepository struct {
	pool *pgxpool.Pool
}

// NewOfficerRepository instantiates the repository.
func NewOfficerRepository(pool *pgxpool.Pool) OfficerRepository {
	return &officerRepository{pool: pool}
}

func (r *officerRepository) Create(ctx context.Context, officer *domain.Officer) error {
	const query = `
        INSERT INTO officers (name, email, password_hash, role, department, sub_department,
            hierarchy_level, rating, active_flag)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, total_assigned_count, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		officer.Name,
		officer.Email,
		officer.PasswordHash,
		officer.Role,
		officer.Department,
		officer.SubDepartment,
		officer.HierarchyLevel,
		officer.Rating,
		officer.Active,
	).Scan(&officer.ID, &officer.TotalAssignedCount, &officer.CreatedAt, &officer.UpdatedAt)
}

// Update persists mutable officer fields. The lifetime assignment counter is
// deliberately excluded: it only moves through the transactional increment in
// ApplicationRepository.Assign.
func (r *officerRepository) Update(ctx context.Context, officer *domain.Officer) error {
	const query = `
        UPDATE officers
        SET name=$1, email=$2, password_hash=$3, role=$4, department=$5, sub_department=$6,
            hierarchy_level=$7, rating=$8, active_flag=$9, updated_at=NOW()
        WHERE id=$10`

	cmd, err := r.pool.Exec(ctx, query,
		officer.Name,
		officer.Email,
		officer.PasswordHash,
		officer.Role,
		officer.Department,
		officer.SubDepartment,
		officer.HierarchyLevel,
		officer.Rating,
		officer.Active,
		officer.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *officerRepository) GetByID(ctx context.Context, id string) (*domain.Officer, error) {
	query := fmt.Sprintf(`SELECT %s FROM officers WHERE id=$1`, officerColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *officerRepository) GetByEmail(ctx context.Context, email string) (*domain.Officer, error) {
	query := fmt.Sprintf(`SELECT %s FROM officers WHERE email=$1`, officerColumns)
	return r.fetchSingle(ctx, query, email)
}

func (r *officerRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Officer, error) {
	var officer domain.Officer
	if err := scanOfficer(r.pool.QueryRow(ctx, query, arg), &officer); err != nil {
		return nil, err
	}
	return &officer, nil
}

func (r *officerRepository) List(ctx context.Context, filter OfficerFilter) ([]domain.Officer, error) {
	query := fmt.Sprintf(`SELECT %s FROM officers`, officerColumns)
	args := []any{}
	clauses := []string{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("department=$%d", len(args)))
	}
	if filter.MinHierarchyLevel != nil {
		args = append(args, *filter.MinHierarchyLevel)
		clauses = append(clauses, fmt.Sprintf("hierarchy_level >= $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active_flag=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY created_at ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Officer
	for rows.Next() {
		var officer domain.Officer
		if err := scanOfficer(rows, &officer); err != nil {
			return nil, err
		}
		result = append(result, officer)
	}
	return result, rows.Err()
}

func scanOfficer(row pgx.Row, officer *domain.Officer) error {
	return row.Scan(
		&officer.ID,
		&officer.Name,
		&officer.Email,
		&officer.PasswordHash,
		&officer.Role,
		&officer.Department,
		&officer.SubDepartment,
		&officer.HierarchyLevel,
		&officer.Rating,
		&officer.TotalAssignedCount,
		&officer.Active,
		&officer.CreatedAt,
		&officer.UpdatedAt,
	)
}
