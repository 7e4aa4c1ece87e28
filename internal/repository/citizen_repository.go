package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-service/internal/domain"
)

// CitizenRepository handles persistence for citizen accounts.
type CitizenRepository interface {
	Create(ctx context.Context, citizen *domain.Citizen) error
	Update(ctx context.Context, citizen *domain.Citizen) error
	GetByID(ctx context.Context, id string) (*domain.Citizen, error)
	GetByEmail(ctx context.Context, email string) (*domain.Citizen, error)
}

type citizenRepository struct {
	pool *pgxpool.Pool
}

// NewCitizenRepository instantiates the repository.
func NewCitizenRepository(pool *pgxpool.Pool) CitizenRepository {
	return &citizenRepository{pool: pool}
}

func (r *citizenRepository) Create(ctx context.Context, citizen *domain.Citizen) error {
	const query = `
        INSERT INTO citizens (name, email, password_hash, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		citizen.Name,
		citizen.Email,
		citizen.PasswordHash,
		citizen.Status,
	).Scan(&citizen.ID, &citizen.CreatedAt, &citizen.UpdatedAt)
}

func (r *citizenRepository) Update(ctx context.Context, citizen *domain.Citizen) error {
	const query = `
        UPDATE citizens SET name=$1, email=$2, password_hash=$3, status=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		citizen.Name,
		citizen.Email,
		citizen.PasswordHash,
		citizen.Status,
		citizen.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *citizenRepository) GetByID(ctx context.Context, id string) (*domain.Citizen, error) {
	const query = `
        SELECT id, name, email, password_hash, status, created_at, updated_at
        FROM citizens WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *citizenRepository) GetByEmail(ctx context.Context, email string) (*domain.Citizen, error) {
	const query = `
        SELECT id, name, email, password_hash, status, created_at, updated_at
        FROM citizens WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *citizenRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Citizen, error) {
	var citizen domain.Citizen
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&citizen.ID,
		&citizen.Name,
		&citizen.Email,
		&citizen.PasswordHash,
		&citizen.Status,
		&citizen.CreatedAt,
		&citizen.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &citizen, nil
}
