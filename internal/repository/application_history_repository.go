package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-service/internal/domain"
)

// ApplicationHistoryRepository stores append-only audit entries.
type ApplicationHistoryRepository interface {
	Create(ctx context.Context, history *domain.ApplicationHistory) error
	ListByApplication(ctx context.Context, applicationID string, limit, offset int) ([]domain.ApplicationHistory, error)
}

type applicationHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewApplicationHistoryRepository builds repository.
func NewApplicationHistoryRepository(pool *pgxpool.Pool) ApplicationHistoryRepository {
	return &applicationHistoryRepository{pool: pool}
}

func (r *applicationHistoryRepository) Create(ctx context.Context, history *domain.ApplicationHistory) error {
	const query = `
        INSERT INTO application_history (application_id, changed_by_type, changed_by_id, change_type, old_value, new_value, comment)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		history.ApplicationID,
		history.ChangedByType,
		history.ChangedByID,
		history.ChangeType,
		history.OldValue,
		history.NewValue,
		history.Comment,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *applicationHistoryRepository) ListByApplication(ctx context.Context, applicationID string, limit, offset int) ([]domain.ApplicationHistory, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, application_id, changed_by_type, changed_by_id, change_type, old_value, new_value, comment, created_at
        FROM application_history WHERE application_id=$1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, applicationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ApplicationHistory
	for rows.Next() {
		var history domain.ApplicationHistory
		if err := rows.Scan(
			&history.ID,
			&history.ApplicationID,
			&history.ChangedByType,
			&history.ChangedByID,
			&history.ChangeType,
			&history.OldValue,
			&history.NewValue,
			&history.Comment,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
