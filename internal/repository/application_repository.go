package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-service/internal/domain"
)

// ApplicationFilter captures listing parameters.
type ApplicationFilter struct {
	CitizenID     *string
	Department    *string
	OfficerID     *string
	Statuses      []domain.ApplicationStatus
	Priorities    []domain.ApplicationPriority
	SubmittedFrom *time.Time
	SubmittedTo   *time.Time
	Limit         int
	Offset        int
}

// ApplicationRepository encapsulates application persistence.
type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.Application) error
	Update(ctx context.Context, app *domain.Application) error
	// Assign persists the application mutation and increments the target
	// officer's lifetime assignment counter inside one transaction, so the
	// two writes cannot drift apart.
	Assign(ctx context.Context, app *domain.Application) error
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*domain.Application, error)
	ListWithFilter(ctx context.Context, filter ApplicationFilter) ([]domain.Application, error)
	// ListOverdueSLA returns non-terminal applications whose SLA deadline
	// has passed.
	ListOverdueSLA(ctx context.Context, now time.Time, limit int) ([]domain.Application, error)
	// ListOverdueAutoApproval returns non-terminal applications past their
	// unconditional finalization deadline.
	ListOverdueAutoApproval(ctx context.Context, now time.Time, limit int) ([]domain.Application, error)
	// CountActiveByOfficer counts the officer's applications in ASSIGNED or
	// IN_PROGRESS. Always computed fresh, never cached.
	CountActiveByOfficer(ctx context.Context, officerID string) (int, error)
}

const applicationColumns = `id, tracking_id, citizen_id, department, sub_department, title, description,
               status, priority, escalation_level, officer_id, is_solved, finalization_artifact,
               submitted_at, updated_at, assigned_at, approved_at, sla_due_at, auto_approval_deadline`

type applicationRepository struct {
	pool *pgxpool.Pool
}

// NewApplicationRepository instantiates repository.
func NewApplicationRepository(pool *pgxpool.Pool) ApplicationRepository {
	return &applicationRepository{pool: pool}
}

func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	const query = `
        INSERT INTO applications (tracking_id, citizen_id, department, sub_department, title, description,
            status, priority, escalation_level, officer_id, is_solved, submitted_at, sla_due_at, auto_approval_deadline)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, updated_at`
	return r.pool.QueryRow(ctx, query,
		app.TrackingID,
		app.CitizenID,
		app.Department,
		app.SubDepartment,
		app.Title,
		app.Description,
		app.Status,
		app.Priority,
		app.EscalationLevel,
		app.OfficerID,
		app.IsSolved,
		app.SubmittedAt,
		app.SLADueAt,
		app.AutoApprovalDeadline,
	).Scan(&app.ID, &app.UpdatedAt)
}

const applicationUpdateSQL = `
        UPDATE applications SET status=$1, priority=$2, escalation_level=$3, officer_id=$4,
            is_solved=$5, finalization_artifact=$6, assigned_at=$7, approved_at=$8,
            sla_due_at=$9, updated_at=NOW()
        WHERE id=$10`

func (r *applicationRepository) Update(ctx context.Context, app *domain.Application) error {
	cmd, err := r.pool.Exec(ctx, applicationUpdateSQL,
		app.Status,
		app.Priority,
		app.EscalationLevel,
		app.OfficerID,
		app.IsSolved,
		app.FinalizationArtifact,
		app.AssignedAt,
		app.ApprovedAt,
		app.SLADueAt,
		app.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *applicationRepository) Assign(ctx context.Context, app *domain.Application) error {
	if app.OfficerID == nil {
		return fmt.Errorf("assign: application %s has no officer", app.ID)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cmd, err := tx.Exec(ctx, applicationUpdateSQL,
		app.Status,
		app.Priority,
		app.EscalationLevel,
		app.OfficerID,
		app.IsSolved,
		app.FinalizationArtifact,
		app.AssignedAt,
		app.ApprovedAt,
		app.SLADueAt,
		app.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	const counterQuery = `
        UPDATE officers SET total_assigned_count = total_assigned_count + 1, updated_at=NOW()
        WHERE id=$1`
	cmd, err = tx.Exec(ctx, counterQuery, *app.OfficerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE id=$1`, applicationColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *applicationRepository) GetByTrackingID(ctx context.Context, trackingID string) (*domain.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE tracking_id=$1`, applicationColumns)
	return r.fetchSingle(ctx, query, trackingID)
}

func (r *applicationRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Application, error) {
	var app domain.Application
	if err := scanApplication(r.pool.QueryRow(ctx, query, arg), &app); err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) ListWithFilter(ctx context.Context, filter ApplicationFilter) ([]domain.Application, error) {
	base := fmt.Sprintf(`SELECT %s FROM applications`, applicationColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CitizenID != nil {
		args = append(args, *filter.CitizenID)
		clauses = append(clauses, fmt.Sprintf("citizen_id=$%d", len(args)))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("department=$%d", len(args)))
	}
	if filter.OfficerID != nil {
		args = append(args, *filter.OfficerID)
		clauses = append(clauses, fmt.Sprintf("officer_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SubmittedFrom != nil {
		args = append(args, *filter.SubmittedFrom)
		clauses = append(clauses, fmt.Sprintf("submitted_at >= $%d", len(args)))
	}
	if filter.SubmittedTo != nil {
		args = append(args, *filter.SubmittedTo)
		clauses = append(clauses, fmt.Sprintf("submitted_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanApplications(rows)
}

const nonTerminalClause = `status NOT IN ('APPROVED','REJECTED','AUTO_APPROVED')`

func (r *applicationRepository) ListOverdueSLA(ctx context.Context, now time.Time, limit int) ([]domain.Application, error) {
	if limit <= 0 {
		limit = 500
	}
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE %s AND sla_due_at < $1
        ORDER BY sla_due_at ASC LIMIT %d`, applicationColumns, nonTerminalClause, limit)
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanApplications(rows)
}

func (r *applicationRepository) ListOverdueAutoApproval(ctx context.Context, now time.Time, limit int) ([]domain.Application, error) {
	if limit <= 0 {
		limit = 500
	}
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE %s AND auto_approval_deadline < $1
        ORDER BY auto_approval_deadline ASC LIMIT %d`, applicationColumns, nonTerminalClause, limit)
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanApplications(rows)
}

func (r *applicationRepository) CountActiveByOfficer(ctx context.Context, officerID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM applications
        WHERE officer_id=$1 AND status IN ('ASSIGNED','IN_PROGRESS')`
	var count int
	if err := r.pool.QueryRow(ctx, query, officerID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanApplication(row pgx.Row, app *domain.Application) error {
	return row.Scan(
		&app.ID,
		&app.TrackingID,
		&app.CitizenID,
		&app.Department,
		&app.SubDepartment,
		&app.Title,
		&app.Description,
		&app.Status,
		&app.Priority,
		&app.EscalationLevel,
		&app.OfficerID,
		&app.IsSolved,
		&app.FinalizationArtifact,
		&app.SubmittedAt,
		&app.UpdatedAt,
		&app.AssignedAt,
		&app.ApprovedAt,
		&app.SLADueAt,
		&app.AutoApprovalDeadline,
	)
}

func scanApplications(rows pgx.Rows) ([]domain.Application, error) {
	var result []domain.Application
	for rows.Next() {
		var app domain.Application
		if err := scanApplication(rows, &app); err != nil {
			return nil, err
		}
		result = append(result, app)
	}
	return result, rows.Err()
}
