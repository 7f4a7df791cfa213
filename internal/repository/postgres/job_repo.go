// internal/repository/postgres/job_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"fieldworks-service/internal/domain/job"
	xerrors "fieldworks-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobRepository struct {
	db *pgxpool.Pool
}

func NewJobRepository(db *pgxpool.Pool) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) FindByID(ctx context.Context, tenantID, id int64) (*job.Job, error) {
	query := `
		SELECT id, tenant_id, customer_id, title, status,
		       external_opportunity_id, created_at, updated_at
		FROM jobs
		WHERE tenant_id = $1 AND id = $2
	`

	var j job.Job
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(
		&j.ID, &j.TenantID, &j.CustomerID, &j.Title, &j.Status,
		&j.ExternalOpportunityID, &j.CreatedAt, &j.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job: %w", err)
	}

	return &j, nil
}

func (r *JobRepository) ListBudgetLines(ctx context.Context, jobID int64) ([]job.BudgetLine, error) {
	query := `
		SELECT id, job_id, description, quantity, unit_price
		FROM job_budget_lines
		WHERE job_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget lines: %w", err)
	}
	defer rows.Close()

	var lines []job.BudgetLine
	for rows.Next() {
		var l job.BudgetLine
		if err := rows.Scan(&l.ID, &l.JobID, &l.Description, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan budget line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read budget lines: %w", err)
	}

	return lines, nil
}

// SetExternalOpportunityID records the pushed opportunity. Set-once at
// the database level, same pattern as the customer bind.
func (r *JobRepository) SetExternalOpportunityID(ctx context.Context, tenantID, id int64, externalID string) error {
	query := `
		UPDATE jobs
		SET external_opportunity_id = $3, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		  AND (external_opportunity_id IS NULL OR external_opportunity_id = $3)
	`

	tag, err := r.db.Exec(ctx, query, tenantID, id, externalID)
	if err != nil {
		return fmt.Errorf("failed to set external opportunity id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %d already bound to another opportunity: %w", id, xerrors.ErrConflict)
	}
	return nil
}
