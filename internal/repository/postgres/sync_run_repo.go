// internal/repository/postgres/sync_run_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fieldworks-service/internal/domain/syncrun"
	xerrors "fieldworks-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SyncRunRepository struct {
	db *pgxpool.Pool
}

func NewSyncRunRepository(db *pgxpool.Pool) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) Create(ctx context.Context, run *syncrun.SyncRun) error {
	query := `
		INSERT INTO sync_runs (id, tenant_id, entity, status, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query, run.ID, run.TenantID, run.Entity, run.Status, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create sync run: %w", err)
	}
	return nil
}

// Finalize writes the terminal state. Runs are immutable afterwards;
// the WHERE clause refuses to touch an already finalized row.
func (r *SyncRunRepository) Finalize(ctx context.Context, run *syncrun.SyncRun) error {
	errorsJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal run errors: %w", err)
	}

	query := `
		UPDATE sync_runs SET
			status = $3, processed = $4, created = $5, updated = $6,
			skipped = $7, failed = $8, errors = $9, finished_at = $10
		WHERE id = $1 AND tenant_id = $2 AND finished_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query,
		run.ID, run.TenantID, run.Status, run.Processed, run.Created, run.Updated,
		run.Skipped, run.Failed, errorsJSON, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize sync run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sync run %s already finalized: %w", run.ID, xerrors.ErrConflict)
	}
	return nil
}

func (r *SyncRunRepository) scanOne(row pgx.Row) (*syncrun.SyncRun, error) {
	var run syncrun.SyncRun
	var errorsJSON []byte

	err := row.Scan(
		&run.ID, &run.TenantID, &run.Entity, &run.Status,
		&run.Processed, &run.Created, &run.Updated, &run.Skipped, &run.Failed,
		&errorsJSON, &run.StartedAt, &run.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}

	if len(errorsJSON) > 0 {
		if err := json.Unmarshal(errorsJSON, &run.Errors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run errors: %w", err)
		}
	}
	return &run, nil
}

func (r *SyncRunRepository) FindByID(ctx context.Context, tenantID int64, id string) (*syncrun.SyncRun, error) {
	query := `
		SELECT id, tenant_id, entity, status, processed, created, updated,
		       skipped, failed, errors, started_at, finished_at
		FROM sync_runs
		WHERE tenant_id = $1 AND id = $2
	`
	return r.scanOne(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *SyncRunRepository) ListByTenant(ctx context.Context, tenantID int64, limit int) ([]syncrun.SyncRun, error) {
	query := `
		SELECT id, tenant_id, entity, status, processed, created, updated,
		       skipped, failed, errors, started_at, finished_at
		FROM sync_runs
		WHERE tenant_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []syncrun.SyncRun
	for rows.Next() {
		run, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sync runs: %w", err)
	}

	return runs, nil
}
