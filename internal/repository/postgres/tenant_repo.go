// internal/repository/postgres/tenant_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"fieldworks-service/internal/domain/tenant"
	xerrors "fieldworks-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type TenantRepository struct {
	db *pgxpool.Pool
}

func NewTenantRepository(db *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) FindByID(ctx context.Context, id int64) (*tenant.Tenant, error) {
	query := `
		SELECT id, name, crm_location_id, crm_pipeline_id, crm_stage_id,
		       crm_calendar_id, crm_workflow_ids, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`

	var t tenant.Tenant
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.CRMLocationID, &t.CRMPipelineID, &t.CRMStageID,
		&t.CRMCalendarID, &t.CRMWorkflowIDs, &t.CreatedAt, &t.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tenant: %w", err)
	}

	return &t, nil
}

// UpdateCRMSettings applies only the fields present in the request and
// returns the updated row.
func (r *TenantRepository) UpdateCRMSettings(ctx context.Context, id int64, req *tenant.UpdateCRMSettingsRequest) (*tenant.Tenant, error) {
	query := `
		UPDATE tenants SET
			crm_location_id  = COALESCE($2, crm_location_id),
			crm_pipeline_id  = COALESCE($3, crm_pipeline_id),
			crm_stage_id     = COALESCE($4, crm_stage_id),
			crm_calendar_id  = COALESCE($5, crm_calendar_id),
			crm_workflow_ids = COALESCE($6, crm_workflow_ids),
			updated_at       = now()
		WHERE id = $1
		RETURNING id, name, crm_location_id, crm_pipeline_id, crm_stage_id,
		          crm_calendar_id, crm_workflow_ids, created_at, updated_at
	`

	var workflowIDs interface{}
	if req.WorkflowIDs != nil {
		workflowIDs = pq.StringArray(req.WorkflowIDs)
	}

	var t tenant.Tenant
	err := r.db.QueryRow(ctx, query,
		id, req.LocationID, req.PipelineID, req.StageID, req.CalendarID, workflowIDs,
	).Scan(
		&t.ID, &t.Name, &t.CRMLocationID, &t.CRMPipelineID, &t.CRMStageID,
		&t.CRMCalendarID, &t.CRMWorkflowIDs, &t.CreatedAt, &t.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update tenant CRM settings: %w", err)
	}

	return &t, nil
}
