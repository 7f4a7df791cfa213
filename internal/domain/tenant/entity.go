// internal/domain/tenant/entity.go
package tenant

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Tenant is the unit of isolation for every sync operation. The CRM
// identifiers are nullable until the tenant connects its CRM account.
type Tenant struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	// CRM configuration
	CRMLocationID  sql.NullString `json:"crm_location_id,omitempty" db:"crm_location_id"`
	CRMPipelineID  sql.NullString `json:"crm_pipeline_id,omitempty" db:"crm_pipeline_id"`
	CRMStageID     sql.NullString `json:"crm_stage_id,omitempty" db:"crm_stage_id"`
	CRMCalendarID  sql.NullString `json:"crm_calendar_id,omitempty" db:"crm_calendar_id"`
	CRMWorkflowIDs pq.StringArray `json:"crm_workflow_ids,omitempty" db:"crm_workflow_ids"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// LocationID returns the CRM location id, reporting whether it is set.
func (t *Tenant) LocationID() (string, bool) {
	return t.CRMLocationID.String, t.CRMLocationID.Valid && t.CRMLocationID.String != ""
}

// PipelineID returns the CRM pipeline id, reporting whether it is set.
func (t *Tenant) PipelineID() (string, bool) {
	return t.CRMPipelineID.String, t.CRMPipelineID.Valid && t.CRMPipelineID.String != ""
}

// CalendarID returns the CRM calendar id, reporting whether it is set.
func (t *Tenant) CalendarID() (string, bool) {
	return t.CRMCalendarID.String, t.CRMCalendarID.Valid && t.CRMCalendarID.String != ""
}

// HasWorkflow reports whether the workflow id is allowed for this tenant.
// An empty configured list allows any id.
func (t *Tenant) HasWorkflow(workflowID string) bool {
	if len(t.CRMWorkflowIDs) == 0 {
		return true
	}
	for _, id := range t.CRMWorkflowIDs {
		if id == workflowID {
			return true
		}
	}
	return false
}
