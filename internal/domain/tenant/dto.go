// internal/domain/tenant/dto.go
package tenant

type UpdateCRMSettingsRequest struct {
	LocationID  *string  `json:"location_id" binding:"omitempty,max=64"`
	PipelineID  *string  `json:"pipeline_id" binding:"omitempty,max=64"`
	StageID     *string  `json:"stage_id" binding:"omitempty,max=64"`
	CalendarID  *string  `json:"calendar_id" binding:"omitempty,max=64"`
	WorkflowIDs []string `json:"workflow_ids" binding:"omitempty,dive,max=64"`
}

type CRMSettingsResponse struct {
	LocationID  string   `json:"location_id,omitempty"`
	PipelineID  string   `json:"pipeline_id,omitempty"`
	StageID     string   `json:"stage_id,omitempty"`
	CalendarID  string   `json:"calendar_id,omitempty"`
	WorkflowIDs []string `json:"workflow_ids,omitempty"`
	Connected   bool     `json:"connected"`
}

// Settings builds the API view of the tenant's CRM configuration.
func (t *Tenant) Settings() *CRMSettingsResponse {
	return &CRMSettingsResponse{
		LocationID:  t.CRMLocationID.String,
		PipelineID:  t.CRMPipelineID.String,
		StageID:     t.CRMStageID.String,
		CalendarID:  t.CRMCalendarID.String,
		WorkflowIDs: t.CRMWorkflowIDs,
		Connected:   t.CRMLocationID.Valid && t.CRMLocationID.String != "",
	}
}
