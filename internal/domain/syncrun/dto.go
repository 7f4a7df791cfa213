// internal/domain/syncrun/dto.go
package syncrun

import "time"

type PushOpportunityRequest struct {
	JobID   int64  `json:"job_id" binding:"required"`
	StageID string `json:"stage_id" binding:"omitempty,max=64"`
}

type PushOpportunityResponse struct {
	ExternalOpportunityID string `json:"external_opportunity_id"`
}

type PushAppointmentRequest struct {
	AppointmentID int64 `json:"appointment_id" binding:"required"`
}

type PushAppointmentResponse struct {
	ExternalAppointmentID string `json:"external_appointment_id"`
}

type CalendarSyncRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required,gtfield=StartTime"`
}

type TriggerWorkflowRequest struct {
	WorkflowID        string            `json:"workflow_id" binding:"required,max=64"`
	ContactExternalID string            `json:"contact_external_id" binding:"required,max=64"`
	CustomData        map[string]string `json:"custom_data"`
}

type TriggerWorkflowResponse struct {
	Triggered bool `json:"triggered"`
}

// maxSummaryErrors caps how many item errors a run summary carries; the
// full list stays on the stored run.
const maxSummaryErrors = 10

type RunSummary struct {
	RunID      string      `json:"run_id"`
	Entity     EntityType  `json:"entity"`
	Status     Status      `json:"status"`
	Processed  int         `json:"processed"`
	Created    int         `json:"created"`
	Updated    int         `json:"updated"`
	Skipped    int         `json:"skipped"`
	Failed     int         `json:"failed"`
	Errors     []ItemError `json:"errors,omitempty"`
	MoreErrors int         `json:"more_errors,omitempty"`
}

// Summary builds the UI-facing view of a run: counts plus the first few
// error messages.
func (r *SyncRun) Summary() *RunSummary {
	s := &RunSummary{
		RunID:     r.ID,
		Entity:    r.Entity,
		Status:    r.Status,
		Processed: r.Processed,
		Created:   r.Created,
		Updated:   r.Updated,
		Skipped:   r.Skipped,
		Failed:    r.Failed,
	}
	if len(r.Errors) > maxSummaryErrors {
		s.Errors = r.Errors[:maxSummaryErrors]
		s.MoreErrors = len(r.Errors) - maxSummaryErrors
	} else {
		s.Errors = r.Errors
	}
	return s
}
