// internal/domain/syncrun/entity.go
package syncrun

import (
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"
)

// Status of one sync operation invocation.
// Pending -> Running -> {Succeeded, Partial, Failed}.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// EntityType identifies the sync unit a run covers. The advisory lock is
// keyed on (tenant, entity type), so runs for different entity types of
// the same tenant may overlap.
type EntityType string

const (
	EntityContacts      EntityType = "contacts"
	EntityOpportunities EntityType = "opportunities"
	EntityAppointments  EntityType = "appointments"
	EntityCalendar      EntityType = "calendar"
)

// ItemError describes one item that failed or was skipped inside a batch.
type ItemError struct {
	LocalID    string `json:"local_id,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	Reason     string `json:"reason"`
	Message    string `json:"message"`
}

// Item failure reasons recorded on runs.
const (
	ReasonMapping   = "mapping_error"
	ReasonConflict  = "identity_conflict"
	ReasonAmbiguous = "ambiguous_match"
	ReasonUnlinked  = "contact_not_synced"
	ReasonRemote    = "remote_error"
	ReasonStore     = "store_error"
)

// Counts aggregates batch progress. Processed covers every item seen;
// the remaining counters partition it.
type Counts struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// SyncRun is the audit record for one sync operation invocation. It is
// created when the operation starts and immutable once finalized; a
// caller can inspect the last run before retrying.
type SyncRun struct {
	ID       string     `json:"id" db:"id"`
	TenantID int64      `json:"tenant_id" db:"tenant_id"`
	Entity   EntityType `json:"entity" db:"entity"`
	Status   Status     `json:"status" db:"status"`

	Counts
	Errors []ItemError `json:"errors,omitempty" db:"errors"`

	StartedAt  time.Time    `json:"started_at" db:"started_at"`
	FinishedAt sql.NullTime `json:"finished_at,omitempty" db:"finished_at"`
}

// New creates a run in the running state with a fresh ULID.
func New(tenantID int64, entity EntityType) *SyncRun {
	return &SyncRun{
		ID:        ulid.Make().String(),
		TenantID:  tenantID,
		Entity:    entity,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

// RecordError appends an item error and bumps the failed counter.
func (r *SyncRun) RecordError(e ItemError) {
	r.Failed++
	r.Errors = append(r.Errors, e)
}

// RecordSkip appends an item error descriptor without counting it as a
// failure; used for items deliberately left for manual resolution.
func (r *SyncRun) RecordSkip(e ItemError) {
	r.Skipped++
	r.Errors = append(r.Errors, e)
}

// Finish stamps the terminal status from the accumulated counts.
// Cancelled batches pass cancelled=true and finalize as partial with
// whatever was accumulated.
func (r *SyncRun) Finish(cancelled bool) {
	switch {
	case cancelled:
		r.Status = StatusPartial
	case r.Failed == 0:
		r.Status = StatusSucceeded
	case r.Created+r.Updated+r.Skipped > 0:
		r.Status = StatusPartial
	default:
		r.Status = StatusFailed
	}
	r.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
}

// Fail finalizes a run that aborted before or during the batch for a
// reason that made the whole operation meaningless.
func (r *SyncRun) Fail() {
	r.Status = StatusFailed
	r.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
}
