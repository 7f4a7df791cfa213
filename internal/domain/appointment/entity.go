// internal/domain/appointment/entity.go
package appointment

import (
	"database/sql"
	"time"
)

// Appointment is created locally (technician scheduling) or remotely
// (CRM calendar booking) and must reconcile to a single external
// identity. CustomerID is nullable: a calendar pull may land before the
// booking contact was ever synced, in which case the row waits for a
// manual link.
type Appointment struct {
	ID       int64 `json:"id" db:"id"`
	TenantID int64 `json:"tenant_id" db:"tenant_id"`

	CustomerID   sql.NullInt64 `json:"customer_id,omitempty" db:"customer_id"`
	TechnicianID sql.NullInt64 `json:"technician_id,omitempty" db:"technician_id"`

	Title    string         `json:"title" db:"title"`
	Notes    sql.NullString `json:"notes,omitempty" db:"notes"`
	StartsAt time.Time      `json:"starts_at" db:"starts_at"`
	EndsAt   time.Time      `json:"ends_at" db:"ends_at"`

	ExternalAppointmentID sql.NullString `json:"external_appointment_id,omitempty" db:"external_appointment_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
