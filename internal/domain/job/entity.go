// internal/domain/job/entity.go
package job

import (
	"database/sql"
	"time"
)

// Job is the local work record an opportunity push is derived from. The
// opportunity itself is not stored locally; only the resulting
// ExternalOpportunityID is persisted so a repeat push is a no-op.
type Job struct {
	ID         int64 `json:"id" db:"id"`
	TenantID   int64 `json:"tenant_id" db:"tenant_id"`
	CustomerID int64 `json:"customer_id" db:"customer_id"`

	Title  string `json:"title" db:"title"`
	Status string `json:"status" db:"status"`

	ExternalOpportunityID sql.NullString `json:"external_opportunity_id,omitempty" db:"external_opportunity_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// BudgetLine is one priced row of a job's budget. Quantity may be
// fractional (hours, square meters); UnitPrice is in major currency units
// as stored.
type BudgetLine struct {
	ID          int64   `json:"id" db:"id"`
	JobID       int64   `json:"job_id" db:"job_id"`
	Description string  `json:"description" db:"description"`
	Quantity    float64 `json:"quantity" db:"quantity"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`
}
