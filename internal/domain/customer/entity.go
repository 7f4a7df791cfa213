// internal/domain/customer/entity.go
package customer

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Customer is a tenant-owned contact record. ExternalContactID is set
// exactly once a CRM correspondence is established and is never
// reassigned to a different remote id (sticky identity).
type Customer struct {
	ID       int64 `json:"id" db:"id"`
	TenantID int64 `json:"tenant_id" db:"tenant_id"`

	FullName string         `json:"full_name" db:"full_name"`
	Email    sql.NullString `json:"email,omitempty" db:"email"`
	Phone    sql.NullString `json:"phone,omitempty" db:"phone"`
	Address  sql.NullString `json:"address,omitempty" db:"address"`
	Tags     pq.StringArray `json:"tags,omitempty" db:"tags"`

	ExternalContactID sql.NullString `json:"external_contact_id,omitempty" db:"external_contact_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Fields holds the subset of customer attributes that travel over the
// CRM boundary. Empty strings mean "not provided".
type Fields struct {
	FullName string
	Email    string
	Phone    string
	Address  string
}

// Apply copies the non-empty remote fields onto the customer. The CRM
// never clears a local value; absent remote fields are left alone.
func (c *Customer) Apply(f Fields) {
	if f.FullName != "" {
		c.FullName = f.FullName
	}
	if f.Email != "" {
		c.Email = sql.NullString{String: f.Email, Valid: true}
	}
	if f.Phone != "" {
		c.Phone = sql.NullString{String: f.Phone, Valid: true}
	}
	if f.Address != "" {
		c.Address = sql.NullString{String: f.Address, Valid: true}
	}
}
