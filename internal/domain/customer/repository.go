// internal/domain/customer/repository.go
package customer

import "context"

type Repository interface {
	FindByID(ctx context.Context, tenantID, id int64) (*Customer, error)
	FindByExternalID(ctx context.Context, tenantID int64, externalID string) (*Customer, error)
	FindByEmail(ctx context.Context, tenantID int64, email string) (*Customer, error)
	FindByPhone(ctx context.Context, tenantID int64, phone string) (*Customer, error)
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error

	// SetExternalContactID binds the customer to a CRM contact. The bind
	// is set-once: it fails with xerrors.ErrConflict when the row already
	// carries a different external id.
	SetExternalContactID(ctx context.Context, tenantID, id int64, externalID string) error
}
