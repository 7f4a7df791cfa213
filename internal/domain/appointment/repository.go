// internal/domain/appointment/repository.go
package appointment

import "context"

type Repository interface {
	FindByID(ctx context.Context, tenantID, id int64) (*Appointment, error)
	FindByExternalID(ctx context.Context, tenantID int64, externalID string) (*Appointment, error)
	Create(ctx context.Context, a *Appointment) error
	Update(ctx context.Context, a *Appointment) error

	// SetExternalAppointmentID binds the appointment to its CRM calendar
	// event. Set-once; fails with xerrors.ErrConflict on a rebind attempt.
	SetExternalAppointmentID(ctx context.Context, tenantID, id int64, externalID string) error
}
