// internal/repository/postgres/appointment_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"fieldworks-service/internal/domain/appointment"
	xerrors "fieldworks-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const appointmentColumns = `
	id, tenant_id, customer_id, technician_id, title, notes,
	starts_at, ends_at, external_appointment_id, created_at, updated_at
`

type AppointmentRepository struct {
	db *pgxpool.Pool
}

func NewAppointmentRepository(db *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) scanOne(row pgx.Row) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := row.Scan(
		&a.ID, &a.TenantID, &a.CustomerID, &a.TechnicianID, &a.Title, &a.Notes,
		&a.StartsAt, &a.EndsAt, &a.ExternalAppointmentID, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan appointment: %w", err)
	}
	return &a, nil
}

func (r *AppointmentRepository) FindByID(ctx context.Context, tenantID, id int64) (*appointment.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE tenant_id = $1 AND id = $2`
	return r.scanOne(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *AppointmentRepository) FindByExternalID(ctx context.Context, tenantID int64, externalID string) (*appointment.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE tenant_id = $1 AND external_appointment_id = $2`
	return r.scanOne(r.db.QueryRow(ctx, query, tenantID, externalID))
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	query := `
		INSERT INTO appointments (
			tenant_id, customer_id, technician_id, title, notes,
			starts_at, ends_at, external_appointment_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		a.TenantID, a.CustomerID, a.TechnicianID, a.Title, a.Notes,
		a.StartsAt, a.EndsAt, a.ExternalAppointmentID,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) Update(ctx context.Context, a *appointment.Appointment) error {
	query := `
		UPDATE appointments SET
			customer_id = $3, technician_id = $4, title = $5, notes = $6,
			starts_at = $7, ends_at = $8, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		a.TenantID, a.ID, a.CustomerID, a.TechnicianID, a.Title, a.Notes,
		a.StartsAt, a.EndsAt,
	).Scan(&a.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) SetExternalAppointmentID(ctx context.Context, tenantID, id int64, externalID string) error {
	query := `
		UPDATE appointments
		SET external_appointment_id = $3, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		  AND (external_appointment_id IS NULL OR external_appointment_id = $3)
	`

	tag, err := r.db.Exec(ctx, query, tenantID, id, externalID)
	if err != nil {
		return fmt.Errorf("failed to set external appointment id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("appointment %d already bound to another calendar event: %w", id, xerrors.ErrConflict)
	}
	return nil
}
