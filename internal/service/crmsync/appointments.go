// internal/service/crmsync/appointments.go
package crmsync

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"fieldworks-service/internal/crm"
	"fieldworks-service/internal/domain/appointment"
	"fieldworks-service/internal/domain/syncrun"
	xerrors "fieldworks-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// PushAppointment books a local appointment on the tenant's CRM
// calendar. The CRM is the scheduling authority: a remote overlap comes
// back as a scheduling conflict for the caller, never a silent retry.
func (s *Service) PushAppointment(ctx context.Context, tenantID, appointmentID int64) (string, error) {
	t, err := s.tenantByID(ctx, tenantID)
	if err != nil {
		return "", err
	}
	locationID, ok := t.LocationID()
	if !ok {
		return "", fmt.Errorf("appointment push needs a CRM location id: %w", xerrors.ErrNotConfigured)
	}
	calendarID, ok := t.CalendarID()
	if !ok {
		return "", fmt.Errorf("appointment push needs a CRM calendar id: %w", xerrors.ErrNotConfigured)
	}

	a, err := s.appointments.FindByID(ctx, tenantID, appointmentID)
	if err != nil {
		return "", err
	}
	if a.ExternalAppointmentID.Valid && a.ExternalAppointmentID.String != "" {
		return a.ExternalAppointmentID.String, nil
	}

	if !a.CustomerID.Valid {
		return "", fmt.Errorf("appointment %d has no customer: %w", appointmentID, xerrors.ErrCustomerNotSynced)
	}
	c, err := s.customers.FindByID(ctx, tenantID, a.CustomerID.Int64)
	if err != nil {
		return "", err
	}
	if !c.ExternalContactID.Valid || c.ExternalContactID.String == "" {
		return "", fmt.Errorf("appointment %d customer %d: %w", appointmentID, c.ID, xerrors.ErrCustomerNotSynced)
	}

	payload, err := ToRemoteAppointment(a, c.ExternalContactID.String, calendarID)
	if err != nil {
		return "", err
	}

	run, finish, err := s.beginRun(ctx, tenantID, syncrun.EntityAppointments)
	if err != nil {
		return "", err
	}
	defer finish()
	run.Processed = 1

	idemKey := crm.IdempotencyKey(tenantID, "appointment", appointmentID)
	externalID, err := s.gateway.CreateAppointment(ctx, locationID, payload, idemKey)
	if err != nil {
		run.RecordError(syncrun.ItemError{
			LocalID: strconv.FormatInt(appointmentID, 10),
			Reason:  syncrun.ReasonRemote,
			Message: err.Error(),
		})
		run.Fail()
		return "", err
	}

	if err := s.appointments.SetExternalAppointmentID(ctx, tenantID, appointmentID, externalID); err != nil {
		run.RecordError(syncrun.ItemError{
			LocalID:    strconv.FormatInt(appointmentID, 10),
			ExternalID: externalID,
			Reason:     syncrun.ReasonStore,
			Message:    err.Error(),
		})
		run.Fail()
		return "", fmt.Errorf("appointment %s booked but not recorded locally: %w", externalID, err)
	}

	run.Created = 1
	run.Finish(false)
	s.logger.Info("appointment pushed",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("appointment_id", appointmentID),
		zap.String("external_appointment_id", externalID),
	)
	return externalID, nil
}

// SyncCalendar pulls the CRM calendar for a time window and reconciles
// each remote event into the local store. This direction is the most
// prone to duplication, so matching goes through the identity rules
// rather than ad hoc lookups: external id first, then the event's linked
// contact. Events whose contact was never synced are skipped for a
// manual link instead of auto-creating customers from calendar data.
func (s *Service) SyncCalendar(ctx context.Context, tenantID int64, from, to time.Time) (*syncrun.SyncRun, error) {
	t, err := s.tenantByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	locationID, ok := t.LocationID()
	if !ok {
		return nil, fmt.Errorf("calendar sync needs a CRM location id: %w", xerrors.ErrNotConfigured)
	}
	calendarID, ok := t.CalendarID()
	if !ok {
		return nil, fmt.Errorf("calendar sync needs a CRM calendar id: %w", xerrors.ErrNotConfigured)
	}

	run, finish, err := s.beginRun(ctx, tenantID, syncrun.EntityCalendar)
	if err != nil {
		return nil, err
	}
	defer finish()

	remotes, err := s.gateway.ListAppointments(ctx, locationID, calendarID, from, to)
	if err != nil {
		run.Fail()
		return run, fmt.Errorf("failed to list CRM appointments: %w", err)
	}

	cancelled := false
	for _, ra := range remotes {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		run.Processed++
		s.syncOneCalendarEvent(ctx, run, tenantID, ra)
	}

	run.Finish(cancelled)
	s.logger.Info("calendar sync finished",
		zap.Int64("tenant_id", tenantID),
		zap.String("run_id", run.ID),
		zap.String("status", string(run.Status)),
		zap.Int("processed", run.Processed),
		zap.Int("created", run.Created),
		zap.Int("updated", run.Updated),
		zap.Int("skipped", run.Skipped),
	)
	return run, nil
}

func (s *Service) syncOneCalendarEvent(ctx context.Context, run *syncrun.SyncRun, tenantID int64, ra crm.RemoteAppointment) {
	start, end, err := FromRemoteAppointment(ra)
	if err != nil {
		run.RecordError(syncrun.ItemError{
			ExternalID: ra.ID,
			Reason:     syncrun.ReasonMapping,
			Message:    err.Error(),
		})
		return
	}

	existing, err := s.appointments.FindByExternalID(ctx, tenantID, ra.ID)
	if err != nil && !xerrors.Is(err, xerrors.ErrNotFound) {
		run.RecordError(syncrun.ItemError{
			ExternalID: ra.ID,
			Reason:     syncrun.ReasonStore,
			Message:    err.Error(),
		})
		return
	}

	if existing != nil {
		existing.Title = ra.Title
		existing.StartsAt = start
		existing.EndsAt = end
		if err := s.appointments.Update(ctx, existing); err != nil {
			run.RecordError(syncrun.ItemError{
				LocalID:    strconv.FormatInt(existing.ID, 10),
				ExternalID: ra.ID,
				Reason:     syncrun.ReasonStore,
				Message:    err.Error(),
			})
			return
		}
		run.Updated++
		return
	}

	// New remote booking: the local customer comes from the event's
	// linked contact. A contact never seen locally stays unbound.
	var customerID sql.NullInt64
	if ra.ContactID != "" {
		c, err := s.customers.FindByExternalID(ctx, tenantID, ra.ContactID)
		if err != nil && !xerrors.Is(err, xerrors.ErrNotFound) {
			run.RecordError(syncrun.ItemError{
				ExternalID: ra.ID,
				Reason:     syncrun.ReasonStore,
				Message:    err.Error(),
			})
			return
		}
		if c != nil {
			customerID = sql.NullInt64{Int64: c.ID, Valid: true}
		}
	}
	if !customerID.Valid {
		run.RecordSkip(syncrun.ItemError{
			ExternalID: ra.ID,
			Reason:     syncrun.ReasonUnlinked,
			Message:    fmt.Sprintf("CRM contact %s has no local customer; link manually and re-run", ra.ContactID),
		})
		return
	}

	a := &appointment.Appointment{
		TenantID:              tenantID,
		CustomerID:            customerID,
		Title:                 ra.Title,
		StartsAt:              start,
		EndsAt:                end,
		ExternalAppointmentID: sql.NullString{String: ra.ID, Valid: true},
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		run.RecordError(syncrun.ItemError{
			ExternalID: ra.ID,
			Reason:     syncrun.ReasonStore,
			Message:    err.Error(),
		})
		return
	}
	run.Created++
}
