// internal/service/crmsync/appointments_test.go
package crmsync

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"fieldworks-service/internal/crm"
	"fieldworks-service/internal/domain/appointment"
	"fieldworks-service/internal/domain/customer"
	"fieldworks-service/internal/domain/syncrun"
	xerrors "fieldworks-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAppointment(env *testEnv) {
	env.customers.rows[1] = &customer.Customer{
		ID: 1, TenantID: 1, FullName: "Booked Customer",
		ExternalContactID: sql.NullString{String: "remote-c1", Valid: true},
	}
	env.appointments.rows[200] = &appointment.Appointment{
		ID: 200, TenantID: 1,
		CustomerID: sql.NullInt64{Int64: 1, Valid: true},
		Title:      "Install water heater",
		StartsAt:   time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC),
		EndsAt:     time.Date(2026, 6, 1, 11, 0, 0, 0, time.UTC),
	}
}

func TestPushAppointment(t *testing.T) {
	env := newTestEnv(connectedTenant(1))
	seedAppointment(env)

	var gotPayload crm.AppointmentPayload
	env.gateway.createAppointment = func(locationID string, p crm.AppointmentPayload, idemKey string) (string, error) {
		assert.Equal(t, "loc-1", locationID)
		assert.Equal(t, crm.IdempotencyKey(1, "appointment", 200), idemKey)
		gotPayload = p
		return "cal-evt-9", nil
	}

	externalID, err := env.svc.PushAppointment(context.Background(), 1, 200)
	require.NoError(t, err)
	assert.Equal(t, "cal-evt-9", externalID)
	assert.Equal(t, "cal-1", gotPayload.CalendarID)
	assert.Equal(t, "remote-c1", gotPayload.ContactID)
	assert.Equal(t, "2026-06-01T09:00:00Z", gotPayload.StartTime)

	a, err := env.appointments.FindByID(context.Background(), 1, 200)
	require.NoError(t, err)
	assert.Equal(t, "cal-evt-9", a.ExternalAppointmentID.String)
}

func TestPushAppointmentRepeatIsNoOp(t *testing.T) {
	env := newTestEnv(connectedTenant(1))
	seedAppointment(env)
	env.appointments.rows[200].ExternalAppointmentID = sql.NullString{String: "cal-evt-old", Valid: true}

	calls := 0
	env.gateway.createAppointment = func(_ string, _ crm.AppointmentPayload, _ string) (string, error) {
		calls++
		return "cal-evt-dup", nil
	}

	externalID, err := env.svc.PushAppointment(context.Background(), 1, 200)
	require.NoError(t, err)
	assert.Equal(t, "cal-evt-old", externalID)
	assert.Zero(t, calls)
}

func TestPushAppointmentSchedulingConflictPassesThrough(t *testing.T) {
	env := newTestEnv(connectedTenant(1))
	seedAppointment(env)

	env.gateway.createAppointment = func(_ string, _ crm.AppointmentPayload, _ string) (string, error) {
		return "", fmt.Errorf("slot taken: %w", xerrors.ErrSchedulingConflict)
	}

	_, err := env.svc.PushAppointment(context.Background(), 1, 200)
	assert.ErrorIs(t, err, xerrors.ErrSchedulingConflict)

	// The failed push is auditable and the appointment stays unbound.
	require.Len(t, env.runs.finalized, 1)
	assert.Equal(t, syncrun.StatusFailed, env.runs.finalized[0].Status)
	a, _ := env.appointments.FindByID(context.Background(), 1, 200)
	assert.False(t, a.ExternalAppointmentID.Valid)
}

func TestPushAppointmentNeedsCalendar(t *testing.T) {
	tn := connectedTenant(1)
	tn.CRMCalendarID = sql.NullString{}
	env := newTestEnv(tn)
	seedAppointment(env)

	_, err := env.svc.PushAppointment(context.Background(), 1, 200)
	assert.ErrorIs(t, err, xerrors.ErrNotConfigured)
}

func TestPushAppointmentNeedsSyncedCustomer(t *testing.T) {
	env := newTestEnv(connectedTenant(1))
	seedAppointment(env)
	env.customers.rows[1].ExternalContactID = sql.NullString{}

	_, err := env.svc.PushAppointment(context.Background(), 1, 200)
	assert.ErrorIs(t, err, xerrors.ErrCustomerNotSynced)
}

func TestSyncCalendarReconcilesWindow(t *testing.T) {
	env := newTestEnv(connectedTenant(1))

	env.customers.rows[1] = &customer.Customer{
		ID: 1, TenantID: 1, FullName: "Known Contact",
		ExternalContactID: sql.NullString{String: "remote-c1", Valid: true},
	}
	env.appointments.rows[300] = &appointment.Appointment{
		ID: 300, TenantID: 1,
		Title:                 "Old title",
		StartsAt:              time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC),
		EndsAt:                time.Date(2026, 6, 2, 10, 0, 0, 0, time.UTC),
		ExternalAppointmentID: sql.NullString{String: "evt-known", Valid: true},
	}

	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 6, 8, 0, 0, 0, 0, time.UTC)

	env.gateway.listAppointments = func(locationID, calendarID string, gotFrom, gotTo time.Time) ([]crm.RemoteAppointment, error) {
		assert.Equal(t, "loc-1", locationID)
		assert.Equal(t, "cal-1", calendarID)
		assert.True(t, gotFrom.Equal(from))
		assert.True(t, gotTo.Equal(to))
		return []crm.RemoteAppointment{
			// Seen before: updates in place, no duplicate row.
			{ID: "evt-known", Title: "Rescheduled visit",
				StartTime: "2026-06-03T09:00:00Z", EndTime: "2026-06-03T10:00:00Z"},
			// New booking for a synced contact: creates a local row.
			{ID: "evt-new", ContactID: "remote-c1", Title: "Estimate visit",
				StartTime: "2026-06-04T14:00:00+03:00", EndTime: "2026-06-04T15:00:00+03:00"},
			// Contact never synced: skipped for manual linking.
			{ID: "evt-stranger", ContactID: "remote-unknown", Title: "Walk-in",
				StartTime: "2026-06-05T09:00:00Z", EndTime: "2026-06-05T10:00:00Z"},
			// Naive timestamp: rejected, not guessed.
			{ID: "evt-naive", ContactID: "remote-c1", Title: "Broken",
				StartTime: "2026-06-06T09:00:00", EndTime: "2026-06-06T10:00:00Z"},
		}, nil
	}

	run, err := env.svc.SyncCalendar(context.Background(), 1, from, to)
	require.NoError(t, err)

	assert.Equal(t, syncrun.StatusPartial, run.Status)
	assert.Equal(t, 4, run.Processed)
	assert.Equal(t, 1, run.Created)
	assert.Equal(t, 1, run.Updated)
	assert.Equal(t, 1, run.Skipped)
	assert.Equal(t, 1, run.Failed)

	// The known event was updated, not duplicated.
	known, err := env.appointments.FindByExternalID(context.Background(), 1, "evt-known")
	require.NoError(t, err)
	assert.Equal(t, int64(300), known.ID)
	assert.Equal(t, "Rescheduled visit", known.Title)
	assert.True(t, known.StartsAt.Equal(time.Date(2026, 6, 3, 9, 0, 0, 0, time.UTC)))

	// The new event landed as a local row bound to the matched customer,
	// with times converted to UTC.
	created, err := env.appointments.FindByExternalID(context.Background(), 1, "evt-new")
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.CustomerID.Int64)
	assert.True(t, created.StartsAt.Equal(time.Date(2026, 6, 4, 11, 0, 0, 0, time.UTC)))

	// The stranger's event created nothing.
	_, err = env.appointments.FindByExternalID(context.Background(), 1, "evt-stranger")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	var reasons []string
	for _, e := range run.Errors {
		reasons = append(reasons, e.Reason)
	}
	assert.Contains(t, reasons, syncrun.ReasonUnlinked)
	assert.Contains(t, reasons, syncrun.ReasonMapping)
}

func TestSyncCalendarRerunIsIdempotent(t *testing.T) {
	env := newTestEnv(connectedTenant(1))
	env.customers.rows[1] = &customer.Customer{
		ID: 1, TenantID: 1,
		ExternalContactID: sql.NullString{String: "remote-c1", Valid: true},
	}

	env.gateway.listAppointments = func(_, _ string, _, _ time.Time) ([]crm.RemoteAppointment, error) {
		return []crm.RemoteAppointment{
			{ID: "evt-1", ContactID: "remote-c1", Title: "Visit",
				StartTime: "2026-06-04T14:00:00Z", EndTime: "2026-06-04T15:00:00Z"},
		}, nil
	}

	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	first, err := env.svc.SyncCalendar(context.Background(), 1, from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := env.svc.SyncCalendar(context.Background(), 1, from, to)
	require.NoError(t, err)
	assert.Zero(t, second.Created, "the second pull must update, never duplicate")
	assert.Equal(t, 1, second.Updated)
}
