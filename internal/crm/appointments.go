// internal/crm/appointments.go
package crm

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// CreateAppointment books a calendar slot. The remote CRM is the
// scheduling authority; an overlap comes back as a scheduling conflict
// and is not retried.
func (c *Client) CreateAppointment(ctx context.Context, locationID string, p AppointmentPayload, idemKey string) (string, error) {
	query := url.Values{"locationId": {locationID}}

	var out appointmentCreateResponse
	if err := c.do(ctx, http.MethodPost, "/appointments", query, p, &out, idemKey); err != nil {
		return "", err
	}
	return out.Appointment.ID, nil
}

// ListAppointments returns the calendar's events inside the window.
func (c *Client) ListAppointments(ctx context.Context, locationID, calendarID string, from, to time.Time) ([]RemoteAppointment, error) {
	query := url.Values{
		"locationId": {locationID},
		"calendarId": {calendarID},
		"startTime":  {from.UTC().Format(time.RFC3339)},
		"endTime":    {to.UTC().Format(time.RFC3339)},
	}

	var out appointmentListResponse
	if err := c.do(ctx, http.MethodGet, "/appointments", query, nil, &out, ""); err != nil {
		return nil, err
	}
	return out.Appointments, nil
}
