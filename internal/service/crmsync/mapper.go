// internal/service/crmsync/mapper.go
package crmsync

import (
	"math"
	"strings"
	"time"

	"fieldworks-service/internal/crm"
	"fieldworks-service/internal/domain/appointment"
	"fieldworks-service/internal/domain/customer"
	"fieldworks-service/internal/domain/job"
	xerrors "fieldworks-service/internal/pkg/errors"

	"github.com/ttacon/libphonenumber"
)

// Pure translation between the local domain model and the CRM wire
// representation. No I/O happens here; a mapping failure short-circuits
// the single item it belongs to.

// NormalizeEmail lowercases and trims an email for matching. The
// normalized value is never written back or displayed.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return "", xerrors.NewMappingError("email", "not a valid address: "+raw)
	}
	return email, nil
}

// NormalizePhone formats a phone number as E.164 for matching. Numbers
// without a country prefix are interpreted in the default region.
func NormalizePhone(raw, defaultRegion string) (string, error) {
	num, err := libphonenumber.Parse(strings.TrimSpace(raw), defaultRegion)
	if err != nil {
		return "", xerrors.NewMappingError("phone", "unparseable number: "+raw)
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}

// ToRemoteContact maps a local customer to the outbound contact payload.
// At least one reachable key (email or phone) is required.
func ToRemoteContact(c *customer.Customer) (crm.ContactPayload, error) {
	if !c.Email.Valid && !c.Phone.Valid {
		return crm.ContactPayload{}, xerrors.NewMappingError("contact", "needs an email or phone")
	}

	first, last := splitName(c.FullName)
	p := crm.ContactPayload{
		FirstName: first,
		LastName:  last,
		Email:     strings.TrimSpace(c.Email.String),
		Phone:     strings.TrimSpace(c.Phone.String),
		Address1:  c.Address.String,
		Tags:      c.Tags,
	}
	return p, nil
}

// FromRemoteContact maps an inbound contact to local fields. Unknown
// remote fields were already dropped by the decoder; a present but
// invalid email is a mapping error for that item.
func FromRemoteContact(rc crm.RemoteContact) (customer.Fields, error) {
	if rc.Email != "" {
		if _, err := NormalizeEmail(rc.Email); err != nil {
			return customer.Fields{}, err
		}
	}

	return customer.Fields{
		FullName: strings.TrimSpace(rc.FirstName + " " + rc.LastName),
		Email:    strings.TrimSpace(rc.Email),
		Phone:    strings.TrimSpace(rc.Phone),
		Address:  rc.Address1,
	}, nil
}

// ToRemoteOpportunity formats an opportunity payload. The monetary
// computation happened upstream; totalCents is transmitted as-is.
func ToRemoteOpportunity(j *job.Job, totalCents int64, contactExternalID, pipelineID, stageID string) crm.OpportunityPayload {
	return crm.OpportunityPayload{
		Name:          j.Title,
		PipelineID:    pipelineID,
		StageID:       stageID,
		ContactID:     contactExternalID,
		MonetaryValue: totalCents,
		Status:        "open",
	}
}

// ToRemoteAppointment maps a local appointment to the outbound payload.
// Times are transmitted as UTC ISO-8601.
func ToRemoteAppointment(a *appointment.Appointment, contactExternalID, calendarID string) (crm.AppointmentPayload, error) {
	if a.StartsAt.IsZero() || a.EndsAt.IsZero() {
		return crm.AppointmentPayload{}, xerrors.NewMappingError("time", "appointment is missing start or end time")
	}
	if !a.EndsAt.After(a.StartsAt) {
		return crm.AppointmentPayload{}, xerrors.NewMappingError("time", "appointment ends before it starts")
	}
	if contactExternalID == "" {
		return crm.AppointmentPayload{}, xerrors.NewMappingError("contact", "appointment has no linked CRM contact")
	}

	return crm.AppointmentPayload{
		CalendarID: calendarID,
		ContactID:  contactExternalID,
		Title:      a.Title,
		StartTime:  a.StartsAt.UTC().Format(time.RFC3339),
		EndTime:    a.EndsAt.UTC().Format(time.RFC3339),
	}, nil
}

// FromRemoteAppointment parses an inbound calendar event. Timestamps
// must be timezone-explicit; naive-local values are rejected instead of
// being guessed at.
func FromRemoteAppointment(ra crm.RemoteAppointment) (start, end time.Time, err error) {
	start, err = parseRemoteTime("startTime", ra.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = parseRemoteTime("endTime", ra.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start.UTC(), end.UTC(), nil
}

func parseRemoteTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, xerrors.NewMappingError(field, "not a timezone-explicit timestamp: "+value)
	}
	return t, nil
}

// TotalCents computes a job's opportunity value in integer minor units.
// Unit prices normalize half-up to cents before extension (budget lines
// are cent-precision values; sub-cent digits are entry artifacts), then
// one final half-up rounds the summed total for fractional quantities.
func TotalCents(lines []job.BudgetLine) int64 {
	var total float64
	for _, l := range lines {
		priceCents := roundHalfUpCents(l.UnitPrice * 100)
		total += l.Quantity * float64(priceCents)
	}
	return roundHalfUpCents(total)
}

// roundHalfUpCents rounds half-up. The epsilon absorbs the binary
// representation error of decimal inputs (19.995*100 sits just below
// 1999.5 as a float64).
func roundHalfUpCents(v float64) int64 {
	return int64(math.Floor(v + 0.5 + 1e-9))
}

// splitName breaks a display name at the last space; single-word names
// map entirely to the first name.
func splitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	idx := strings.LastIndex(full, " ")
	if idx < 0 {
		return full, ""
	}
	return strings.TrimSpace(full[:idx]), strings.TrimSpace(full[idx+1:])
}
