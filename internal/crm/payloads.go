// internal/crm/payloads.go
package crm

// Typed wire structs for the CRM REST API. Only the Field Mapper
// produces payloads; raw maps never cross component boundaries.

// ContactPayload is the outbound contact representation. Fields the CRM
// does not accept are simply not modeled.
type ContactPayload struct {
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Email     string   `json:"email,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Address1  string   `json:"address1,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// RemoteContact is the CRM's view of a contact. Unknown remote fields
// are dropped by the JSON decoder, never treated as errors.
type RemoteContact struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address1  string `json:"address1"`
}

// ContactQuery carries the identity-resolution lookup keys. Exactly one
// of Email or Phone is expected to be set per call.
type ContactQuery struct {
	Email string
	Phone string
}

// Page is a pagination cursor for contact listing.
type Page struct {
	Cursor string
	Limit  int
}

// OpportunityPayload is the outbound opportunity representation.
// MonetaryValue is in integer minor units (cents).
type OpportunityPayload struct {
	Name          string `json:"name"`
	PipelineID    string `json:"pipelineId"`
	StageID       string `json:"pipelineStageId"`
	ContactID     string `json:"contactId"`
	MonetaryValue int64  `json:"monetaryValue"`
	Status        string `json:"status"`
}

// AppointmentPayload is the outbound appointment representation. Times
// are UTC ISO-8601 strings; the mapper guarantees timezone-explicit
// inputs before formatting.
type AppointmentPayload struct {
	CalendarID string `json:"calendarId"`
	ContactID  string `json:"contactId"`
	Title      string `json:"title"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

// RemoteAppointment is the CRM calendar's view of an appointment. Times
// stay strings here; the mapper parses them and rejects zone-less
// values rather than guessing a timezone.
type RemoteAppointment struct {
	ID         string `json:"id"`
	CalendarID string `json:"calendarId"`
	ContactID  string `json:"contactId"`
	Title      string `json:"title"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Status     string `json:"status"`
}

// workflowTriggerPayload is the body of a workflow trigger call.
type workflowTriggerPayload struct {
	ContactID string            `json:"contactId"`
	EventData map[string]string `json:"eventData,omitempty"`
}

type contactListResponse struct {
	Contacts   []RemoteContact `json:"contacts"`
	NextCursor string          `json:"nextCursor"`
}

type contactSearchResponse struct {
	Contacts []RemoteContact `json:"contacts"`
}

type contactUpsertResponse struct {
	Contact RemoteContact `json:"contact"`
}

type opportunityCreateResponse struct {
	Opportunity struct {
		ID string `json:"id"`
	} `json:"opportunity"`
}

type appointmentCreateResponse struct {
	Appointment struct {
		ID string `json:"id"`
	} `json:"appointment"`
}

type appointmentListResponse struct {
	Appointments []RemoteAppointment `json:"appointments"`
}
