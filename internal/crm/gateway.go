// internal/crm/gateway.go
package crm

import (
	"context"
	"time"
)

// Gateway is the surface the sync operations consume. *Client implements
// it; tests substitute fakes.
type Gateway interface {
	FindContacts(ctx context.Context, locationID string, q ContactQuery) ([]RemoteContact, error)
	ListContacts(ctx context.Context, locationID string, page Page) ([]RemoteContact, string, error)
	UpsertContact(ctx context.Context, locationID string, p ContactPayload, idemKey string) (*RemoteContact, error)
	CreateOpportunity(ctx context.Context, locationID string, p OpportunityPayload, idemKey string) (string, error)
	CreateAppointment(ctx context.Context, locationID string, p AppointmentPayload, idemKey string) (string, error)
	ListAppointments(ctx context.Context, locationID, calendarID string, from, to time.Time) ([]RemoteAppointment, error)
	TriggerWorkflow(ctx context.Context, locationID, workflowID, contactExternalID string, customData map[string]string) error
}

var _ Gateway = (*Client)(nil)
