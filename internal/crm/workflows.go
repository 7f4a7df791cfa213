// internal/crm/workflows.go
package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// TriggerWorkflow notifies the CRM that a business event occurred for a
// contact. Fire-and-forget from the caller's perspective; no local state
// changes.
func (c *Client) TriggerWorkflow(ctx context.Context, locationID, workflowID, contactExternalID string, customData map[string]string) error {
	query := url.Values{"locationId": {locationID}}
	body := workflowTriggerPayload{
		ContactID: contactExternalID,
		EventData: customData,
	}

	path := fmt.Sprintf("/workflows/%s/subscribe", url.PathEscape(workflowID))
	return c.do(ctx, http.MethodPost, path, query, body, nil, "")
}
