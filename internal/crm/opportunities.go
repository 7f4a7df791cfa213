// internal/crm/opportunities.go
package crm

import (
	"context"
	"net/http"
	"net/url"
)

// CreateOpportunity creates a pipeline opportunity and returns its CRM
// id. The payload's monetary value is in integer minor units.
func (c *Client) CreateOpportunity(ctx context.Context, locationID string, p OpportunityPayload, idemKey string) (string, error) {
	query := url.Values{"locationId": {locationID}}

	var out opportunityCreateResponse
	if err := c.do(ctx, http.MethodPost, "/opportunities", query, p, &out, idemKey); err != nil {
		return "", err
	}
	return out.Opportunity.ID, nil
}
