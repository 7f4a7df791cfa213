// internal/crm/contacts.go
package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// FindContacts looks up contacts by a single match key for identity
// resolution. The CRM may return several candidates; the caller decides
// what an ambiguous result means.
func (c *Client) FindContacts(ctx context.Context, locationID string, q ContactQuery) ([]RemoteContact, error) {
	query := url.Values{"locationId": {locationID}}
	switch {
	case q.Email != "":
		query.Set("email", q.Email)
	case q.Phone != "":
		query.Set("phone", q.Phone)
	default:
		return nil, fmt.Errorf("contact query needs an email or phone")
	}

	var out contactSearchResponse
	if err := c.do(ctx, http.MethodGet, "/contacts/search", query, nil, &out, ""); err != nil {
		return nil, err
	}
	return out.Contacts, nil
}

// ListContacts returns one page of the location's contacts plus the
// cursor for the next page; an empty cursor ends the pagination.
func (c *Client) ListContacts(ctx context.Context, locationID string, page Page) ([]RemoteContact, string, error) {
	query := url.Values{"locationId": {locationID}}
	if page.Cursor != "" {
		query.Set("cursor", page.Cursor)
	}
	if page.Limit > 0 {
		query.Set("limit", strconv.Itoa(page.Limit))
	}

	var out contactListResponse
	if err := c.do(ctx, http.MethodGet, "/contacts", query, nil, &out, ""); err != nil {
		return nil, "", err
	}
	return out.Contacts, out.NextCursor, nil
}

// UpsertContact creates or updates a contact by its natural keys on the
// remote side and returns the CRM's record.
func (c *Client) UpsertContact(ctx context.Context, locationID string, p ContactPayload, idemKey string) (*RemoteContact, error) {
	query := url.Values{"locationId": {locationID}}

	var out contactUpsertResponse
	if err := c.do(ctx, http.MethodPost, "/contacts/upsert", query, p, &out, idemKey); err != nil {
		return nil, err
	}
	return &out.Contact, nil
}
