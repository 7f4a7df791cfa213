// internal/service/crmsync/identity.go
package crmsync

import (
	"context"
	"errors"
	"fmt"

	"fieldworks-service/internal/crm"
	"fieldworks-service/internal/domain/customer"
	"fieldworks-service/internal/domain/tenant"
	xerrors "fieldworks-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// BindState is the outcome of resolving a local entity against the CRM.
type BindState int

const (
	// Bound means exactly one remote correspondence exists.
	Bound BindState = iota
	// Unbound means no remote candidate matched; the create path is open.
	Unbound
	// Ambiguous means more than one candidate matched. The sync
	// operation records a conflict and skips; it never guesses.
	Ambiguous
)

// Resolution carries the bind state and, when bound, the external id.
type Resolution struct {
	State      BindState
	ExternalID string
}

// Resolver decides whether a local record already corresponds to a
// remote one, preventing duplicate creation. It is stateless across
// calls apart from the read-through of the stored external id.
type Resolver struct {
	customers     customer.Repository
	gateway       crm.Gateway
	defaultRegion string
	logger        *zap.Logger
}

func NewResolver(customers customer.Repository, gateway crm.Gateway, defaultRegion string, logger *zap.Logger) *Resolver {
	return &Resolver{
		customers:     customers,
		gateway:       gateway,
		defaultRegion: defaultRegion,
		logger:        logger,
	}
}

// ResolveContact resolves a local customer against the CRM. A stored
// external id wins immediately without a remote lookup (sticky
// identity). Otherwise candidates are fetched by the strongest available
// key: email first, phone only when no email exists. Name-only matching
// is deliberately excluded.
func (r *Resolver) ResolveContact(ctx context.Context, t *tenant.Tenant, c *customer.Customer) (Resolution, error) {
	if c.ExternalContactID.Valid && c.ExternalContactID.String != "" {
		return Resolution{State: Bound, ExternalID: c.ExternalContactID.String}, nil
	}

	locationID, ok := t.LocationID()
	if !ok {
		return Resolution{}, fmt.Errorf("resolve contact: %w", xerrors.ErrNotConfigured)
	}

	query, err := r.lookupQuery(c)
	if err != nil {
		return Resolution{}, err
	}
	if query == nil {
		// Nothing to match on; treat as unbound so the create path runs.
		return Resolution{State: Unbound}, nil
	}

	candidates, err := r.gateway.FindContacts(ctx, locationID, *query)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to look up CRM candidates: %w", err)
	}

	switch len(candidates) {
	case 0:
		return Resolution{State: Unbound}, nil
	case 1:
		externalID := candidates[0].ID
		if err := r.bind(ctx, c, externalID); err != nil {
			return Resolution{}, err
		}
		return Resolution{State: Bound, ExternalID: externalID}, nil
	default:
		r.logger.Warn("ambiguous CRM match",
			zap.Int64("tenant_id", c.TenantID),
			zap.Int64("customer_id", c.ID),
			zap.Int("candidates", len(candidates)),
		)
		return Resolution{State: Ambiguous}, nil
	}
}

// bind persists the correspondence, refusing to attach a remote id that
// another local row of the tenant already holds. One remote contact
// never maps to two local customers.
func (r *Resolver) bind(ctx context.Context, c *customer.Customer, externalID string) error {
	existing, err := r.customers.FindByExternalID(ctx, c.TenantID, externalID)
	if err != nil && !errors.Is(err, xerrors.ErrNotFound) {
		return fmt.Errorf("failed to check external id uniqueness: %w", err)
	}
	if existing != nil && existing.ID != c.ID {
		return fmt.Errorf("CRM contact %s already bound to customer %d: %w",
			externalID, existing.ID, xerrors.ErrConflict)
	}

	if err := r.customers.SetExternalContactID(ctx, c.TenantID, c.ID, externalID); err != nil {
		return err
	}
	c.ExternalContactID.String = externalID
	c.ExternalContactID.Valid = true
	return nil
}

// lookupQuery builds the strongest available match key. Normalization
// happens here only; the normalized values are never displayed.
func (r *Resolver) lookupQuery(c *customer.Customer) (*crm.ContactQuery, error) {
	if c.Email.Valid && c.Email.String != "" {
		email, err := NormalizeEmail(c.Email.String)
		if err != nil {
			return nil, err
		}
		return &crm.ContactQuery{Email: email}, nil
	}
	if c.Phone.Valid && c.Phone.String != "" {
		phone, err := NormalizePhone(c.Phone.String, r.defaultRegion)
		if err != nil {
			return nil, err
		}
		return &crm.ContactQuery{Phone: phone}, nil
	}
	return nil, nil
}

// MatchLocal finds the local customer a remote contact corresponds to
// during pull syncs: stored external id first, then normalized email,
// then normalized phone. Returns nil when nothing matches.
func (r *Resolver) MatchLocal(ctx context.Context, tenantID int64, rc crm.RemoteContact) (*customer.Customer, error) {
	c, err := r.customers.FindByExternalID(ctx, tenantID, rc.ID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, xerrors.ErrNotFound) {
		return nil, err
	}

	if rc.Email != "" {
		if email, nerr := NormalizeEmail(rc.Email); nerr == nil {
			c, err = r.customers.FindByEmail(ctx, tenantID, email)
			if err == nil {
				return c, nil
			}
			if !errors.Is(err, xerrors.ErrNotFound) {
				return nil, err
			}
		}
	}

	if rc.Phone != "" {
		if phone, nerr := NormalizePhone(rc.Phone, r.defaultRegion); nerr == nil {
			c, err = r.customers.FindByPhone(ctx, tenantID, phone)
			if err == nil {
				return c, nil
			}
			if !errors.Is(err, xerrors.ErrNotFound) {
				return nil, err
			}
		}
	}

	return nil, nil
}
