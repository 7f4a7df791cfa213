// internal/service/crmsync/contacts.go
package crmsync

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"fieldworks-service/internal/crm"
	"fieldworks-service/internal/domain/customer"
	"fieldworks-service/internal/domain/syncrun"
	xerrors "fieldworks-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// SyncContacts pulls the tenant's CRM contacts page by page and
// reconciles each into the local store. Items are processed in the order
// the CRM's pagination returns them; each item's update is its own
// atomic unit, so a crash mid-batch leaves finished items durable and
// only the rest needs reprocessing.
func (s *Service) SyncContacts(ctx context.Context, tenantID int64) (*syncrun.SyncRun, error) {
	t, err := s.tenantByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	locationID, ok := t.LocationID()
	if !ok {
		return nil, fmt.Errorf("contact sync needs a CRM location id: %w", xerrors.ErrNotConfigured)
	}

	run, finish, err := s.beginRun(ctx, tenantID, syncrun.EntityContacts)
	if err != nil {
		return nil, err
	}
	defer finish()

	cancelled := false
	cursor := ""

pages:
	for {
		remotes, next, err := s.gateway.ListContacts(ctx, locationID, crm.Page{Cursor: cursor, Limit: s.opts.PageSize})
		if err != nil {
			if run.Processed == 0 {
				run.Fail()
				return run, fmt.Errorf("failed to list CRM contacts: %w", err)
			}
			// Mid-batch page failure: keep what we have.
			run.RecordError(syncrun.ItemError{
				Reason:  syncrun.ReasonRemote,
				Message: fmt.Sprintf("page fetch failed: %v", err),
			})
			break
		}

		for _, rc := range remotes {
			if ctx.Err() != nil {
				cancelled = true
				break pages
			}
			run.Processed++
			s.syncOneContact(ctx, run, tenantID, rc)
		}

		if next == "" {
			break
		}
		cursor = next
	}

	run.Finish(cancelled)
	s.logger.Info("contact sync finished",
		zap.Int64("tenant_id", tenantID),
		zap.String("run_id", run.ID),
		zap.String("status", string(run.Status)),
		zap.Int("processed", run.Processed),
		zap.Int("created", run.Created),
		zap.Int("updated", run.Updated),
		zap.Int("failed", run.Failed),
	)
	return run, nil
}

// PushContact ensures a local customer exists in the CRM and returns its
// external id. The resolver's pre-check stands in for idempotency here:
// an existing remote correspondence is reused, never duplicated, and an
// ambiguous match is refused for manual resolution.
func (s *Service) PushContact(ctx context.Context, tenantID, customerID int64) (string, error) {
	t, err := s.tenantByID(ctx, tenantID)
	if err != nil {
		return "", err
	}
	locationID, ok := t.LocationID()
	if !ok {
		return "", fmt.Errorf("contact push needs a CRM location id: %w", xerrors.ErrNotConfigured)
	}

	c, err := s.customers.FindByID(ctx, tenantID, customerID)
	if err != nil {
		return "", err
	}
	if c.ExternalContactID.Valid && c.ExternalContactID.String != "" {
		return c.ExternalContactID.String, nil
	}

	payload, err := ToRemoteContact(c)
	if err != nil {
		return "", err
	}

	run, finish, err := s.beginRun(ctx, tenantID, syncrun.EntityContacts)
	if err != nil {
		return "", err
	}
	defer finish()
	run.Processed = 1

	res, err := s.resolver.ResolveContact(ctx, t, c)
	if err != nil {
		run.Fail()
		return "", err
	}

	switch res.State {
	case Bound:
		run.Updated = 1
		run.Finish(false)
		return res.ExternalID, nil

	case Ambiguous:
		run.RecordError(syncrun.ItemError{
			LocalID: strconv.FormatInt(customerID, 10),
			Reason:  syncrun.ReasonAmbiguous,
			Message: "multiple CRM contacts matched; link manually",
		})
		run.Fail()
		return "", fmt.Errorf("customer %d: %w", customerID, xerrors.ErrAmbiguousMatch)
	}

	idemKey := crm.IdempotencyKey(tenantID, "contact", customerID)
	remote, err := s.gateway.UpsertContact(ctx, locationID, payload, idemKey)
	if err != nil {
		run.RecordError(syncrun.ItemError{
			LocalID: strconv.FormatInt(customerID, 10),
			Reason:  syncrun.ReasonRemote,
			Message: err.Error(),
		})
		run.Fail()
		return "", err
	}

	if err := s.resolver.bind(ctx, c, remote.ID); err != nil {
		run.RecordError(syncrun.ItemError{
			LocalID:    strconv.FormatInt(customerID, 10),
			ExternalID: remote.ID,
			Reason:     syncrun.ReasonStore,
			Message:    err.Error(),
		})
		run.Fail()
		return "", fmt.Errorf("contact %s created but not recorded on customer %d: %w", remote.ID, customerID, err)
	}

	run.Created = 1
	run.Finish(false)
	s.logger.Info("contact pushed",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("customer_id", customerID),
		zap.String("external_contact_id", remote.ID),
	)
	return remote.ID, nil
}

// syncOneContact reconciles a single remote contact. Per-item errors are
// accumulated on the run and never abort sibling items.
func (s *Service) syncOneContact(ctx context.Context, run *syncrun.SyncRun, tenantID int64, rc crm.RemoteContact) {
	fields, err := FromRemoteContact(rc)
	if err != nil {
		run.RecordError(syncrun.ItemError{
			ExternalID: rc.ID,
			Reason:     syncrun.ReasonMapping,
			Message:    err.Error(),
		})
		return
	}

	local, err := s.resolver.MatchLocal(ctx, tenantID, rc)
	if err != nil {
		run.RecordError(syncrun.ItemError{
			ExternalID: rc.ID,
			Reason:     syncrun.ReasonStore,
			Message:    err.Error(),
		})
		return
	}

	if local == nil {
		c := &customer.Customer{
			TenantID:          tenantID,
			ExternalContactID: sql.NullString{String: rc.ID, Valid: true},
		}
		c.Apply(fields)
		if c.FullName == "" {
			c.FullName = fields.Email
		}
		if err := s.customers.Create(ctx, c); err != nil {
			run.RecordError(syncrun.ItemError{
				ExternalID: rc.ID,
				Reason:     syncrun.ReasonStore,
				Message:    err.Error(),
			})
			return
		}
		run.Created++
		return
	}

	// Sticky identity: a row matched by email/phone that is already
	// bound to a DIFFERENT remote contact is never rebound or updated
	// from this record.
	if local.ExternalContactID.Valid && local.ExternalContactID.String != rc.ID {
		run.RecordSkip(syncrun.ItemError{
			LocalID:    strconv.FormatInt(local.ID, 10),
			ExternalID: rc.ID,
			Reason:     syncrun.ReasonConflict,
			Message: fmt.Sprintf("customer %d already bound to CRM contact %s",
				local.ID, local.ExternalContactID.String),
		})
		return
	}

	if !local.ExternalContactID.Valid {
		if err := s.customers.SetExternalContactID(ctx, tenantID, local.ID, rc.ID); err != nil {
			run.RecordError(syncrun.ItemError{
				LocalID:    strconv.FormatInt(local.ID, 10),
				ExternalID: rc.ID,
				Reason:     syncrun.ReasonConflict,
				Message:    err.Error(),
			})
			return
		}
		local.ExternalContactID = sql.NullString{String: rc.ID, Valid: true}
	}

	local.Apply(fields)
	if err := s.customers.Update(ctx, local); err != nil {
		run.RecordError(syncrun.ItemError{
			LocalID:    strconv.FormatInt(local.ID, 10),
			ExternalID: rc.ID,
			Reason:     syncrun.ReasonStore,
			Message:    err.Error(),
		})
		return
	}
	run.Updated++
}
