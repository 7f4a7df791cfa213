// internal/service/crmsync/contacts_test.go
package crmsync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"fieldworks-service/internal/crm"
	"fieldworks-service/internal/domain/customer"
	"fieldworks-service/internal/domain/syncrun"
	"fieldworks-service/internal/domain/tenant"
	xerrors "fieldworks-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncContactsNeedsLocationID(t *testing.T) {
	env := newTestEnv(&tenant.Tenant{ID: 1, Name: "Unconnected"})

	_, err := env.svc.SyncContacts(context.Background(), 1)
	assert.ErrorIs(t, err, xerrors.ErrNotConfigured)
	assert.Empty(t, env.runs.created, "no run is opened before the precondition check")
}

func TestSyncContactsReconcilesBatch(t *testing.T) {
	env := newTestEnv(connectedTenant(1))

	// Three locals that remote contacts will match by email.
	for i := 1; i <= 3; i++ {
		env.customers.rows[int64(i)] = &customer.Customer{
			ID: int64(i), TenantID: 1,
			FullName: fmt.Sprintf("Existing %d", i),
			Email:    sql.NullString{String: fmt.Sprintf("existing%d@example.com", i), Valid: true},
		}
	}

	var remotes []crm.RemoteContact
	for i := 1; i <= 3; i++ {
		remotes = append(remotes, crm.RemoteContact{
			ID:        fmt.Sprintf("match-%d", i),
			FirstName: "Updated", LastName: fmt.Sprintf("Name%d", i),
			Email: fmt.Sprintf("existing%d@example.com", i),
		})
	}
	for i := 1; i <= 6; i++ {
		remotes = append(remotes, crm.RemoteContact{
			ID:        fmt.Sprintf("new-%d", i),
			FirstName: "Fresh", LastName: fmt.Sprintf("Lead%d", i),
			Email: fmt.Sprintf("lead%d@example.com", i),
		})
	}
	remotes = append(remotes, crm.RemoteContact{ID: "bad-1", Email: "not-an-email"})

	// Serve in two pages to exercise the cursor loop.
	env.gateway.listContacts = func(locationID string, page crm.Page) ([]crm.RemoteContact, string, error) {
		assert.Equal(t, "loc-1", locationID)
		if page.Cursor == "" {
			return remotes[:5], "p2", nil
		}
		assert.Equal(t, "p2", page.Cursor)
		return remotes[5:], "", nil
	}

	run, err := env.svc.SyncContacts(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, syncrun.StatusPartial, run.Status)
	assert.Equal(t, 10, run.Processed)
	assert.Equal(t, 6, run.Created)
	assert.Equal(t, 3, run.Updated)
	assert.Equal(t, 1, run.Failed)
	require.Len(t, run.Errors, 1)
	assert.Equal(t, syncrun.ReasonMapping, run.Errors[0].Reason)
	assert.Equal(t, "bad-1", run.Errors[0].ExternalID)

	// Matched locals got bound and updated.
	bound, err := env.customers.FindByExternalID(context.Background(), 1, "match-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), bound.ID)
	assert.Equal(t, "Updated Name1", bound.FullName)

	// New contacts were created pre-bound.
	created, err := env.customers.FindByExternalID(context.Background(), 1, "new-4")
	require.NoError(t, err)
	assert.Equal(t, "Fresh Lead4", created.FullName)

	// The run was finalized exactly once.
	require.Len(t, env.runs.finalized, 1)
	assert.Equal(t, run.ID, env.runs.finalized[0].ID)
}

func TestSyncContactsSkipsRowBoundToDifferentRemote(t *testing.T) {
	env := newTestEnv(connectedTenant(1))

	env.customers.rows[1] = &customer.Customer{
		ID: 1, TenantID: 1,
		FullName:          "Sticky Customer",
		Email:             sql.NullString{String: "sticky@example.com", Valid: true},
		ExternalContactID: sql.NullString{String: "remote-old", Valid: true},
	}

	env.gateway.listContacts = func(_ string, _ crm.Page) ([]crm.RemoteContact, string, error) {
		return []crm.RemoteContact{
			{ID: "remote-other", FirstName: "Imposter", Email: "sticky@example.com"},
		}, "", nil
	}

	run, err := env.svc.SyncContacts(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, run.Skipped)
	assert.Zero(t, run.Updated)
	require.Len(t, run.Errors, 1)
	assert.Equal(t, syncrun.ReasonConflict, run.Errors[0].Reason)

	// The local row is untouched.
	stored, _ := env.customers.FindByID(context.Background(), 1, 1)
	assert.Equal(t, "Sticky Customer", stored.FullName)
	assert.Equal(t, "remote-old", stored.ExternalContactID.String)
}

func TestSyncContactsFirstPageFailureFailsRun(t *testing.T) {
	env := newTestEnv(connectedTenant(1))

	env.gateway.listContacts = func(_ string, _ crm.Page) ([]crm.RemoteContact, string, error) {
		return nil, "", errors.New("boom")
	}

	run, err := env.svc.SyncContacts(context.Background(), 1)
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Equal(t, syncrun.StatusFailed, run.Status)
	require.Len(t, env.runs.finalized, 1)
}

func TestSyncContactsMidBatchPageFailureKeepsProgress(t *testing.T) {
	env := newTestEnv(connectedTenant(1))

	env.gateway.listContacts = func(_ string, page crm.Page) ([]crm.RemoteContact, string, error) {
		if page.Cursor == "" {
			return []crm.RemoteContact{
				{ID: "ok-1", FirstName: "First", LastName: "Page", Email: "ok1@example.com"},
			}, "p2", nil
		}
		return nil, "", errors.New("boom")
	}

	run, err := env.svc.SyncContacts(context.Background(), 1)
	require.NoError(t, err, "finished items stay durable on a mid-batch page failure")
	assert.Equal(t, syncrun.StatusPartial, run.Status)
	assert.Equal(t, 1, run.Created)
	assert.Equal(t, 1, run.Failed)
}

func TestSyncContactsCancellationFinalizesPartial(t *testing.T) {
	env := newTestEnv(connectedTenant(1))

	ctx, cancel := context.WithCancel(context.Background())
	env.gateway.listContacts = func(_ string, _ crm.Page) ([]crm.RemoteContact, string, error) {
		// Cancel after the page arrives; the loop must stop before the
		// next item and finalize what it has.
		cancel()
		return []crm.RemoteContact{
			{ID: "c-1", Email: "a@example.com"},
			{ID: "c-2", Email: "b@example.com"},
		}, "", nil
	}

	run, err := env.svc.SyncContacts(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, syncrun.StatusPartial, run.Status)
	assert.Zero(t, run.Created, "no item is processed after cancellation")
	require.Len(t, env.runs.finalized, 1, "the audit record survives cancellation")
}

func TestPushContactCreatesAndBinds(t *testing.T) {
	env := newTestEnv(connectedTenant(1))
	env.customers.rows[7] = &customer.Customer{
		ID: 7, TenantID: 1, FullName: "Dana Reyes",
		Email: sql.NullString{String: "dana@example.com", Valid: true},
	}

	var gotKey string
	env.gateway.upsertContact = func(locationID string, p crm.ContactPayload, idemKey string) (*crm.RemoteContact, error) {
		assert.Equal(t, "loc-1", locationID)
		assert.Equal(t, "dana@example.com", p.Email)
		gotKey = idemKey
		return &crm.RemoteContact{ID: "remote-new"}, nil
	}

	externalID, err := env.svc.PushContact(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, "remote-new", externalID)
	assert.Equal(t, crm.IdempotencyKey(1, "contact", 7), gotKey)

	stored, _ := env.customers.FindByID(context.Background(), 1, 7)
	assert.Equal(t, "remote-new", stored.ExternalContactID.String)

	require.Len(t, env.runs.finalized, 1)
	assert.Equal(t, syncrun.StatusSucceeded, env.runs.finalized[0].Status)
	assert.Equal(t, 1, env.runs.finalized[0].Created)
}

func TestPushContactAlreadyLinkedShortCircuits(t *testing.T) {
	env := newTestEnv(connectedTenant(1))
	env.customers.rows[7] = &customer.Customer{
		ID: 7, TenantID: 1,
		Email:             sql.NullString{String: "dana@example.com", Valid: true},
		ExternalContactID: sql.NullString{String: "remote-7", Valid: true},
	}

	externalID, err := env.svc.PushContact(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, "remote-7", externalID)
	assert.Zero(t, env.gateway.findCalls, "a stored id never goes back to the CRM")
	assert.Empty(t, env.runs.created)
}

func TestPushContactReusesSingleRemoteCandidate(t *testing.T) {
	env := newTestEnv(connectedTenant(1))
	env.customers.rows[7] = &customer.Customer{
		ID: 7, TenantID: 1,
		Email: sql.NullString{String: "dana@example.com", Valid: true},
	}

	env.gateway.findContacts = func(_ string, q crm.ContactQuery) ([]crm.RemoteContact, error) {
		assert.Equal(t, "dana@example.com", q.Email)
		return []crm.RemoteContact{{ID: "remote-existing", Email: "dana@example.com"}}, nil
	}
	env.gateway.upsertContact = func(_ string, _ crm.ContactPayload, _ string) (*crm.RemoteContact, error) {
		t.Fatal("an existing remote contact must be reused, not recreated")
		return nil, nil
	}

	externalID, err := env.svc.PushContact(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, "remote-existing", externalID)

	stored, _ := env.customers.FindByID(context.Background(), 1, 7)
	assert.Equal(t, "remote-existing", stored.ExternalContactID.String)

	require.Len(t, env.runs.finalized, 1)
	assert.Equal(t, 1, env.runs.finalized[0].Updated)
}

func TestPushContactAmbiguousMatchRefuses(t *testing.T) {
	env := newTestEnv(connectedTenant(1))
	env.customers.rows[7] = &customer.Customer{
		ID: 7, TenantID: 1,
		Email: sql.NullString{String: "shared@example.com", Valid: true},
	}

	env.gateway.findContacts = func(_ string, _ crm.ContactQuery) ([]crm.RemoteContact, error) {
		return []crm.RemoteContact{
			{ID: "twin-a", Email: "shared@example.com"},
			{ID: "twin-b", Email: "shared@example.com"},
		}, nil
	}

	_, err := env.svc.PushContact(context.Background(), 1, 7)
	require.ErrorIs(t, err, xerrors.ErrAmbiguousMatch)

	stored, _ := env.customers.FindByID(context.Background(), 1, 7)
	assert.False(t, stored.ExternalContactID.Valid, "never binds to either candidate")

	require.Len(t, env.runs.finalized, 1)
	run := env.runs.finalized[0]
	assert.Equal(t, syncrun.StatusFailed, run.Status)
	require.Len(t, run.Errors, 1)
	assert.Equal(t, syncrun.ReasonAmbiguous, run.Errors[0].Reason)
}

func TestPushContactNeedsReachableKey(t *testing.T) {
	env := newTestEnv(connectedTenant(1))
	env.customers.rows[7] = &customer.Customer{ID: 7, TenantID: 1, FullName: "No Contact Info"}

	_, err := env.svc.PushContact(context.Background(), 1, 7)
	require.Error(t, err)
	assert.True(t, xerrors.IsMapping(err))
	assert.Empty(t, env.runs.created, "mapping is checked before a run is opened")
}
